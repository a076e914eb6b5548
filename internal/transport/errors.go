package transport

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ds124wfegd/fleet-insight/internal/entity"

	"github.com/gin-gonic/gin"
)

func statusCode(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrRunInProgress):
		return http.StatusConflict
	case errors.Is(err, entity.ErrConnection):
		return http.StatusServiceUnavailable
	case errors.Is(err, entity.ErrDelivery):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorResponse writes the common {status, message} envelope and records err for the logger.
func errorResponse(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(statusCode(err), gin.H{
		"status":  "error",
		"message": err.Error(),
	})
}

// recoverWithEnvelope answers a handler panic with the same error envelope.
func recoverWithEnvelope(c *gin.Context, recovered interface{}) {
	errorResponse(c, fmt.Errorf("internal server error: %v", recovered))
	c.Abort()
}
