package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/internal/service"

	"github.com/gin-gonic/gin"
)

type NotifyHandler struct {
	notifyService service.NotifyService
}

func NewNotifyHandler(notifyService service.NotifyService) *NotifyHandler {
	return &NotifyHandler{notifyService: notifyService}
}

// AutoNotify runs the pipeline once. "success" means it executed; whether the
// chat received the message is reported by delivered.
func (h *NotifyHandler) AutoNotify(c *gin.Context) {
	report, err := h.notifyService.AutoNotify(c.Request.Context(), entity.TriggerManual)
	if errors.Is(err, entity.ErrNoData) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "warning",
			"message": "No data found",
		})
		return
	}
	if err != nil {
		errorResponse(c, err)
		return
	}

	message := "Insight sent (" + report.Delivery.Summary() + ")"
	if !report.Delivery.Delivered() {
		message = "Insight not delivered (" + report.Delivery.Summary() + ")"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "success",
		"message":      message,
		"execution_id": report.ExecutionID,
		"delivered":    report.Delivery.Delivered(),
		"delivery":     report.Delivery,
		"logged":       report.Logged,
		"count":        len(report.Rows),
	})
}

// SendInsight sends the fixed test message without touching the warehouse.
func (h *NotifyHandler) SendInsight(c *gin.Context) {
	result, err := h.notifyService.SendTestMessage(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	message := "Test message sent"
	if !result.Delivered() {
		message = "Test message not delivered (" + result.Summary() + ")"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"message":   message,
		"delivered": result.Delivered(),
		"delivery":  result,
	})
}
