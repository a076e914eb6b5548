package transport

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/internal/service"

	"github.com/gin-gonic/gin"
)

type InsightHandler struct {
	insightService service.InsightService
	pullLimit      int
	maxLimit       int
}

func NewInsightHandler(insightService service.InsightService, pullLimit, maxLimit int) *InsightHandler {
	return &InsightHandler{
		insightService: insightService,
		pullLimit:      pullLimit,
		maxLimit:       maxLimit,
	}
}

// PullInsight returns the top vehicles by distance; ?limit= overrides the default up to maxLimit.
func (h *InsightHandler) PullInsight(c *gin.Context) {
	limit := h.pullLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > h.maxLimit {
			errorResponse(c, fmt.Errorf("%w: limit must be an integer between 0 and %d", entity.ErrInvalidInput, h.maxLimit))
			return
		}
		limit = n
	}

	rows, err := h.insightService.TopVehicles(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "success",
		"timestamp": time.Now().UTC(),
		"count":     len(rows),
		"data":      rows,
	})
}

func (h *InsightHandler) Metrics(c *gin.Context) {
	summary, err := h.insightService.FleetSummary(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "success",
		"timestamp":      summary.GeneratedAt.UTC(),
		"total_vehicle":  summary.TotalVehicles,
		"avg_speed":      summary.AvgSpeed,
		"total_distance": summary.TotalDistance,
		"avg_idle_time":  summary.AvgIdleTime,
	})
}
