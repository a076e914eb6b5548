package transport

import (
	"net/http"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/service"
	"github.com/ds124wfegd/fleet-insight/pkg/scheduler"

	"github.com/gin-gonic/gin"
)

// WorkerStats exposes the counters of the scheduled notify worker.
type WorkerStats interface {
	GetStats() map[string]interface{}
}

type SystemHandler struct {
	healthService  service.HealthService
	schedulerState *scheduler.State
	workerStats    WorkerStats
	appName        string
	version        string
	baseURL        string
}

// NewSystemHandler accepts a nil workerStats when the scheduler is disabled.
func NewSystemHandler(healthService service.HealthService, schedulerState *scheduler.State, workerStats WorkerStats, appName, version, baseURL string) *SystemHandler {
	return &SystemHandler{
		healthService:  healthService,
		schedulerState: schedulerState,
		workerStats:    workerStats,
		appName:        appName,
		version:        version,
		baseURL:        baseURL,
	}
}

func (h *SystemHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"message":   h.appName + " service is running",
		"version":   h.version,
		"base_url":  h.baseURL,
		"timestamp": time.Now().UTC(),
	})
}

// Health always answers 200; a failing dependency only marks the report degraded.
func (h *SystemHandler) Health(c *gin.Context) {
	report := h.healthService.Check(c.Request.Context())

	status := "ok"
	if !report.Healthy() {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": report.CheckedAt.UTC(),
		"warehouse": report.Warehouse,
		"telegram":  report.Telegram,
	})
}

func (h *SystemHandler) SchedulerStatus(c *gin.Context) {
	snap := h.schedulerState.Snapshot()

	var lastRun interface{}
	if snap.LastRun != nil {
		lastRun = snap.LastRun.UTC()
	}

	var worker map[string]interface{}
	if h.workerStats != nil {
		worker = h.workerStats.GetStats()
	}

	c.JSON(http.StatusOK, gin.H{
		"status":           snap.Status(),
		"last_run":         lastRun,
		"interval_minutes": int(snap.Interval / time.Minute),
		"in_flight":        snap.InFlight,
		"runs":             snap.Runs,
		"skipped":          snap.Skipped,
		"failed":           snap.Failed,
		"last_error":       snap.LastError,
		"worker":           worker,
		"timestamp":        time.Now().UTC(),
	})
}
