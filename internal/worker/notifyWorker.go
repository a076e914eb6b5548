package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/internal/service"

	"github.com/sirupsen/logrus"
)

// NotifyWorker runs the notify pipeline on behalf of the scheduler.
type NotifyWorker struct {
	notifyService service.NotifyService

	mu            sync.Mutex
	lastExecution string
	lastStatus    string
	delivered     int64
	undelivered   int64
	noData        int64
}

func NewNotifyWorker(notifyService service.NotifyService) *NotifyWorker {
	return &NotifyWorker{notifyService: notifyService}
}

// Run has the scheduler.Job signature. It returns nil only when the report was
// delivered, so an empty table or a rejected message does not count as a
// successful run.
func (w *NotifyWorker) Run(ctx context.Context) error {
	logrus.Info("Starting scheduled insight notification")

	report, err := w.notifyService.AutoNotify(ctx, entity.TriggerScheduler)
	switch {
	case errors.Is(err, entity.ErrNoData):
		w.record("", "no-data", func() { w.noData++ })
		logrus.Warn("Scheduled notification skipped: no data found")
		return err
	case errors.Is(err, entity.ErrRunInProgress):
		logrus.Warn("Scheduled notification skipped: another run holds the lock")
		return err
	case err != nil:
		w.record("", "error", nil)
		return err
	}

	if !report.Delivery.Delivered() {
		w.record(report.ExecutionID, report.Delivery.Summary(), func() { w.undelivered++ })
		return fmt.Errorf("%w: %s", entity.ErrDelivery, report.Delivery.Summary())
	}

	w.record(report.ExecutionID, report.Delivery.Summary(), func() { w.delivered++ })
	logrus.WithFields(logrus.Fields{
		"execution_id": report.ExecutionID,
		"message_id":   report.Delivery.MessageID,
		"duration":     report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("Scheduled insight notification delivered")

	return nil
}

func (w *NotifyWorker) record(executionID, status string, count func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.lastExecution = executionID
	w.lastStatus = status
	if count != nil {
		count()
	}
}

// GetStats returns counters of the scheduled runs handled so far
func (w *NotifyWorker) GetStats() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()

	return map[string]interface{}{
		"worker_type":        "insight_notify",
		"last_execution_id":  w.lastExecution,
		"last_status":        w.lastStatus,
		"delivered":          w.delivered,
		"undelivered":        w.undelivered,
		"no_data":            w.noData,
		"stats_generated_at": time.Now().UTC(),
	}
}
