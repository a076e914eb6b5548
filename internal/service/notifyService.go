package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type notifyService struct {
	insights  InsightService
	formatter *ReportFormatter
	sender    NotificationSender
	audit     AuditLogger
	locker    RunLocker
	limit     int
}

// NewNotifyService wires the pipeline. locker may be nil, in which case
// concurrent runs are not prevented.
func NewNotifyService(
	insights InsightService,
	formatter *ReportFormatter,
	sender NotificationSender,
	audit AuditLogger,
	locker RunLocker,
	limit int,
) NotifyService {
	return &notifyService{
		insights:  insights,
		formatter: formatter,
		sender:    sender,
		audit:     audit,
		locker:    locker,
		limit:     limit,
	}
}

func (s *notifyService) AutoNotify(ctx context.Context, trigger entity.Trigger) (*entity.NotifyReport, error) {
	if s.locker != nil {
		acquired, unlock, err := s.locker.TryLock(ctx)
		switch {
		case err != nil:
			// a broken lock backend must not stop the report
			logrus.WithError(err).Warn("Run lock unavailable, continuing without it")
		case !acquired:
			return nil, entity.ErrRunInProgress
		default:
			defer unlock()
		}
	}

	report := &entity.NotifyReport{
		ExecutionID: uuid.NewString(),
		Trigger:     trigger,
		StartedAt:   time.Now(),
	}
	log := logrus.WithFields(logrus.Fields{
		"execution_id": report.ExecutionID,
		"trigger":      trigger,
	})
	log.Info("Running auto-notify")

	rows, err := s.insights.TopVehicles(ctx, s.limit)
	if err != nil {
		log.WithError(err).Error("Auto-notify aborted")
		return nil, err
	}
	if len(rows) == 0 {
		log.Warn("Auto-notify found no data")
		return nil, entity.ErrNoData
	}
	message, included := s.formatter.Render(rows, report.StartedAt)
	if included < len(rows) {
		log.WithFields(logrus.Fields{
			"rows":     len(rows),
			"included": included,
		}).Warn("Report truncated to the Telegram message limit")
		rows = rows[:included]
	}
	report.Rows = rows
	report.Message = message

	report.Delivery = s.sender.Send(ctx, report.Message)

	// the message is already out; the audit write must outlive a cancelled request
	report.Logged = s.audit.Record(context.WithoutCancel(ctx), rows, report.Delivery, report.ExecutionID)
	report.FinishedAt = time.Now()

	log.WithFields(logrus.Fields{
		"delivery_status": report.Delivery.Status,
		"message_id":      report.Delivery.MessageID,
		"logged":          report.Logged,
		"rows":            len(rows),
	}).Info("Auto-notify finished")

	return report, nil
}

func (s *notifyService) SendTestMessage(ctx context.Context) (*entity.NotificationResult, error) {
	result := s.sender.Send(ctx, s.formatter.FormatTestMessage(time.Now()))
	if result.Status == entity.DeliveryStatusFailedException {
		return &result, fmt.Errorf("%w: %s", entity.ErrDelivery, result.Error)
	}

	return &result, nil
}
