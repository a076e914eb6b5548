package service

import (
	"context"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/pkg/telegram"
)

// InsightService defines the read side over the warehouse telemetry
type InsightService interface {
	TopVehicles(ctx context.Context, limit int) ([]entity.VehicleMetric, error)
	FleetSummary(ctx context.Context) (*entity.FleetSummary, error)
}

// NotificationSender delivers one message and classifies the outcome; it never fails.
type NotificationSender interface {
	Send(ctx context.Context, message string) entity.NotificationResult
}

// AuditLogger appends delivery outcomes; a false return means nothing was written.
type AuditLogger interface {
	Record(ctx context.Context, rows []entity.VehicleMetric, result entity.NotificationResult, executionID string) bool
}

// NotifyService runs the aggregate, format, send and log pipeline
type NotifyService interface {
	AutoNotify(ctx context.Context, trigger entity.Trigger) (*entity.NotifyReport, error)
	SendTestMessage(ctx context.Context) (*entity.NotificationResult, error)
}

type HealthService interface {
	Check(ctx context.Context) entity.HealthReport
}

// MessageClient is the part of the Telegram bot the services use.
type MessageClient interface {
	SendMessage(ctx context.Context, chatID, text, parseMode string) (*telegram.SendResponse, error)
	GetMe(ctx context.Context) (int, error)
}

// RunLocker guards the notify pipeline against concurrent runs.
type RunLocker interface {
	TryLock(ctx context.Context) (acquired bool, unlock func(), err error)
}
