package service

import (
	"context"
	"fmt"
	"time"

	repository "github.com/ds124wfegd/fleet-insight/internal/database/warehouse"
	"github.com/ds124wfegd/fleet-insight/internal/entity"

	"github.com/sirupsen/logrus"
)

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditLogger {
	return &auditService{repo: repo}
}

// Record writes one row per metric row, all sharing executionID and the
// delivery outcome. Failures are logged and reported as false.
func (s *auditService) Record(ctx context.Context, rows []entity.VehicleMetric, result entity.NotificationResult, executionID string) bool {
	if len(rows) == 0 {
		return true
	}

	runAt := time.Now().UTC()
	logs := make([]entity.AuditLogRow, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, entity.AuditLogRow{
			RunAt:          runAt,
			VehicleID:      row.VehicleID,
			AvgSpeed:       row.AvgSpeed,
			TotalDistance:  row.TotalDistance,
			AvgIdleTime:    row.AvgIdleTime,
			DeliveryStatus: string(result.Status),
			MessageID:      result.MessageID,
			ExecutionID:    executionID,
		})
	}

	if err := s.repo.Append(ctx, logs); err != nil {
		logrus.WithError(fmt.Errorf("%w: %v", entity.ErrLogging, err)).
			WithFields(logrus.Fields{
				"execution_id": executionID,
				"rows":         len(logs),
			}).Error("Failed to log insights")
		return false
	}

	logrus.WithFields(logrus.Fields{
		"execution_id": executionID,
		"rows":         len(logs),
	}).Info("Insights logged")
	return true
}
