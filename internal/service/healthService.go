package service

import (
	"context"
	"fmt"
	"net/http"
	"time"

	repository "github.com/ds124wfegd/fleet-insight/internal/database/warehouse"
	"github.com/ds124wfegd/fleet-insight/internal/entity"
)

const telegramHealthTimeout = 5 * time.Second

type healthService struct {
	repo repository.InsightRepository
	bot  MessageClient
}

func NewHealthService(repo repository.InsightRepository, bot MessageClient) HealthService {
	return &healthService{repo: repo, bot: bot}
}

// Check probes each dependency independently; one failing does not hide the other.
func (s *healthService) Check(ctx context.Context) entity.HealthReport {
	report := entity.HealthReport{CheckedAt: time.Now()}

	if version, err := s.repo.Version(ctx); err != nil {
		report.Warehouse = fmt.Sprintf("❌ %v", err)
	} else {
		report.Warehouse = fmt.Sprintf("✅ Connected (v%s)", version)
		report.WarehouseOK = true
	}

	if s.bot == nil {
		report.Telegram = "❌ bot token is not configured"
		return report
	}

	tgCtx, cancel := context.WithTimeout(ctx, telegramHealthTimeout)
	defer cancel()

	status, err := s.bot.GetMe(tgCtx)
	switch {
	case err != nil:
		report.Telegram = fmt.Sprintf("❌ %v", err)
	case status == http.StatusOK:
		report.Telegram = "✅ Connected"
		report.TelegramOK = true
	default:
		report.Telegram = fmt.Sprintf("❌ %d", status)
	}

	return report
}
