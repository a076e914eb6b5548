package service

import (
	"context"
	"sync"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/pkg/telegram"
)

type fakeInsightRepo struct {
	rows       []entity.VehicleMetric
	err        error
	summary    *entity.FleetSummary
	version    string
	versionErr error
	calls      int
}

func (f *fakeInsightRepo) TopVehiclesByDistance(ctx context.Context, limit int) ([]entity.VehicleMetric, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.VehicleMetric, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeInsightRepo) FleetSummary(ctx context.Context) (*entity.FleetSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.summary, nil
}

func (f *fakeInsightRepo) Version(ctx context.Context) (string, error) {
	return f.version, f.versionErr
}

type fakeAuditRepo struct {
	mu       sync.Mutex
	appended [][]entity.AuditLogRow
	err      error
}

func (f *fakeAuditRepo) EnsureTable(ctx context.Context) error { return f.err }

func (f *fakeAuditRepo) Append(ctx context.Context, rows []entity.AuditLogRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, rows)
	return nil
}

type fakeBot struct {
	resp        *telegram.SendResponse
	err         error
	getMeStatus int
	getMeErr    error

	sent []string
}

func (f *fakeBot) SendMessage(ctx context.Context, chatID, text, parseMode string) (*telegram.SendResponse, error) {
	f.sent = append(f.sent, text)
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func (f *fakeBot) GetMe(ctx context.Context) (int, error) {
	return f.getMeStatus, f.getMeErr
}

type fakeLocker struct {
	busy     bool
	err      error
	unlocked int
}

func (f *fakeLocker) TryLock(ctx context.Context) (bool, func(), error) {
	if f.err != nil {
		return false, nil, f.err
	}
	if f.busy {
		return false, nil, nil
	}
	return true, func() { f.unlocked++ }, nil
}

func scenarioRows() []entity.VehicleMetric {
	return []entity.VehicleMetric{
		{VehicleID: "V1", AvgSpeed: 50.0, TotalDistance: 120.5, AvgIdleTime: 300.0},
		{VehicleID: "V2", AvgSpeed: 45.0, TotalDistance: 98.0, AvgIdleTime: 150.0},
		{VehicleID: "V3", AvgSpeed: 60.0, TotalDistance: 200.0, AvgIdleTime: 400.0},
	}
}

func okResponse(messageID int64) *telegram.SendResponse {
	return &telegram.SendResponse{StatusCode: 200, OK: true, MessageID: messageID}
}
