package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ds124wfegd/fleet-insight/internal/entity"
	"github.com/ds124wfegd/fleet-insight/pkg/scheduler"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockInsightService struct {
	rows      []entity.VehicleMetric
	summary   *entity.FleetSummary
	err       error
	lastLimit int
}

func (m *mockInsightService) TopVehicles(ctx context.Context, limit int) ([]entity.VehicleMetric, error) {
	m.lastLimit = limit
	if m.err != nil {
		return nil, m.err
	}
	if limit < len(m.rows) {
		return m.rows[:limit], nil
	}
	return m.rows, nil
}

func (m *mockInsightService) FleetSummary(ctx context.Context) (*entity.FleetSummary, error) {
	return m.summary, m.err
}

type mockNotifyService struct {
	report    *entity.NotifyReport
	result    *entity.NotificationResult
	err       error
	triggers  []entity.Trigger
	testCalls int
}

func (m *mockNotifyService) AutoNotify(ctx context.Context, trigger entity.Trigger) (*entity.NotifyReport, error) {
	m.triggers = append(m.triggers, trigger)
	return m.report, m.err
}

func (m *mockNotifyService) SendTestMessage(ctx context.Context) (*entity.NotificationResult, error) {
	m.testCalls++
	return m.result, m.err
}

type mockHealthService struct {
	report entity.HealthReport
}

func (m *mockHealthService) Check(ctx context.Context) entity.HealthReport {
	return m.report
}

type mockWorkerStats struct {
	stats map[string]interface{}
}

func (m *mockWorkerStats) GetStats() map[string]interface{} {
	return m.stats
}

type testServer struct {
	insights *mockInsightService
	notify   *mockNotifyService
	health   *mockHealthService
	state    *scheduler.State
	worker   *mockWorkerStats
	router   *gin.Engine
}

func newTestServer() *testServer {
	ts := &testServer{
		insights: &mockInsightService{},
		notify:   &mockNotifyService{},
		health:   &mockHealthService{},
		state:    scheduler.NewState(60*time.Minute, true),
		worker:   &mockWorkerStats{stats: map[string]interface{}{"worker_type": "insight_notify", "delivered": int64(0)}},
	}
	ts.router = InitRoutes(
		NewInsightHandler(ts.insights, 5, 100),
		NewNotifyHandler(ts.notify),
		NewSystemHandler(ts.health, ts.state, ts.worker, "FleetInsight", "2.0.0", "http://localhost:10000"),
		time.Second,
	)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string) (int, map[string]interface{}) {
	t.Helper()

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(method, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func sampleRows() []entity.VehicleMetric {
	return []entity.VehicleMetric{
		{VehicleID: "V3", AvgSpeed: 60, TotalDistance: 200, AvgIdleTime: 400},
		{VehicleID: "V1", AvgSpeed: 50, TotalDistance: 120.5, AvgIdleTime: 300},
		{VehicleID: "V2", AvgSpeed: 45, TotalDistance: 98, AvgIdleTime: 150},
	}
}

func TestRoot(t *testing.T) {
	ts := newTestServer()

	code, body := ts.do(t, http.MethodGet, "/")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "2.0.0", body["version"])
	assert.Equal(t, "http://localhost:10000", body["base_url"])
}

func TestPullInsight(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		err       error
		wantCode  int
		wantLimit int
		wantCount float64
	}{
		{name: "default limit", path: "/pull-insight", wantCode: http.StatusOK, wantLimit: 5, wantCount: 3},
		{name: "limit override", path: "/pull-insight?limit=2", wantCode: http.StatusOK, wantLimit: 2, wantCount: 2},
		{name: "zero limit", path: "/pull-insight?limit=0", wantCode: http.StatusOK, wantLimit: 0, wantCount: 0},
		{name: "not a number", path: "/pull-insight?limit=abc", wantCode: http.StatusBadRequest},
		{name: "negative", path: "/pull-insight?limit=-1", wantCode: http.StatusBadRequest},
		{name: "above max", path: "/pull-insight?limit=101", wantCode: http.StatusBadRequest},
		{
			name:     "warehouse unavailable",
			path:     "/pull-insight",
			err:      fmt.Errorf("failed to get top vehicles: %w", entity.ErrConnection),
			wantCode: http.StatusServiceUnavailable,
		},
		{
			name:     "query failed",
			path:     "/pull-insight",
			err:      fmt.Errorf("failed to get top vehicles: %w", entity.ErrQuery),
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.insights.rows = sampleRows()
			ts.insights.err = tt.err

			code, body := ts.do(t, http.MethodGet, tt.path)
			require.Equal(t, tt.wantCode, code)

			if code != http.StatusOK {
				assert.Equal(t, "error", body["status"])
				assert.NotEmpty(t, body["message"])
				return
			}
			assert.Equal(t, "success", body["status"])
			assert.Equal(t, tt.wantLimit, ts.insights.lastLimit)
			assert.Equal(t, tt.wantCount, body["count"])
			assert.Len(t, body["data"], int(tt.wantCount))
		})
	}
}

func TestPullInsightRowShape(t *testing.T) {
	ts := newTestServer()
	ts.insights.rows = sampleRows()

	_, body := ts.do(t, http.MethodGet, "/pull-insight?limit=1")

	data := body["data"].([]interface{})
	require.Len(t, data, 1)
	row := data[0].(map[string]interface{})
	assert.Equal(t, "V3", row["vehicle_id"])
	assert.Equal(t, 60.0, row["avg_speed"])
	assert.Equal(t, 200.0, row["total_distance"])
	assert.Equal(t, 400.0, row["avg_idle_time"])
}

func TestMetrics(t *testing.T) {
	ts := newTestServer()
	ts.insights.summary = &entity.FleetSummary{
		TotalVehicles: 3,
		AvgSpeed:      51.67,
		TotalDistance: 418.5,
		AvgIdleTime:   283.33,
		GeneratedAt:   time.Now(),
	}

	code, body := ts.do(t, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, 3.0, body["total_vehicle"])
	assert.Equal(t, 418.5, body["total_distance"])
}

func TestMetricsError(t *testing.T) {
	ts := newTestServer()
	ts.insights.err = entity.ErrConnection

	code, body := ts.do(t, http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, entity.ErrConnection.Error(), body["message"])
}

func TestAutoNotify(t *testing.T) {
	ts := newTestServer()
	ts.notify.report = &entity.NotifyReport{
		ExecutionID: "exec-1",
		Rows:        sampleRows(),
		Delivery:    entity.NotificationResult{Status: entity.DeliveryStatusSent, HTTPStatus: 200, MessageID: "77"},
		Logged:      true,
	}

	code, body := ts.do(t, http.MethodPost, "/auto-notify")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "Insight sent (sent)", body["message"])
	assert.Equal(t, "exec-1", body["execution_id"])
	assert.Equal(t, true, body["delivered"])
	assert.Equal(t, true, body["logged"])
	assert.Equal(t, "77", body["delivery"].(map[string]interface{})["message_id"])
	assert.Equal(t, []entity.Trigger{entity.TriggerManual}, ts.notify.triggers)
}

func TestAutoNotifyNotDelivered(t *testing.T) {
	ts := newTestServer()
	ts.notify.report = &entity.NotifyReport{
		ExecutionID: "exec-2",
		Rows:        sampleRows(),
		Delivery:    entity.NotificationResult{Status: entity.DeliveryStatusFailedHTTP, HTTPStatus: 401, MessageID: "N/A"},
		Logged:      true,
	}

	code, body := ts.do(t, http.MethodPost, "/auto-notify")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, false, body["delivered"])
	assert.Equal(t, "Insight not delivered (failed-http 401)", body["message"])
}

func TestAutoNotifyNoData(t *testing.T) {
	ts := newTestServer()
	ts.notify.err = entity.ErrNoData

	code, body := ts.do(t, http.MethodPost, "/auto-notify")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]interface{}{"status": "warning", "message": "No data found"}, body)
}

func TestAutoNotifyErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{name: "run in progress", err: entity.ErrRunInProgress, wantCode: http.StatusConflict},
		{name: "connection", err: fmt.Errorf("failed to get top vehicles: %w", entity.ErrConnection), wantCode: http.StatusServiceUnavailable},
		{name: "query", err: entity.ErrQuery, wantCode: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.notify.err = tt.err

			code, body := ts.do(t, http.MethodPost, "/auto-notify")

			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, tt.err.Error(), body["message"])
		})
	}
}

func TestAutoNotifyRejectsGet(t *testing.T) {
	ts := newTestServer()

	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auto-notify", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, ts.notify.triggers)
}

func TestSendInsight(t *testing.T) {
	ts := newTestServer()
	ts.notify.result = &entity.NotificationResult{
		Status:           entity.DeliveryStatusSent,
		HTTPStatus:       200,
		MessageID:        "5",
		ProviderResponse: json.RawMessage(`{"ok":true,"result":{"message_id":5}}`),
	}

	code, body := ts.do(t, http.MethodPost, "/send-insight")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, true, body["delivered"])
	delivery := body["delivery"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"ok": true, "result": map[string]interface{}{"message_id": 5.0}}, delivery["provider_response"])
	assert.Equal(t, 1, ts.notify.testCalls)
}

func TestSendInsightTransportFailure(t *testing.T) {
	ts := newTestServer()
	ts.notify.result = &entity.NotificationResult{Status: entity.DeliveryStatusFailedException}
	ts.notify.err = fmt.Errorf("%w: connection reset", entity.ErrDelivery)

	code, body := ts.do(t, http.MethodPost, "/send-insight")

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "error", body["status"])
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		report     entity.HealthReport
		wantStatus string
	}{
		{
			name: "healthy",
			report: entity.HealthReport{
				Warehouse:   "✅ Connected (v8.40.1)",
				Telegram:    "✅ Connected",
				WarehouseOK: true,
				TelegramOK:  true,
				CheckedAt:   time.Now(),
			},
			wantStatus: "ok",
		},
		{
			name: "telegram down",
			report: entity.HealthReport{
				Warehouse:   "✅ Connected (v8.40.1)",
				Telegram:    "❌ 401",
				WarehouseOK: true,
				CheckedAt:   time.Now(),
			},
			wantStatus: "degraded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer()
			ts.health.report = tt.report

			code, body := ts.do(t, http.MethodGet, "/health")

			assert.Equal(t, http.StatusOK, code)
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, tt.report.Warehouse, body["warehouse"])
			assert.Equal(t, tt.report.Telegram, body["telegram"])
		})
	}
}

func TestSchedulerStatus(t *testing.T) {
	ts := newTestServer()

	code, body := ts.do(t, http.MethodGet, "/scheduler-status")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "stopped", body["status"])
	assert.Nil(t, body["last_run"])
	assert.Equal(t, 60.0, body["interval_minutes"])
	assert.Equal(t, false, body["in_flight"])
}

func TestSchedulerStatusAfterRun(t *testing.T) {
	ts := newTestServer()
	s := scheduler.NewScheduler(func(ctx context.Context) error { return nil }, time.Hour, time.Minute, ts.state)
	require.True(t, s.Trigger(context.Background()))

	_, body := ts.do(t, http.MethodGet, "/scheduler-status")

	assert.NotNil(t, body["last_run"])
	assert.Equal(t, 1.0, body["runs"])
}

func TestSchedulerStatusDisabled(t *testing.T) {
	ts := newTestServer()
	ts.router = InitRoutes(
		NewInsightHandler(ts.insights, 5, 100),
		NewNotifyHandler(ts.notify),
		NewSystemHandler(ts.health, scheduler.NewState(time.Hour, false), nil, "FleetInsight", "2.0.0", ""),
		time.Second,
	)

	_, body := ts.do(t, http.MethodGet, "/scheduler-status")

	assert.Equal(t, "disabled", body["status"])
	assert.Nil(t, body["worker"])
}

func TestSchedulerStatusIncludesWorkerStats(t *testing.T) {
	ts := newTestServer()
	ts.worker.stats = map[string]interface{}{
		"worker_type":       "insight_notify",
		"last_execution_id": "exec-9",
		"delivered":         int64(4),
		"no_data":           int64(1),
	}

	_, body := ts.do(t, http.MethodGet, "/scheduler-status")

	worker, ok := body["worker"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "exec-9", worker["last_execution_id"])
	assert.Equal(t, 4.0, worker["delivered"])
	assert.Equal(t, 1.0, worker["no_data"])
}

func TestPanicUsesErrorEnvelope(t *testing.T) {
	ts := newTestServer()
	ts.router.GET("/boom", func(c *gin.Context) {
		panic("nil map write")
	})

	code, body := ts.do(t, http.MethodGet, "/boom")

	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "internal server error: nil map write", body["message"])
}
