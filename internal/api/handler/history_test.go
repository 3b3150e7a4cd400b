package handler

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/somiljain2006/EverWake/internal/domain"
)

type MockHistory struct {
	mock.Mock
}

func (m *MockHistory) ListRuns(ctx context.Context, limit, offset int) ([]domain.RunRecord, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RunRecord), args.Error(1)
}

func (m *MockHistory) GetRun(ctx context.Context, id uuid.UUID) (*domain.RunRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunRecord), args.Error(1)
}

func (m *MockHistory) ListAlerts(ctx context.Context, runID uuid.UUID) ([]domain.AlertRecord, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AlertRecord), args.Error(1)
}

func (m *MockHistory) Summary(ctx context.Context, since time.Time) (*domain.HistorySummary, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HistorySummary), args.Error(1)
}

func historyRoutes(h *HistoryHandler) *testAppWrapper {
	app := newTestApp()
	app.Get("/v1/history/summary", h.Summary)
	app.Get("/v1/history/runs", h.ListRuns)
	app.Get("/v1/history/runs/:id", h.GetRun)
	app.Get("/v1/history/runs/:id/alerts", h.ListAlerts)
	return &testAppWrapper{app: app}
}

func TestHistoryHandler_Disabled(t *testing.T) {
	app := historyRoutes(NewHistoryHandler(nil))

	for _, path := range []string{
		"/v1/history/runs",
		"/v1/history/runs/" + uuid.NewString(),
		"/v1/history/runs/" + uuid.NewString() + "/alerts",
		"/v1/history/summary",
	} {
		resp := app.get(t, path)
		assert.Equal(t, 501, resp.StatusCode, path)
		assert.Equal(t, "HISTORY_DISABLED", decodeError(t, resp))
	}
}

func TestHistoryHandler_ListRuns(t *testing.T) {
	started := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	runs := []domain.RunRecord{
		{ID: uuid.New(), TripID: uuid.New(), StartedAt: started, DurationMs: 10000, Alerts: 2},
	}

	t.Run("defaults", func(t *testing.T) {
		svc := new(MockHistory)
		svc.On("ListRuns", mock.Anything, 20, 0).Return(runs, nil)

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/runs")
		assert.Equal(t, 200, resp.StatusCode)

		var body ListRunsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		require.Len(t, body.Runs, 1)
		assert.Equal(t, int64(10000), body.Runs[0].DurationMs)
		assert.Equal(t, 20, body.Limit)
	})

	t.Run("paging", func(t *testing.T) {
		svc := new(MockHistory)
		svc.On("ListRuns", mock.Anything, 5, 10).Return(nil, nil)

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/runs?limit=5&offset=10")
		assert.Equal(t, 200, resp.StatusCode)

		var body ListRunsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.NotNil(t, body.Runs)
		assert.Empty(t, body.Runs)
	})

	for _, q := range []string{"limit=0", "limit=500", "limit=abc", "offset=-1"} {
		t.Run("invalid "+q, func(t *testing.T) {
			svc := new(MockHistory)
			resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/runs?"+q)
			assert.Equal(t, 422, resp.StatusCode)
			svc.AssertNotCalled(t, "ListRuns", mock.Anything, mock.Anything, mock.Anything)
		})
	}

	t.Run("repository failure", func(t *testing.T) {
		svc := new(MockHistory)
		svc.On("ListRuns", mock.Anything, 20, 0).Return(nil, errors.New("connection reset"))

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/runs")
		assert.Equal(t, 500, resp.StatusCode)
	})
}

func TestHistoryHandler_ListAlerts(t *testing.T) {
	runID := uuid.New()
	acked := time.Date(2024, 3, 1, 8, 5, 0, 0, time.UTC)

	t.Run("found", func(t *testing.T) {
		svc := new(MockHistory)
		svc.On("GetRun", mock.Anything, runID).Return(&domain.RunRecord{ID: runID}, nil)
		svc.On("ListAlerts", mock.Anything, runID).Return([]domain.AlertRecord{
			{ID: uuid.New(), RunID: runID, ClosedDurationMs: 2500, AcknowledgedAt: &acked},
		}, nil)

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/runs/"+runID.String()+"/alerts")
		assert.Equal(t, 200, resp.StatusCode)

		var body ListAlertsResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, runID, body.RunID)
		require.Len(t, body.Alerts, 1)
		assert.Equal(t, int64(2500), body.Alerts[0].ClosedDurationMs)
	})

	t.Run("unknown run", func(t *testing.T) {
		svc := new(MockHistory)
		svc.On("GetRun", mock.Anything, runID).Return(nil, domain.ErrRunNotFound)

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/runs/"+runID.String()+"/alerts")
		assert.Equal(t, 404, resp.StatusCode)
		assert.Equal(t, "RUN_NOT_FOUND", decodeError(t, resp))
	})

	t.Run("bad id", func(t *testing.T) {
		resp := historyRoutes(NewHistoryHandler(new(MockHistory))).get(t, "/v1/history/runs/not-a-uuid/alerts")
		assert.Equal(t, 422, resp.StatusCode)
	})
}

func TestHistoryHandler_Summary(t *testing.T) {
	t.Run("explicit since", func(t *testing.T) {
		since := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
		svc := new(MockHistory)
		svc.On("Summary", mock.Anything, since).Return(&domain.HistorySummary{
			Since: since, Runs: 3, TotalDurationMs: 5400000, Alerts: 4, AcknowledgedAlerts: 3, AvgClosedMs: 2750,
		}, nil)

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/summary?since=2026-10-01T00:00:00Z")
		assert.Equal(t, 200, resp.StatusCode)

		var body domain.HistorySummary
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, 3, body.Runs)
		assert.Equal(t, 3, body.AcknowledgedAlerts)
		assert.Equal(t, 2750.0, body.AvgClosedMs)
	})

	t.Run("days window", func(t *testing.T) {
		svc := new(MockHistory)
		svc.On("Summary", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
			ago := time.Since(since)
			return ago > 29*24*time.Hour && ago < 31*24*time.Hour
		})).Return(&domain.HistorySummary{}, nil)

		resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/summary?days=30")
		assert.Equal(t, 200, resp.StatusCode)
		svc.AssertExpectations(t)
	})

	for _, q := range []string{"days=0", "days=400", "days=week", "since=yesterday"} {
		t.Run("invalid "+q, func(t *testing.T) {
			svc := new(MockHistory)
			resp := historyRoutes(NewHistoryHandler(svc)).get(t, "/v1/history/summary?"+q)
			assert.Equal(t, 422, resp.StatusCode)
			svc.AssertNotCalled(t, "Summary", mock.Anything, mock.Anything)
		})
	}
}
