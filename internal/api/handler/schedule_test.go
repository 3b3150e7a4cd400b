package handler

import (
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/interval"
	"github.com/somiljain2006/EverWake/internal/monitor"
)

func scheduleApp(m *MockMonitor) *ScheduleHandler {
	return NewScheduleHandler(m)
}

func TestScheduleHandler_Get(t *testing.T) {
	m := new(MockMonitor)
	m.On("Snapshot").Return(domain.Snapshot{Schedule: domain.ScheduleView{
		Enabled: true, Phase: "focus", Remaining: 1499, Clock: "24:59", FocusSeconds: 1500, BreakSeconds: 300,
	}})

	app := newTestApp()
	app.Get("/v1/schedule", scheduleApp(m).Get)

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/schedule", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var view domain.ScheduleView
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	assert.Equal(t, "24:59", view.Clock)
	assert.Equal(t, 1500, view.FocusSeconds)
}

func TestScheduleHandler_Update(t *testing.T) {
	invalid := fmt.Errorf("focus -1s: %w", interval.ErrInvalidDuration)

	tests := []struct {
		name       string
		body       string
		wantCfg    interval.Config
		err        error
		wantStatus int
	}{
		{
			name:       "both durations",
			body:       `{"focus_seconds":1500,"break_seconds":300}`,
			wantCfg:    interval.Config{FocusSeconds: 1500, BreakSeconds: 300},
			wantStatus: 200,
		},
		{
			name:       "manual start",
			body:       `{"focus_seconds":60,"break_seconds":30,"manual_break_start":true}`,
			wantCfg:    interval.Config{FocusSeconds: 60, BreakSeconds: 30, ManualBreakStart: true},
			wantStatus: 200,
		},
		{
			name:       "omitted durations disable",
			body:       `{}`,
			wantCfg:    interval.Config{},
			wantStatus: 200,
		},
		{
			name:       "explicit zero rejected",
			body:       `{"focus_seconds":0,"break_seconds":300}`,
			wantCfg:    interval.Config{FocusSeconds: -1, BreakSeconds: 300},
			err:        invalid,
			wantStatus: 422,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockMonitor)
			m.On("ConfigureSchedule", mock.Anything, tt.wantCfg).Return(domain.Snapshot{}, tt.err)

			app := newTestApp()
			app.Put("/v1/schedule", scheduleApp(m).Update)

			req := httptest.NewRequest("PUT", "/v1/schedule", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			if tt.err != nil {
				assert.Equal(t, "INVALID_SCHEDULE", decodeError(t, resp))
			}
			m.AssertExpectations(t)
		})
	}
}

func TestScheduleHandler_UpdateBadBody(t *testing.T) {
	m := new(MockMonitor)
	app := newTestApp()
	app.Put("/v1/schedule", scheduleApp(m).Update)

	req := httptest.NewRequest("PUT", "/v1/schedule", strings.NewReader(`{"focus_seconds":"soon"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, 400, resp.StatusCode)
	m.AssertNotCalled(t, "ConfigureSchedule", mock.Anything, mock.Anything)
}

func TestScheduleHandler_StartBreak(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "pending break", wantStatus: 200},
		{name: "nothing pending", err: monitor.ErrNoPendingBreak, wantStatus: 409},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := new(MockMonitor)
			m.On("command", mock.Anything, "start_break").Return(domain.Snapshot{Schedule: domain.ScheduleView{Phase: "break"}}, tt.err)

			app := newTestApp()
			app.Post("/v1/schedule/break/start", scheduleApp(m).StartBreak)

			resp, err := app.Test(httptest.NewRequest("POST", "/v1/schedule/break/start", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
