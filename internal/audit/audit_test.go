package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/somiljain2006/EverWake/internal/domain"
)

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantMetadata  []string
	}{
		{
			name: "run started",
			event: Event{
				RunID:     uuid.New(),
				TripID:    uuid.New(),
				EventType: EventRunStarted,
			},
			wantEventType: string(EventRunStarted),
		},
		{
			name: "run stopped with totals",
			event: Event{
				RunID:     uuid.New(),
				TripID:    uuid.New(),
				EventType: EventRunStopped,
				Metadata: map[string]string{
					"duration": "1200.000",
					"alerts":   "2",
					"reason":   "user",
				},
			},
			wantEventType: string(EventRunStopped),
			wantMetadata:  []string{"duration", "alerts", "reason"},
		},
		{
			name: "alert raised",
			event: Event{
				RunID:     uuid.New(),
				TripID:    uuid.New(),
				EventType: EventAlertRaised,
				Metadata: map[string]string{
					"closed_duration": "2.533",
				},
			},
			wantEventType: string(EventAlertRaised),
			wantMetadata:  []string{"closed_duration"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			handler := slog.NewJSONHandler(&buf, nil)
			logger := slog.New(handler)

			auditLogger := NewSlogLogger(logger)
			err := auditLogger.Log(context.Background(), tt.event)

			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, tt.event.RunID.String())
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, `"component":"audit"`)

			for _, key := range tt.wantMetadata {
				assert.Contains(t, output, key)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	err := NewSlogLogger(logger).Log(context.Background(), Event{EventType: EventTripReset})
	require.NoError(t, err)

	var logEntry map[string]interface{}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.NotEmpty(t, lines)
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &logEntry))

	eventID, ok := logEntry["event_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)
	assert.NotEqual(t, uuid.Nil.String(), eventID)
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}

	for i := 0; i < 100; i++ {
		err := logger.Log(context.Background(), Event{EventType: EventAlertRaised})
		assert.NoError(t, err)
	}
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestFromDomain(t *testing.T) {
	alertID := uuid.New()
	prevTrip := uuid.New()

	tests := []struct {
		name     string
		data     interface{}
		wantType EventType
		wantMeta map[string]string
	}{
		{
			name:     "session started",
			data:     domain.SessionStarted{StartedAt: time.Now()},
			wantType: EventRunStarted,
		},
		{
			name:     "session stopped",
			data:     domain.SessionStopped{DurationSeconds: 10, Alerts: 1, Reason: "shutdown"},
			wantType: EventRunStopped,
			wantMeta: map[string]string{"duration": "10.000", "alerts": "1", "reason": "shutdown"},
		},
		{
			name:     "alert raised",
			data:     domain.AlertRaised{AlertID: alertID, ClosedSeconds: 2.5},
			wantType: EventAlertRaised,
			wantMeta: map[string]string{"alert_id": alertID.String(), "closed_duration": "2.500"},
		},
		{
			name:     "alert acknowledged",
			data:     domain.AlertAcknowledged{AlertID: alertID},
			wantType: EventAlertAcknowledged,
			wantMeta: map[string]string{"alert_id": alertID.String()},
		},
		{
			name:     "trip reset",
			data:     domain.TripReset{PreviousTripID: prevTrip},
			wantType: EventTripReset,
			wantMeta: map[string]string{"previous_trip_id": prevTrip.String()},
		},
		{
			name:     "schedule changed",
			data:     domain.ScheduleView{Enabled: true, FocusSeconds: 1500, BreakSeconds: 300},
			wantType: EventScheduleChanged,
			wantMeta: map[string]string{
				"enabled":            "true",
				"focus_seconds":      "1500",
				"break_seconds":      "300",
				"manual_break_start": "false",
			},
		},
		{
			name:     "break requested",
			data:     domain.BreakRequested{BreakSeconds: 300, Manual: true},
			wantType: EventBreakRequested,
			wantMeta: map[string]string{"break_seconds": "300", "manual": "true"},
		},
		{
			name:     "break ended",
			data:     domain.BreakEnded{FocusSeconds: 1500},
			wantType: EventBreakEnded,
			wantMeta: map[string]string{"focus_seconds": "1500"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := domain.Event{ID: uuid.New(), RunID: uuid.New(), TripID: uuid.New(), Data: tt.data}

			entry, ok := FromDomain(event)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, entry.EventType)
			assert.Equal(t, event.ID, entry.ID)
			assert.Equal(t, event.RunID, entry.RunID)
			assert.Equal(t, tt.wantMeta, entry.Metadata)
		})
	}
}

func TestFromDomain_SkipsStateChanges(t *testing.T) {
	_, ok := FromDomain(domain.Event{Type: domain.EventStateChanged, Data: domain.Snapshot{}})
	assert.False(t, ok)
}

type failingLogger struct{}

func (failingLogger) Log(context.Context, Event) error {
	return errors.New("disk full")
}

func TestSink_Publish(t *testing.T) {
	var buf bytes.Buffer
	sink := NewSink(NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil))))

	require.NoError(t, sink.Publish(context.Background(), domain.Event{Type: domain.EventStateChanged, Data: domain.Snapshot{}}))
	assert.Empty(t, buf.String())

	require.NoError(t, sink.Publish(context.Background(), domain.Event{
		ID:   uuid.New(),
		Type: domain.EventBreakEnded,
		Data: domain.BreakEnded{FocusSeconds: 1500},
	}))
	assert.Contains(t, buf.String(), string(EventBreakEnded))

	err := NewSink(failingLogger{}).Publish(context.Background(), domain.Event{Data: domain.SessionStarted{}})
	assert.EqualError(t, err, "disk full")
}
