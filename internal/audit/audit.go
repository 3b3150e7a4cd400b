package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// EventType defines the type of auditable event
type EventType string

const (
	EventRunStarted        EventType = "RUN_STARTED"
	EventRunStopped        EventType = "RUN_STOPPED"
	EventAlertRaised       EventType = "ALERT_RAISED"
	EventAlertAcknowledged EventType = "ALERT_ACKNOWLEDGED"
	EventTripReset         EventType = "TRIP_RESET"
	EventScheduleChanged   EventType = "SCHEDULE_CHANGED"
	EventBreakRequested    EventType = "BREAK_REQUESTED"
	EventBreakEnded        EventType = "BREAK_ENDED"
)

// Event is one entry of the safety audit trail
type Event struct {
	ID        uuid.UUID         `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	EventType EventType         `json:"event_type"`
	RunID     uuid.UUID         `json:"run_id"`
	TripID    uuid.UUID         `json:"trip_id"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger using slog
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	return &SlogLogger{
		logger: logger.With("component", "audit"),
	}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		l.logger.ErrorContext(ctx, "failed to marshal audit event",
			slog.String("error", err.Error()),
			slog.String("event_type", string(event.EventType)),
		)
		return err
	}

	l.logger.InfoContext(ctx, "audit_event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
		slog.String("run_id", event.RunID.String()),
		slog.String("trip_id", event.TripID.String()),
		slog.String("event_data", string(eventJSON)),
	)

	return nil
}

// NoOpLogger is a logger that does nothing (for testing or when audit is disabled)
type NoOpLogger struct{}

// Log does nothing and returns nil
func (l *NoOpLogger) Log(_ context.Context, _ Event) error {
	return nil
}

// Sink turns monitor events into audit entries. state.changed is not audited.
type Sink struct {
	logger Logger
}

func NewSink(logger Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) Publish(ctx context.Context, event domain.Event) error {
	entry, ok := FromDomain(event)
	if !ok {
		return nil
	}
	return s.logger.Log(ctx, entry)
}

// FromDomain maps a monitor event onto an audit entry.
func FromDomain(event domain.Event) (Event, bool) {
	entry := Event{
		ID:        event.ID,
		Timestamp: event.Timestamp,
		RunID:     event.RunID,
		TripID:    event.TripID,
		Metadata:  map[string]string{},
	}

	switch data := event.Data.(type) {
	case domain.SessionStarted:
		entry.EventType = EventRunStarted
	case domain.SessionStopped:
		entry.EventType = EventRunStopped
		entry.Metadata["duration"] = formatSeconds(data.DurationSeconds)
		entry.Metadata["alerts"] = strconv.Itoa(data.Alerts)
		entry.Metadata["reason"] = data.Reason
	case domain.AlertRaised:
		entry.EventType = EventAlertRaised
		entry.Metadata["alert_id"] = data.AlertID.String()
		entry.Metadata["closed_duration"] = formatSeconds(data.ClosedSeconds)
	case domain.AlertAcknowledged:
		entry.EventType = EventAlertAcknowledged
		entry.Metadata["alert_id"] = data.AlertID.String()
	case domain.TripReset:
		entry.EventType = EventTripReset
		entry.Metadata["previous_trip_id"] = data.PreviousTripID.String()
	case domain.ScheduleView:
		entry.EventType = EventScheduleChanged
		entry.Metadata["enabled"] = strconv.FormatBool(data.Enabled)
		entry.Metadata["focus_seconds"] = strconv.Itoa(data.FocusSeconds)
		entry.Metadata["break_seconds"] = strconv.Itoa(data.BreakSeconds)
		entry.Metadata["manual_break_start"] = strconv.FormatBool(data.ManualBreakStart)
	case domain.BreakRequested:
		entry.EventType = EventBreakRequested
		entry.Metadata["break_seconds"] = strconv.Itoa(data.BreakSeconds)
		entry.Metadata["manual"] = strconv.FormatBool(data.Manual)
	case domain.BreakEnded:
		entry.EventType = EventBreakEnded
		entry.Metadata["focus_seconds"] = strconv.Itoa(data.FocusSeconds)
	default:
		return Event{}, false
	}

	if len(entry.Metadata) == 0 {
		entry.Metadata = nil
	}
	return entry, true
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
