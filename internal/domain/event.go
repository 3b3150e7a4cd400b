package domain

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventStateChanged      EventType = "state.changed"
	EventAlertRaised       EventType = "alert.raised"
	EventAlertAcknowledged EventType = "alert.acknowledged"
	EventSessionStarted    EventType = "session.started"
	EventSessionStopped    EventType = "session.stopped"
	EventTripReset         EventType = "trip.reset"
	EventBreakRequested    EventType = "break.requested"
	EventBreakEnded        EventType = "break.ended"
	EventScheduleChanged   EventType = "schedule.changed"
)

// Event is a state-change signal emitted by the monitor.
type Event struct {
	ID        uuid.UUID   `json:"id"`
	Type      EventType   `json:"type"`
	RunID     uuid.UUID   `json:"run_id"`
	TripID    uuid.UUID   `json:"trip_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Cue reports whether the event is one the notification side should act on
// (sound, vibration, webhook).
func (e Event) Cue() bool {
	switch e.Type {
	case EventAlertRaised, EventAlertAcknowledged, EventBreakRequested, EventBreakEnded:
		return true
	default:
		return false
	}
}

type AlertRaised struct {
	AlertID       uuid.UUID `json:"alert_id"`
	ClosedSeconds float64   `json:"closed_duration"`
	AlertsCount   int       `json:"alerts_count"`
	RaisedAt      time.Time `json:"raised_at"`
}

type AlertAcknowledged struct {
	AlertID        uuid.UUID `json:"alert_id,omitempty"`
	AcknowledgedAt time.Time `json:"acknowledged_at"`
}

type SessionStarted struct {
	StartedAt time.Time `json:"started_at"`
}

type SessionStopped struct {
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	DurationSeconds  float64   `json:"duration"`
	Alerts           int       `json:"alerts"`
	TotalTripSeconds float64   `json:"total_trip_duration"`
	// Reason is "user" for explicit stops and "shutdown" when the process exits.
	Reason string `json:"reason"`
}

type TripReset struct {
	PreviousTripID uuid.UUID `json:"previous_trip_id"`
}

type BreakRequested struct {
	BreakSeconds int  `json:"break_seconds"`
	Manual       bool `json:"manual"`
}

type BreakEnded struct {
	FocusSeconds int `json:"focus_seconds"`
}

// Seconds converts a duration to fractional seconds for JSON payloads.
func Seconds(d time.Duration) float64 {
	return d.Seconds()
}
