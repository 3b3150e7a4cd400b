package domain

import (
	"time"

	"github.com/google/uuid"
)

// RunRecord is a persisted monitoring run.
type RunRecord struct {
	ID         uuid.UUID  `json:"id"`
	TripID     uuid.UUID  `json:"trip_id"`
	StartedAt  time.Time  `json:"started_at"`
	EndedAt    *time.Time `json:"ended_at,omitempty"`
	DurationMs int64      `json:"duration_ms"`
	Alerts     int        `json:"alerts"`
	StopReason string     `json:"stop_reason,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// AlertRecord is a persisted drowsiness alert.
type AlertRecord struct {
	ID               uuid.UUID  `json:"id"`
	RunID            uuid.UUID  `json:"run_id"`
	RaisedAt         time.Time  `json:"raised_at"`
	ClosedDurationMs int64      `json:"closed_duration_ms"`
	AcknowledgedAt   *time.Time `json:"acknowledged_at,omitempty"`
}

// Millis converts fractional seconds from event payloads to whole milliseconds.
func Millis(seconds float64) int64 {
	return int64(seconds*1000 + 0.5)
}

// HistorySummary aggregates runs started at or after Since.
type HistorySummary struct {
	Since              time.Time `json:"since"`
	Runs               int       `json:"runs"`
	TotalDurationMs    int64     `json:"total_duration_ms"`
	Alerts             int       `json:"alerts"`
	AcknowledgedAlerts int       `json:"acknowledged_alerts"`
	// AvgClosedMs is the mean closure duration of the alerts, 0 without alerts.
	AvgClosedMs float64 `json:"avg_closed_ms"`
}
