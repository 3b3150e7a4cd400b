package domain

import (
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/eye"
)

// FrameMessage is the wire format of one landmark frame. Timestamp is a
// monotonic offset in seconds chosen by the frame source.
type FrameMessage struct {
	Timestamp float64     `json:"timestamp" yaml:"timestamp"`
	NoFace    bool        `json:"no_face,omitempty" yaml:"no_face,omitempty"`
	LeftEye   []eye.Point `json:"left_eye,omitempty" yaml:"left_eye,omitempty"`
	RightEye  []eye.Point `json:"right_eye,omitempty" yaml:"right_eye,omitempty"`
}

// MaxTimestamp is the first offset in seconds that no longer fits a
// time.Duration.
const MaxTimestamp = float64(math.MaxInt64) / float64(time.Second)

// Validate rejects timestamps that cannot be ordered.
func (f FrameMessage) Validate() error {
	if math.IsNaN(f.Timestamp) || math.IsInf(f.Timestamp, 0) {
		return errors.New("timestamp must be a finite number")
	}
	if f.Timestamp < 0 {
		return errors.New("timestamp must not be negative")
	}
	if f.Timestamp >= MaxTimestamp {
		return errors.New("timestamp is too large")
	}
	return nil
}

// At converts the timestamp into a monotonic offset.
func (f FrameMessage) At() time.Duration {
	return time.Duration(f.Timestamp * float64(time.Second))
}

// Landmarks returns nil when the source reported no face.
func (f FrameMessage) Landmarks() *eye.Landmarks {
	if f.NoFace {
		return nil
	}
	return &eye.Landmarks{Left: f.LeftEye, Right: f.RightEye}
}

// ScheduleView is the presentation form of the focus/break scheduler.
type ScheduleView struct {
	Enabled          bool   `json:"enabled"`
	Phase            string `json:"phase"`
	Remaining        int    `json:"remaining"`
	Clock            string `json:"clock"`
	FocusSeconds     int    `json:"focus_seconds,omitempty"`
	BreakSeconds     int    `json:"break_seconds,omitempty"`
	ManualBreakStart bool   `json:"manual_break_start"`
}

// FrameStats counts what happened to submitted frames.
type FrameStats struct {
	Received  uint64 `json:"frames_received"`
	Applied   uint64 `json:"frames_applied"`
	Stale     uint64 `json:"frames_stale"`
	Discarded uint64 `json:"frames_discarded"`
	Dropped   uint64 `json:"frames_dropped"`
	Ambiguous uint64 `json:"ambiguous_frames"`
	// EventsDropped counts events the dispatcher could not queue.
	EventsDropped uint64 `json:"events_dropped"`
}

// Snapshot is the read-only observable state of the monitor.
type Snapshot struct {
	IsRunning           bool         `json:"is_running"`
	Suspended           bool         `json:"suspended"`
	EyesOpen            bool         `json:"eyes_open"`
	ClosedDuration      float64      `json:"closed_duration"`
	Phase               string       `json:"phase"`
	AlertThreshold      float64      `json:"alert_threshold"`
	TotalTripDuration   float64      `json:"total_trip_duration"`
	LastSessionDuration float64      `json:"last_session_duration"`
	AlertsCount         int          `json:"alerts_count"`
	LastSessionAlerts   int          `json:"last_session_alerts"`
	RunID               uuid.UUID    `json:"run_id"`
	TripID              uuid.UUID    `json:"trip_id"`
	Schedule            ScheduleView `json:"schedule"`
	Stats               FrameStats   `json:"stats"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// SameState compares everything except counters and the timestamp, so
// unchanged frames do not produce state.changed events.
func (s Snapshot) SameState(o Snapshot) bool {
	s.UpdatedAt, o.UpdatedAt = time.Time{}, time.Time{}
	s.Stats, o.Stats = FrameStats{}, FrameStats{}
	return s == o
}
