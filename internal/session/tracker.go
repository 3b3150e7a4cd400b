// Package session keeps run and trip bookkeeping for the drowsiness monitor:
// how long each run lasted, how many alerts it raised, and the cumulative
// trip totals across start/stop cycles.
package session

import (
	"time"

	"github.com/google/uuid"
)

// Clock returns the current wall time.
type Clock func() time.Time

// Totals is a read-only copy of the tracker state.
type Totals struct {
	Running             bool
	RunID               uuid.UUID
	TripID              uuid.UUID
	StartedAt           time.Time
	TotalTripDuration   time.Duration
	LastSessionDuration time.Duration
	AlertsCount         int
	LastSessionAlerts   int
}

// Run summarizes a completed run.
type Run struct {
	ID        uuid.UUID
	TripID    uuid.UUID
	StartedAt time.Time
	EndedAt   time.Time
	Duration  time.Duration
	Alerts    int
}

// Tracker is owned by a single goroutine and is not safe for concurrent use.
type Tracker struct {
	clock Clock

	running      bool
	runID        uuid.UUID
	tripID       uuid.UUID
	sessionStart time.Time

	totalTripDuration   time.Duration
	lastSessionDuration time.Duration
	alertsCount         int
	lastSessionAlerts   int
}

// NewTracker creates a tracker with a fresh trip.
func NewTracker(clock Clock) *Tracker {
	if clock == nil {
		clock = time.Now
	}
	return &Tracker{
		clock:  clock,
		tripID: uuid.New(),
	}
}

// Start begins a run. It reports false, and changes nothing, when a run is
// already in progress.
func (t *Tracker) Start() bool {
	if t.running {
		return false
	}
	t.running = true
	t.runID = uuid.New()
	t.sessionStart = t.clock()
	t.alertsCount = 0
	return true
}

// Stop closes the current run and folds it into the trip totals. It reports
// false when no run was in progress.
func (t *Tracker) Stop() (Run, bool) {
	if !t.running {
		return Run{}, false
	}

	now := t.clock()
	var elapsed time.Duration
	if !t.sessionStart.IsZero() {
		elapsed = now.Sub(t.sessionStart)
		if elapsed < 0 {
			elapsed = 0
		}
	}

	run := Run{
		ID:        t.runID,
		TripID:    t.tripID,
		StartedAt: t.sessionStart,
		EndedAt:   now,
		Duration:  elapsed,
		Alerts:    t.alertsCount,
	}

	t.lastSessionDuration = elapsed
	t.totalTripDuration += elapsed
	t.lastSessionAlerts = t.alertsCount

	t.running = false
	t.sessionStart = time.Time{}
	t.runID = uuid.Nil

	return run, true
}

// RegisterAlert counts one alert against the current run.
func (t *Tracker) RegisterAlert() int {
	t.alertsCount++
	return t.alertsCount
}

// ResetTrip clears the cumulative durations and opens a new trip. A run in
// progress keeps its start time and alert count.
func (t *Tracker) ResetTrip() uuid.UUID {
	t.totalTripDuration = 0
	t.lastSessionDuration = 0
	t.tripID = uuid.New()
	return t.tripID
}

// Running reports whether a run is in progress.
func (t *Tracker) Running() bool {
	return t.running
}

// Totals returns a copy of the current state.
func (t *Tracker) Totals() Totals {
	return Totals{
		Running:             t.running,
		RunID:               t.runID,
		TripID:              t.tripID,
		StartedAt:           t.sessionStart,
		TotalTripDuration:   t.totalTripDuration,
		LastSessionDuration: t.lastSessionDuration,
		AlertsCount:         t.alertsCount,
		LastSessionAlerts:   t.lastSessionAlerts,
	}
}
