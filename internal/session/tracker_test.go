package session

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTracker() (*Tracker, *fakeClock) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)}
	return NewTracker(clock.Now), clock
}

func TestTracker_TwoRunsAccumulate(t *testing.T) {
	tr, clock := newTracker()

	require.True(t, tr.Start())
	clock.Advance(10 * time.Second)
	_, ok := tr.Stop()
	require.True(t, ok)

	require.True(t, tr.Start())
	clock.Advance(5 * time.Second)
	run, ok := tr.Stop()
	require.True(t, ok)

	totals := tr.Totals()
	assert.Equal(t, 15*time.Second, totals.TotalTripDuration)
	assert.Equal(t, 5*time.Second, totals.LastSessionDuration)
	assert.Equal(t, 5*time.Second, run.Duration)
	assert.False(t, totals.Running)
}

func TestTracker_StartIsNoOpWhenRunning(t *testing.T) {
	tr, clock := newTracker()

	require.True(t, tr.Start())
	runID := tr.Totals().RunID
	tr.RegisterAlert()

	clock.Advance(3 * time.Second)
	assert.False(t, tr.Start())

	totals := tr.Totals()
	assert.Equal(t, runID, totals.RunID)
	assert.Equal(t, 1, totals.AlertsCount)

	clock.Advance(2 * time.Second)
	run, _ := tr.Stop()
	assert.Equal(t, 5*time.Second, run.Duration)
}

func TestTracker_StopIsIdempotent(t *testing.T) {
	tr, clock := newTracker()

	_, ok := tr.Stop()
	assert.False(t, ok)
	assert.Zero(t, tr.Totals().TotalTripDuration)

	tr.Start()
	clock.Advance(4 * time.Second)
	tr.Stop()

	clock.Advance(time.Minute)
	_, ok = tr.Stop()
	assert.False(t, ok)

	totals := tr.Totals()
	assert.Equal(t, 4*time.Second, totals.TotalTripDuration)
	assert.Equal(t, 4*time.Second, totals.LastSessionDuration)
}

func TestTracker_AlertCounts(t *testing.T) {
	tr, _ := newTracker()

	tr.Start()
	tr.RegisterAlert()
	assert.Equal(t, 2, tr.RegisterAlert())
	run, _ := tr.Stop()

	assert.Equal(t, 2, run.Alerts)
	totals := tr.Totals()
	assert.Equal(t, 2, totals.LastSessionAlerts)
	assert.Equal(t, 2, totals.AlertsCount)

	tr.Start()
	totals = tr.Totals()
	assert.Zero(t, totals.AlertsCount)
	assert.Equal(t, 2, totals.LastSessionAlerts)
}

func TestTracker_ResetTrip(t *testing.T) {
	tr, clock := newTracker()

	for i := 0; i < 3; i++ {
		tr.Start()
		clock.Advance(time.Minute)
		tr.Stop()
	}
	require.Equal(t, 3*time.Minute, tr.Totals().TotalTripDuration)
	oldTrip := tr.Totals().TripID

	newTrip := tr.ResetTrip()

	totals := tr.Totals()
	assert.Zero(t, totals.TotalTripDuration)
	assert.Zero(t, totals.LastSessionDuration)
	assert.NotEqual(t, oldTrip, newTrip)
	assert.Equal(t, newTrip, totals.TripID)
}

func TestTracker_ResetTripKeepsLiveRun(t *testing.T) {
	tr, clock := newTracker()

	tr.Start()
	tr.RegisterAlert()
	clock.Advance(30 * time.Second)

	tr.ResetTrip()

	totals := tr.Totals()
	assert.True(t, totals.Running)
	assert.Equal(t, 1, totals.AlertsCount)

	clock.Advance(10 * time.Second)
	run, ok := tr.Stop()
	require.True(t, ok)
	assert.Equal(t, 40*time.Second, run.Duration)
	assert.Equal(t, 40*time.Second, tr.Totals().TotalTripDuration)
	assert.Equal(t, totals.TripID, run.TripID)
}

func TestTracker_RunIDs(t *testing.T) {
	tr, _ := newTracker()
	assert.Equal(t, uuid.Nil, tr.Totals().RunID)

	tr.Start()
	first := tr.Totals().RunID
	assert.NotEqual(t, uuid.Nil, first)
	run, _ := tr.Stop()
	assert.Equal(t, first, run.ID)
	assert.Equal(t, uuid.Nil, tr.Totals().RunID)

	tr.Start()
	assert.NotEqual(t, first, tr.Totals().RunID)
}

func TestTracker_BackwardClockClampsToZero(t *testing.T) {
	tr, clock := newTracker()

	tr.Start()
	clock.Advance(-time.Second)
	run, _ := tr.Stop()

	assert.Zero(t, run.Duration)
	assert.Zero(t, tr.Totals().TotalTripDuration)
}
