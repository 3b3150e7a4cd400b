package interval

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run ticks n times and counts the signals produced.
func run(s *Scheduler, n int, focusing bool) map[Signal]int {
	counts := make(map[Signal]int)
	for i := 0; i < n; i++ {
		if sig := s.Tick(focusing); sig != SignalNone {
			counts[sig]++
		}
	}
	return counts
}

func pomodoro(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New(Config{FocusSeconds: 1500, BreakSeconds: 300})
	require.NoError(t, err)
	require.True(t, s.Start())
	return s
}

func TestScheduler_FullCycle(t *testing.T) {
	s := pomodoro(t)

	counts := run(s, 1499, true)
	assert.Empty(t, counts)
	assert.Equal(t, PhaseFocus, s.State().Phase)
	assert.Equal(t, 1, s.State().Remaining)

	assert.Equal(t, SignalBreakRequested, s.Tick(true))
	assert.Equal(t, PhaseBreak, s.State().Phase)
	assert.Equal(t, 300, s.State().Remaining)

	counts = run(s, 300, false)
	assert.Equal(t, map[Signal]int{SignalBreakEnded: 1}, counts)
	assert.Equal(t, PhaseFocus, s.State().Phase)
	assert.Equal(t, 1500, s.State().Remaining)
}

func TestScheduler_ExactlyOneSignalPerCycle(t *testing.T) {
	s := pomodoro(t)

	assert.Equal(t, map[Signal]int{SignalBreakRequested: 1}, run(s, 1500, true))
	assert.Equal(t, map[Signal]int{SignalBreakEnded: 1}, run(s, 300, true))
}

func TestScheduler_StopMidFocusPreventsSignals(t *testing.T) {
	s := pomodoro(t)

	assert.Empty(t, run(s, 1200, true))
	assert.True(t, s.Stop())

	assert.Empty(t, run(s, 2000, true))
	assert.Equal(t, PhaseIdle, s.State().Phase)
}

func TestScheduler_StopMidBreakNeverEndsBreak(t *testing.T) {
	s := pomodoro(t)
	run(s, 1500, true)
	run(s, 100, false)
	require.Equal(t, PhaseBreak, s.State().Phase)

	s.Stop()

	assert.Empty(t, run(s, 500, false))
	assert.False(t, s.Stop())
}

func TestScheduler_FocusPausesWhileNotFocusing(t *testing.T) {
	s, err := New(Config{FocusSeconds: 3, BreakSeconds: 2})
	require.NoError(t, err)
	s.Start()

	s.Tick(true)
	assert.Empty(t, run(s, 10, false))
	assert.Equal(t, 2, s.State().Remaining)

	s.Tick(true)
	assert.Equal(t, SignalBreakRequested, s.Tick(true))
}

func TestScheduler_Inert(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "no durations", cfg: Config{}},
		{name: "focus only", cfg: Config{FocusSeconds: 60}},
		{name: "break only", cfg: Config{BreakSeconds: 60}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := New(tt.cfg)
			require.NoError(t, err)

			assert.False(t, s.Start())
			assert.Empty(t, run(s, 100, true))
			assert.False(t, s.State().Enabled)
		})
	}
}

func TestScheduler_RejectsNonPositiveDurations(t *testing.T) {
	s, err := New(Config{FocusSeconds: -5, BreakSeconds: 10})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidDuration))
	assert.False(t, s.Start())

	active, _ := New(Config{FocusSeconds: 10, BreakSeconds: 5})
	active.Start()
	err = active.Configure(Config{FocusSeconds: 10, BreakSeconds: -1})
	require.ErrorIs(t, err, ErrInvalidDuration)
	assert.Equal(t, PhaseIdle, active.State().Phase)
	assert.False(t, active.State().Enabled)
	assert.Empty(t, run(active, 50, true))
}

func TestScheduler_ConfigureResetsCycle(t *testing.T) {
	s := pomodoro(t)
	run(s, 1000, true)

	require.NoError(t, s.Configure(Config{FocusSeconds: 10, BreakSeconds: 5}))

	st := s.State()
	assert.Equal(t, PhaseFocus, st.Phase)
	assert.Equal(t, 10, st.Remaining)

	idle, _ := New(Config{})
	require.NoError(t, idle.Configure(Config{FocusSeconds: 10, BreakSeconds: 5}))
	assert.Equal(t, PhaseIdle, idle.State().Phase)
}

func TestScheduler_ManualBreakStart(t *testing.T) {
	s, err := New(Config{FocusSeconds: 2, BreakSeconds: 2, ManualBreakStart: true})
	require.NoError(t, err)
	s.Start()

	assert.False(t, s.StartBreak())
	assert.Equal(t, map[Signal]int{SignalBreakRequested: 1}, run(s, 2, true))
	assert.Equal(t, PhaseBreakPending, s.State().Phase)

	assert.Empty(t, run(s, 10, true))

	require.True(t, s.StartBreak())
	assert.Equal(t, PhaseBreak, s.State().Phase)
	assert.Equal(t, map[Signal]int{SignalBreakEnded: 1}, run(s, 2, false))
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "00:00"},
		{59, "00:59"},
		{1500, "25:00"},
		{5400, "90:00"},
		{-3, "00:00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatClock(tt.seconds))
	}
}
