// Package interval implements the focus/break cycle. The Scheduler is a
// tick-driven countdown: the owner calls Tick once per elapsed second and
// acts on the returned Signal.
package interval

import (
	"errors"
	"fmt"
)

// ErrInvalidDuration is returned when a configured duration is not positive.
var ErrInvalidDuration = errors.New("schedule durations must be positive")

// Phase is the current position in the focus/break cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseFocus
	PhaseBreakPending
	PhaseBreak
)

func (p Phase) String() string {
	switch p {
	case PhaseFocus:
		return "focus"
	case PhaseBreakPending:
		return "break_pending"
	case PhaseBreak:
		return "break"
	default:
		return "idle"
	}
}

// MarshalText renders the phase name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Signal is what a tick produced.
type Signal int

const (
	SignalNone Signal = iota
	SignalBreakRequested
	SignalBreakEnded
)

func (s Signal) String() string {
	switch s {
	case SignalBreakRequested:
		return "break_requested"
	case SignalBreakEnded:
		return "break_ended"
	default:
		return "none"
	}
}

// Config describes one focus/break cycle in seconds. A zero duration means
// "not set"; the scheduler is inert unless both are set.
type Config struct {
	FocusSeconds int
	BreakSeconds int
	// ManualBreakStart parks the cycle in PhaseBreakPending when focus ends,
	// until StartBreak is called.
	ManualBreakStart bool
}

// Validate rejects negative durations.
func (c Config) Validate() error {
	if c.FocusSeconds < 0 {
		return fmt.Errorf("focus %ds: %w", c.FocusSeconds, ErrInvalidDuration)
	}
	if c.BreakSeconds < 0 {
		return fmt.Errorf("break %ds: %w", c.BreakSeconds, ErrInvalidDuration)
	}
	return nil
}

// Enabled reports whether both durations are set.
func (c Config) Enabled() bool {
	return c.FocusSeconds > 0 && c.BreakSeconds > 0
}

// State is a read-only view of the scheduler.
type State struct {
	Phase            Phase
	Remaining        int
	FocusSeconds     int
	BreakSeconds     int
	ManualBreakStart bool
	Enabled          bool
}

// Clock formats the remaining time as MM:SS.
func (s State) Clock() string {
	return FormatClock(s.Remaining)
}

// Scheduler is not safe for concurrent use; it is driven by one owner.
type Scheduler struct {
	cfg       Config
	phase     Phase
	remaining int
}

// New builds a scheduler. An invalid config is rejected and leaves the
// scheduler inert.
func New(cfg Config) (*Scheduler, error) {
	s := &Scheduler{}
	if err := s.Configure(cfg); err != nil {
		return s, err
	}
	return s, nil
}

// Configure replaces the durations and resets the cycle. A scheduler that
// was counting re-arms Focus with the new duration.
func (s *Scheduler) Configure(cfg Config) error {
	wasActive := s.phase != PhaseIdle
	s.phase = PhaseIdle
	s.remaining = 0

	if err := cfg.Validate(); err != nil {
		s.cfg = Config{}
		return err
	}
	s.cfg = cfg

	if wasActive {
		s.Start()
	}
	return nil
}

// Start arms the focus countdown. It reports false when the scheduler is
// inert or already counting.
func (s *Scheduler) Start() bool {
	if !s.cfg.Enabled() || s.phase != PhaseIdle {
		return false
	}
	s.phase = PhaseFocus
	s.remaining = s.cfg.FocusSeconds
	return true
}

// Stop halts the cycle from any phase without emitting anything.
func (s *Scheduler) Stop() bool {
	wasActive := s.phase != PhaseIdle
	s.phase = PhaseIdle
	s.remaining = 0
	return wasActive
}

// StartBreak begins a break that is waiting for confirmation.
func (s *Scheduler) StartBreak() bool {
	if s.phase != PhaseBreakPending {
		return false
	}
	s.phase = PhaseBreak
	s.remaining = s.cfg.BreakSeconds
	return true
}

// Tick advances the countdown by one second. Focus only counts while
// focusing is true (detector running, no alert in progress); breaks count
// regardless.
func (s *Scheduler) Tick(focusing bool) Signal {
	switch s.phase {
	case PhaseFocus:
		if !focusing {
			return SignalNone
		}
		s.remaining--
		if s.remaining > 0 {
			return SignalNone
		}
		if s.cfg.ManualBreakStart {
			s.phase = PhaseBreakPending
			s.remaining = 0
		} else {
			s.phase = PhaseBreak
			s.remaining = s.cfg.BreakSeconds
		}
		return SignalBreakRequested

	case PhaseBreak:
		s.remaining--
		if s.remaining > 0 {
			return SignalNone
		}
		s.phase = PhaseFocus
		s.remaining = s.cfg.FocusSeconds
		return SignalBreakEnded

	default:
		return SignalNone
	}
}

// State returns a copy of the scheduler state.
func (s *Scheduler) State() State {
	return State{
		Phase:            s.phase,
		Remaining:        s.remaining,
		FocusSeconds:     s.cfg.FocusSeconds,
		BreakSeconds:     s.cfg.BreakSeconds,
		ManualBreakStart: s.cfg.ManualBreakStart,
		Enabled:          s.cfg.Enabled(),
	}
}

// FormatClock renders seconds as MM:SS. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
