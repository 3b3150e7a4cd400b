// Package drowsiness turns a stream of timestamped eye classifications into
// closure episodes and one-shot drowsiness alerts.
//
// A Machine is not safe for concurrent use. It is meant to be owned by a
// single goroutine (see package monitor) that serializes frames and commands.
package drowsiness

import (
	"fmt"
	"time"

	"github.com/somiljain2006/EverWake/internal/eye"
)

// Phase is the alert state of the machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseOpen
	PhaseClosedPending
	PhaseAlerting
	PhaseAcknowledged
)

var phaseNames = map[Phase]string{
	PhaseIdle:          "idle",
	PhaseOpen:          "open",
	PhaseClosedPending: "closed_pending",
	PhaseAlerting:      "alerting",
	PhaseAcknowledged:  "acknowledged",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// MarshalText renders the phase name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Config holds the alert timing.
type Config struct {
	// AlertAfter is how long eyes must stay closed before an alert fires.
	AlertAfter time.Duration
}

// DefaultConfig is the ambient monitoring profile.
func DefaultConfig() Config {
	return Config{AlertAfter: 2500 * time.Millisecond}
}

// SimpleConfig is the more lenient profile used by the basic mode.
func SimpleConfig() Config {
	return Config{AlertAfter: 5 * time.Second}
}

// ProfileConfig resolves a named profile ("ambient" or "simple").
func ProfileConfig(name string) (Config, error) {
	switch name {
	case "", "ambient":
		return DefaultConfig(), nil
	case "simple":
		return SimpleConfig(), nil
	default:
		return Config{}, fmt.Errorf("unknown alert profile %q", name)
	}
}

// Episode is one uninterrupted run of Closed frames.
type Episode struct {
	StartedAt time.Duration
	// Alerted marks that this episode already raised its alert.
	Alerted bool
}

// Result describes what a single frame did to the machine.
type Result struct {
	EyesOpen       bool
	ClosedDuration time.Duration
	Phase          Phase
	// AlertRaised is true only on the frame where the episode first crossed
	// the threshold.
	AlertRaised bool
	// Stale frames carry a timestamp that does not move time forward. They
	// only refresh EyesOpen.
	Stale bool
}

// Machine tracks closure episodes. Timestamps are monotonic offsets from an
// arbitrary origin chosen by the frame source.
type Machine struct {
	cfg Config

	phase          Phase
	episode        *Episode
	closedDuration time.Duration
	eyesOpen       bool
	// alerted outlives the episode across Acknowledge; only an Open frame or
	// Stop clears it.
	alerted bool

	lastAt  time.Duration
	hasLast bool
}

// New builds an idle machine.
func New(cfg Config) (*Machine, error) {
	if cfg.AlertAfter <= 0 {
		return nil, fmt.Errorf("alert threshold must be positive, got %v", cfg.AlertAfter)
	}
	return &Machine{cfg: cfg, eyesOpen: true}, nil
}

// Threshold returns the configured closure duration that raises an alert.
func (m *Machine) Threshold() time.Duration {
	return m.cfg.AlertAfter
}

// Observe applies one classified frame taken at monotonic time at.
func (m *Machine) Observe(at time.Duration, state eye.State) Result {
	m.eyesOpen = state == eye.Open

	if m.hasLast && at <= m.lastAt {
		return m.result(false, true)
	}
	m.lastAt = at
	m.hasLast = true

	if state == eye.Open {
		m.phase = PhaseOpen
		m.episode = nil
		m.closedDuration = 0
		m.alerted = false
		return m.result(false, false)
	}

	if m.episode == nil {
		m.episode = &Episode{StartedAt: at, Alerted: m.alerted}
		m.closedDuration = 0
		if !m.alerted {
			m.phase = PhaseClosedPending
		}
	} else {
		m.closedDuration = at - m.episode.StartedAt
	}

	raised := false
	if m.closedDuration >= m.cfg.AlertAfter && !m.episode.Alerted {
		m.episode.Alerted = true
		m.alerted = true
		m.phase = PhaseAlerting
		raised = true
	}

	return m.result(raised, false)
}

// Acknowledge ends the current episode. Eyes that stay closed afterwards do
// not alert again until an Open frame arrives. Acknowledging while open or
// idle only resets the phase.
func (m *Machine) Acknowledge() {
	if m.episode != nil {
		m.alerted = true
	}
	m.episode = nil
	m.closedDuration = 0
	m.phase = PhaseAcknowledged
}

// Stop returns the machine to Idle and forgets timing history so a later run
// may start its clock from any origin.
func (m *Machine) Stop() {
	m.phase = PhaseIdle
	m.episode = nil
	m.closedDuration = 0
	m.eyesOpen = true
	m.alerted = false
	m.hasLast = false
	m.lastAt = 0
}

// Phase returns the current phase.
func (m *Machine) Phase() Phase {
	return m.phase
}

// EyesOpen reports the most recent instantaneous classification.
func (m *Machine) EyesOpen() bool {
	return m.eyesOpen
}

// ClosedDuration is how long the current episode has lasted.
func (m *Machine) ClosedDuration() time.Duration {
	return m.closedDuration
}

// Episode returns a copy of the active episode, if any.
func (m *Machine) Episode() (Episode, bool) {
	if m.episode == nil {
		return Episode{}, false
	}
	return *m.episode, true
}

func (m *Machine) result(raised, stale bool) Result {
	return Result{
		EyesOpen:       m.eyesOpen,
		ClosedDuration: m.closedDuration,
		Phase:          m.phase,
		AlertRaised:    raised,
		Stale:          stale,
	}
}
