// Package monitor owns the drowsiness pipeline at runtime. A single loop
// goroutine holds the state machine, the session tracker and the interval
// scheduler; frames, commands and scheduler ticks all reach it as messages.
// Readers get an immutable Snapshot that the loop republishes on every change.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/somiljain2006/EverWake/internal/domain"
	"github.com/somiljain2006/EverWake/internal/drowsiness"
	"github.com/somiljain2006/EverWake/internal/eye"
	"github.com/somiljain2006/EverWake/internal/interval"
	"github.com/somiljain2006/EverWake/internal/session"
)

var (
	// ErrStopped is returned once the loop has exited.
	ErrStopped = errors.New("monitor stopped")
	// ErrNoPendingBreak is returned by StartBreak when no break is waiting.
	ErrNoPendingBreak = errors.New("no pending break")
)

// Emitter receives the events produced by the loop. Emit must not block.
type Emitter interface {
	Emit(event domain.Event)
	Dropped() uint64
}

type Options struct {
	Threshold    float64
	Drowsiness   drowsiness.Config
	Schedule     interval.Config
	TickInterval time.Duration
	FrameBuffer  int
	Clock        session.Clock
}

type frame struct {
	at      time.Duration
	reading eye.Reading
	// generation the frame was submitted under
	gen uint64
}

type commandKind int

const (
	cmdStart commandKind = iota
	cmdStop
	cmdAcknowledge
	cmdResetTrip
	cmdConfigure
	cmdStartBreak
)

type command struct {
	kind     commandKind
	schedule interval.Config
	reply    chan error
}

type counters struct {
	received  atomic.Uint64
	applied   atomic.Uint64
	stale     atomic.Uint64
	discarded atomic.Uint64
	dropped   atomic.Uint64
	ambiguous atomic.Uint64
}

type Monitor struct {
	classifier *eye.Classifier
	machine    *drowsiness.Machine
	tracker    *session.Tracker
	scheduler  *interval.Scheduler
	events     Emitter
	logger     *slog.Logger
	clock      session.Clock
	tick       time.Duration

	frames   chan frame
	commands chan command
	done     chan struct{}

	snapshot atomic.Pointer[domain.Snapshot]
	stats    counters
	// generation changes whenever frame timing restarts (start, stop, break
	// boundaries). Frames still queued from an older generation are discarded.
	generation atomic.Uint64

	// loop-owned
	suspended    bool
	pendingAlert uuid.UUID
	ticker       *time.Ticker
}

// New wires the pipeline. An invalid schedule is logged and leaves the
// scheduler inert; the monitor still starts.
func New(opts Options, events Emitter, logger *slog.Logger) (*Monitor, error) {
	classifier, err := eye.NewClassifier(opts.Threshold)
	if err != nil {
		return nil, fmt.Errorf("classifier: %w", err)
	}

	machine, err := drowsiness.New(opts.Drowsiness)
	if err != nil {
		return nil, fmt.Errorf("state machine: %w", err)
	}

	scheduler, err := interval.New(opts.Schedule)
	if err != nil {
		logger.Warn("schedule rejected, focus timer disabled", "error", err)
	}

	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if opts.FrameBuffer <= 0 {
		opts.FrameBuffer = 64
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	m := &Monitor{
		classifier: classifier,
		machine:    machine,
		tracker:    session.NewTracker(opts.Clock),
		scheduler:  scheduler,
		events:     events,
		logger:     logger,
		clock:      opts.Clock,
		tick:       opts.TickInterval,
		frames:     make(chan frame, opts.FrameBuffer),
		commands:   make(chan command),
		done:       make(chan struct{}),
	}

	initial := m.build()
	m.snapshot.Store(&initial)

	return m, nil
}

// Run drives the loop until ctx is cancelled. A live run is stopped on the
// way out so its duration is counted and recorded.
func (m *Monitor) Run(ctx context.Context) {
	m.ticker = time.NewTicker(m.tick)
	defer m.ticker.Stop()
	defer close(m.done)

	m.logger.Info("monitor started", "tick", m.tick, "alert_threshold", m.machine.Threshold())

	for {
		select {
		case <-ctx.Done():
			m.stop("shutdown")
			m.publish()
			m.logger.Info("monitor stopped")
			return
		case f := <-m.frames:
			m.applyFrame(f)
			m.publish()
		case cmd := <-m.commands:
			err := m.execute(cmd)
			m.publish()
			cmd.reply <- err
		case <-m.ticker.C:
			m.applyTick()
			m.publish()
		}
	}
}

// Done is closed when Run returns.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Submit classifies a frame on the caller's goroutine and queues it for the
// loop. It never blocks: it reports false when the inbox is full and the
// frame was dropped.
func (m *Monitor) Submit(msg domain.FrameMessage) (bool, error) {
	if err := msg.Validate(); err != nil {
		return false, err
	}

	select {
	case <-m.done:
		return false, ErrStopped
	default:
	}

	m.stats.received.Add(1)

	reading := m.classifier.Read(msg.Landmarks())
	if reading.Ambiguous {
		m.stats.ambiguous.Add(1)
	}

	select {
	case m.frames <- frame{at: msg.At(), reading: reading, gen: m.generation.Load()}:
		return true, nil
	default:
		m.stats.dropped.Add(1)
		return false, nil
	}
}

// Snapshot returns the last published state with live counters.
func (m *Monitor) Snapshot() domain.Snapshot {
	snap := *m.snapshot.Load()
	snap.Stats = domain.FrameStats{
		Received:  m.stats.received.Load(),
		Applied:   m.stats.applied.Load(),
		Stale:     m.stats.stale.Load(),
		Discarded: m.stats.discarded.Load(),
		Dropped:   m.stats.dropped.Load(),
		Ambiguous: m.stats.ambiguous.Load(),
	}
	if m.events != nil {
		snap.Stats.EventsDropped = m.events.Dropped()
	}
	return snap
}

func (m *Monitor) Start(ctx context.Context) (domain.Snapshot, error) {
	return m.send(ctx, command{kind: cmdStart})
}

func (m *Monitor) Stop(ctx context.Context) (domain.Snapshot, error) {
	return m.send(ctx, command{kind: cmdStop})
}

func (m *Monitor) Acknowledge(ctx context.Context) (domain.Snapshot, error) {
	return m.send(ctx, command{kind: cmdAcknowledge})
}

func (m *Monitor) ResetTrip(ctx context.Context) (domain.Snapshot, error) {
	return m.send(ctx, command{kind: cmdResetTrip})
}

// ConfigureSchedule replaces the focus/break durations and resets the cycle.
// A rejected config returns an error wrapping interval.ErrInvalidDuration and
// leaves the scheduler inert.
func (m *Monitor) ConfigureSchedule(ctx context.Context, cfg interval.Config) (domain.Snapshot, error) {
	return m.send(ctx, command{kind: cmdConfigure, schedule: cfg})
}

// StartBreak confirms a break parked in the pending phase.
func (m *Monitor) StartBreak(ctx context.Context) (domain.Snapshot, error) {
	return m.send(ctx, command{kind: cmdStartBreak})
}

func (m *Monitor) send(ctx context.Context, cmd command) (domain.Snapshot, error) {
	cmd.reply = make(chan error, 1)

	select {
	case m.commands <- cmd:
	case <-m.done:
		return domain.Snapshot{}, ErrStopped
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return m.Snapshot(), err
	case <-ctx.Done():
		return domain.Snapshot{}, ctx.Err()
	}
}

func (m *Monitor) execute(cmd command) error {
	switch cmd.kind {
	case cmdStart:
		m.start()
	case cmdStop:
		m.stop("user")
	case cmdAcknowledge:
		m.acknowledge()
	case cmdResetTrip:
		previous := m.tracker.Totals().TripID
		m.tracker.ResetTrip()
		m.emit(domain.EventTripReset, domain.TripReset{PreviousTripID: previous})
	case cmdConfigure:
		return m.configure(cmd.schedule)
	case cmdStartBreak:
		if !m.scheduler.StartBreak() {
			return ErrNoPendingBreak
		}
		m.suspend()
		m.emit(domain.EventScheduleChanged, m.scheduleView())
	}
	return nil
}

func (m *Monitor) start() {
	if !m.tracker.Start() {
		return
	}
	m.machine.Stop()
	m.suspended = false
	m.pendingAlert = uuid.Nil
	m.scheduler.Start()
	m.restartTiming()

	totals := m.tracker.Totals()
	m.logger.Info("run started", "run_id", totals.RunID, "trip_id", totals.TripID)
	m.emit(domain.EventSessionStarted, domain.SessionStarted{StartedAt: totals.StartedAt})
}

func (m *Monitor) stop(reason string) {
	run, ok := m.tracker.Stop()
	if !ok {
		return
	}
	m.machine.Stop()
	m.scheduler.Stop()
	m.suspended = false
	m.pendingAlert = uuid.Nil
	m.generation.Add(1)

	totals := m.tracker.Totals()
	m.logger.Info("run stopped",
		"run_id", run.ID,
		"duration", run.Duration,
		"alerts", run.Alerts,
		"reason", reason,
	)
	m.emitFor(run.ID, domain.EventSessionStopped, domain.SessionStopped{
		StartedAt:        run.StartedAt,
		EndedAt:          run.EndedAt,
		DurationSeconds:  domain.Seconds(run.Duration),
		Alerts:           run.Alerts,
		TotalTripSeconds: domain.Seconds(totals.TotalTripDuration),
		Reason:           reason,
	})
}

// acknowledge is a no-op outside a run.
func (m *Monitor) acknowledge() {
	if !m.tracker.Running() {
		return
	}
	m.machine.Acknowledge()

	if m.pendingAlert == uuid.Nil {
		return
	}
	m.emit(domain.EventAlertAcknowledged, domain.AlertAcknowledged{
		AlertID:        m.pendingAlert,
		AcknowledgedAt: m.clock(),
	})
	m.pendingAlert = uuid.Nil
}

func (m *Monitor) configure(cfg interval.Config) error {
	err := m.scheduler.Configure(cfg)
	if m.suspended {
		m.suspended = false
		m.restartTiming()
	}
	if err == nil && m.tracker.Running() {
		m.scheduler.Start()
		m.resetTicker()
	}
	if err != nil {
		m.logger.Warn("schedule rejected", "error", err)
	}
	m.emit(domain.EventScheduleChanged, m.scheduleView())
	return err
}

func (m *Monitor) applyFrame(f frame) {
	if !m.tracker.Running() || m.suspended || f.gen != m.generation.Load() {
		m.stats.discarded.Add(1)
		return
	}

	res := m.machine.Observe(f.at, f.reading.State)
	if res.Stale {
		m.stats.stale.Add(1)
		return
	}
	m.stats.applied.Add(1)

	if !res.AlertRaised {
		return
	}

	count := m.tracker.RegisterAlert()
	m.pendingAlert = uuid.New()
	m.logger.Warn("drowsiness alert",
		"alert_id", m.pendingAlert,
		"closed_duration", res.ClosedDuration,
		"alerts_count", count,
	)
	m.emit(domain.EventAlertRaised, domain.AlertRaised{
		AlertID:       m.pendingAlert,
		ClosedSeconds: domain.Seconds(res.ClosedDuration),
		AlertsCount:   count,
		RaisedAt:      m.clock(),
	})
}

// applyTick advances the scheduler by one second. Focus time only counts
// while frames are flowing and no alert is in progress.
func (m *Monitor) applyTick() {
	focusing := m.tracker.Running() && !m.suspended && m.machine.Phase() != drowsiness.PhaseAlerting

	switch m.scheduler.Tick(focusing) {
	case interval.SignalBreakRequested:
		state := m.scheduler.State()
		if state.Phase == interval.PhaseBreak {
			m.suspend()
		}
		m.logger.Info("break requested", "break_seconds", state.BreakSeconds, "manual", state.ManualBreakStart)
		m.emit(domain.EventBreakRequested, domain.BreakRequested{
			BreakSeconds: state.BreakSeconds,
			Manual:       state.ManualBreakStart,
		})
	case interval.SignalBreakEnded:
		m.suspended = false
		m.restartTiming()
		m.logger.Info("break ended")
		m.emit(domain.EventBreakEnded, domain.BreakEnded{FocusSeconds: m.scheduler.State().FocusSeconds})
	}
}

// suspend pauses the frame feed for a break. Closure timing restarts from
// the first frame after the break.
func (m *Monitor) suspend() {
	m.suspended = true
	m.machine.Stop()
	m.pendingAlert = uuid.Nil
	m.generation.Add(1)
}

// restartTiming opens a new frame generation and re-phases the ticker so the
// first focus second after a start or a break is a full second.
func (m *Monitor) restartTiming() {
	m.generation.Add(1)
	m.resetTicker()
}

func (m *Monitor) resetTicker() {
	if m.ticker != nil {
		m.ticker.Reset(m.tick)
	}
}

func (m *Monitor) emit(typ domain.EventType, data interface{}) {
	m.emitFor(m.tracker.Totals().RunID, typ, data)
}

func (m *Monitor) emitFor(runID uuid.UUID, typ domain.EventType, data interface{}) {
	if m.events == nil {
		return
	}
	m.events.Emit(domain.Event{
		ID:        uuid.New(),
		Type:      typ,
		RunID:     runID,
		TripID:    m.tracker.Totals().TripID,
		Data:      data,
		Timestamp: m.clock(),
	})
}

// publish stores a new snapshot and emits state.changed when anything a
// reader can see has changed.
func (m *Monitor) publish() {
	next := m.build()
	prev := m.snapshot.Load()
	if prev != nil && prev.SameState(next) {
		return
	}
	m.snapshot.Store(&next)
	m.emit(domain.EventStateChanged, next)
}

func (m *Monitor) build() domain.Snapshot {
	totals := m.tracker.Totals()
	return domain.Snapshot{
		IsRunning:           totals.Running,
		Suspended:           m.suspended,
		EyesOpen:            m.machine.EyesOpen(),
		ClosedDuration:      domain.Seconds(m.machine.ClosedDuration()),
		Phase:               m.machine.Phase().String(),
		AlertThreshold:      domain.Seconds(m.machine.Threshold()),
		TotalTripDuration:   domain.Seconds(totals.TotalTripDuration),
		LastSessionDuration: domain.Seconds(totals.LastSessionDuration),
		AlertsCount:         totals.AlertsCount,
		LastSessionAlerts:   totals.LastSessionAlerts,
		RunID:               totals.RunID,
		TripID:              totals.TripID,
		Schedule:            m.scheduleView(),
		UpdatedAt:           m.clock(),
	}
}

func (m *Monitor) scheduleView() domain.ScheduleView {
	st := m.scheduler.State()
	return domain.ScheduleView{
		Enabled:          st.Enabled,
		Phase:            st.Phase.String(),
		Remaining:        st.Remaining,
		Clock:            st.Clock(),
		FocusSeconds:     st.FocusSeconds,
		BreakSeconds:     st.BreakSeconds,
		ManualBreakStart: st.ManualBreakStart,
	}
}
