package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/SoarinFerret/FocusWarden/internal/broadcast"
	"github.com/SoarinFerret/FocusWarden/internal/notify"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Store is the durable key/value store behind the clock.
type Store interface {
	LoadSettings() (*session.Settings, error)
	SaveSettings(session.Settings) error
	LoadBlockList() ([]string, error)
	LoadCurrent() (*session.CurrentSession, error)
	SaveCurrent(session.CurrentSession) error
}

// Policy recomputes the blocking rule set from the clock inputs.
type Policy interface {
	Recompute(ctx context.Context, running bool, mode session.Mode, list []string)
}

// Publisher delivers events to observers.
type Publisher interface {
	Publish(broadcast.Event) broadcast.Event
}

// Recorder keeps a log of completed phases.
type Recorder interface {
	Record(ctx context.Context, rec session.PhaseRecord) error
}

// Deps wires a Clock to its collaborators. Only Store, Policy and
// Publisher are required.
type Deps struct {
	Store     Store
	Policy    Policy
	Publisher Publisher
	Alarm     notify.Alarm
	Recorder  Recorder
	NewTicker TickerFunc
	Interval  time.Duration
	Now       func() time.Time
	Logger    *slog.Logger
}

// Clock is the focus/break state machine. It is not safe for concurrent
// use: exactly one goroutine (the Engine) drives it.
type Clock struct {
	state     session.ClockState
	settings  session.Settings
	blockList []string
	record    *session.PhaseRecord

	store     Store
	policy    Policy
	pub       Publisher
	alarm     notify.Alarm
	recorder  Recorder
	newTicker TickerFunc
	interval  time.Duration
	ticker    Ticker
	now       func() time.Time
	logger    *slog.Logger
}

// NewClock loads settings, block list and the current-session record from
// the store. Unreadable records fall back to defaults.
func NewClock(d Deps) *Clock {
	c := &Clock{
		store:     d.Store,
		policy:    d.Policy,
		pub:       d.Publisher,
		alarm:     d.Alarm,
		recorder:  d.Recorder,
		newTicker: d.NewTicker,
		interval:  d.Interval,
		now:       d.Now,
		logger:    d.Logger,
		settings:  session.DefaultSettings(),
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.alarm == nil {
		c.alarm = notify.Discard{Logger: c.logger}
	}
	if c.newTicker == nil {
		c.newTicker = NewRealTicker
	}
	if c.interval <= 0 {
		c.interval = time.Second
	}
	if c.now == nil {
		c.now = time.Now
	}

	if s, err := c.store.LoadSettings(); err != nil {
		c.logger.Warn("failed to load settings, using defaults", "err", err)
	} else if s != nil {
		c.settings = *s
		c.settings.Normalize()
	}

	if list, err := c.store.LoadBlockList(); err != nil {
		c.logger.Warn("failed to load blocklist", "err", err)
	} else {
		c.blockList = list
	}

	c.state = session.ClockState{Mode: session.ModeFocus, Phase: 1}
	if cur, err := c.store.LoadCurrent(); err != nil {
		c.logger.Warn("failed to load current session", "err", err)
	} else if cur != nil {
		if cur.Mode.Valid() {
			c.state.Mode = cur.Mode
		}
		if cur.Phase > 0 {
			c.state.Phase = cur.Phase
		}
	}
	c.state.RemainingSeconds = c.settings.DurationSeconds(c.state.Mode)

	c.logger.Info("clock initialized",
		"mode", c.state.Mode,
		"phase", c.state.Phase,
		"remaining", c.state.RemainingSeconds,
		"blocked_domains", len(c.blockList))
	return c
}

// Status returns the public state.
func (c *Clock) Status() session.Status {
	return session.Status{
		Running:          c.state.Running,
		RemainingSeconds: c.state.RemainingSeconds,
		Mode:             c.state.Mode,
		Phase:            c.state.Phase,
	}
}

// State returns a copy of the full clock state.
func (c *Clock) State() session.ClockState {
	return c.state
}

// Settings returns the settings currently in effect.
func (c *Clock) Settings() session.Settings {
	return c.settings
}

// BlockList returns the block list currently in effect.
func (c *Clock) BlockList() []string {
	return append([]string(nil), c.blockList...)
}

// TickC is the channel of the active ticker, or nil while stopped so a
// select on it never fires.
func (c *Clock) TickC() <-chan time.Time {
	if c.ticker == nil {
		return nil
	}
	return c.ticker.C()
}

// Init applies blocking for the restored state and announces it.
func (c *Clock) Init(ctx context.Context) {
	c.recomputeBlocking(ctx)
	c.broadcastState()
}

// Start runs the clock. A valid mode different from the current one is a
// mode entry and resets the remaining time; seconds > 0 overrides the
// remaining time. Start is a no-op while running.
func (c *Clock) Start(ctx context.Context, mode session.Mode, seconds int) {
	if c.state.Running {
		return
	}
	if mode.Valid() && mode != c.state.Mode {
		c.state.Mode = mode
		c.state.RemainingSeconds = c.settings.DurationSeconds(mode)
		c.record = nil
	}
	if seconds > 0 {
		c.state.RemainingSeconds = seconds
	}

	c.state.Running = true
	c.saveCurrent()
	c.startTicker()

	if c.record == nil || c.record.Mode != c.state.Mode || c.record.Phase != c.state.Phase {
		c.record = session.NewPhaseRecord(c.state.Mode, c.state.Phase, c.now())
	}
	if err := c.record.Resume(c.now()); err != nil {
		c.logger.Debug("phase record already running", "err", err)
	}

	c.recomputeBlocking(ctx)
	c.broadcastState()
	c.logger.Info("timer started", "mode", c.state.Mode, "phase", c.state.Phase, "remaining", c.state.RemainingSeconds)
}

// Pause stops the clock, keeping the remaining time. No-op when stopped.
func (c *Clock) Pause(ctx context.Context) {
	if !c.state.Running {
		return
	}
	c.state.Running = false
	c.stopTicker()
	if c.record != nil {
		c.record.Suspend(c.now(), "pause")
	}

	c.recomputeBlocking(ctx)
	c.broadcastState()
	c.logger.Info("timer paused", "mode", c.state.Mode, "remaining", c.state.RemainingSeconds)
}

// Reset stops the clock and refills the remaining time for the current
// mode. Mode and phase are left alone.
func (c *Clock) Reset(ctx context.Context) {
	c.state.RemainingSeconds = c.settings.DurationSeconds(c.state.Mode)
	c.state.Running = false
	c.stopTicker()
	c.record = nil

	c.recomputeBlocking(ctx)
	c.broadcastState()
	c.logger.Info("timer reset", "mode", c.state.Mode, "remaining", c.state.RemainingSeconds)
}

// Tick advances a running clock by one second. Reaching zero is not a
// completion by itself; the tick that finds zero completes the phase.
func (c *Clock) Tick(ctx context.Context) {
	if !c.state.Running {
		return
	}
	if c.state.RemainingSeconds <= 0 {
		c.completePhase(ctx)
		return
	}
	c.state.RemainingSeconds--
	c.broadcastState()
}

func (c *Clock) completePhase(ctx context.Context) {
	completedMode := c.state.Mode
	completedPhase := c.state.Phase

	c.state.Running = false
	c.stopTicker()
	c.recomputeBlocking(ctx)

	c.alarm.Ring(notify.NewRequest(c.settings, completedMode, completedPhase))
	c.pub.Publish(broadcast.Completion(completedMode, completedPhase))
	c.finishRecord(ctx)

	c.logger.Info("phase complete", "mode", completedMode, "phase", completedPhase)
	c.transition(ctx)
}

// transition moves to the next mode. The long break check uses the phase
// counter before it is incremented, and the counter only moves when a
// break completes.
func (c *Clock) transition(ctx context.Context) {
	if c.state.Mode == session.ModeFocus {
		c.settings.SessionCounters.Increment(session.ModeFocus)
		next := session.ModeShortBreak
		if c.settings.IsLongBreakDue(c.state.Phase) {
			next = session.ModeLongBreak
		}
		c.state.Mode = next
		c.state.RemainingSeconds = c.settings.DurationSeconds(next)

		if c.settings.AutoStartBreaks {
			c.Start(ctx, c.state.Mode, c.state.RemainingSeconds)
		} else {
			c.recomputeBlocking(ctx)
		}
	} else {
		c.settings.SessionCounters.Increment(c.state.Mode)
		c.state.Phase++
		c.state.Mode = session.ModeFocus
		c.state.RemainingSeconds = c.settings.DurationSeconds(session.ModeFocus)

		if c.settings.AutoStartFocus {
			c.Start(ctx, c.state.Mode, c.state.RemainingSeconds)
		} else {
			c.recomputeBlocking(ctx)
		}
	}

	if err := c.store.SaveSettings(c.settings); err != nil {
		c.logger.Warn("failed to save session counters", "err", err)
	}
	c.saveCurrent()
	c.broadcastState()
}

// ApplySettings merges settings written by another process. The phase in
// progress keeps its remaining time; new durations apply on the next mode
// entry.
func (c *Clock) ApplySettings(s session.Settings) {
	s.Normalize()
	c.settings = s
	c.logger.Debug("settings applied",
		"focus", s.FocusMinutes,
		"short_break", s.ShortBreakMinutes,
		"long_break", s.LongBreakMinutes,
		"interval", s.LongBreakInterval)
}

// ApplyBlockList replaces the block list and recomputes blocking.
func (c *Clock) ApplyBlockList(ctx context.Context, list []string) {
	c.blockList = append([]string(nil), list...)
	c.recomputeBlocking(ctx)
}

// Shutdown stops ticking and lifts blocking so no rules outlive the
// process.
func (c *Clock) Shutdown(ctx context.Context) {
	c.stopTicker()
	c.policy.Recompute(ctx, false, c.state.Mode, c.blockList)
}

func (c *Clock) startTicker() {
	if c.ticker != nil {
		return
	}
	c.ticker = c.newTicker(c.interval)
}

func (c *Clock) stopTicker() {
	if c.ticker == nil {
		return
	}
	c.ticker.Stop()
	c.ticker = nil
}

func (c *Clock) recomputeBlocking(ctx context.Context) {
	c.policy.Recompute(ctx, c.state.Running, c.state.Mode, c.blockList)
}

func (c *Clock) broadcastState() {
	c.pub.Publish(broadcast.StateUpdate(c.Status()))
}

func (c *Clock) saveCurrent() {
	cur := session.CurrentSession{
		Mode:        c.state.Mode,
		Phase:       c.state.Phase,
		WorkSession: c.state.Mode.WorkSession(),
	}
	if err := c.store.SaveCurrent(cur); err != nil {
		c.logger.Warn("failed to save current session", "err", err)
	}
}

func (c *Clock) finishRecord(ctx context.Context) {
	rec := c.record
	c.record = nil
	if rec == nil || c.recorder == nil {
		return
	}
	rec.End(c.now())
	if err := c.recorder.Record(ctx, *rec); err != nil {
		c.logger.Warn("failed to record completed phase", "mode", rec.Mode, "err", err)
	}
}
