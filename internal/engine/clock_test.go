package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SoarinFerret/FocusWarden/internal/blocking"
	"github.com/SoarinFerret/FocusWarden/internal/broadcast"
	"github.com/SoarinFerret/FocusWarden/internal/notify"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

type memStore struct {
	mu         sync.Mutex
	settings   *session.Settings
	blockList  []string
	current    *session.CurrentSession
	failWrites bool
	failReads  bool
	saves      int
}

var errDisk = errors.New("disk unavailable")

func (m *memStore) LoadSettings() (*session.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return nil, errDisk
	}
	if m.settings == nil {
		return nil, nil
	}
	s := *m.settings
	return &s, nil
}

func (m *memStore) SaveSettings(s session.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errDisk
	}
	m.saves++
	m.settings = &s
	return nil
}

func (m *memStore) LoadBlockList() ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return nil, errDisk
	}
	return append([]string(nil), m.blockList...), nil
}

func (m *memStore) LoadCurrent() (*session.CurrentSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReads {
		return nil, errDisk
	}
	if m.current == nil {
		return nil, nil
	}
	cur := *m.current
	return &cur, nil
}

func (m *memStore) SaveCurrent(cur session.CurrentSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWrites {
		return errDisk
	}
	m.current = &cur
	return nil
}

func (m *memStore) Current() *session.CurrentSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func (m *memStore) StoredSettings() *session.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

type fakeTicker struct {
	ch      chan time.Time
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped = true }

type tickerFactory struct {
	mu      sync.Mutex
	created []*fakeTicker
}

func (f *tickerFactory) New(time.Duration) Ticker {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	f.created = append(f.created, t)
	return t
}

func (f *tickerFactory) active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, t := range f.created {
		if !t.stopped {
			n++
		}
	}
	return n
}

type recordingAlarm struct {
	mu    sync.Mutex
	rings []notify.Request
}

func (a *recordingAlarm) Ring(r notify.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.rings = append(a.rings, r)
}

type memRecorder struct {
	records []session.PhaseRecord
}

func (m *memRecorder) Record(_ context.Context, rec session.PhaseRecord) error {
	m.records = append(m.records, rec)
	return nil
}

type harness struct {
	clock    *Clock
	store    *memStore
	policy   *blocking.Engine
	hub      *broadcast.Hub
	tickers  *tickerFactory
	alarm    *recordingAlarm
	recorder *memRecorder
}

func newHarness(t *testing.T, store *memStore) *harness {
	t.Helper()
	if store == nil {
		store = &memStore{}
	}
	h := &harness{
		store:    store,
		policy:   blocking.NewEngine(blocking.NopApplier{}, "http://127.0.0.1:7425/blocked", nil),
		hub:      broadcast.NewHub(nil),
		tickers:  &tickerFactory{},
		alarm:    &recordingAlarm{},
		recorder: &memRecorder{},
	}
	h.clock = NewClock(Deps{
		Store:     h.store,
		Policy:    h.policy,
		Publisher: h.hub,
		Alarm:     h.alarm,
		Recorder:  h.recorder,
		NewTicker: h.tickers.New,
	})
	return h
}

func defaultStore() *memStore {
	s := session.DefaultSettings()
	s.FocusMinutes = 25
	s.ShortBreakMinutes = 5
	s.LongBreakMinutes = 15
	s.LongBreakInterval = 4
	return &memStore{settings: &s}
}

// finish drives the running phase to completion in two ticks.
func (h *harness) finish(ctx context.Context) {
	h.clock.Start(ctx, "", 1)
	h.clock.Tick(ctx) // 1 -> 0
	h.clock.Tick(ctx) // 0 -> complete
}

func drain(ch <-chan broadcast.Event) []broadcast.Event {
	var out []broadcast.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestNewClock_Defaults(t *testing.T) {
	h := newHarness(t, nil)
	st := h.clock.State()
	assert.Equal(t, session.ModeFocus, st.Mode)
	assert.Equal(t, 1, st.Phase)
	assert.Equal(t, 25*60, st.RemainingSeconds)
	assert.False(t, st.Running)
}

func TestNewClock_RestoresCurrentSession(t *testing.T) {
	store := defaultStore()
	store.current = &session.CurrentSession{Mode: session.ModeLongBreak, Phase: 3, WorkSession: session.WorkSessionBreak}
	h := newHarness(t, store)

	st := h.clock.State()
	assert.Equal(t, session.ModeLongBreak, st.Mode)
	assert.Equal(t, 3, st.Phase)
	assert.Equal(t, 15*60, st.RemainingSeconds)
	assert.False(t, st.Running)
}

func TestNewClock_FailedReadsFallBackToDefaults(t *testing.T) {
	h := newHarness(t, &memStore{failReads: true})
	assert.Equal(t, session.DefaultSettings(), h.clock.Settings())
	assert.Equal(t, session.ModeFocus, h.clock.State().Mode)
	assert.Empty(t, h.clock.BlockList())
}

func TestLongBreakCadence(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	var breaks []session.Mode
	var phaseAtCheck []int
	for i := 0; i < 5; i++ {
		require.Equal(t, session.ModeFocus, h.clock.State().Mode)
		phaseAtCheck = append(phaseAtCheck, h.clock.State().Phase)
		h.finish(ctx) // focus -> break
		breaks = append(breaks, h.clock.State().Mode)
		h.finish(ctx) // break -> focus
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, phaseAtCheck)
	assert.Equal(t, []session.Mode{
		session.ModeShortBreak,
		session.ModeShortBreak,
		session.ModeShortBreak,
		session.ModeLongBreak,
		session.ModeShortBreak,
	}, breaks)
	assert.Equal(t, 6, h.clock.State().Phase)
}

func TestLongBreakCadence_AllIntervals(t *testing.T) {
	for n := 1; n <= 6; n++ {
		store := defaultStore()
		store.settings.LongBreakInterval = n
		h := newHarness(t, store)
		ctx := context.Background()

		for i := 0; i < 3*n; i++ {
			phase := h.clock.State().Phase
			h.finish(ctx)
			want := session.ModeShortBreak
			if phase%n == 0 {
				want = session.ModeLongBreak
			}
			assert.Equal(t, want, h.clock.State().Mode, "interval %d phase %d", n, phase)
			h.finish(ctx)
		}
	}
}

func TestPhaseIncrementsOnlyOnBreakCompletion(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	h.finish(ctx)
	assert.Equal(t, session.ModeShortBreak, h.clock.State().Mode)
	assert.Equal(t, 1, h.clock.State().Phase, "focus completion keeps the phase")

	h.finish(ctx)
	assert.Equal(t, session.ModeFocus, h.clock.State().Mode)
	assert.Equal(t, 2, h.clock.State().Phase)
}

func TestRemainingResetsOnModeEntry(t *testing.T) {
	store := defaultStore()
	store.settings.ShortBreakMinutes = 4.99 // 299.4s rounds to 299
	h := newHarness(t, store)
	ctx := context.Background()

	h.finish(ctx)
	assert.Equal(t, session.ModeShortBreak, h.clock.State().Mode)
	assert.Equal(t, 299, h.clock.State().RemainingSeconds)

	h.finish(ctx)
	assert.Equal(t, 1500, h.clock.State().RemainingSeconds)
}

func TestRemainingMonotonicWhileRunning(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()
	h.clock.Start(ctx, "", 0)

	prev := h.clock.State().RemainingSeconds
	for i := 0; i < 120; i++ {
		h.clock.Tick(ctx)
		cur := h.clock.State().RemainingSeconds
		assert.LessOrEqual(t, cur, prev)
		assert.GreaterOrEqual(t, cur, 0)
		prev = cur
	}
	assert.Equal(t, 1500-120, prev)
}

func TestPauseThenStartResumesExactly(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	h.clock.Start(ctx, "", 0)
	for i := 0; i < 37; i++ {
		h.clock.Tick(ctx)
	}
	h.clock.Pause(ctx)
	paused := h.clock.State().RemainingSeconds
	assert.False(t, h.clock.State().Running)

	// Ticks delivered after the pause do nothing.
	h.clock.Tick(ctx)
	assert.Equal(t, paused, h.clock.State().RemainingSeconds)

	h.clock.Start(ctx, "", 0)
	assert.Equal(t, paused, h.clock.State().RemainingSeconds)
	assert.True(t, h.clock.State().Running)
}

func TestPauseWhenStoppedIsNoop(t *testing.T) {
	h := newHarness(t, defaultStore())
	_, ch := h.hub.Subscribe(8)

	h.clock.Pause(context.Background())
	assert.Empty(t, drain(ch), "no broadcast for a no-op pause")
}

func TestResetKeepsModeAndPhase(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	h.finish(ctx)
	h.finish(ctx)
	h.finish(ctx) // phase 2, short break
	h.clock.Start(ctx, "", 0)
	h.clock.Tick(ctx)
	h.clock.Tick(ctx)

	before := h.clock.State()
	h.clock.Reset(ctx)
	after := h.clock.State()

	assert.Equal(t, before.Mode, after.Mode)
	assert.Equal(t, before.Phase, after.Phase)
	assert.Equal(t, 300, after.RemainingSeconds)
	assert.False(t, after.Running)
	assert.Equal(t, 0, h.tickers.active())
}

func TestStartWhileRunningKeepsSingleTicker(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	h.clock.Start(ctx, "", 0)
	h.clock.Start(ctx, session.ModeLongBreak, 10)
	h.clock.Start(ctx, "", 0)

	assert.Len(t, h.tickers.created, 1)
	assert.Equal(t, 1, h.tickers.active())
	assert.Equal(t, session.ModeFocus, h.clock.State().Mode, "start while running ignores overrides")

	h.clock.Pause(ctx)
	h.clock.Start(ctx, "", 0)
	assert.Equal(t, 1, h.tickers.active())
	assert.NotNil(t, h.clock.TickC())

	h.clock.Pause(ctx)
	assert.Nil(t, h.clock.TickC())
}

func TestStartOverrides(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	h.clock.Start(ctx, session.ModeLongBreak, 0)
	assert.Equal(t, session.ModeLongBreak, h.clock.State().Mode)
	assert.Equal(t, 900, h.clock.State().RemainingSeconds, "mode entry loads the mode's duration")

	h.clock.Reset(ctx)
	h.clock.Start(ctx, "", 42)
	assert.Equal(t, 42, h.clock.State().RemainingSeconds)

	cur := h.store.Current()
	require.NotNil(t, cur)
	assert.Equal(t, session.ModeLongBreak, cur.Mode)
	assert.Equal(t, session.WorkSessionBreak, cur.WorkSession)
}

func TestBlockingFollowsClock(t *testing.T) {
	store := defaultStore()
	store.blockList = []string{"example.com"}
	h := newHarness(t, store)
	ctx := context.Background()

	h.clock.Init(ctx)
	assert.Empty(t, h.policy.Applied(), "not running")

	h.clock.Start(ctx, "", 0)
	assert.Len(t, h.policy.Applied(), 2, "running focus blocks bare and www domain")

	h.clock.Pause(ctx)
	assert.Empty(t, h.policy.Applied(), "pausing clears both rules")

	h.clock.Start(ctx, "", 0)
	h.clock.ApplyBlockList(ctx, nil)
	assert.Empty(t, h.policy.Applied(), "empty block list")

	h.clock.ApplyBlockList(ctx, []string{"example.com", "reddit.com"})
	assert.Len(t, h.policy.Applied(), 4)

	h.clock.Reset(ctx)
	assert.Empty(t, h.policy.Applied(), "reset stops blocking")

	h.clock.Start(ctx, session.ModeShortBreak, 0)
	assert.Empty(t, h.policy.Applied(), "breaks are never blocked")
}

func TestCompletionWithoutAutoStart(t *testing.T) {
	store := defaultStore()
	store.blockList = []string{"example.com"}
	h := newHarness(t, store)
	ctx := context.Background()

	h.clock.Start(ctx, "", 1)
	assert.NotEmpty(t, h.policy.Applied())
	h.clock.Tick(ctx)
	h.clock.Tick(ctx)

	st := h.clock.State()
	assert.Equal(t, session.ModeShortBreak, st.Mode)
	assert.False(t, st.Running)
	assert.Empty(t, h.policy.Applied())
	assert.Equal(t, 0, h.tickers.active())
}

func TestCompletionWithAutoStart(t *testing.T) {
	store := defaultStore()
	store.settings.AutoStartBreaks = true
	store.settings.AutoStartFocus = true
	store.blockList = []string{"example.com"}
	h := newHarness(t, store)
	ctx := context.Background()

	h.finish(ctx)
	st := h.clock.State()
	assert.Equal(t, session.ModeShortBreak, st.Mode)
	assert.True(t, st.Running)
	assert.Equal(t, 300, st.RemainingSeconds)
	assert.Empty(t, h.policy.Applied(), "break is running but not blocked")
	assert.Equal(t, 1, h.tickers.active())

	// finish on a running clock: Start is a no-op, so tick it down.
	for h.clock.State().Mode == session.ModeShortBreak {
		h.clock.Tick(ctx)
	}
	st = h.clock.State()
	assert.Equal(t, session.ModeFocus, st.Mode)
	assert.True(t, st.Running)
	assert.Equal(t, 2, st.Phase)
	assert.Len(t, h.policy.Applied(), 2)
	assert.Equal(t, 1, h.tickers.active())
}

func TestCompletionWithAutoStartEvents(t *testing.T) {
	store := defaultStore()
	store.settings.AutoStartBreaks = true
	h := newHarness(t, store)
	ctx := context.Background()

	h.clock.Start(ctx, "", 1)
	h.clock.Tick(ctx)
	_, ch := h.hub.Subscribe(16)
	h.clock.Tick(ctx)

	events := drain(ch)
	require.Len(t, events, 3)
	assert.Equal(t, broadcast.KindCompletion, events[0].Kind)

	want := session.Status{Running: true, RemainingSeconds: 300, Mode: session.ModeShortBreak, Phase: 1}
	for _, e := range events[1:] {
		assert.Equal(t, broadcast.KindStateUpdate, e.Kind)
		assert.Equal(t, want, e.Status)
	}
	assert.Less(t, events[1].Seq, events[2].Seq)
}

func TestCompletionSideEffects(t *testing.T) {
	store := defaultStore()
	store.settings.AlarmSound = "kitchen"
	store.settings.Volume = 80
	h := newHarness(t, store)
	ctx := context.Background()
	_, ch := h.hub.Subscribe(64)

	h.finish(ctx)

	require.Len(t, h.alarm.rings, 1)
	assert.Equal(t, "kitchen", h.alarm.rings[0].SoundID)
	assert.Equal(t, 80, h.alarm.rings[0].Volume)
	assert.Equal(t, session.ModeFocus, h.alarm.rings[0].Completed)

	var completions []broadcast.Event
	var last broadcast.Event
	for _, e := range drain(ch) {
		if e.Kind == broadcast.KindCompletion {
			completions = append(completions, e)
		}
		last = e
	}
	require.Len(t, completions, 1, "exactly one completion event per phase")
	assert.Equal(t, session.ModeFocus, completions[0].Mode)
	assert.Equal(t, 1, completions[0].Phase)
	assert.Equal(t, broadcast.KindStateUpdate, last.Kind)
	assert.Equal(t, session.ModeShortBreak, last.Status.Mode)

	saved := store.StoredSettings()
	require.NotNil(t, saved)
	assert.Equal(t, 1, saved.SessionCounters.Focus)
	cur := store.Current()
	require.NotNil(t, cur)
	assert.Equal(t, session.ModeShortBreak, cur.Mode)
	assert.Equal(t, session.WorkSessionBreak, cur.WorkSession)

	require.Len(t, h.recorder.records, 1)
	assert.Equal(t, session.ModeFocus, h.recorder.records[0].Mode)
	assert.False(t, h.recorder.records[0].IsActive())
}

func TestSessionCountersPerMode(t *testing.T) {
	store := defaultStore()
	store.settings.LongBreakInterval = 2
	h := newHarness(t, store)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		h.finish(ctx)
	}
	c := h.clock.Settings().SessionCounters
	assert.Equal(t, 4, c.Focus)
	assert.Equal(t, 2, c.ShortBreak)
	assert.Equal(t, 2, c.LongBreak)
}

func TestTickBroadcastsOncePerObserver(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()
	h.clock.Start(ctx, "", 0)

	_, popup := h.hub.Subscribe(8)
	_, panel := h.hub.Subscribe(8)
	h.clock.Tick(ctx)

	a := drain(popup)
	b := drain(panel)
	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, a[0], b[0])
	assert.Equal(t, session.Status{Running: true, RemainingSeconds: 1499, Mode: session.ModeFocus, Phase: 1}, a[0].Status)
}

func TestApplySettingsTakesEffectOnNextModeEntry(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()
	h.clock.Start(ctx, "", 0)
	h.clock.Tick(ctx)

	s := h.clock.Settings()
	s.FocusMinutes = 50
	s.ShortBreakMinutes = 10
	h.clock.ApplySettings(s)
	assert.Equal(t, 1499, h.clock.State().RemainingSeconds, "current phase is unaffected")

	for h.clock.State().Mode == session.ModeFocus {
		h.clock.Tick(ctx)
	}
	assert.Equal(t, 600, h.clock.State().RemainingSeconds)
}

func TestFailedWritesDoNotBreakClock(t *testing.T) {
	store := defaultStore()
	store.failWrites = true
	h := newHarness(t, store)
	ctx := context.Background()

	h.finish(ctx)
	h.finish(ctx)
	st := h.clock.State()
	assert.Equal(t, session.ModeFocus, st.Mode)
	assert.Equal(t, 2, st.Phase)
	assert.Equal(t, 0, store.saves)
}

func TestShutdownLiftsBlocking(t *testing.T) {
	store := defaultStore()
	store.blockList = []string{"example.com"}
	h := newHarness(t, store)
	ctx := context.Background()

	h.clock.Start(ctx, "", 0)
	require.NotEmpty(t, h.policy.Applied())
	h.clock.Shutdown(ctx)
	assert.Empty(t, h.policy.Applied())
	assert.Equal(t, 0, h.tickers.active())
}

func TestPhaseRecordTracksPauses(t *testing.T) {
	h := newHarness(t, defaultStore())
	ctx := context.Background()

	h.clock.Start(ctx, "", 2)
	h.clock.Pause(ctx)
	h.clock.Start(ctx, "", 0)
	h.clock.Tick(ctx)
	h.clock.Tick(ctx)
	h.clock.Tick(ctx)

	require.Len(t, h.recorder.records, 1)
	rec := h.recorder.records[0]
	assert.Len(t, rec.Segments, 2)
	assert.Equal(t, "pause", rec.Segments[0].Reason)
}
