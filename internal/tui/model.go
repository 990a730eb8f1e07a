// Package tui is a Bubbletea observer for the running timer. It shows the
// state fetched once at start-up and then follows broadcast events.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/SoarinFerret/FocusWarden/internal/broadcast"
	"github.com/SoarinFerret/FocusWarden/internal/notify"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

const callTimeout = 5 * time.Second

// Controller sends commands to the timer.
type Controller interface {
	Start(ctx context.Context, mode session.Mode, seconds int) (session.Status, error)
	Pause(ctx context.Context) (session.Status, error)
	Reset(ctx context.Context) (session.Status, error)
	State(ctx context.Context) (session.Status, error)
}

// statusMsg carries a reply from the daemon. initial marks the one-off
// state read made at start-up.
type statusMsg struct {
	status  session.Status
	err     error
	initial bool
}

type eventMsg struct {
	event broadcast.Event
}

type eventsClosedMsg struct{}

// Model is the Bubbletea model for the timer view.
type Model struct {
	ctl    Controller
	events <-chan broadcast.Event

	status    session.Status
	loaded    bool
	followed  bool
	lastSeq   uint64
	notice    string
	err       error
	streamErr func() error

	keys     KeyMap
	help     help.Model
	width    int
	quitting bool
}

// New creates a model reading events from events.
func New(ctl Controller, events <-chan broadcast.Event) *Model {
	return &Model{
		ctl:    ctl,
		events: events,
		keys:   DefaultKeyMap(),
		help:   help.New(),
	}
}

// WithStreamErr sets fn to report why the event channel was closed.
func (m *Model) WithStreamErr(fn func() error) *Model {
	m.streamErr = fn
	return m
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.initialState(), m.waitForEvent())
}

func (m *Model) initialState() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		st, err := m.ctl.State(ctx)
		return statusMsg{status: st, err: err, initial: true}
	}
}

func (m *Model) call(fn func(ctx context.Context) (session.Status, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
		defer cancel()
		st, err := fn(ctx)
		return statusMsg{status: st, err: err}
	}
}

func (m *Model) waitForEvent() tea.Cmd {
	if m.events == nil {
		return nil
	}
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg{event: e}
	}
}

func (m *Model) Status() session.Status { return m.status }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case statusMsg:
		// A broadcast already applied is newer than the start-up read.
		if msg.initial && m.followed {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.status = msg.status
		m.loaded = true
		return m, nil

	case eventMsg:
		m.applyEvent(msg.event)
		return m, m.waitForEvent()

	case eventsClosedMsg:
		m.err = fmt.Errorf("lost connection to focuswardend")
		if m.streamErr != nil {
			if err := m.streamErr(); err != nil {
				m.err = fmt.Errorf("lost connection to focuswardend: %w", err)
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// applyEvent folds a broadcast into the view. A sequence number lower than
// the last seen one means the daemon restarted, so it is accepted.
func (m *Model) applyEvent(e broadcast.Event) {
	if e.Seq != 0 && e.Seq == m.lastSeq {
		return
	}
	m.lastSeq = e.Seq
	m.followed = true
	switch e.Kind {
	case broadcast.KindStateUpdate:
		m.status = e.Status
		m.loaded = true
		m.err = nil
		if e.Status.Running {
			m.notice = ""
		}
	case broadcast.KindCompletion:
		_, body := notify.Message(e.Mode)
		m.notice = body
	}
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		if m.status.Running {
			return m, m.call(m.ctl.Pause)
		}
		return m, m.start("")
	case key.Matches(msg, m.keys.Start):
		return m, m.start("")
	case key.Matches(msg, m.keys.Pause):
		return m, m.call(m.ctl.Pause)
	case key.Matches(msg, m.keys.Reset):
		return m, m.call(m.ctl.Reset)
	case key.Matches(msg, m.keys.Focus):
		return m, m.start(session.ModeFocus)
	case key.Matches(msg, m.keys.Short):
		return m, m.start(session.ModeShortBreak)
	case key.Matches(msg, m.keys.Long):
		return m, m.start(session.ModeLongBreak)
	}
	return m, nil
}

func (m *Model) start(mode session.Mode) tea.Cmd {
	return m.call(func(ctx context.Context) (session.Status, error) {
		return m.ctl.Start(ctx, mode, 0)
	})
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	if !m.loaded {
		b.WriteString(mutedStyle.Render("Connecting to focuswardend..."))
		b.WriteString("\n")
		if m.err != nil {
			b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
			b.WriteString("\n")
		}
		return b.String()
	}

	label := m.status.Mode.Label()
	color := modeColor(label)
	b.WriteString(titleStyle.Background(color).Render(label))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("phase %d", m.status.Phase)))
	b.WriteString("\n")

	state := "paused"
	if m.status.Running {
		state = "running"
	}
	clock := clockStyle.BorderForeground(color).Render(session.FormatClock(m.status.RemainingSeconds))
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Center, clock, "  ", mutedStyle.Render(state)))
	b.WriteString("\n")

	if m.notice != "" {
		b.WriteString(noticeStyle.Render(m.notice))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}
