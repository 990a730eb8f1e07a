package engine

import (
	"context"
	"errors"
	"log/slog"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// ErrStopped is returned by commands sent after the engine has exited.
var ErrStopped = errors.New("engine stopped")

type commandKind int

const (
	cmdStart commandKind = iota
	cmdPause
	cmdReset
	cmdState
)

type command struct {
	kind    commandKind
	mode    session.Mode
	seconds int
	reply   chan session.Status
}

// Engine owns a Clock and serializes every mutation through one goroutine:
// commands, ticks, and external settings or block list changes.
type Engine struct {
	clock     *Clock
	commands  chan command
	settings  chan session.Settings
	blockList chan []string
	done      chan struct{}
	logger    *slog.Logger
}

// New creates an engine around clock. Call Run to start it.
func New(clock *Clock, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		clock:     clock,
		commands:  make(chan command),
		settings:  make(chan session.Settings, 1),
		blockList: make(chan []string, 1),
		done:      make(chan struct{}),
		logger:    logger,
	}
}

// Run processes events until ctx is cancelled. It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.logger.Info("engine started")
	e.clock.Init(ctx)

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine shutting down")
			e.clock.Shutdown(context.WithoutCancel(ctx))
			return nil
		case cmd := <-e.commands:
			e.handle(ctx, cmd)
		case <-e.clock.TickC():
			e.clock.Tick(ctx)
		case s := <-e.settings:
			e.clock.ApplySettings(s)
		case list := <-e.blockList:
			e.clock.ApplyBlockList(ctx, list)
		}
	}
}

func (e *Engine) handle(ctx context.Context, cmd command) {
	switch cmd.kind {
	case cmdStart:
		e.clock.Start(ctx, cmd.mode, cmd.seconds)
	case cmdPause:
		e.clock.Pause(ctx)
	case cmdReset:
		e.clock.Reset(ctx)
	case cmdState:
	}
	cmd.reply <- e.clock.Status()
}

// Start runs the clock. An empty mode and seconds <= 0 mean "no override".
func (e *Engine) Start(ctx context.Context, mode session.Mode, seconds int) (session.Status, error) {
	return e.do(ctx, command{kind: cmdStart, mode: mode, seconds: seconds})
}

// Pause stops a running clock.
func (e *Engine) Pause(ctx context.Context) (session.Status, error) {
	return e.do(ctx, command{kind: cmdPause})
}

// Reset refills the current mode and stops the clock.
func (e *Engine) Reset(ctx context.Context) (session.Status, error) {
	return e.do(ctx, command{kind: cmdReset})
}

// State returns the public clock state.
func (e *Engine) State(ctx context.Context) (session.Status, error) {
	return e.do(ctx, command{kind: cmdState})
}

// SettingsChanged hands externally written settings to the engine. A
// newer change replaces one that has not been applied yet.
func (e *Engine) SettingsChanged(s session.Settings) {
	for {
		select {
		case e.settings <- s:
			return
		case <-e.done:
			return
		default:
		}
		select {
		case <-e.settings:
		default:
		}
	}
}

// BlockListChanged hands an externally written block list to the engine.
// A newer list replaces one that has not been applied yet.
func (e *Engine) BlockListChanged(list []string) {
	for {
		select {
		case e.blockList <- list:
			return
		case <-e.done:
			return
		default:
		}
		select {
		case <-e.blockList:
		default:
		}
	}
}

func (e *Engine) do(ctx context.Context, cmd command) (session.Status, error) {
	cmd.reply = make(chan session.Status, 1)
	select {
	case e.commands <- cmd:
	case <-e.done:
		return session.Status{}, ErrStopped
	case <-ctx.Done():
		return session.Status{}, ctx.Err()
	}

	select {
	case st := <-cmd.reply:
		return st, nil
	case <-e.done:
		return session.Status{}, ErrStopped
	case <-ctx.Done():
		return session.Status{}, ctx.Err()
	}
}
