package ipc

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/FocusWarden/internal/blocking"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

const (
	ObjectPath    = "/io/github/soarinferret/focuswarden"
	InterfaceName = "io.github.soarinferret.focuswarden.Timer"
	ServiceName   = "io.github.soarinferret.focuswarden"

	SignalStateUpdate = "StateUpdate"
	SignalCompletion  = "Completion"
)

// Timer is the command surface of the clock engine.
type Timer interface {
	Start(ctx context.Context, mode session.Mode, seconds int) (session.Status, error)
	Pause(ctx context.Context) (session.Status, error)
	Reset(ctx context.Context) (session.Status, error)
	State(ctx context.Context) (session.Status, error)
}

// RuleSource exposes the rule set currently applied.
type RuleSource interface {
	Applied() blocking.RuleSet
}

// TimerService is the object exported on the bus. Every method returns the
// clock status after the command as (running, remaining, mode, phase).
type TimerService struct {
	Timer  Timer
	Rules  RuleSource
	Ctx    context.Context
	Logger *slog.Logger
}

func (s *TimerService) ctx() context.Context {
	if s.Ctx == nil {
		return context.Background()
	}
	return s.Ctx
}

func (s *TimerService) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *TimerService) Start(mode string, seconds int32) (bool, int32, string, int32, *dbus.Error) {
	var m session.Mode
	if mode != "" {
		parsed, err := session.ParseMode(mode)
		if err != nil {
			return reply(session.Status{}, err)
		}
		m = parsed
	}
	s.logger().Debug("dbus Start", "mode", m, "seconds", seconds)
	return reply(s.Timer.Start(s.ctx(), m, int(seconds)))
}

func (s *TimerService) Pause() (bool, int32, string, int32, *dbus.Error) {
	s.logger().Debug("dbus Pause")
	return reply(s.Timer.Pause(s.ctx()))
}

func (s *TimerService) Reset() (bool, int32, string, int32, *dbus.Error) {
	s.logger().Debug("dbus Reset")
	return reply(s.Timer.Reset(s.ctx()))
}

func (s *TimerService) GetState() (bool, int32, string, int32, *dbus.Error) {
	return reply(s.Timer.State(s.ctx()))
}

// GetRules returns the applied rule set as JSON.
func (s *TimerService) GetRules() (string, *dbus.Error) {
	rules := blocking.RuleSet{}
	if s.Rules != nil {
		rules = s.Rules.Applied()
	}
	data, err := json.Marshal(rules)
	if err != nil {
		return "", dbus.MakeFailedError(err)
	}
	return string(data), nil
}

func reply(st session.Status, err error) (bool, int32, string, int32, *dbus.Error) {
	if err != nil {
		return false, 0, "", 0, dbus.MakeFailedError(err)
	}
	running, remaining, mode, phase := EncodeStatus(st)
	return running, remaining, mode, phase, nil
}

// EncodeStatus flattens a status into its wire representation.
func EncodeStatus(st session.Status) (bool, int32, string, int32) {
	return st.Running, int32(st.RemainingSeconds), string(st.Mode), int32(st.Phase)
}

// DecodeStatus is the inverse of EncodeStatus.
func DecodeStatus(running bool, remaining int32, mode string, phase int32) session.Status {
	return session.Status{
		Running:          running,
		RemainingSeconds: int(remaining),
		Mode:             session.Mode(mode),
		Phase:            int(phase),
	}
}
