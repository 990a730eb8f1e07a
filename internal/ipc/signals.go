package ipc

import (
	"context"
	"fmt"

	"github.com/godbus/dbus/v5"

	"github.com/SoarinFerret/FocusWarden/internal/broadcast"
	"github.com/SoarinFerret/FocusWarden/internal/session"
)

// Emitter is the part of *dbus.Conn a SignalSink needs.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// SignalSink forwards hub events as D-Bus signals.
type SignalSink struct {
	Conn Emitter
}

func (s SignalSink) Deliver(e broadcast.Event) error {
	path := dbus.ObjectPath(ObjectPath)
	switch e.Kind {
	case broadcast.KindStateUpdate:
		running, remaining, mode, phase := EncodeStatus(e.Status)
		return s.Conn.Emit(path, InterfaceName+"."+SignalStateUpdate, e.Seq, running, remaining, mode, phase)
	case broadcast.KindCompletion:
		return s.Conn.Emit(path, InterfaceName+"."+SignalCompletion, e.Seq, string(e.Mode), int32(e.Phase))
	}
	return fmt.Errorf("unknown event kind %q", e.Kind)
}

// DecodeSignal turns a received signal back into an event. ok is false for
// signals that are not ours or have an unexpected body.
func DecodeSignal(sig *dbus.Signal) (broadcast.Event, bool) {
	if sig == nil {
		return broadcast.Event{}, false
	}
	switch sig.Name {
	case InterfaceName + "." + SignalStateUpdate:
		if len(sig.Body) < 5 {
			return broadcast.Event{}, false
		}
		seq, ok1 := sig.Body[0].(uint64)
		running, ok2 := sig.Body[1].(bool)
		remaining, ok3 := sig.Body[2].(int32)
		mode, ok4 := sig.Body[3].(string)
		phase, ok5 := sig.Body[4].(int32)
		if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
			return broadcast.Event{}, false
		}
		e := broadcast.StateUpdate(DecodeStatus(running, remaining, mode, phase))
		e.Seq = seq
		return e, true
	case InterfaceName + "." + SignalCompletion:
		if len(sig.Body) < 3 {
			return broadcast.Event{}, false
		}
		seq, ok1 := sig.Body[0].(uint64)
		mode, ok2 := sig.Body[1].(string)
		phase, ok3 := sig.Body[2].(int32)
		if !ok1 || !ok2 || !ok3 {
			return broadcast.Event{}, false
		}
		e := broadcast.Completion(session.Mode(mode), int(phase))
		e.Seq = seq
		return e, true
	}
	return broadcast.Event{}, false
}

// Subscription is a registered match for the daemon's signals. Signals
// arriving before Follow runs are buffered.
type Subscription struct {
	conn *dbus.Conn
	c    chan *dbus.Signal
}

// Subscribe adds the signal match. Call it before reading the initial
// state so no broadcast in between is missed.
func Subscribe(conn *dbus.Conn) (*Subscription, error) {
	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(dbus.ObjectPath(ObjectPath)),
		dbus.WithMatchInterface(InterfaceName),
	); err != nil {
		return nil, fmt.Errorf("add match failed: %w", err)
	}

	c := make(chan *dbus.Signal, 16)
	conn.Signal(c)
	return &Subscription{conn: conn, c: c}, nil
}

// Follow calls fn for each event until ctx is done. It returns an error
// if the bus connection goes away first.
func (s *Subscription) Follow(ctx context.Context, fn func(broadcast.Event)) error {
	defer s.conn.RemoveSignal(s.c)
	return follow(ctx, s.c, fn)
}

func follow(ctx context.Context, c <-chan *dbus.Signal, fn func(broadcast.Event)) error {
	for {
		select {
		case sig, ok := <-c:
			if !ok {
				return fmt.Errorf("bus connection closed")
			}
			if e, ok := DecodeSignal(sig); ok {
				fn(e)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
