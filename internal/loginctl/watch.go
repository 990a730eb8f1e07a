// Package loginctl follows systemd-logind so the timer can be paused when
// the machine sleeps or the user's screen locks.
package loginctl

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"
)

const (
	login1Service   = "org.freedesktop.login1"
	login1Path      = "/org/freedesktop/login1"
	managerIface    = "org.freedesktop.login1.Manager"
	sessionIface    = "org.freedesktop.login1.Session"
	propertiesIface = "org.freedesktop.DBus.Properties"
)

// Kind of a logind event.
type Kind int

const (
	KindNone Kind = iota
	KindSleep
	KindWake
	KindLock
	KindUnlock
)

// Event is a decoded logind signal. Session is set for lock events.
type Event struct {
	Kind    Kind
	Session dbus.ObjectPath
}

// Handlers are called from the watch goroutine. Nil handlers are skipped.
type Handlers struct {
	Sleep func()
	Lock  func()
}

// Decode maps a logind signal to an event. Unrelated signals decode to
// KindNone.
func Decode(sig *dbus.Signal) Event {
	switch sig.Name {
	case managerIface + ".PrepareForSleep":
		if len(sig.Body) == 0 {
			return Event{}
		}
		sleeping, _ := sig.Body[0].(bool)
		if sleeping {
			return Event{Kind: KindSleep}
		}
		return Event{Kind: KindWake}

	case propertiesIface + ".PropertiesChanged":
		if len(sig.Body) < 2 {
			return Event{}
		}
		iface, ok := sig.Body[0].(string)
		if !ok || iface != sessionIface {
			return Event{}
		}
		changedProps, ok := sig.Body[1].(map[string]dbus.Variant)
		if !ok {
			return Event{}
		}
		val, exists := changedProps["LockedHint"]
		if !exists {
			return Event{}
		}
		locked, _ := val.Value().(bool)
		if locked {
			return Event{Kind: KindLock, Session: sig.Path}
		}
		return Event{Kind: KindUnlock, Session: sig.Path}
	}
	return Event{}
}

// Watch listens on the system bus until ctx is done. Lock events are only
// acted on for user-class sessions owned by uid.
func Watch(ctx context.Context, uid uint32, h Handlers, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.AddMatchSignal(
		dbus.WithMatchObjectPath(login1Path),
		dbus.WithMatchInterface(managerIface),
		dbus.WithMatchMember("PrepareForSleep"),
	); err != nil {
		return fmt.Errorf("add match failed: %w", err)
	}

	// watch for property changes (session locked)
	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(propertiesIface),
		dbus.WithMatchMember("PropertiesChanged"),
	); err != nil {
		return fmt.Errorf("add match for PropertiesChanged failed: %w", err)
	}

	c := make(chan *dbus.Signal, 10)
	conn.Signal(c)
	defer conn.RemoveSignal(c)

	owned := func(path dbus.ObjectPath) (bool, error) {
		return ownedBy(conn, path, uid)
	}
	return watchSignals(ctx, c, owned, h, logger)
}

// watchSignals dispatches decoded signals from c until ctx is done. It
// returns an error once c is closed, which godbus does when the connection
// drops.
func watchSignals(ctx context.Context, c <-chan *dbus.Signal, owned func(dbus.ObjectPath) (bool, error), h Handlers, logger *slog.Logger) error {
	for {
		select {
		case sig, ok := <-c:
			if !ok {
				return fmt.Errorf("system bus connection closed")
			}
			if sig == nil {
				continue
			}
			e := Decode(sig)
			switch e.Kind {
			case KindSleep:
				logger.Info("system is going to sleep")
				if h.Sleep != nil {
					h.Sleep()
				}
			case KindWake:
				logger.Info("system has woken up")
			case KindLock:
				mine, err := owned(e.Session)
				if err != nil {
					logger.Debug("LockedHint: failed to inspect session", "session", e.Session, "err", err)
					break
				}
				if !mine {
					break
				}
				logger.Info("session locked", "session", e.Session)
				if h.Lock != nil {
					h.Lock()
				}
			}
		case <-ctx.Done():
			return nil
		}
	}
}

// ownedBy reports whether sessionPath is a user session belonging to uid.
func ownedBy(conn *dbus.Conn, sessionPath dbus.ObjectPath, uid uint32) (bool, error) {
	class, err := getSessionClass(conn, sessionPath)
	if err != nil {
		return false, err
	}
	if class != "user" {
		return false, nil
	}
	owner, err := getSessionUID(conn, sessionPath)
	if err != nil {
		return false, err
	}
	return owner == uid, nil
}

func getSessionUID(conn *dbus.Conn, sessionPath dbus.ObjectPath) (uint32, error) {
	sessionObj := conn.Object(login1Service, sessionPath)

	var user dbus.Variant
	err := sessionObj.Call(propertiesIface+".Get", 0, sessionIface, "User").Store(&user)
	if err != nil {
		return 0, fmt.Errorf("failed to get user info: %w", err)
	}
	// User is a (uo) struct: uid and object path.
	userInfo, ok := user.Value().([]interface{})
	if !ok || len(userInfo) < 2 {
		return 0, fmt.Errorf("unexpected type for session user")
	}
	uid, ok := userInfo[0].(uint32)
	if !ok {
		return 0, fmt.Errorf("unexpected type for session uid")
	}
	return uid, nil
}

func getSessionClass(conn *dbus.Conn, sessionPath dbus.ObjectPath) (string, error) {
	obj := conn.Object(login1Service, sessionPath)
	var class dbus.Variant
	err := obj.Call(propertiesIface+".Get", 0, sessionIface, "Class").Store(&class)
	if err != nil {
		return "", err
	}
	if v, ok := class.Value().(string); ok {
		return v, nil
	}
	return "", fmt.Errorf("unexpected type for session class")
}
