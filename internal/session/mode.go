package session

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode is returned when a mode name cannot be parsed.
var ErrUnknownMode = errors.New("unknown mode")

// Modes lists every mode in display order.
var Modes = []Mode{ModeFocus, ModeShortBreak, ModeLongBreak}

// ParseMode accepts the wire names plus a few common aliases.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "focus", "pomodoro", "work":
		return ModeFocus, nil
	case "short_break", "short", "shortbreak":
		return ModeShortBreak, nil
	case "long_break", "long", "longbreak":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

func (m Mode) Valid() bool {
	return m == ModeFocus || m == ModeShortBreak || m == ModeLongBreak
}

func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// WorkSession returns the coarse marker for m.
func (m Mode) WorkSession() WorkSession {
	if m == ModeFocus {
		return WorkSessionWork
	}
	return WorkSessionBreak
}

// Label is the human readable name of m.
func (m Mode) Label() string {
	switch m {
	case ModeFocus:
		return "Focus"
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	}
	return string(m)
}
