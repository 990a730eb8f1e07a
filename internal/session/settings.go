package session

import (
	"encoding/json"
	"fmt"
	"math"
)

const (
	DefaultFocusMinutes      = 25
	DefaultShortBreakMinutes = 5
	DefaultLongBreakMinutes  = 15
	DefaultLongBreakInterval = 4
	DefaultAlarmSound        = "bell"
	DefaultVolume            = 50

	// CustomSound selects the custom sound payload instead of a named sound.
	CustomSound = "custom"
)

// SessionCounters holds the number of completed phases per mode.
type SessionCounters struct {
	Focus      int `json:"focus" yaml:"focus"`
	ShortBreak int `json:"short_break" yaml:"short_break"`
	LongBreak  int `json:"long_break" yaml:"long_break"`
}

// Increment bumps the counter for m.
func (c *SessionCounters) Increment(m Mode) {
	switch m {
	case ModeFocus:
		c.Focus++
	case ModeShortBreak:
		c.ShortBreak++
	case ModeLongBreak:
		c.LongBreak++
	}
}

// Get returns the counter for m.
func (c SessionCounters) Get(m Mode) int {
	switch m {
	case ModeFocus:
		return c.Focus
	case ModeShortBreak:
		return c.ShortBreak
	case ModeLongBreak:
		return c.LongBreak
	}
	return 0
}

// Settings is the durable, shared user configuration. Durations are in
// minutes and may be fractional.
type Settings struct {
	FocusMinutes      float64         `json:"focus_minutes" yaml:"focus_minutes"`
	ShortBreakMinutes float64         `json:"short_break_minutes" yaml:"short_break_minutes"`
	LongBreakMinutes  float64         `json:"long_break_minutes" yaml:"long_break_minutes"`
	LongBreakInterval int             `json:"long_break_interval" yaml:"long_break_interval"`
	AutoStartBreaks   bool            `json:"auto_start_breaks" yaml:"auto_start_breaks"`
	AutoStartFocus    bool            `json:"auto_start_focus" yaml:"auto_start_focus"`
	AlarmSound        string          `json:"alarm_sound" yaml:"alarm_sound"`
	Volume            int             `json:"volume" yaml:"volume"`
	CustomSoundName   string          `json:"custom_sound_name,omitempty" yaml:"custom_sound_name,omitempty"`
	CustomSoundData   []byte          `json:"custom_sound_data,omitempty" yaml:"-"`
	SessionCounters   SessionCounters `json:"session_counters" yaml:"session_counters"`
}

// DefaultSettings returns the settings used when nothing is stored.
func DefaultSettings() Settings {
	return Settings{
		FocusMinutes:      DefaultFocusMinutes,
		ShortBreakMinutes: DefaultShortBreakMinutes,
		LongBreakMinutes:  DefaultLongBreakMinutes,
		LongBreakInterval: DefaultLongBreakInterval,
		AlarmSound:        DefaultAlarmSound,
		Volume:            DefaultVolume,
	}
}

// DecodeSettings unmarshals data over the defaults, so keys missing from
// the stored record keep their default value.
func DecodeSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("decode settings: %w", err)
	}
	s.Normalize()
	return s, nil
}

// Normalize repairs values that would break the clock.
func (s *Settings) Normalize() {
	if s.LongBreakInterval < 1 {
		s.LongBreakInterval = DefaultLongBreakInterval
	}
	if s.Volume < 0 {
		s.Volume = 0
	}
	if s.Volume > 100 {
		s.Volume = 100
	}
	if s.FocusMinutes < 0 {
		s.FocusMinutes = 0
	}
	if s.ShortBreakMinutes < 0 {
		s.ShortBreakMinutes = 0
	}
	if s.LongBreakMinutes < 0 {
		s.LongBreakMinutes = 0
	}
	if s.AlarmSound == "" {
		s.AlarmSound = DefaultAlarmSound
	}
}

// Minutes returns the configured duration for m in minutes.
func (s Settings) Minutes(m Mode) float64 {
	switch m {
	case ModeShortBreak:
		return s.ShortBreakMinutes
	case ModeLongBreak:
		return s.LongBreakMinutes
	default:
		return s.FocusMinutes
	}
}

// DurationSeconds converts the duration for m to whole seconds, rounding
// to nearest. It is evaluated on every mode entry and never cached.
func (s Settings) DurationSeconds(m Mode) int {
	return int(math.Round(s.Minutes(m) * 60))
}

// IsLongBreakDue reports whether finishing focus in the given phase earns a
// long break. The phase counter is checked before it is incremented.
func (s Settings) IsLongBreakDue(phase int) bool {
	interval := s.LongBreakInterval
	if interval < 1 {
		interval = DefaultLongBreakInterval
	}
	return phase%interval == 0
}
