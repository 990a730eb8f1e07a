package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSettings_MergesOverDefaults(t *testing.T) {
	s, err := DecodeSettings([]byte(`{"focus_minutes": 50, "auto_start_breaks": true}`))
	require.NoError(t, err)

	assert.Equal(t, 50.0, s.FocusMinutes)
	assert.True(t, s.AutoStartBreaks)
	assert.Equal(t, float64(DefaultShortBreakMinutes), s.ShortBreakMinutes)
	assert.Equal(t, float64(DefaultLongBreakMinutes), s.LongBreakMinutes)
	assert.Equal(t, DefaultLongBreakInterval, s.LongBreakInterval)
	assert.Equal(t, DefaultAlarmSound, s.AlarmSound)
	assert.Equal(t, DefaultVolume, s.Volume)
}

func TestDecodeSettings_Invalid(t *testing.T) {
	s, err := DecodeSettings([]byte(`{not json`))
	assert.Error(t, err)
	assert.Equal(t, DefaultSettings(), s)
}

func TestSettings_Normalize(t *testing.T) {
	tests := []struct {
		name  string
		in    Settings
		check func(t *testing.T, s Settings)
	}{
		{
			name: "Zero interval falls back to default",
			in:   Settings{LongBreakInterval: 0},
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, DefaultLongBreakInterval, s.LongBreakInterval)
			},
		},
		{
			name: "Volume clamped high",
			in:   Settings{LongBreakInterval: 2, Volume: 140},
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, 100, s.Volume)
				assert.Equal(t, 2, s.LongBreakInterval)
			},
		},
		{
			name: "Volume clamped low",
			in:   Settings{LongBreakInterval: 2, Volume: -3},
			check: func(t *testing.T, s Settings) {
				assert.Equal(t, 0, s.Volume)
			},
		},
		{
			name: "Negative durations become zero",
			in:   Settings{FocusMinutes: -1, ShortBreakMinutes: -2, LongBreakMinutes: -3},
			check: func(t *testing.T, s Settings) {
				assert.Zero(t, s.FocusMinutes)
				assert.Zero(t, s.ShortBreakMinutes)
				assert.Zero(t, s.LongBreakMinutes)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.in
			s.Normalize()
			tt.check(t, s)
		})
	}
}

func TestSettings_DurationSeconds(t *testing.T) {
	s := DefaultSettings()
	s.FocusMinutes = 25
	s.ShortBreakMinutes = 0.1
	s.LongBreakMinutes = 0.0125 // 0.75s

	assert.Equal(t, 1500, s.DurationSeconds(ModeFocus))
	assert.Equal(t, 6, s.DurationSeconds(ModeShortBreak))
	assert.Equal(t, 1, s.DurationSeconds(ModeLongBreak))
}

func TestSettings_IsLongBreakDue(t *testing.T) {
	s := DefaultSettings()
	s.LongBreakInterval = 4

	var due []int
	for phase := 1; phase <= 12; phase++ {
		if s.IsLongBreakDue(phase) {
			due = append(due, phase)
		}
	}
	assert.Equal(t, []int{4, 8, 12}, due)

	s.LongBreakInterval = 1
	assert.True(t, s.IsLongBreakDue(1))
	assert.True(t, s.IsLongBreakDue(7))
}

func TestSessionCounters(t *testing.T) {
	var c SessionCounters
	c.Increment(ModeFocus)
	c.Increment(ModeFocus)
	c.Increment(ModeLongBreak)

	assert.Equal(t, 2, c.Get(ModeFocus))
	assert.Equal(t, 0, c.Get(ModeShortBreak))
	assert.Equal(t, 1, c.Get(ModeLongBreak))
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		input       string
		want        Mode
		expectError bool
	}{
		{"focus", ModeFocus, false},
		{"pomodoro", ModeFocus, false},
		{" Short ", ModeShortBreak, false},
		{"long_break", ModeLongBreak, false},
		{"nap", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseMode(tt.input)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrUnknownMode)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMode_WorkSession(t *testing.T) {
	assert.Equal(t, WorkSessionWork, ModeFocus.WorkSession())
	assert.Equal(t, WorkSessionBreak, ModeShortBreak.WorkSession())
	assert.Equal(t, WorkSessionBreak, ModeLongBreak.WorkSession())
}
