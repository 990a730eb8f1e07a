package arg

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SoarinFerret/FocusWarden/internal/session"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change timer settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openState()
		if err != nil {
			return err
		}
		s, err := mgr.Settings()
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), outputFormat(), s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: `Change one setting. The running phase keeps its time; new durations apply
from the next mode.
Keys:
  focus, short_break, long_break   minutes (decimals allowed)
  interval                         focus phases per long break
  auto_start_breaks, auto_start_focus  true or false
  sound                            alarm sound name
  volume                           0-100
  custom_sound                     path to a sound file`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := openState()
		if err != nil {
			return err
		}
		s, err := mgr.UpdateSettings(func(s *session.Settings) error {
			return applySetting(s, args[0], args[1])
		})
		if err != nil {
			return err
		}
		return printSettings(cmd.OutOrStdout(), outputFormat(), s)
	},
}

// applySetting parses value and stores it under key.
func applySetting(s *session.Settings, key, value string) error {
	switch strings.ToLower(strings.ReplaceAll(key, "-", "_")) {
	case "focus", "focus_minutes":
		return parseMinutes(value, &s.FocusMinutes)
	case "short_break", "short_break_minutes":
		return parseMinutes(value, &s.ShortBreakMinutes)
	case "long_break", "long_break_minutes":
		return parseMinutes(value, &s.LongBreakMinutes)
	case "interval", "long_break_interval":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("interval must be a positive integer, got %q", value)
		}
		s.LongBreakInterval = n
	case "auto_start_breaks":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		s.AutoStartBreaks = b
	case "auto_start_focus", "auto_start_pomodoros":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", value)
		}
		s.AutoStartFocus = b
	case "sound", "alarm_sound":
		if value == "" {
			return fmt.Errorf("sound must not be empty")
		}
		s.AlarmSound = value
	case "volume":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 100 {
			return fmt.Errorf("volume must be between 0 and 100, got %q", value)
		}
		s.Volume = n
	case "custom_sound":
		data, err := os.ReadFile(value)
		if err != nil {
			return fmt.Errorf("read custom sound: %w", err)
		}
		s.AlarmSound = session.CustomSound
		s.CustomSoundName = filepath.Base(value)
		s.CustomSoundData = data
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}

func parseMinutes(value string, dst *float64) error {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("minutes must be a positive number, got %q", value)
	}
	*dst = f
	return nil
}

func printSettings(w io.Writer, format string, s session.Settings) error {
	return render(w, format, s, func(w io.Writer) {
		fmt.Fprintf(w, "Focus:              %g min\n", s.FocusMinutes)
		fmt.Fprintf(w, "Short break:        %g min\n", s.ShortBreakMinutes)
		fmt.Fprintf(w, "Long break:         %g min\n", s.LongBreakMinutes)
		fmt.Fprintf(w, "Long break every:   %d focus phases\n", s.LongBreakInterval)
		fmt.Fprintf(w, "Auto-start breaks:  %t\n", s.AutoStartBreaks)
		fmt.Fprintf(w, "Auto-start focus:   %t\n", s.AutoStartFocus)
		sound := s.AlarmSound
		if sound == session.CustomSound && s.CustomSoundName != "" {
			sound = fmt.Sprintf("%s (%s)", sound, s.CustomSoundName)
		}
		fmt.Fprintf(w, "Alarm sound:        %s\n", sound)
		fmt.Fprintf(w, "Volume:             %d\n", s.Volume)
	})
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}
