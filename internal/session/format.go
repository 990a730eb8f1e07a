package session

import "fmt"

// FormatClock renders seconds as MM:SS, or H:MM:SS from one hour up.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	hours := seconds / 3600
	minutes := (seconds / 60) % 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

// FormatMinutes renders a total in seconds as a human-readable amount.
func FormatMinutes(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds / 60) % 60
	if hours > 0 {
		return fmt.Sprintf("%d hour(s) %d minute(s)", hours, minutes)
	}
	return fmt.Sprintf("%d minute(s)", minutes)
}
