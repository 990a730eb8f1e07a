package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorFocus = lipgloss.Color("196") // red
	colorShort = lipgloss.Color("76")  // green
	colorLong  = lipgloss.Color("39")  // blue
	colorMuted = lipgloss.Color("242") // gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4).
			Border(lipgloss.RoundedBorder())

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	noticeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))
)

func modeColor(label string) lipgloss.Color {
	switch label {
	case "Short Break":
		return colorShort
	case "Long Break":
		return colorLong
	}
	return colorFocus
}
