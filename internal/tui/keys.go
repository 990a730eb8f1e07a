package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the timer view.
type KeyMap struct {
	Toggle key.Binding
	Start  key.Binding
	Pause  key.Binding
	Reset  key.Binding
	Focus  key.Binding
	Short  key.Binding
	Long   key.Binding
	Quit   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Toggle: key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start/pause")),
		Start:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "start")),
		Pause:  key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		Focus:  key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "focus")),
		Short:  key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "short break")),
		Long:   key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "long break")),
		Quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.Reset, k.Focus, k.Short, k.Long, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Toggle, k.Start, k.Pause, k.Reset},
		{k.Focus, k.Short, k.Long, k.Quit},
	}
}
