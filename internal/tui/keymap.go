package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the keybindings for the application.
type KeyMap struct {
	LevelUp   key.Binding
	LevelDown key.Binding
	Top       key.Binding
	Digit     key.Binding
	Copy      key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// DefaultKeyMap returns a KeyMap with default bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		LevelUp: key.NewBinding(
			key.WithKeys("+", "k", "up"),
			key.WithHelp("+/↑", "level up"),
		),
		LevelDown: key.NewBinding(
			key.WithKeys("-", "j", "down"),
			key.WithHelp("-/↓", "level down"),
		),
		Top: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "highest level"),
		),
		Digit: key.NewBinding(
			key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("0-9", "go to level"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy state"),
		),
		Help: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q/ctrl+c", "quit"),
		),
	}
}

// ShortHelp returns the bindings shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.LevelUp, k.LevelDown, k.Help, k.Quit}
}

// FullHelp returns every binding, for the help panel.
func (k KeyMap) FullHelp() []key.Binding {
	return []key.Binding{k.LevelUp, k.LevelDown, k.Digit, k.Top, k.Copy, k.Help, k.Quit}
}
