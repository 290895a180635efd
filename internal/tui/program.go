package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the Bubble Tea program for cfg on the alternate screen.
// Extra options are appended, e.g. tea.WithContext.
func NewProgram(cfg Config, opts ...tea.ProgramOption) *tea.Program {
	return tea.NewProgram(NewModel(cfg), append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
}
