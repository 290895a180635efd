package tui

import (
	"fmt"
	"strings"

	"runlevelctl/internal/reporting"
	"runlevelctl/pkg/logging"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// View renders the dashboard.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	state := m.controller.State()
	width := m.width
	if width <= 0 {
		width = 80
	}
	contentWidth := width - 4

	header := headerStyle.Width(width - 2).Render(fmt.Sprintf("runlevelctl %s %s", IconHourglass, state))

	sections := []string{
		header,
		m.renderLevels(),
		panelStyle.Width(contentWidth).Render(m.renderRecorders(contentWidth - 2)),
		panelStyle.Width(contentWidth).Render(m.renderLog(contentWidth-2, m.logHeight())),
	}
	if m.showHelp {
		sections = append(sections, m.renderHelp(true))
	}
	sections = append(sections, m.renderStatus(width-2))
	return appStyle.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderLevels() string {
	state := m.controller.State()
	current := state.CurrentRunLevel()
	planned, inFlight := state.PlannedRunLevel()

	cells := make([]string, 0, m.maxLevel+2)
	for level := 0; level <= m.maxLevel; level++ {
		label := fmt.Sprintf("%d", level)
		switch {
		case level <= current:
			cells = append(cells, levelReachedStyle.Render(label))
		case inFlight && level == planned:
			cells = append(cells, levelPlannedStyle.Render(label))
		default:
			cells = append(cells, levelIdleStyle.Render(label))
		}
	}
	if inFlight {
		cells = append(cells, " "+m.spinner.View()+fmt.Sprintf(" %d -> %d", current, planned))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model) renderRecorders(width int) string {
	lines := []string{panelTitleStyle.Render("Activations")}
	levels := m.controller.Recorders()
	if len(levels) == 0 {
		lines = append(lines, helpStyle.Render("nothing started"))
	}
	for _, level := range levels {
		r, ok := m.controller.Recorder(level)
		if !ok {
			continue
		}
		line := fmt.Sprintf("%2d  %s", level, strings.Join(activationNames(r), " → "))
		lines = append(lines, truncate(line, width))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) logHeight() int {
	// header, level bar, two panel borders, two titles, status bar
	used := 8 + len(m.controller.Recorders())
	if m.showHelp {
		used += len(m.keys.FullHelp())
	}
	if m.height-used < 3 {
		return 3
	}
	return m.height - used
}

func (m *Model) renderLog(width, height int) string {
	lines := []string{panelTitleStyle.Render("Activity")}
	start := 0
	if len(m.activityLog) > height {
		start = len(m.activityLog) - height
	}
	for _, line := range m.activityLog[start:] {
		lines = append(lines, line.style.Render(truncate(line.text, width)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) renderHelp(full bool) string {
	bindings := m.keys.ShortHelp()
	sep := "  "
	if full {
		bindings = m.keys.FullHelp()
		sep = "\n"
	}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}
	return helpStyle.Render(strings.Join(parts, sep))
}

func (m *Model) renderStatus(width int) string {
	if m.status == "" {
		return statusBarStyle.Width(width).Render(m.renderHelp(false))
	}
	style := statusBarStyle
	if m.statusError {
		style = statusErrorStyle
	}
	return style.Width(width).Render(truncate(m.status, width-2))
}

// truncate shortens s to width terminal cells, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}

func formatEvent(e reporting.Event) logLine {
	text := fmt.Sprintf("%s %s", e.Timestamp.Format("15:04:05"), e)
	switch e.Type {
	case reporting.EventTypeError:
		return logLine{text: IconCross + " " + text, style: logErrorStyle}
	case reporting.EventTypeCancelled:
		return logLine{text: IconWarning + " " + text, style: logWarnStyle}
	default:
		return logLine{text: IconCheck + " " + text, style: logInfoStyle}
	}
}

func formatLogEntry(entry logging.LogEntry) logLine {
	line := fmt.Sprintf("%s [%s] %s", entry.Timestamp.Format("15:04:05"), entry.Subsystem, entry.Message)
	if entry.Err != nil {
		line += ": " + entry.Err.Error()
	}
	switch entry.Level {
	case logging.LevelError:
		return logLine{text: line, style: logErrorStyle}
	case logging.LevelWarn:
		return logLine{text: line, style: logWarnStyle}
	default:
		return logLine{text: line, style: logInfoStyle}
	}
}
