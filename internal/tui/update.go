package tui

import (
	"fmt"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/internal/reporting"
	"runlevelctl/pkg/logging"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case reporting.EventMsg:
		m.appendLog(formatEvent(msg.Event))
		return m, listenForUpdates(m.updates)

	case logEntryMsg:
		m.appendLog(formatLogEntry(msg.entry))
		return m, listenForLogs(m.logChannel)

	case proceedResultMsg:
		return m, m.handleProceedResult(msg)

	case clearStatusMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
			m.statusError = false
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case channelClosedMsg:
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		m.cancel()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		return m, nil

	case key.Matches(msg, m.keys.Copy):
		if err := clipboardWriteAll(m.Snapshot()); err != nil {
			logging.Error("TUI", err, "Failed to copy state")
			return m, m.setStatus("Copy state failed", true)
		}
		return m, m.setStatus("State copied to clipboard", false)

	case key.Matches(msg, m.keys.LevelUp):
		return m, m.proceedRelative(1)

	case key.Matches(msg, m.keys.LevelDown):
		return m, m.proceedRelative(-1)

	case key.Matches(msg, m.keys.Top):
		return m, m.proceed(m.maxLevel)

	case key.Matches(msg, m.keys.Digit):
		return m, m.proceed(int(msg.Runes[0] - '0'))
	}
	return m, nil
}

// proceedRelative steps from the planned level if a transition is running,
// otherwise from the current one.
func (m *Model) proceedRelative(delta int) tea.Cmd {
	state := m.controller.State()
	from := state.CurrentRunLevel()
	if planned, ok := state.PlannedRunLevel(); ok {
		from = planned
	}
	return m.proceed(from + delta)
}

func (m *Model) proceed(level int) tea.Cmd {
	if level < 0 {
		return m.setStatus("Already below level 0", true)
	}
	if level > m.maxLevel {
		return m.setStatus(fmt.Sprintf("No level above %d", m.maxLevel), true)
	}
	logging.Info("TUI", "Proceeding to run level %d", level)
	return tea.Batch(
		m.setStatus(fmt.Sprintf("Proceeding to level %d", level), false),
		m.proceedCmd(level),
	)
}

func (m *Model) handleProceedResult(msg proceedResultMsg) tea.Cmd {
	if msg.err != nil {
		logging.Error("TUI", msg.err, "Failed to proceed to run level %d", msg.target)
		return m.setStatus(fmt.Sprintf("Cannot proceed to level %d: %v", msg.target, msg.err), true)
	}
	switch msg.transition.Outcome() {
	case orchestrator.OutcomeCompleted:
		return m.setStatus(fmt.Sprintf("%s Reached level %d", IconCheck, msg.target), false)
	case orchestrator.OutcomeFailed:
		return m.setStatus(fmt.Sprintf("%s Level %d not reached: %v", IconCross, msg.target, msg.transition.Err()), true)
	case orchestrator.OutcomeCancelled:
		return m.setStatus(fmt.Sprintf("%s Transition to level %d superseded", IconWarning, msg.target), false)
	}
	// Async mode: progress arrives as events.
	return nil
}
