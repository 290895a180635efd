package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/pkg/logging"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// For mocking in tests
var clipboardWriteAll = clipboard.WriteAll

// Controller is the part of an orchestrator the TUI drives.
type Controller interface {
	State() orchestrator.State
	ProceedTo(ctx context.Context, level int) (*orchestrator.Transition, error)
	Recorders() []int
	Recorder(level int) (*orchestrator.Recorder, bool)
}

// Config wires a Model to its data sources.
type Config struct {
	Controller Controller
	// MaxLevel is the highest level shown and the target of the Top key.
	MaxLevel int
	// Updates carries reporting.EventMsg values from a reporting.TUIReporter.
	Updates <-chan tea.Msg
	// LogChannel carries entries from logging.InitForTUI. Optional.
	LogChannel <-chan logging.LogEntry
}

// Model is the Bubble Tea model of the run-level dashboard.
type Model struct {
	controller Controller
	maxLevel   int
	updates    <-chan tea.Msg
	logChannel <-chan logging.LogEntry

	ctx    context.Context
	cancel context.CancelFunc

	keys    KeyMap
	spinner spinner.Model

	width  int
	height int

	activityLog []logLine
	status      string
	statusError bool
	statusSeq   int
	showHelp    bool
	quitting    bool
}

// logLine is an activity log entry, styled when rendered so truncation never
// cuts through escape sequences.
type logLine struct {
	text  string
	style lipgloss.Style
}

// proceedResultMsg reports the end of a ProceedTo call started from the keyboard.
type proceedResultMsg struct {
	target     int
	transition *orchestrator.Transition
	err        error
}

// logEntryMsg wraps a pkg/logging entry.
type logEntryMsg struct {
	entry logging.LogEntry
}

// clearStatusMsg clears the status bar unless a newer message replaced it.
type clearStatusMsg struct {
	seq int
}

// channelClosedMsg is returned once an input channel is drained and closed.
type channelClosedMsg struct{}

// NewModel creates the dashboard model.
func NewModel(cfg Config) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	ctx, cancel := context.WithCancel(context.Background())
	return &Model{
		controller: cfg.Controller,
		maxLevel:   cfg.MaxLevel,
		updates:    cfg.Updates,
		logChannel: cfg.LogChannel,
		ctx:        ctx,
		cancel:     cancel,
		keys:       DefaultKeyMap(),
		spinner:    s,
	}
}

// Init starts the spinner and the channel listeners.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		listenForUpdates(m.updates),
		listenForLogs(m.logChannel),
	)
}

func listenForUpdates(ch <-chan tea.Msg) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return msg
	}
}

func listenForLogs(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return channelClosedMsg{}
		}
		return logEntryMsg{entry: entry}
	}
}

// proceedCmd runs ProceedTo off the UI goroutine.
func (m *Model) proceedCmd(level int) tea.Cmd {
	ctx := m.ctx
	controller := m.controller
	return func() tea.Msg {
		t, err := controller.ProceedTo(ctx, level)
		return proceedResultMsg{target: level, transition: t, err: err}
	}
}

// setStatus shows msg in the status bar for statusMessageDuration.
func (m *Model) setStatus(msg string, isError bool) tea.Cmd {
	m.status = msg
	m.statusError = isError
	m.statusSeq++
	seq := m.statusSeq
	return tea.Tick(statusMessageDuration, func(time.Time) tea.Msg {
		return clearStatusMsg{seq: seq}
	})
}

func (m *Model) appendLog(line logLine) {
	m.activityLog = append(m.activityLog, line)
	if len(m.activityLog) > maxLogLines {
		m.activityLog = m.activityLog[len(m.activityLog)-maxLogLines:]
	}
}

// Snapshot renders the state and recorders as plain text, for the clipboard.
func (m *Model) Snapshot() string {
	var b strings.Builder
	state := m.controller.State()
	fmt.Fprintf(&b, "%s\n", state)
	for _, level := range m.controller.Recorders() {
		r, ok := m.controller.Recorder(level)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "level %d: %s\n", level, strings.Join(activationNames(r), ", "))
	}
	return b.String()
}

func activationNames(r *orchestrator.Recorder) []string {
	var names []string
	for c := range r.Activations() {
		names = append(names, c.Name())
	}
	return names
}
