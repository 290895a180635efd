package reporting

import (
	"context"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// EventMsg is the tea.Msg used by TUIReporter to send events to the TUI.
type EventMsg struct {
	Event Event
}

// TUIReporter is an orchestrator.Listener that forwards events to a channel the
// TUI drains.
type TUIReporter struct {
	updateChan chan<- tea.Msg
}

var _ orchestrator.Listener = (*TUIReporter)(nil)

// NewTUIReporter creates a TUIReporter that sends to updateChan.
func NewTUIReporter(updateChan chan<- tea.Msg) *TUIReporter {
	if updateChan == nil {
		logging.Error("TUIReporter", nil, "NewTUIReporter called with nil updateChan. Using a dummy channel.")
		dummyChan := make(chan tea.Msg)
		go func() {
			for range dummyChan {
			}
		}()
		return &TUIReporter{updateChan: dummyChan}
	}
	return &TUIReporter{updateChan: updateChan}
}

func (t *TUIReporter) send(e Event) {
	select {
	case t.updateChan <- EventMsg{Event: e}:
	default:
		// Channel is full, drop the update. Failures are worth a log line.
		if e.Type != EventTypeProgress {
			logging.Warn("TUIReporter", "TUI channel full, dropping %s", e)
		}
	}
}

// OnProgress implements orchestrator.Listener.
func (t *TUIReporter) OnProgress(ctx context.Context, state orchestrator.State) {
	t.send(NewEvent(ctx, EventTypeProgress, state, state.CurrentRunLevel()))
}

// OnCancelled implements orchestrator.Listener.
func (t *TUIReporter) OnCancelled(ctx context.Context, state orchestrator.State, target int) {
	t.send(NewEvent(ctx, EventTypeCancelled, state, target))
}

// OnError implements orchestrator.Listener.
func (t *TUIReporter) OnError(ctx context.Context, state orchestrator.State, level int, err error) {
	t.send(NewEvent(ctx, EventTypeError, state, level).WithError(err))
}
