package reporting

import (
	"context"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/pkg/logging"
)

// ConsoleReporter is an orchestrator.Listener that writes every callback to the
// log through pkg/logging.
type ConsoleReporter struct {
	subsystem string
}

var _ orchestrator.Listener = (*ConsoleReporter)(nil)

// NewConsoleReporter creates a ConsoleReporter logging under the "RunLevel" subsystem.
func NewConsoleReporter() *ConsoleReporter {
	return &ConsoleReporter{subsystem: "RunLevel"}
}

func (c *ConsoleReporter) subsystemFor(state orchestrator.State) string {
	return c.subsystem + "-" + string(state.Environment())
}

// OnProgress logs the level just reached.
func (c *ConsoleReporter) OnProgress(ctx context.Context, state orchestrator.State) {
	e := NewEvent(ctx, EventTypeProgress, state, state.CurrentRunLevel())
	if planned, ok := state.PlannedRunLevel(); ok {
		logging.Info(c.subsystemFor(state), "Reached level %d, heading for %d", e.Level, planned)
		return
	}
	logging.Info(c.subsystemFor(state), "Reached level %d", e.Level)
}

// OnCancelled logs the abandoned target.
func (c *ConsoleReporter) OnCancelled(ctx context.Context, state orchestrator.State, target int) {
	e := NewEvent(ctx, EventTypeCancelled, state, target)
	logging.Warn(c.subsystemFor(state), "Transition %s to level %d superseded at level %d", e.TransitionID, target, e.Current)
}

// OnError logs a failed activation or release.
func (c *ConsoleReporter) OnError(ctx context.Context, state orchestrator.State, level int, err error) {
	logging.Error(c.subsystemFor(state), err, "Level %d failed (current level %d)", level, state.CurrentRunLevel())
}
