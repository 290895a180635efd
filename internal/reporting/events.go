package reporting

import (
	"context"
	"fmt"
	"time"

	"runlevelctl/internal/orchestrator"
)

// EventType identifies what happened to a transition.
type EventType string

const (
	EventTypeProgress  EventType = "runlevel.progress"
	EventTypeCancelled EventType = "runlevel.cancelled"
	EventTypeError     EventType = "runlevel.error"
)

// String makes EventType satisfy the fmt.Stringer interface.
func (et EventType) String() string {
	return string(et)
}

// Event is a listener callback flattened into a value that can cross goroutines
// and be serialized.
type Event struct {
	Type         EventType `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	Environment  string    `json:"environment"`
	TransitionID string    `json:"transitionId,omitempty"`

	// Current is the current run level when the event was raised.
	Current int `json:"current"`
	// Planned is only meaningful if HasPlanned is set.
	Planned    int  `json:"planned"`
	HasPlanned bool `json:"hasPlanned"`

	// Level is the level reached (progress), the abandoned target (cancelled)
	// or the failing level (error).
	Level int    `json:"level"`
	Error string `json:"error,omitempty"`
}

// NewEvent captures state and the transition carried by ctx.
func NewEvent(ctx context.Context, eventType EventType, state orchestrator.State, level int) Event {
	e := Event{
		Type:        eventType,
		Timestamp:   time.Now(),
		Environment: string(state.Environment()),
		Current:     state.CurrentRunLevel(),
		Level:       level,
	}
	e.Planned, e.HasPlanned = state.PlannedRunLevel()
	if t, ok := orchestrator.TransitionFromContext(ctx); ok {
		e.TransitionID = t.ID()
	}
	return e
}

// WithError attaches err's message to the event.
func (e Event) WithError(err error) Event {
	if err != nil {
		e.Error = err.Error()
	}
	return e
}

// String provides a one-line description used by log output and the TUI.
func (e Event) String() string {
	switch e.Type {
	case EventTypeProgress:
		return fmt.Sprintf("[%s] reached level %d", e.Environment, e.Level)
	case EventTypeCancelled:
		return fmt.Sprintf("[%s] transition to level %d cancelled at level %d", e.Environment, e.Level, e.Current)
	case EventTypeError:
		return fmt.Sprintf("[%s] level %d failed: %s", e.Environment, e.Level, e.Error)
	default:
		return fmt.Sprintf("[%s] %s", e.Environment, e.Type)
	}
}
