package orchestrator

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Outcome is how a transition ended.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeCompleted
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "pending"
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Transition is one ProceedTo request. Done is closed once it completed, was
// cancelled by a newer request, or failed.
type Transition struct {
	id     string
	target int
	done   chan struct{}

	mu      sync.Mutex
	outcome Outcome
	err     error
}

func newTransition(target int) *Transition {
	return &Transition{
		id:     uuid.New().String(),
		target: target,
		done:   make(chan struct{}),
	}
}

// ID identifies the request in logs and events.
func (t *Transition) ID() string { return t.id }

// Target is the requested run level.
func (t *Transition) Target() int { return t.target }

// Done is closed when the transition reaches a terminal outcome.
func (t *Transition) Done() <-chan struct{} { return t.done }

// Outcome returns the current outcome, OutcomePending until Done is closed.
func (t *Transition) Outcome() Outcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Err is the failure that ended the transition, if it failed.
func (t *Transition) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Wait blocks until the transition ends or ctx is done. It returns ctx.Err() on
// timeout and the transition's failure otherwise.
func (t *Transition) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transition) complete(outcome Outcome, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.outcome != OutcomePending {
		return
	}
	t.outcome = outcome
	t.err = err
	close(t.done)
}

type transitionKey struct{}

type driverKey struct{}

// TransitionFromContext returns the transition a listener callback is reporting on.
func TransitionFromContext(ctx context.Context) (*Transition, bool) {
	t, ok := ctx.Value(transitionKey{}).(*Transition)
	return t, ok
}

func withTransition(ctx context.Context, t *Transition) context.Context {
	return context.WithValue(ctx, transitionKey{}, t)
}

func withDriver(ctx context.Context, o *Orchestrator) context.Context {
	return context.WithValue(ctx, driverKey{}, o)
}

// drivenBy reports whether ctx belongs to a callback made by o's driver.
func drivenBy(ctx context.Context, o *Orchestrator) bool {
	d, ok := ctx.Value(driverKey{}).(*Orchestrator)
	return ok && d == o
}
