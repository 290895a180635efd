package orchestrator

import (
	"context"
	"fmt"

	"runlevelctl/pkg/logging"
)

// Listener observes transitions. For any single ProceedTo call the levels reported
// are strictly increasing while ascending and strictly decreasing while descending,
// and OnCancelled, or the OnError that stops an ascent, is the last call made for it.
//
// Callbacks run on the goroutine driving the transition. They may call ProceedTo
// with the ctx they were given; that call retargets the running transition and
// returns without waiting.
type Listener interface {
	// OnProgress is called each time a level boundary is crossed. state holds the new
	// current level.
	OnProgress(ctx context.Context, state State)

	// OnCancelled is called when a newer request superseded the transition to target.
	OnCancelled(ctx context.Context, state State, target int)

	// OnError reports a failure while bringing level up or tearing it down.
	OnError(ctx context.Context, state State, level int, err error)
}

// ListenerFuncs adapts plain functions to Listener. Nil funcs are skipped.
type ListenerFuncs struct {
	Progress  func(ctx context.Context, state State)
	Cancelled func(ctx context.Context, state State, target int)
	Error     func(ctx context.Context, state State, level int, err error)
}

func (f ListenerFuncs) OnProgress(ctx context.Context, state State) {
	if f.Progress != nil {
		f.Progress(ctx, state)
	}
}

func (f ListenerFuncs) OnCancelled(ctx context.Context, state State, target int) {
	if f.Cancelled != nil {
		f.Cancelled(ctx, state, target)
	}
}

func (f ListenerFuncs) OnError(ctx context.Context, state State, level int, err error) {
	if f.Error != nil {
		f.Error(ctx, state, level, err)
	}
}

func (o *Orchestrator) notifyProgress(ctx context.Context) {
	state := o.State()
	for _, l := range o.listeners {
		o.safeNotify(func() { l.OnProgress(ctx, state) })
	}
}

func (o *Orchestrator) notifyCancelled(ctx context.Context, target int) {
	state := o.State()
	for _, l := range o.listeners {
		o.safeNotify(func() { l.OnCancelled(ctx, state, target) })
	}
}

func (o *Orchestrator) notifyError(ctx context.Context, level int, err error) {
	state := o.State()
	for _, l := range o.listeners {
		o.safeNotify(func() { l.OnError(ctx, state, level, err) })
	}
}

// safeNotify keeps a misbehaving listener from taking the driver down with it.
func (o *Orchestrator) safeNotify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Orchestrator", fmt.Errorf("%v", r), "Listener panicked in environment %s", o.environment)
		}
	}()
	fn()
}
