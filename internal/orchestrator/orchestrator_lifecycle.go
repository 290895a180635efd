package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"runlevelctl/internal/services"
	"runlevelctl/pkg/logging"
)

// drive runs planned transitions one level at a time until nothing is planned.
// The caller must have set o.driving. Supersession, cancellation of ctx and Close
// are only observed between levels.
func (o *Orchestrator) drive(ctx context.Context) {
	for {
		o.mu.Lock()

		if ctx.Err() != nil || o.closed {
			dropped := o.abandonLocked()
			o.finishLocked()
			o.mu.Unlock()
			o.cancelTransitions(ctx, dropped)
			return
		}

		var stale []*Transition
		if o.active != nil && o.active != o.request {
			stale = append(stale, o.active)
			o.active = nil
		}
		stale = append(stale, o.superseded...)
		o.superseded = nil
		if len(stale) > 0 {
			o.mu.Unlock()
			o.cancelTransitions(ctx, stale)
			continue
		}

		if o.request == nil {
			o.finishLocked()
			o.mu.Unlock()
			return
		}

		t := o.request
		o.active = t
		if o.current == t.target {
			o.request = nil
			o.active = nil
			o.publishLocked()
			o.mu.Unlock()
			logging.Debug("Orchestrator", "Transition %s: %s already at level %d", t.id, o.environment, t.target)
			if t.target == NoRunLevel {
				// A failed first ascent can leave recorders behind while still at NoRunLevel.
				o.releaseRemaining(ctx, o.callbackContext(ctx, t))
			}
			t.complete(OutcomeCompleted, nil)
			continue
		}

		ascending := t.target > o.current
		level := o.current
		if ascending {
			level++
		}
		o.publishLocked()
		o.mu.Unlock()

		if ascending {
			o.ascend(ctx, t, level)
		} else {
			o.descend(ctx, t, level)
		}
	}
}

// ascend brings level up for t. A failing component stops t: the level is not
// reached and whatever did start stays up.
func (o *Orchestrator) ascend(ctx context.Context, t *Transition, level int) {
	cbCtx := o.callbackContext(ctx, t)

	components := o.registry.ComponentsAtLevel(level, o.environment)
	logging.Debug("Orchestrator", "Ascending %s to level %d (%d components)", o.environment, level, len(components))

	for _, c := range components {
		if c.Environment() != o.environment || o.registry.IsInstantiated(c) {
			continue
		}
		if err := o.instantiate(ctx, c, level); err != nil {
			o.failAscent(cbCtx, t, level, err)
			return
		}
	}

	o.mu.Lock()
	o.current = level
	reached := o.reachedLocked(t)
	o.publishLocked()
	o.mu.Unlock()

	logging.Info("Orchestrator", "%s reached run level %d", o.environment, level)
	o.notifyProgress(cbCtx)
	if reached {
		t.complete(OutcomeCompleted, nil)
	}
}

func (o *Orchestrator) failAscent(cbCtx context.Context, t *Transition, level int, err error) {
	o.mu.Lock()
	if o.request == t {
		o.request = nil
	}
	o.active = nil
	o.publishLocked()
	o.mu.Unlock()

	logging.Error("Orchestrator", err, "Transition %s: %s failed to reach run level %d", t.id, o.environment, level)
	o.notifyError(cbCtx, level, err)
	t.complete(OutcomeFailed, err)
}

// descend vacates level for t. Release failures are reported and skipped; the
// level is vacated regardless.
func (o *Orchestrator) descend(ctx context.Context, t *Transition, level int) {
	cbCtx := o.callbackContext(ctx, t)

	// Recorders above the current level are left behind by failed ascents.
	for _, orphan := range o.recorderLevelsAbove(level) {
		o.unwind(ctx, cbCtx, orphan)
	}
	o.unwind(ctx, cbCtx, level)
	if level-1 == NoRunLevel && t.target == NoRunLevel {
		o.releaseRemaining(ctx, cbCtx)
	}

	o.mu.Lock()
	o.current = level - 1
	reached := o.reachedLocked(t)
	o.publishLocked()
	o.mu.Unlock()

	logging.Info("Orchestrator", "%s left run level %d", o.environment, level)
	o.notifyProgress(cbCtx)
	if reached {
		t.complete(OutcomeCompleted, nil)
	}
}

// unwind releases what level's recorder holds, most recent activation first, and
// drops the recorder.
func (o *Orchestrator) unwind(ctx, cbCtx context.Context, level int) {
	o.mu.Lock()
	r, ok := o.recorders[level]
	delete(o.recorders, level)
	o.mu.Unlock()
	if !ok {
		return
	}

	released := make(map[services.Component]bool)
	for _, c := range r.Unwind() {
		if released[c] {
			continue
		}
		released[c] = true
		if !o.registry.IsInstantiated(c) {
			continue
		}
		if err := o.release(ctx, c); err != nil {
			logging.Error("Orchestrator", err, "Failed to release %s while leaving run level %d", c.Name(), level)
			o.notifyError(cbCtx, level, err)
		}
	}
}

// releaseRemaining unwinds every recorder still held, highest level first,
// including the activations made when the orchestrator was created.
func (o *Orchestrator) releaseRemaining(ctx, cbCtx context.Context) {
	for _, level := range o.recorderLevelsAbove(NoRunLevel - 1) {
		o.unwind(ctx, cbCtx, level)
	}
}

// activateInitial starts the components tagged for NoRunLevel. They come up with
// the orchestrator and stay up until Shutdown.
func (o *Orchestrator) activateInitial(ctx context.Context) {
	components := o.registry.ComponentsAtLevel(NoRunLevel, o.environment)
	if len(components) == 0 {
		return
	}
	logging.Debug("Orchestrator", "Activating %d components of %s at creation", len(components), o.environment)

	for _, c := range components {
		if c.Environment() != o.environment || o.registry.IsInstantiated(c) {
			continue
		}
		if err := o.instantiate(ctx, c, NoRunLevel); err != nil {
			logging.Error("Orchestrator", err, "Failed to activate %s when creating the orchestrator for %s", c.Name(), o.environment)
			o.notifyError(ctx, NoRunLevel, err)
		}
	}
}

// reachedLocked finishes t when the current level is its target. A target reached
// on the same step a newer request came in still counts as completed.
func (o *Orchestrator) reachedLocked(t *Transition) bool {
	if o.current != t.target {
		return false
	}
	if o.request == t {
		o.request = nil
	}
	o.active = nil
	return true
}

func (o *Orchestrator) recorderLevelsAbove(level int) []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	var levels []int
	for l := range o.recorders {
		if l > level {
			levels = append(levels, l)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(levels)))
	return levels
}

// abandonLocked drops everything planned and returns it in request order.
func (o *Orchestrator) abandonLocked() []*Transition {
	var dropped []*Transition
	if o.active != nil {
		dropped = append(dropped, o.active)
	}
	dropped = append(dropped, o.superseded...)
	if o.request != nil && o.request != o.active {
		dropped = append(dropped, o.request)
	}
	o.active = nil
	o.request = nil
	o.superseded = nil
	o.publishLocked()
	return dropped
}

// finishLocked marks the driver as gone and wakes WaitIdle callers.
func (o *Orchestrator) finishLocked() {
	o.driving = false
	if o.idle != nil {
		close(o.idle)
		o.idle = nil
	}
}

func (o *Orchestrator) cancelTransitions(ctx context.Context, ts []*Transition) {
	for _, t := range ts {
		logging.Info("Orchestrator", "Transition %s to run level %d in %s was cancelled", t.id, t.target, o.environment)
		o.notifyCancelled(o.callbackContext(ctx, t), t.target)
		t.complete(OutcomeCancelled, nil)
	}
}

func (o *Orchestrator) instantiate(ctx context.Context, c services.Component, level int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &services.InstantiationError{Component: c.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	// Close cancels ctx; a start that is already running is left to finish.
	err = o.registry.Instantiate(context.WithoutCancel(ctx), c, func(activated services.Component) error {
		return o.record(level, activated)
	})
	var ie *services.InstantiationError
	if err != nil && !errors.As(err, &ie) {
		err = &services.InstantiationError{Component: c.Name(), Err: err}
	}
	return err
}

func (o *Orchestrator) release(ctx context.Context, c services.Component) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &services.ReleaseError{Component: c.Name(), Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	err = o.registry.Release(context.WithoutCancel(ctx), c)
	var re *services.ReleaseError
	if err != nil && !errors.As(err, &re) {
		err = &services.ReleaseError{Component: c.Name(), Err: err}
	}
	return err
}
