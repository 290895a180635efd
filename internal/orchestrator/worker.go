package orchestrator

import (
	"context"

	"runlevelctl/pkg/logging"
)

// run is the async worker. It sleeps until ProceedTo signals and then drives
// until nothing is planned.
func (o *Orchestrator) run() {
	defer o.wg.Done()
	logging.Debug("Orchestrator", "Worker for %s started", o.environment)
	defer logging.Debug("Orchestrator", "Worker for %s stopped", o.environment)

	for {
		select {
		case <-o.ctx.Done():
			return
		case <-o.wake:
			o.mu.Lock()
			o.driving = true
			o.mu.Unlock()
			o.drive(o.ctx)
		}
	}
}

func (o *Orchestrator) signal() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// WaitIdle blocks until no transition is planned or running, or ctx is done.
func (o *Orchestrator) WaitIdle(ctx context.Context) error {
	o.mu.Lock()
	idle := o.idle
	o.mu.Unlock()
	if idle == nil {
		return nil
	}

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown releases every level including level 0, then the components activated
// at creation and whatever failed ascents left recorded, and closes the
// orchestrator. Components that fail to release are reported through listeners.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	t, err := o.proceed(ctx, NoRunLevel)
	if err != nil {
		return err
	}
	if err := t.Wait(ctx); err != nil && ctx.Err() != nil {
		return err
	}
	return o.Close()
}

// Close stops scheduling. Planned transitions end as cancelled; a transition that
// is being driven stops at its next level boundary. Running components are left
// as they are.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	o.mu.Unlock()

	o.cancel()
	o.wg.Wait()

	o.mu.Lock()
	if o.driving {
		o.mu.Unlock()
		return nil
	}
	dropped := o.abandonLocked()
	o.finishLocked()
	o.mu.Unlock()

	o.cancelTransitions(context.Background(), dropped)
	logging.Debug("Orchestrator", "Closed orchestrator for %s at run level %d", o.environment, o.CurrentRunLevel())
	return nil
}
