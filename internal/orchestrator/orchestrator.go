package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"runlevelctl/internal/services"
	"runlevelctl/pkg/logging"
)

// Orchestrator moves one environment of a registry through numbered run levels.
// Ascending to level L instantiates every component tagged for L and records what
// was actually started; descending from L releases exactly those components in
// reverse order.
//
// At most one goroutine drives transitions at a time. In async mode that is a
// dedicated worker started by New; in sync mode it is the first caller of ProceedTo.
// A newer ProceedTo supersedes the target being driven at the next level boundary.
type Orchestrator struct {
	registry    services.Registry
	environment services.Environment
	async       bool
	listeners   []Listener

	mu         sync.Mutex
	current    int
	request    *Transition // planned target, nil when idle
	active     *Transition // transition the driver is working on
	superseded []*Transition
	recorders  map[int]*Recorder
	driving    bool
	idle       chan struct{} // closed and reset to nil when the driver goes idle
	closed     bool

	snapshot atomic.Pointer[State]

	// async worker
	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds configuration for an orchestrator.
type Config struct {
	// Registry resolves, starts and stops components. Required.
	Registry services.Registry
	// Environment defaults to services.DefaultEnvironment.
	Environment services.Environment
	// Async makes ProceedTo return immediately and run transitions on a worker.
	Async bool
	// Listeners are notified in order, on the driving goroutine.
	Listeners []Listener
}

// New creates an orchestrator at NoRunLevel and activates the components tagged
// for NoRunLevel before returning. Failures to do so are reported through the
// listeners only. In async mode it starts the worker goroutine; Close stops it.
func New(cfg Config) (*Orchestrator, error) {
	if cfg.Registry == nil {
		return nil, errors.New("orchestrator requires a component registry")
	}
	env := cfg.Environment
	if env == "" {
		env = services.DefaultEnvironment
	}

	o := &Orchestrator{
		registry:    cfg.Registry,
		environment: env,
		async:       cfg.Async,
		listeners:   append([]Listener(nil), cfg.Listeners...),
		current:     NoRunLevel,
		recorders:   make(map[int]*Recorder),
		wake:        make(chan struct{}, 1),
	}
	o.ctx, o.cancel = context.WithCancel(context.Background())
	o.publishLocked()
	o.activateInitial(o.ctx)

	if o.async {
		o.wg.Add(1)
		go o.run()
	}

	logging.Debug("Orchestrator", "Created orchestrator for environment %s (async=%t)", env, cfg.Async)
	return o, nil
}

// ProceedTo plans a transition to level and returns its handle.
//
// In async mode it returns at once. In sync mode it drives the transition on the
// calling goroutine and returns once nothing is planned any more; if another
// goroutine is already driving, it retargets that driver and waits for its own
// transition to end. Calls made from a listener callback with the callback's ctx
// only retarget and never wait.
//
// Failures of components are reported through listeners and Transition.Err. The
// returned error is only set for invalid arguments, a closed orchestrator, or ctx
// ending while waiting on another driver.
func (o *Orchestrator) ProceedTo(ctx context.Context, level int) (*Transition, error) {
	if level < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidRunLevel, level)
	}
	return o.proceed(ctx, level)
}

// proceed plans a transition to level, which may be NoRunLevel, and drives or
// waits for it according to the mode.
func (o *Orchestrator) proceed(ctx context.Context, level int) (*Transition, error) {
	t := newTransition(level)

	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil, ErrClosed
	}
	o.planLocked(t)
	logging.Debug("Orchestrator", "Planned transition %s to level %d in %s (current %d)", t.id, level, o.environment, o.current)

	if o.async {
		o.mu.Unlock()
		o.signal()
		return t, nil
	}

	if o.driving {
		o.mu.Unlock()
		if drivenBy(ctx, o) {
			return t, nil
		}
		if err := t.Wait(ctx); err != nil && ctx.Err() != nil {
			return t, err
		}
		return t, nil
	}

	o.driving = true
	o.mu.Unlock()
	o.drive(ctx)
	return t, nil
}

// planLocked makes t the planned target. A previous target that the driver never
// started working on is queued for cancellation.
func (o *Orchestrator) planLocked(t *Transition) {
	if o.request != nil && o.request != o.active {
		o.superseded = append(o.superseded, o.request)
	}
	if o.idle == nil {
		o.idle = make(chan struct{})
	}
	o.request = t
	o.publishLocked()
}

// Recorders returns the levels that currently hold a recorder, ascending.
func (o *Orchestrator) Recorders() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	levels := make([]int, 0, len(o.recorders))
	for level := range o.recorders {
		levels = append(levels, level)
	}
	sort.Ints(levels)
	return levels
}

// Recorder returns the recorder of level, if one exists.
func (o *Orchestrator) Recorder(level int) (*Recorder, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	r, ok := o.recorders[level]
	return r, ok
}

// record logs an activation into level's recorder. The recorder is created by the
// first activation it actually admits.
func (o *Orchestrator) record(level int, c services.Component) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	r, ok := o.recorders[level]
	if !ok {
		r = NewRecorder(level, o.environment)
	}
	if err := r.Record(c); err != nil {
		return err
	}
	if !ok && r.Len() > 0 {
		o.recorders[level] = r
	}
	return nil
}

// callbackContext marks ctx so listener calls can be recognized when they call back in.
func (o *Orchestrator) callbackContext(ctx context.Context, t *Transition) context.Context {
	return withTransition(withDriver(ctx, o), t)
}
