package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"

	"runlevelctl/internal/services"

	"github.com/stretchr/testify/require"
)

// testComponents registers components on a real registry and logs their starts
// and stops by name.
type testComponents struct {
	t        *testing.T
	registry *services.InMemoryRegistry

	mu      sync.Mutex
	started []string
	stopped []string
}

func newTestComponents(t *testing.T) *testComponents {
	return &testComponents{t: t, registry: services.NewRegistry()}
}

type componentOption func(def *services.Definition, hooks *componentHooks)

type componentHooks struct {
	start func(ctx context.Context) error
	stop  func(ctx context.Context) error
}

func inEnv(env services.Environment) componentOption {
	return func(def *services.Definition, _ *componentHooks) { def.Environment = env }
}

func dependsOn(names ...string) componentOption {
	return func(def *services.Definition, _ *componentHooks) { def.DependsOn = names }
}

func untagged() componentOption {
	return func(def *services.Definition, _ *componentHooks) { def.Tagged = false }
}

func onStart(fn func(ctx context.Context) error) componentOption {
	return func(_ *services.Definition, hooks *componentHooks) { hooks.start = fn }
}

func onStop(fn func(ctx context.Context) error) componentOption {
	return func(_ *services.Definition, hooks *componentHooks) { hooks.stop = fn }
}

func failStart(err error) componentOption {
	return onStart(func(context.Context) error { return err })
}

func failStop(err error) componentOption {
	return onStop(func(context.Context) error { return err })
}

func (tc *testComponents) add(name string, level int, opts ...componentOption) services.Component {
	def := services.Definition{Name: name, Level: level, Tagged: true}
	hooks := &componentHooks{}
	for _, opt := range opts {
		opt(&def, hooks)
	}

	def.Lifecycle = services.LifecycleFuncs{
		StartFunc: func(ctx context.Context) error {
			if hooks.start != nil {
				if err := hooks.start(ctx); err != nil {
					return err
				}
			}
			tc.mu.Lock()
			tc.started = append(tc.started, name)
			tc.mu.Unlock()
			return nil
		},
		StopFunc: func(ctx context.Context) error {
			tc.mu.Lock()
			tc.stopped = append(tc.stopped, name)
			tc.mu.Unlock()
			if hooks.stop != nil {
				return hooks.stop(ctx)
			}
			return nil
		},
	}

	c, err := tc.registry.Register(def)
	require.NoError(tc.t, err)
	return c
}

func (tc *testComponents) startedNames() []string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return append([]string(nil), tc.started...)
}

func (tc *testComponents) stoppedNames() []string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return append([]string(nil), tc.stopped...)
}

// gate blocks a component's start until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) start(ctx context.Context) error {
	g.entered <- struct{}{}
	<-g.release
	return nil
}

type eventKind string

const (
	eventProgress  eventKind = "progress"
	eventCancelled eventKind = "cancelled"
	eventError     eventKind = "error"
)

type event struct {
	kind       eventKind
	level      int // reached level for progress, target for cancelled, failing level for error
	transition string
	err        error
}

// eventListener records every callback together with the transition it belongs to.
type eventListener struct {
	mu     sync.Mutex
	events []event

	progressHook func(ctx context.Context, state State)
}

func (l *eventListener) add(ctx context.Context, e event) {
	if t, ok := TransitionFromContext(ctx); ok {
		e.transition = t.ID()
	}
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventListener) OnProgress(ctx context.Context, state State) {
	l.add(ctx, event{kind: eventProgress, level: state.CurrentRunLevel()})
	if l.progressHook != nil {
		l.progressHook(ctx, state)
	}
}

func (l *eventListener) OnCancelled(ctx context.Context, state State, target int) {
	l.add(ctx, event{kind: eventCancelled, level: target})
}

func (l *eventListener) OnError(ctx context.Context, state State, level int, err error) {
	l.add(ctx, event{kind: eventError, level: level, err: err})
}

func (l *eventListener) all() []event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]event(nil), l.events...)
}

func (l *eventListener) ofKind(kind eventKind) []event {
	var result []event
	for _, e := range l.all() {
		if e.kind == kind {
			result = append(result, e)
		}
	}
	return result
}

func (l *eventListener) levels(kind eventKind) []int {
	var result []int
	for _, e := range l.ofKind(kind) {
		result = append(result, e.level)
	}
	return result
}

func (l *eventListener) forTransition(id string) []event {
	var result []event
	for _, e := range l.all() {
		if e.transition == id {
			result = append(result, e)
		}
	}
	return result
}

// panickingRegistry wraps a registry and panics when the named components are
// instantiated or released.
type panickingRegistry struct {
	services.Registry
	onInstantiate string
	onRelease     string
}

func (r *panickingRegistry) Instantiate(ctx context.Context, c services.Component, observe services.ActivationFunc) error {
	if c.Name() == r.onInstantiate {
		panic("boom")
	}
	return r.Registry.Instantiate(ctx, c, observe)
}

func (r *panickingRegistry) Release(ctx context.Context, c services.Component) error {
	if c.Name() == r.onRelease {
		panic("boom")
	}
	return r.Registry.Release(ctx, c)
}

// plainErrorRegistry fails every Instantiate with an unwrapped error.
type plainErrorRegistry struct {
	services.Registry
}

func (r *plainErrorRegistry) Instantiate(context.Context, services.Component, services.ActivationFunc) error {
	return errors.New("plain failure")
}

func newTestOrchestrator(t *testing.T, reg services.Registry, async bool, listeners ...Listener) *Orchestrator {
	t.Helper()
	o, err := New(Config{Registry: reg, Async: async, Listeners: listeners})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}
