package services

import (
	"context"
)

// Environment partitions the component space into independent run-level scopes
// that share one registry.
type Environment string

// DefaultEnvironment is the environment of components that do not name one.
const DefaultEnvironment Environment = "default"

// ComponentState represents the current state of a component instance
type ComponentState string

const (
	StateStopped  ComponentState = "Stopped"
	StateStarting ComponentState = "Starting"
	StateRunning  ComponentState = "Running"
	StateStopping ComponentState = "Stopping"
	StateFailed   ComponentState = "Failed"
)

// Component is a managed component known to a Registry. It doubles as the handle
// of its instance: two Components are the same instance only if they are the same
// value (pointer identity).
type Component interface {
	Name() string
	// RunLevel reports the level the component is tagged for. tagged is false for
	// plain components that are only ever started as someone's dependency.
	RunLevel() (level int, tagged bool)
	Environment() Environment
}

// ActivationFunc is told about every component a single Instantiate call actually
// starts, in the order the starts complete (dependencies before dependents).
// Returning an error rejects the activation; the registry stops that component again
// and fails the Instantiate call.
type ActivationFunc func(c Component) error

// Registry resolves, starts and stops components. The run-level orchestrator only
// relies on ordering: it never resolves dependencies itself.
type Registry interface {
	// ComponentsAtLevel lists the components tagged for level in env. Order is unspecified.
	ComponentsAtLevel(level int, env Environment) []Component

	// Instantiate starts c, starting its dependencies first. Components that are
	// already running are not started again and not reported to observe.
	Instantiate(ctx context.Context, c Component, observe ActivationFunc) error

	// Release stops a running component. Releasing a stopped component is a no-op.
	Release(ctx context.Context, c Component) error

	// IsInstantiated reports whether c currently has a live instance.
	IsInstantiated(c Component) bool
}

// Lifecycle is what activating and releasing a component actually does.
type Lifecycle interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// LifecycleFuncs adapts plain functions to Lifecycle. Nil funcs do nothing.
type LifecycleFuncs struct {
	StartFunc func(ctx context.Context) error
	StopFunc  func(ctx context.Context) error
}

// Start implements Lifecycle.
func (f LifecycleFuncs) Start(ctx context.Context) error {
	if f.StartFunc == nil {
		return nil
	}
	return f.StartFunc(ctx)
}

// Stop implements Lifecycle.
func (f LifecycleFuncs) Stop(ctx context.Context) error {
	if f.StopFunc == nil {
		return nil
	}
	return f.StopFunc(ctx)
}

// Noop is the lifecycle of marker components that only exist to be ordered.
var Noop Lifecycle = LifecycleFuncs{}
