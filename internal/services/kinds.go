package services

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// KindNoop is the kind of marker components that do nothing when started.
const KindNoop = "noop"

// ErrUnknownKind is returned when no factory is registered for a component kind.
var ErrUnknownKind = errors.New("unknown component kind")

// KindSpec is the kind-specific part of a component's configuration.
type KindSpec struct {
	Name        string
	Command     string
	StopCommand string
	Namespace   string
	KubeContext string
}

// LifecycleFactory builds the lifecycle of one component of a kind.
type LifecycleFactory func(spec KindSpec) (Lifecycle, error)

// Kinds maps kind names to lifecycle factories. The noop kind is always present.
type Kinds struct {
	mu        sync.RWMutex
	factories map[string]LifecycleFactory
}

// NewKinds creates a kind table holding only KindNoop.
func NewKinds() *Kinds {
	k := &Kinds{factories: make(map[string]LifecycleFactory)}
	k.factories[KindNoop] = func(KindSpec) (Lifecycle, error) { return Noop, nil }
	return k
}

// Register adds a factory for kind.
func (k *Kinds) Register(kind string, factory LifecycleFactory) error {
	if kind == "" || factory == nil {
		return fmt.Errorf("kind name and factory are required")
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if _, exists := k.factories[kind]; exists {
		return fmt.Errorf("%w: kind %s", ErrAlreadyRegistered, kind)
	}
	k.factories[kind] = factory
	return nil
}

// Build creates the lifecycle for spec. An empty kind means KindNoop.
func (k *Kinds) Build(kind string, spec KindSpec) (Lifecycle, error) {
	if kind == "" {
		kind = KindNoop
	}
	k.mu.RLock()
	factory, ok := k.factories[kind]
	k.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	lc, err := factory(spec)
	if err != nil {
		return nil, fmt.Errorf("component %s (%s): %w", spec.Name, kind, err)
	}
	return lc, nil
}

// Names returns the registered kinds, sorted.
func (k *Kinds) Names() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	names := make([]string, 0, len(k.factories))
	for name := range k.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
