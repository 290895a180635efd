package services

import (
	"context"
	"fmt"
	"sync"

	"runlevelctl/pkg/logging"

	"github.com/patrickmn/go-cache"
)

var _ Registry = (*InMemoryRegistry)(nil)

// Definition describes a component to register.
type Definition struct {
	Name string
	// Level is only meaningful when Tagged is set.
	Level       int
	Tagged      bool
	Environment Environment
	DependsOn   []string
	Lifecycle   Lifecycle
}

// component is the registry's Component and instance handle.
type component struct {
	def Definition

	// guarded by the owning registry's mu
	state   ComponentState
	lastErr error
}

func (c *component) Name() string { return c.def.Name }

func (c *component) RunLevel() (int, bool) { return c.def.Level, c.def.Tagged }

func (c *component) Environment() Environment { return c.def.Environment }

func (c *component) String() string {
	if c.def.Tagged {
		return fmt.Sprintf("%s[%s@%d]", c.def.Name, c.def.Environment, c.def.Level)
	}
	return c.def.Name
}

// InMemoryRegistry is a thread-safe Registry over explicitly registered definitions.
// Lifecycle calls are serialized, so orchestrators for different environments can
// share one registry.
type InMemoryRegistry struct {
	mu         sync.RWMutex
	components map[string]*component
	order      []*component
	levelIndex *cache.Cache

	lifecycleMu sync.Mutex
}

// NewRegistry creates an empty registry.
func NewRegistry() *InMemoryRegistry {
	return &InMemoryRegistry{
		components: make(map[string]*component),
		levelIndex: cache.New(cache.NoExpiration, 0),
	}
}

// Register adds a component definition and returns its handle.
// Dependencies are looked up lazily, so definitions can be registered in any order.
func (r *InMemoryRegistry) Register(def Definition) (Component, error) {
	if def.Name == "" {
		return nil, fmt.Errorf("component name must not be empty")
	}
	if def.Environment == "" {
		def.Environment = DefaultEnvironment
	}
	if def.Lifecycle == nil {
		def.Lifecycle = Noop
	}
	def.DependsOn = append([]string(nil), def.DependsOn...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.components[def.Name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyRegistered, def.Name)
	}

	c := &component{def: def, state: StateStopped}
	r.components[def.Name] = c
	r.order = append(r.order, c)
	r.levelIndex.Flush()

	logging.Debug("Registry", "Registered component %s", c)
	return c, nil
}

// Get returns a component by name.
func (r *InMemoryRegistry) Get(name string) (Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	if !ok {
		return nil, false
	}
	return c, true
}

// GetAll returns all components in registration order.
func (r *InMemoryRegistry) GetAll() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]Component, 0, len(r.order))
	for _, c := range r.order {
		result = append(result, c)
	}
	return result
}

// DependsOn returns the declared dependencies of a component.
func (r *InMemoryRegistry) DependsOn(c Component) []string {
	comp, err := r.own(c)
	if err != nil {
		return nil
	}
	return append([]string(nil), comp.def.DependsOn...)
}

// ComponentsAtLevel implements Registry. Results come back in registration order.
func (r *InMemoryRegistry) ComponentsAtLevel(level int, env Environment) []Component {
	key := fmt.Sprintf("%s@%d", env, level)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cached, found := r.levelIndex.Get(key); found {
		return append([]Component(nil), cached.([]Component)...)
	}

	var result []Component
	for _, c := range r.order {
		if c.def.Tagged && c.def.Level == level && c.def.Environment == env {
			result = append(result, c)
		}
	}
	r.levelIndex.Set(key, result, cache.NoExpiration)
	return append([]Component(nil), result...)
}

// Instantiate implements Registry. Without observe the call is not orchestrated,
// so a plain component that needs a run-level component which is not running yet
// fails with ErrRunLevelDependency before anything is started.
func (r *InMemoryRegistry) Instantiate(ctx context.Context, c Component, observe ActivationFunc) error {
	comp, err := r.own(c)
	if err != nil {
		return &InstantiationError{Component: c.Name(), Err: err}
	}

	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if observe == nil {
		if from, dep := r.runLevelDependency(comp, make(map[*component]bool)); dep != nil {
			return &InstantiationError{Component: comp.Name(), Err: fmt.Errorf("%w: %s needs %s", ErrRunLevelDependency, from.Name(), dep)}
		}
	}

	return r.instantiate(ctx, comp, observe, make(map[*component]bool))
}

func (r *InMemoryRegistry) instantiate(ctx context.Context, comp *component, observe ActivationFunc, resolving map[*component]bool) error {
	if r.stateOf(comp) == StateRunning {
		return nil
	}
	if resolving[comp] {
		return &InstantiationError{Component: comp.Name(), Err: ErrResolving}
	}
	resolving[comp] = true
	defer delete(resolving, comp)

	for _, depName := range comp.def.DependsOn {
		r.mu.RLock()
		dep, ok := r.components[depName]
		r.mu.RUnlock()
		if !ok {
			return &InstantiationError{Component: comp.Name(), Err: fmt.Errorf("dependency %s: %w", depName, ErrNotFound)}
		}
		if err := r.instantiate(ctx, dep, observe, resolving); err != nil {
			return &InstantiationError{Component: comp.Name(), Err: err}
		}
	}

	r.setState(comp, StateStarting, nil)
	if err := safeCall(ctx, comp.def.Lifecycle.Start); err != nil {
		r.setState(comp, StateFailed, err)
		logging.Debug("Registry", "Component %s failed to start: %v", comp, err)
		return &InstantiationError{Component: comp.Name(), Err: err}
	}
	r.setState(comp, StateRunning, nil)
	logging.Debug("Registry", "Started component %s", comp)

	if observe != nil {
		if err := observe(comp); err != nil {
			// Rejected activations must not leave a live instance behind.
			if stopErr := safeCall(ctx, comp.def.Lifecycle.Stop); stopErr != nil {
				logging.Warn("Registry", "Failed to stop rejected component %s: %v", comp, stopErr)
			}
			r.setState(comp, StateStopped, err)
			return &InstantiationError{Component: comp.Name(), Err: err}
		}
	}
	return nil
}

// runLevelDependency finds a plain component in comp's dependency tree that needs
// a run-level component which is not running.
func (r *InMemoryRegistry) runLevelDependency(comp *component, seen map[*component]bool) (from, dep *component) {
	if seen[comp] || r.stateOf(comp) == StateRunning {
		return nil, nil
	}
	seen[comp] = true

	for _, depName := range comp.def.DependsOn {
		r.mu.RLock()
		d, ok := r.components[depName]
		r.mu.RUnlock()
		if !ok || r.stateOf(d) == StateRunning {
			continue
		}
		if d.def.Tagged && !comp.def.Tagged {
			return comp, d
		}
		if from, dep := r.runLevelDependency(d, seen); dep != nil {
			return from, dep
		}
	}
	return nil, nil
}

// Release implements Registry. A failed Stop still leaves the component released,
// in StateFailed with the error recorded.
func (r *InMemoryRegistry) Release(ctx context.Context, c Component) error {
	comp, err := r.own(c)
	if err != nil {
		return &ReleaseError{Component: c.Name(), Err: err}
	}

	r.lifecycleMu.Lock()
	defer r.lifecycleMu.Unlock()

	if r.stateOf(comp) != StateRunning {
		return nil
	}

	r.setState(comp, StateStopping, nil)
	if err := safeCall(ctx, comp.def.Lifecycle.Stop); err != nil {
		r.setState(comp, StateFailed, err)
		logging.Debug("Registry", "Component %s failed to stop: %v", comp, err)
		return &ReleaseError{Component: comp.Name(), Err: err}
	}
	r.setState(comp, StateStopped, nil)
	logging.Debug("Registry", "Stopped component %s", comp)
	return nil
}

// IsInstantiated implements Registry.
func (r *InMemoryRegistry) IsInstantiated(c Component) bool {
	comp, err := r.own(c)
	if err != nil {
		return false
	}
	return r.stateOf(comp) == StateRunning
}

// State returns the state of a component by name.
func (r *InMemoryRegistry) State(name string) (ComponentState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.components[name]
	if !ok {
		return "", false
	}
	return c.state, true
}

// LastError returns the error recorded by the last failed start or stop of a component.
func (r *InMemoryRegistry) LastError(name string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.components[name]; ok {
		return c.lastErr
	}
	return nil
}

// Instances returns the running components in registration order.
func (r *InMemoryRegistry) Instances() []Component {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var result []Component
	for _, c := range r.order {
		if c.state == StateRunning {
			result = append(result, c)
		}
	}
	return result
}

func (r *InMemoryRegistry) own(c Component) (*component, error) {
	comp, ok := c.(*component)
	if !ok || comp == nil {
		return nil, ErrForeignComponent
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.components[comp.def.Name] != comp {
		return nil, ErrForeignComponent
	}
	return comp, nil
}

func (r *InMemoryRegistry) stateOf(c *component) ComponentState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return c.state
}

func (r *InMemoryRegistry) setState(c *component, state ComponentState, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.state = state
	c.lastErr = err
}

// safeCall runs a lifecycle step, turning a panic into an error.
func safeCall(ctx context.Context, fn func(context.Context) error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn(ctx)
}
