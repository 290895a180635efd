package orchestrator

import (
	"fmt"

	"runlevelctl/internal/services"
)

// NoRunLevel is the current run level of an orchestrator that has not reached level 0 yet.
const NoRunLevel = -1

// State is an immutable snapshot of where an orchestrator is and where it is going.
type State struct {
	current     int
	planned     int
	hasPlanned  bool
	environment services.Environment
}

// CurrentRunLevel is the highest level fully reached, or NoRunLevel.
func (s State) CurrentRunLevel() int {
	return s.current
}

// PlannedRunLevel is the target of the transition in flight. ok is false when idle.
func (s State) PlannedRunLevel() (level int, ok bool) {
	return s.planned, s.hasPlanned
}

// Environment is the environment the orchestrator manages.
func (s State) Environment() services.Environment {
	return s.environment
}

// InFlight reports whether a transition is planned or running.
func (s State) InFlight() bool {
	return s.hasPlanned
}

func (s State) String() string {
	if s.hasPlanned {
		return fmt.Sprintf("%s: level %d -> %d", s.environment, s.current, s.planned)
	}
	return fmt.Sprintf("%s: level %d", s.environment, s.current)
}

// publishLocked stores a fresh snapshot for lock-free readers. Callers hold o.mu.
func (o *Orchestrator) publishLocked() {
	s := &State{
		current:     o.current,
		environment: o.environment,
	}
	// A request for the current level that no driver has picked up yet is a no-op,
	// not a transition in flight.
	if o.request != nil && (o.request.target != o.current || o.active != nil) {
		s.planned = o.request.target
		s.hasPlanned = true
	}
	o.snapshot.Store(s)
}

// State returns the latest published snapshot without blocking a running transition.
func (o *Orchestrator) State() State {
	return *o.snapshot.Load()
}

// CurrentRunLevel is shorthand for State().CurrentRunLevel().
func (o *Orchestrator) CurrentRunLevel() int {
	return o.State().CurrentRunLevel()
}

// PlannedRunLevel is shorthand for State().PlannedRunLevel().
func (o *Orchestrator) PlannedRunLevel() (int, bool) {
	return o.State().PlannedRunLevel()
}

// Environment returns the environment this orchestrator manages.
func (o *Orchestrator) Environment() services.Environment {
	return o.environment
}
