package orchestrator

import (
	"fmt"
	"iter"
	"sync"

	"runlevelctl/internal/services"
)

// Recorder is the activation log of one run level. It keeps components in the order
// they were actually started so the level can be torn down in exact reverse order,
// whatever order they were declared in.
type Recorder struct {
	level       int
	environment services.Environment

	mu          sync.RWMutex
	activations []services.Component
}

// NewRecorder creates an empty recorder for level in env.
func NewRecorder(level int, env services.Environment) *Recorder {
	return &Recorder{level: level, environment: env}
}

// Level returns the run level this recorder belongs to.
func (r *Recorder) Level() int {
	return r.level
}

// Record appends an activation. Untagged components and components of other
// environments are not run-level managed here and are ignored. A component tagged
// for a higher level is activating too early and is rejected.
// Duplicates are recorded as-is.
func (r *Recorder) Record(c services.Component) error {
	level, tagged := c.RunLevel()
	if !tagged || c.Environment() != r.environment {
		return nil
	}
	if level > r.level {
		return fmt.Errorf("%w: %s is tagged for level %d, activated while at level %d",
			ErrLevelTooHigh, c.Name(), level, r.level)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.activations = append(r.activations, c)
	return nil
}

// Activations yields the log in activation order. Every range over the sequence
// sees the log as it was when that iteration started.
func (r *Recorder) Activations() iter.Seq[services.Component] {
	return func(yield func(services.Component) bool) {
		r.mu.RLock()
		snapshot := append([]services.Component(nil), r.activations...)
		r.mu.RUnlock()

		for _, c := range snapshot {
			if !yield(c) {
				return
			}
		}
	}
}

// Unwind empties the recorder and returns its log in reverse activation order.
func (r *Recorder) Unwind() []services.Component {
	r.mu.Lock()
	defer r.mu.Unlock()

	result := make([]services.Component, len(r.activations))
	for i, c := range r.activations {
		result[len(r.activations)-1-i] = c
	}
	r.activations = nil
	return result
}

// Len returns the number of recorded activations.
func (r *Recorder) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.activations)
}

func (r *Recorder) String() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.activations))
	for i, c := range r.activations {
		names[i] = c.Name()
	}
	return fmt.Sprintf("Recorder(%d)%v", r.level, names)
}
