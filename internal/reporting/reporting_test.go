package reporting

import (
	"context"
	"errors"
	"testing"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/internal/services"

	"github.com/stretchr/testify/require"
)

// newTestOrchestrator builds a sync orchestrator over a registry holding one
// component per level. failAt makes that level's component fail to start.
func newTestOrchestrator(t *testing.T, levels int, failAt int, listeners ...orchestrator.Listener) *orchestrator.Orchestrator {
	t.Helper()
	r := services.NewRegistry()
	for level := 0; level < levels; level++ {
		lc := services.Noop
		if level == failAt {
			lc = services.LifecycleFuncs{
				StartFunc: func(context.Context) error { return errors.New("port already in use") },
			}
		}
		_, err := r.Register(services.Definition{
			Name:      "component-" + string(rune('a'+level)),
			Level:     level,
			Tagged:    true,
			Lifecycle: lc,
		})
		require.NoError(t, err)
	}

	o, err := orchestrator.New(orchestrator.Config{Registry: r, Listeners: listeners})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

// drain collects everything currently buffered on a subscription.
func drain(sub *Subscription) []Event {
	var events []Event
	for {
		select {
		case e, ok := <-sub.Events:
			if !ok {
				return events
			}
			events = append(events, e)
		default:
			return events
		}
	}
}
