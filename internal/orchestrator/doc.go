// Package orchestrator provides run-level orchestration for runlevelctl.
//
// An Orchestrator brings the components of one environment up through numbered
// run levels (0..N) and back down. Components are resolved and started by a
// services.Registry; the orchestrator only decides which level comes next and
// remembers what each level actually started.
//
// # Levels
//
// Ascending to level L asks the registry for every component tagged for L and
// instantiates each one. The registry starts dependencies first and reports each
// start; run-level components of the same environment are recorded into L's
// Recorder in the order their starts completed. Once every component of L is up,
// the current level becomes L and listeners are told.
//
// Descending from L unwinds L's Recorder and releases its components in exact
// reverse activation order, regardless of how they were declared.
//
// # Failures
//
// A component that fails to start stops the ascent: the level is not reached and
// nothing that did start is rolled back. A retry picks up where the failure left
// off. Release failures while descending are reported and the descent continues.
//
// # Concurrency
//
// In sync mode ProceedTo runs the transition on the calling goroutine. In async
// mode a single worker runs it and ProceedTo returns a Transition to wait on.
// Either way a newer ProceedTo supersedes the current target at the next level
// boundary and the superseded transition ends as cancelled.
//
// # Usage
//
//	o, err := orchestrator.New(orchestrator.Config{
//		Registry:  registry,
//		Async:     true,
//		Listeners: []orchestrator.Listener{reporter},
//	})
//	if err != nil {
//		return err
//	}
//	defer o.Close()
//
//	t, err := o.ProceedTo(ctx, 3)
//	if err != nil {
//		return err
//	}
//	if err := t.Wait(ctx); err != nil {
//		return err
//	}
package orchestrator
