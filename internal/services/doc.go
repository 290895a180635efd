// Package services provides the component layer for runlevelctl.
//
// A Component is something that can be started and stopped: a shell command, a
// Kubernetes namespace, or a plain marker that only exists to be ordered. A
// Registry knows every component, starts them with their dependencies first and
// reports each start to the caller.
//
// # Core Concepts
//
// Component: The unit the run-level orchestrator schedules. It is tagged for a run
// level in one Environment, or untagged when it is only ever started as a
// dependency. The Component value doubles as the handle of its running instance.
//
// Registry: The collaborator the orchestrator talks to. InMemoryRegistry is the
// implementation used by the application; it is safe for concurrent use and can be
// shared by orchestrators of different environments.
//
// Lifecycle: What starting and stopping a component actually does. Kinds build
// lifecycles from configuration; see Kinds.
//
// # Component Lifecycle
//
//  1. Registration: A Definition is registered and becomes a Component.
//  2. Starting: Stopped -> Starting -> Running, dependencies first.
//  3. Stopping: Running -> Stopping -> Stopped.
//  4. Failure: A failed start or stop leaves the component in Failed.
//
// # Thread Safety
//
// Lifecycle calls on one registry are serialized. Queries never wait for a
// lifecycle call to finish.
package services
