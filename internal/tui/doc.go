// Package tui provides the terminal user interface for runlevelctl.
//
// The interface is a single Bubble Tea model that shows where an environment is
// and where it is heading:
//
//   - a level bar with every level up to the highest configured one, reached
//     levels filled in and the planned target marked while a transition runs
//   - the activations recorded per level, in the order they were started
//   - an activity log fed by orchestrator events and pkg/logging entries
//
// # Keys
//
//	+ / k / ↑   proceed one level up
//	- / j / ↓   proceed one level down
//	0-9         proceed to that level
//	G           proceed to the highest level
//	y           copy the current state to the clipboard
//	h           toggle help
//	q / ctrl+c  quit
//
// Transitions requested from the keyboard run in a tea.Cmd so the screen keeps
// rendering while components start. Progress arrives as reporting.EventMsg
// values on the channel handed to the model.
package tui
