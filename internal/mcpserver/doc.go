// Package mcpserver exposes a run-level orchestrator as MCP tools.
//
// The server speaks MCP over SSE (mark3labs/mcp-go) and offers:
//
//   - runlevel_state: current and planned run level of the environment
//   - runlevel_proceed: plan a transition, optionally waiting for it
//   - runlevel_recorders: activations recorded per level, in activation order
//   - runlevel_wait: wait for one transition, or for the orchestrator to go idle
//
// Transitions started through runlevel_proceed are remembered for a while so a
// later runlevel_wait can refer to them by ID.
package mcpserver
