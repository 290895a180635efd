package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"runlevelctl/internal/orchestrator"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// StateInfo is the JSON form of an orchestrator.State.
type StateInfo struct {
	Environment string `json:"environment"`
	Current     int    `json:"current"`
	Planned     *int   `json:"planned,omitempty"`
	InFlight    bool   `json:"inFlight"`
}

// TransitionInfo is the JSON form of an orchestrator.Transition.
type TransitionInfo struct {
	ID      string `json:"id"`
	Target  int    `json:"target"`
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// RecorderInfo lists the activations recorded for one level.
type RecorderInfo struct {
	Level       int      `json:"level"`
	Activations []string `json:"activations"`
}

func newStateInfo(state orchestrator.State) StateInfo {
	info := StateInfo{
		Environment: string(state.Environment()),
		Current:     state.CurrentRunLevel(),
		InFlight:    state.InFlight(),
	}
	if planned, ok := state.PlannedRunLevel(); ok {
		info.Planned = &planned
	}
	return info
}

func newTransitionInfo(t *orchestrator.Transition) TransitionInfo {
	info := TransitionInfo{
		ID:      t.ID(),
		Target:  t.Target(),
		Outcome: t.Outcome().String(),
	}
	if err := t.Err(); err != nil {
		info.Error = err.Error()
	}
	return info
}

// Tools returns the run-level tools with their handlers.
func (s *Server) Tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("runlevel_state",
				mcp.WithDescription("Get the current and planned run level"),
			),
			Handler: s.HandleState,
		},
		{
			Tool: mcp.NewTool("runlevel_proceed",
				mcp.WithDescription("Bring the environment to a run level, starting or stopping components level by level"),
				mcp.WithNumber("level",
					mcp.Required(),
					mcp.Description("Target run level, from 0 up to the highest configured level"),
				),
				mcp.WithBoolean("wait",
					mcp.Description("Wait for the transition to finish (default: false)"),
				),
				mcp.WithNumber("timeout_seconds",
					mcp.Description("How long to wait when wait is true"),
				),
			),
			Handler: s.HandleProceed,
		},
		{
			Tool: mcp.NewTool("runlevel_recorders",
				mcp.WithDescription("List the components activated at each level, in activation order"),
			),
			Handler: s.HandleRecorders,
		},
		{
			Tool: mcp.NewTool("runlevel_wait",
				mcp.WithDescription("Wait for a transition to finish, or for the orchestrator to become idle"),
				mcp.WithString("transition_id",
					mcp.Description("Transition returned by runlevel_proceed; omit to wait until idle"),
				),
				mcp.WithNumber("timeout_seconds",
					mcp.Description("How long to wait"),
				),
			),
			Handler: s.HandleWait,
		},
	}
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to format result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (s *Server) waitContext(ctx context.Context, req mcp.CallToolRequest) (context.Context, context.CancelFunc) {
	timeout := s.config.WaitTimeout
	if seconds := req.GetFloat("timeout_seconds", 0); seconds > 0 {
		timeout = time.Duration(seconds * float64(time.Second))
	}
	return context.WithTimeout(ctx, timeout)
}

// HandleState handles the runlevel_state tool call
func (s *Server) HandleState(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(newStateInfo(s.controller.State()))
}

// HandleProceed handles the runlevel_proceed tool call
func (s *Server) HandleProceed(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	level, err := req.RequireFloat("level")
	if err != nil {
		return mcp.NewToolResultError("level is required"), nil
	}
	if level != float64(int(level)) {
		return mcp.NewToolResultError(fmt.Sprintf("level must be a whole number, got %v", level)), nil
	}
	if level > float64(s.config.MaxLevel) {
		return mcp.NewToolResultError(fmt.Sprintf("level %v is above the highest level %d", level, s.config.MaxLevel)), nil
	}

	t, err := s.controller.ProceedTo(ctx, int(level))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to proceed to level %d: %v", int(level), err)), nil
	}
	s.remember(t)

	if req.GetBool("wait", false) {
		waitCtx, cancel := s.waitContext(ctx, req)
		defer cancel()
		if err := t.Wait(waitCtx); err != nil && t.Outcome() == orchestrator.OutcomePending {
			return mcp.NewToolResultError(fmt.Sprintf("Transition %s still running: %v", t.ID(), err)), nil
		}
	}

	return jsonResult(map[string]interface{}{
		"transition": newTransitionInfo(t),
		"state":      newStateInfo(s.controller.State()),
	})
}

// HandleRecorders handles the runlevel_recorders tool call
func (s *Server) HandleRecorders(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	recorders := []RecorderInfo{}
	for _, level := range s.controller.Recorders() {
		r, ok := s.controller.Recorder(level)
		if !ok {
			continue
		}
		info := RecorderInfo{Level: level, Activations: []string{}}
		for c := range r.Activations() {
			info.Activations = append(info.Activations, c.Name())
		}
		recorders = append(recorders, info)
	}
	slices.SortFunc(recorders, func(a, b RecorderInfo) int { return a.Level - b.Level })

	return jsonResult(map[string]interface{}{
		"recorders": recorders,
		"total":     len(recorders),
	})
}

// HandleWait handles the runlevel_wait tool call
func (s *Server) HandleWait(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	waitCtx, cancel := s.waitContext(ctx, req)
	defer cancel()

	id := req.GetString("transition_id", "")
	if id == "" {
		if err := s.controller.WaitIdle(waitCtx); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Orchestrator still busy: %v", err)), nil
		}
		return jsonResult(map[string]interface{}{
			"state": newStateInfo(s.controller.State()),
		})
	}

	t, ok := s.lookup(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("Transition not found: %s", id)), nil
	}
	if err := t.Wait(waitCtx); err != nil && t.Outcome() == orchestrator.OutcomePending {
		return mcp.NewToolResultError(fmt.Sprintf("Transition %s still running: %v", id, err)), nil
	}
	return jsonResult(map[string]interface{}{
		"transition": newTransitionInfo(t),
		"state":      newStateInfo(s.controller.State()),
	})
}
