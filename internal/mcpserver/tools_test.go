package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"runlevelctl/internal/orchestrator"
	"runlevelctl/internal/services"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	registry *services.InMemoryRegistry
	orch     *orchestrator.Orchestrator
	server   *Server
}

func register(t *testing.T, r *services.InMemoryRegistry, name string, level int, lc services.Lifecycle) {
	t.Helper()
	_, err := r.Register(services.Definition{Name: name, Level: level, Tagged: true, Lifecycle: lc})
	require.NoError(t, err)
}

func newFixture(t *testing.T, async bool, setup func(r *services.InMemoryRegistry)) *fixture {
	t.Helper()
	r := services.NewRegistry()
	setup(r)
	o, err := orchestrator.New(orchestrator.Config{Registry: r, Async: async, Environment: "dev"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return &fixture{
		registry: r,
		orch:     o,
		server:   NewServer(Config{WaitTimeout: 5 * time.Second}, o),
	}
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func decode(t *testing.T, result *mcp.CallToolResult, v interface{}) {
	t.Helper()
	require.False(t, result.IsError, resultText(t, result))
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), v))
}

func TestServer_Tools(t *testing.T) {
	f := newFixture(t, false, func(*services.InMemoryRegistry) {})

	var names []string
	for _, tool := range f.server.Tools() {
		names = append(names, tool.Tool.Name)
		assert.NotNil(t, tool.Handler)
	}
	assert.Equal(t, []string{"runlevel_state", "runlevel_proceed", "runlevel_recorders", "runlevel_wait"}, names)
	assert.NotNil(t, f.server.MCPServer())
	assert.Same(t, f.server.MCPServer(), f.server.MCPServer())
	assert.Equal(t, "localhost:8090", f.server.Addr())
}

func TestHandleState(t *testing.T) {
	f := newFixture(t, false, func(*services.InMemoryRegistry) {})

	result, err := f.server.HandleState(context.Background(), call(nil))
	require.NoError(t, err)

	var state StateInfo
	decode(t, result, &state)
	assert.Equal(t, "dev", state.Environment)
	assert.Equal(t, orchestrator.NoRunLevel, state.Current)
	assert.Nil(t, state.Planned)
	assert.False(t, state.InFlight)
}

func TestHandleProceed_Sync(t *testing.T) {
	f := newFixture(t, false, func(r *services.InMemoryRegistry) {
		register(t, r, "network", 0, services.Noop)
		register(t, r, "db", 1, services.Noop)
	})

	result, err := f.server.HandleProceed(context.Background(), call(map[string]interface{}{"level": float64(1)}))
	require.NoError(t, err)

	var out struct {
		Transition TransitionInfo `json:"transition"`
		State      StateInfo      `json:"state"`
	}
	decode(t, result, &out)
	assert.Equal(t, 1, out.Transition.Target)
	assert.Equal(t, "completed", out.Transition.Outcome)
	assert.Equal(t, 1, out.State.Current)

	_, ok := f.server.lookup(out.Transition.ID)
	assert.True(t, ok, "transition is remembered for runlevel_wait")
}

func TestHandleProceed_InvalidArguments(t *testing.T) {
	f := newFixture(t, false, func(*services.InMemoryRegistry) {})
	ctx := context.Background()

	tests := []struct {
		name    string
		args    map[string]interface{}
		wantErr string
	}{
		{name: "missing level", args: map[string]interface{}{}, wantErr: "level is required"},
		{name: "fractional level", args: map[string]interface{}{"level": 1.5}, wantErr: "whole number"},
		{name: "negative level", args: map[string]interface{}{"level": float64(-1)}, wantErr: "invalid run level"},
		{name: "level above bound", args: map[string]interface{}{"level": 1e9}, wantErr: "above the highest level 99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := f.server.HandleProceed(ctx, call(tt.args))
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, resultText(t, result), tt.wantErr)
		})
	}
}

func TestHandleProceed_ConfiguredMaxLevel(t *testing.T) {
	f := newFixture(t, false, func(r *services.InMemoryRegistry) {
		register(t, r, "db", 2, services.Noop)
	})
	srv := NewServer(Config{WaitTimeout: 5 * time.Second, MaxLevel: 2}, f.orch)
	ctx := context.Background()

	result, err := srv.HandleProceed(ctx, call(map[string]interface{}{"level": float64(3)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "level 3 is above the highest level 2")
	assert.Equal(t, orchestrator.NoRunLevel, f.orch.CurrentRunLevel())

	result, err = srv.HandleProceed(ctx, call(map[string]interface{}{"level": float64(2)}))
	require.NoError(t, err)
	assert.False(t, result.IsError, resultText(t, result))
	assert.Equal(t, 2, f.orch.CurrentRunLevel())
}

func TestHandleProceed_ReportsComponentFailure(t *testing.T) {
	f := newFixture(t, false, func(r *services.InMemoryRegistry) {
		register(t, r, "db", 0, services.LifecycleFuncs{
			StartFunc: func(context.Context) error { return errors.New("connection refused") },
		})
	})

	result, err := f.server.HandleProceed(context.Background(), call(map[string]interface{}{"level": float64(0)}))
	require.NoError(t, err)

	var out struct {
		Transition TransitionInfo `json:"transition"`
	}
	decode(t, result, &out)
	assert.Equal(t, "failed", out.Transition.Outcome)
	assert.Contains(t, out.Transition.Error, "connection refused")
}

func TestHandleRecorders(t *testing.T) {
	f := newFixture(t, false, func(r *services.InMemoryRegistry) {
		register(t, r, "network", 0, services.Noop)
		register(t, r, "db", 1, services.Noop)
		register(t, r, "cache", 1, services.Noop)
	})
	_, err := f.orch.ProceedTo(context.Background(), 1)
	require.NoError(t, err)

	result, err := f.server.HandleRecorders(context.Background(), call(nil))
	require.NoError(t, err)

	var out struct {
		Recorders []RecorderInfo `json:"recorders"`
		Total     int            `json:"total"`
	}
	decode(t, result, &out)
	assert.Equal(t, 2, out.Total)
	assert.Equal(t, []RecorderInfo{
		{Level: 0, Activations: []string{"network"}},
		{Level: 1, Activations: []string{"db", "cache"}},
	}, out.Recorders)
}

func TestHandleWait_Async(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	f := newFixture(t, true, func(r *services.InMemoryRegistry) {
		register(t, r, "slow", 0, services.LifecycleFuncs{
			StartFunc: func(ctx context.Context) error {
				entered <- struct{}{}
				<-release
				return nil
			},
		})
	})
	ctx := context.Background()

	result, err := f.server.HandleProceed(ctx, call(map[string]interface{}{"level": float64(0)}))
	require.NoError(t, err)
	var started struct {
		Transition TransitionInfo `json:"transition"`
	}
	decode(t, result, &started)
	assert.Equal(t, "pending", started.Transition.Outcome)
	<-entered

	result, err = f.server.HandleWait(ctx, call(map[string]interface{}{
		"transition_id":   started.Transition.ID,
		"timeout_seconds": 0.02,
	}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "still running")

	result, err = f.server.HandleWait(ctx, call(map[string]interface{}{"timeout_seconds": 0.02}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "still busy")

	close(release)
	result, err = f.server.HandleWait(ctx, call(map[string]interface{}{"transition_id": started.Transition.ID}))
	require.NoError(t, err)
	var finished struct {
		Transition TransitionInfo `json:"transition"`
		State      StateInfo      `json:"state"`
	}
	decode(t, result, &finished)
	assert.Equal(t, "completed", finished.Transition.Outcome)
	assert.Equal(t, 0, finished.State.Current)

	result, err = f.server.HandleWait(ctx, call(nil))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestHandleWait_UnknownTransition(t *testing.T) {
	f := newFixture(t, false, func(*services.InMemoryRegistry) {})

	result, err := f.server.HandleWait(context.Background(), call(map[string]interface{}{"transition_id": "nope"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "Transition not found: nope")
}

func TestServer_StopWithoutStart(t *testing.T) {
	f := newFixture(t, false, func(*services.InMemoryRegistry) {})
	assert.Error(t, f.server.Stop(context.Background()))
}
