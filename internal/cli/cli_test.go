package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"runlevelctl/internal/config"
	"runlevelctl/internal/mcpserver"
	"runlevelctl/internal/orchestrator"
	"runlevelctl/internal/services"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	text.DisableColors()
}

func intPtr(i int) *int { return &i }

// connectedClient serves the run-level tools of an orchestrator with one
// component per level and returns a connected client.
func connectedClient(t *testing.T, failing string) (*Client, *orchestrator.Orchestrator) {
	t.Helper()
	r := services.NewRegistry()
	for level, name := range []string{"network", "db", "api"} {
		var lc services.Lifecycle = services.Noop
		if name == failing {
			lc = services.LifecycleFuncs{StartFunc: func(context.Context) error {
				return errors.New("connection refused")
			}}
		}
		_, err := r.Register(services.Definition{Name: name, Level: level, Tagged: true, Lifecycle: lc})
		require.NoError(t, err)
	}
	o, err := orchestrator.New(orchestrator.Config{Registry: r, Environment: "dev"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })

	ts := server.NewTestServer(mcpserver.NewServer(mcpserver.Config{WaitTimeout: 5 * time.Second}, o).MCPServer())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	c := NewClient(ts.URL + "/sse").WithTimeout(5 * time.Second)
	require.NoError(t, c.Connect(ctx))
	t.Cleanup(func() { _ = c.Close() })
	return c, o
}

func TestEndpoint(t *testing.T) {
	assert.Equal(t, "http://localhost:8090/sse", Endpoint("localhost", 8090))
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8090/sse")
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, 2*time.Minute, c.WithTimeout(2*time.Minute).timeout)
	assert.Equal(t, 2*time.Minute, c.WithTimeout(0).timeout)

	assert.NoError(t, c.Close())
	_, err := c.CallTool(context.Background(), "runlevel_state", nil)
	assert.EqualError(t, err, "client not connected")
}

func TestClient_ConnectFails(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := NewClient("http://127.0.0.1:1/sse").Connect(ctx)
	assert.Error(t, err)
}

func TestParseOutputFormat(t *testing.T) {
	for in, want := range map[string]OutputFormat{"table": OutputFormatTable, "JSON": OutputFormatJSON, "yaml": OutputFormatYAML} {
		got, err := ParseOutputFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseOutputFormat("xml")
	assert.Error(t, err)
}

func TestExecutor_ProceedAndInspect(t *testing.T) {
	c, o := connectedClient(t, "")
	ctx := context.Background()
	out := &bytes.Buffer{}
	e := NewExecutor(c, OutputFormatTable, out)

	require.NoError(t, e.Proceed(ctx, 1, true, 5*time.Second))
	assert.Equal(t, 1, o.CurrentRunLevel())
	assert.Contains(t, out.String(), "completed")
	assert.Contains(t, out.String(), "dev")

	out.Reset()
	require.NoError(t, e.State(ctx))
	assert.Contains(t, out.String(), "current")
	assert.Contains(t, out.String(), "1")

	out.Reset()
	require.NoError(t, e.Recorders(ctx))
	assert.Contains(t, out.String(), "network")
	assert.Contains(t, out.String(), "db")
	assert.NotContains(t, out.String(), "api")

	out.Reset()
	require.NoError(t, e.Wait(ctx, "", time.Second))
	assert.Contains(t, out.String(), "environment")
}

func TestExecutor_Formats(t *testing.T) {
	c, _ := connectedClient(t, "")
	ctx := context.Background()

	out := &bytes.Buffer{}
	require.NoError(t, NewExecutor(c, OutputFormatJSON, out).State(ctx))
	assert.JSONEq(t, `{"environment":"dev","current":-1,"inFlight":false}`, out.String())

	out.Reset()
	require.NoError(t, NewExecutor(c, OutputFormatYAML, out).State(ctx))
	assert.Contains(t, out.String(), "environment: dev")
	assert.Contains(t, out.String(), "current: -1")
}

func TestExecutor_FailedLevel(t *testing.T) {
	c, o := connectedClient(t, "db")
	out := &bytes.Buffer{}

	err := NewExecutor(c, OutputFormatTable, out).Proceed(context.Background(), 2, true, 5*time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "level 2 not reached")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Contains(t, out.String(), "failed")
	assert.Equal(t, 0, o.CurrentRunLevel())
}

func TestExecutor_ToolErrors(t *testing.T) {
	c, _ := connectedClient(t, "")
	e := NewExecutor(c, OutputFormatTable, &bytes.Buffer{})

	err := e.Proceed(context.Background(), -1, false, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to proceed to level -1")

	err = e.Wait(context.Background(), "no-such-id", time.Second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transition not found: no-such-id")
}

func TestPrintComponents(t *testing.T) {
	rc := config.RunlevelConfig{
		Settings: config.Settings{Environment: "dev"},
		Components: []config.ComponentDefinition{
			{Name: "network", Level: intPtr(0), Kind: "command", Command: "true"},
			{Name: "cache", DependsOn: []string{"network"}},
		},
	}

	out := &bytes.Buffer{}
	require.NoError(t, PrintComponents(out, OutputFormatTable, rc))
	assert.Contains(t, out.String(), "NAME")
	assert.Contains(t, out.String(), "network")
	assert.Contains(t, out.String(), "command")
	assert.Contains(t, out.String(), "noop")
	assert.Contains(t, out.String(), "dev")

	out.Reset()
	require.NoError(t, PrintComponents(out, OutputFormatJSON, rc))
	assert.JSONEq(t, `[
		{"name":"network","level":0,"kind":"command","command":"true"},
		{"name":"cache","dependsOn":["network"]}
	]`, out.String())

	out.Reset()
	require.NoError(t, PrintComponents(out, OutputFormatYAML, rc))
	assert.Contains(t, out.String(), "- name: network")

	out.Reset()
	require.NoError(t, PrintComponents(out, OutputFormatTable, config.RunlevelConfig{}))
	assert.Contains(t, out.String(), "No components configured")
}
