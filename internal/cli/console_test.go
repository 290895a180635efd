package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsole_Execute(t *testing.T) {
	c, o := connectedClient(t, "")
	ctx := context.Background()
	out := &bytes.Buffer{}
	console := NewConsole(NewExecutor(c, OutputFormatTable, out), out, 5*time.Second)

	require.NoError(t, console.Execute(ctx, "   "))
	assert.Empty(t, out.String())

	require.NoError(t, console.Execute(ctx, "proceed 2 wait"))
	assert.Equal(t, 2, o.CurrentRunLevel())
	assert.Contains(t, out.String(), "completed")

	out.Reset()
	require.NoError(t, console.Execute(ctx, "recorders"))
	assert.Contains(t, out.String(), "api")

	out.Reset()
	require.NoError(t, console.Execute(ctx, "help"))
	assert.Contains(t, out.String(), "proceed <level> [wait]")

	assert.ErrorIs(t, console.Execute(ctx, "exit"), errExit)
	assert.ErrorIs(t, console.Execute(ctx, "quit"), errExit)
}

func TestConsole_ExecuteErrors(t *testing.T) {
	console := NewConsole(NewExecutor(NewClient("http://localhost:1/sse"), OutputFormatTable, &bytes.Buffer{}), &bytes.Buffer{}, time.Second)
	ctx := context.Background()

	for _, line := range []string{"proceed", "proceed -1", "proceed 1.5", "proceed x", "proceed 1 later", "proceed 1 2 3", "launch"} {
		assert.Error(t, console.Execute(ctx, line), line)
	}
}
