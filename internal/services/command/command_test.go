package command

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"runlevelctl/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresCommand(t *testing.T) {
	_, err := New(services.KindSpec{Name: "empty", Command: "  "})
	assert.Error(t, err)
}

func TestLifecycle_StartAndStop(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "up")
	lc, err := New(services.KindSpec{
		Name:        "marker",
		Command:     "touch " + marker,
		StopCommand: "rm " + marker,
	})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, lc.Start(ctx))
	_, err = os.Stat(marker)
	require.NoError(t, err)

	require.NoError(t, lc.Stop(ctx))
	_, err = os.Stat(marker)
	assert.True(t, os.IsNotExist(err))
}

func TestLifecycle_StopWithoutStopCommand(t *testing.T) {
	lc, err := New(services.KindSpec{Name: "oneshot", Command: "true"})
	require.NoError(t, err)
	assert.NoError(t, lc.Stop(context.Background()))
}

func TestLifecycle_FailureCarriesStderr(t *testing.T) {
	lc, err := New(services.KindSpec{Name: "broken", Command: "echo no route >&2; exit 3"})
	require.NoError(t, err)

	err = lc.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no route")
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestLifecycle_HonoursContext(t *testing.T) {
	lc, err := New(services.KindSpec{Name: "slow", Command: "sleep 5"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Error(t, lc.Start(ctx))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestLifecycle_UsesConfiguredShell(t *testing.T) {
	originalShell, originalExec := Shell, ExecCommandContext
	defer func() { Shell, ExecCommandContext = originalShell, originalExec }()

	var gotName string
	var gotArgs []string
	Shell = []string{"/bin/sh", "-e", "-c"}
	ExecCommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		gotName, gotArgs = name, args
		return exec.CommandContext(ctx, "true")
	}

	lc, err := New(services.KindSpec{Name: "custom", Command: "make up"})
	require.NoError(t, err)
	require.NoError(t, lc.Start(context.Background()))

	assert.Equal(t, "/bin/sh", gotName)
	assert.Equal(t, []string{"-e", "-c", "make up"}, gotArgs)
}
