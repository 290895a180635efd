// Package command implements the "command" component kind: a shell command run
// when the component is activated and another one run when it is released.
package command

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"runlevelctl/internal/services"
	"runlevelctl/pkg/logging"
)

// Kind is the kind name used in configuration.
const Kind = "command"

// Shell runs command lines. Exported to allow overriding in tests.
var Shell = []string{"sh", "-c"}

// ExecCommandContext creates the process for a command line.
// Exported to allow overriding in tests.
var ExecCommandContext = exec.CommandContext

// waitDelay bounds how long a cancelled command may keep its output pipes open.
const waitDelay = 2 * time.Second

// Lifecycle runs Command on Start and StopCommand, if any, on Stop.
type Lifecycle struct {
	name        string
	command     string
	stopCommand string
}

var _ services.Lifecycle = (*Lifecycle)(nil)

// New is the services.LifecycleFactory of the command kind.
func New(spec services.KindSpec) (services.Lifecycle, error) {
	if strings.TrimSpace(spec.Command) == "" {
		return nil, fmt.Errorf("command is required")
	}
	return &Lifecycle{
		name:        spec.Name,
		command:     spec.Command,
		stopCommand: spec.StopCommand,
	}, nil
}

// Start runs the activation command and fails if it exits non-zero.
func (l *Lifecycle) Start(ctx context.Context) error {
	return l.run(ctx, l.command)
}

// Stop runs the release command. Components without one have nothing to undo.
func (l *Lifecycle) Stop(ctx context.Context) error {
	if strings.TrimSpace(l.stopCommand) == "" {
		return nil
	}
	return l.run(ctx, l.stopCommand)
}

func (l *Lifecycle) run(ctx context.Context, line string) error {
	args := append(append([]string(nil), Shell[1:]...), line)
	cmd := ExecCommandContext(ctx, Shell[0], args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.WaitDelay = waitDelay

	logging.Debug("Command-"+l.name, "Running: %s", line)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("command %q failed: %w. Stderr: %s", line, err, strings.TrimSpace(stderrBuf.String()))
	}
	if out := strings.TrimSpace(stdoutBuf.String()); out != "" {
		logging.Debug("Command-"+l.name, "Output: %s", out)
	}
	return nil
}
