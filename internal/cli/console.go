package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"
)

// errExit ends the console loop.
var errExit = errors.New("exit")

const consoleHelp = `Commands:
  state                   Show the current and planned run level
  proceed <level> [wait]  Request a run level, optionally waiting for it
  recorders               Show the components started per level
  wait [transition-id]    Wait for a transition, or until the server is idle
  help                    Show this help
  exit                    Leave the console`

// Console is an interactive prompt over an Executor.
type Console struct {
	executor *Executor
	out      io.Writer
	timeout  time.Duration
}

// NewConsole creates a console printing to out. timeout bounds waiting commands.
func NewConsole(executor *Executor, out io.Writer, timeout time.Duration) *Console {
	return &Console{executor: executor, out: out, timeout: timeout}
}

// Run reads commands until exit, EOF or ctx is cancelled.
func (c *Console) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "runlevel> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".runlevelctl_history"),
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	fmt.Fprintln(c.out, "Type 'help' for available commands. Use TAB for completion.")
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return fmt.Errorf("readline error: %w", err)
		}

		if err := c.Execute(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			fmt.Fprintf(c.out, "Error: %v\n", err)
		}
	}
}

// Execute runs one console command line. It returns errExit for exit and quit.
func (c *Console) Execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch cmd, args := fields[0], fields[1:]; cmd {
	case "state":
		return c.executor.State(ctx)
	case "recorders":
		return c.executor.Recorders(ctx)
	case "proceed":
		if len(args) == 0 || len(args) > 2 {
			return fmt.Errorf("usage: proceed <level> [wait]")
		}
		level, err := strconv.Atoi(args[0])
		if err != nil || level < 0 {
			return fmt.Errorf("invalid level %q: must be a whole number >= 0", args[0])
		}
		wait := len(args) == 2 && args[1] == "wait"
		if len(args) == 2 && !wait {
			return fmt.Errorf("usage: proceed <level> [wait]")
		}
		return c.executor.Proceed(ctx, level, wait, c.timeout)
	case "wait":
		id := ""
		if len(args) > 0 {
			id = args[0]
		}
		return c.executor.Wait(ctx, id, c.timeout)
	case "help", "?":
		fmt.Fprintln(c.out, consoleHelp)
		return nil
	case "exit", "quit":
		return errExit
	default:
		return fmt.Errorf("unknown command %q (type 'help')", cmd)
	}
}

func completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem("state"),
		readline.PcItem("proceed"),
		readline.PcItem("recorders"),
		readline.PcItem("wait"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)
}
