package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"runlevelctl/internal/app"

	"github.com/spf13/cobra"
)

var (
	upTUI         bool
	upDetach      bool
	upEnvironment string
)

func newUpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "up [level]",
		Short: "Bring the environment to a run level",
		Long: `Brings the environment to the given run level, starting the components of
every level up to it in order. Without a level, settings.defaultTarget or the
highest configured level is used.

It can run in two modes:

1. CLI mode (default):
   - Logs progress to the console and keeps the components running until
     interrupted (Ctrl+C), then stops every level in reverse order.
   - With --detach, exits as soon as the level is reached and leaves the
     components running.

2. Interactive TUI mode (--tui):
   - Shows the current and planned level, the components started per level
     and the activity log. Use +/- or the digit keys to change level.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runUp,
	}

	cmd.Flags().BoolVar(&upTUI, "tui", false, "Run the interactive dashboard")
	cmd.Flags().BoolVar(&upDetach, "detach", false, "Leave components running on exit")
	cmd.Flags().StringVar(&upEnvironment, "env", "", "Environment to manage (overrides settings.environment)")
	return cmd
}

func runUp(cmd *cobra.Command, args []string) error {
	mode := app.ModeCLI
	if upTUI {
		mode = app.ModeTUI
	}
	cfg := app.NewConfig(mode, configPath, debug)
	cfg.Output = cmd.OutOrStdout()
	cfg.Detach = upDetach
	cfg.Environment = upEnvironment

	if len(args) == 1 {
		level, err := parseLevel(args[0])
		if err != nil {
			return err
		}
		cfg.Target = &level
	}

	return runApplication(cmd, cfg)
}

// runApplication creates the application and runs it until SIGINT or SIGTERM.
func runApplication(cmd *cobra.Command, cfg *app.Config) error {
	application, err := app.NewApplication(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}

func parseLevel(s string) (int, error) {
	level, err := strconv.Atoi(s)
	if err != nil || level < 0 {
		return 0, fmt.Errorf("invalid level %q: must be a whole number >= 0", s)
	}
	return level, nil
}
