package cmd

import (
	"runlevelctl/internal/app"

	"github.com/spf13/cobra"
)

var (
	serveLevel       int
	serveEnvironment string
	serveTUI         bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the orchestrator to MCP clients",
		Long: `Starts the orchestrator and serves the run-level tools over MCP (SSE) on
mcp.host:mcp.port from the configuration (default localhost:8090).

Tools:
  runlevel_state      - current and planned run level
  runlevel_proceed    - request a run level, optionally waiting for it
  runlevel_recorders  - components started per level
  runlevel_wait       - wait for a transition or for the orchestrator to go idle

Use 'runlevelctl runlevel' to call these tools from the command line.
With --tui the dashboard runs alongside the server; quitting it stops both.
On exit every level is stopped in reverse order.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}

	cmd.Flags().IntVar(&serveLevel, "level", -1, "Proceed to this level after starting (default: stay below level 0)")
	cmd.Flags().StringVar(&serveEnvironment, "env", "", "Environment to manage (overrides settings.environment)")
	cmd.Flags().BoolVar(&serveTUI, "tui", false, "Run the interactive dashboard while serving")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := app.NewConfig(app.ModeServe, configPath, debug)
	cfg.Output = cmd.OutOrStdout()
	cfg.Environment = serveEnvironment
	cfg.WithTUI = serveTUI
	if serveLevel >= 0 {
		level := serveLevel
		cfg.Target = &level
	}
	return runApplication(cmd, cfg)
}
