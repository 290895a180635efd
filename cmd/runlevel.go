package cmd

import (
	"context"
	"time"

	"runlevelctl/internal/app"
	"runlevelctl/internal/cli"
	"runlevelctl/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	runlevelEndpoint     string
	runlevelOutputFormat string
	runlevelTimeout      time.Duration
	runlevelWait         bool
)

func newRunlevelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runlevel",
		Short: "Inspect and change the run level of a running server",
		Long: `Talks to a server started with 'runlevelctl serve'.

Available commands:
  state      - Show the current and planned run level
  proceed    - Request a run level
  recorders  - Show the components started per level
  wait       - Wait for a transition to finish
  console    - Interactive prompt for the commands above

The endpoint defaults to mcp.host and mcp.port from the configuration.`,
	}

	cmd.PersistentFlags().StringVar(&runlevelEndpoint, "endpoint", "", "SSE endpoint of the server (default http://<mcp.host>:<mcp.port>/sse)")
	cmd.PersistentFlags().StringVarP(&runlevelOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	cmd.PersistentFlags().DurationVar(&runlevelTimeout, "timeout", 0, "How long to wait for a transition (default settings.waitTimeout)")

	proceedCmd := &cobra.Command{
		Use:   "proceed <level>",
		Short: "Request a run level",
		Long: `Requests a run level. With --wait the command returns once the level is
reached and fails if a component could not be started.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			return withExecutor(cmd, func(ctx context.Context, e *cli.Executor, timeout time.Duration) error {
				return e.Proceed(ctx, level, runlevelWait, timeout)
			})
		},
	}
	proceedCmd.Flags().BoolVar(&runlevelWait, "wait", false, "Wait until the transition has finished")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Show the current and planned run level",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withExecutor(cmd, func(ctx context.Context, e *cli.Executor, _ time.Duration) error {
					return e.State(ctx)
				})
			},
		},
		proceedCmd,
		&cobra.Command{
			Use:   "recorders",
			Short: "Show the components started per level",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withExecutor(cmd, func(ctx context.Context, e *cli.Executor, _ time.Duration) error {
					return e.Recorders(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "wait [transition-id]",
			Short: "Wait for a transition, or until the server is idle",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id := ""
				if len(args) == 1 {
					id = args[0]
				}
				return withExecutor(cmd, func(ctx context.Context, e *cli.Executor, timeout time.Duration) error {
					return e.Wait(ctx, id, timeout)
				})
			},
		},
		&cobra.Command{
			Use:   "console",
			Short: "Interactive prompt for the run-level commands",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withExecutor(cmd, func(ctx context.Context, e *cli.Executor, timeout time.Duration) error {
					return cli.NewConsole(e, cmd.OutOrStdout(), timeout).Run(ctx)
				})
			},
		},
	)
	return cmd
}

// withExecutor resolves the endpoint and wait timeout from flags and
// configuration, connects, and runs fn.
func withExecutor(cmd *cobra.Command, fn func(ctx context.Context, e *cli.Executor, timeout time.Duration) error) error {
	format, err := cli.ParseOutputFormat(runlevelOutputFormat)
	if err != nil {
		return err
	}

	level := logging.LevelWarn
	if debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	rc, err := app.LoadRunlevelConfig(app.NewConfig(app.ModeCLI, configPath, debug))
	if err != nil {
		return err
	}
	endpoint := runlevelEndpoint
	if endpoint == "" {
		endpoint = cli.Endpoint(rc.MCP.Host, rc.MCP.Port)
	}
	timeout := runlevelTimeout
	if timeout == 0 {
		timeout = rc.Settings.WaitTimeout
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Tool calls that wait need a little longer than the wait itself.
	client := cli.NewClient(endpoint).WithTimeout(timeout + cli.DefaultTimeout)
	if err := client.Connect(ctx); err != nil {
		return err
	}
	defer client.Close()

	return fn(ctx, cli.NewExecutor(client, format, cmd.OutOrStdout()), timeout)
}
