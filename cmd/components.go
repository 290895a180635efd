package cmd

import (
	"runlevelctl/internal/app"
	"runlevelctl/internal/cli"
	"runlevelctl/internal/config"
	"runlevelctl/pkg/logging"

	"github.com/spf13/cobra"
)

var componentsOutputFormat string

func newComponentsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "components",
		Short: "List the configured components",
		Long: `Lists the components from the merged configuration with their run level,
kind, environment and dependencies. The configuration is validated first.`,
		Args: cobra.NoArgs,
		RunE: runComponents,
	}
	cmd.Flags().StringVarP(&componentsOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	return cmd
}

func runComponents(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseOutputFormat(componentsOutputFormat)
	if err != nil {
		return err
	}

	level := logging.LevelWarn
	if debug {
		level = logging.LevelDebug
	}
	logging.InitForCLI(level, cmd.ErrOrStderr())

	cfg := app.NewConfig(app.ModeCLI, configPath, debug)
	rc, err := app.LoadRunlevelConfig(cfg)
	if err != nil {
		return err
	}

	kinds, err := app.NewKinds()
	if err != nil {
		return err
	}
	if err := config.Validate(rc, kinds.Names()); err != nil {
		return err
	}
	return cli.PrintComponents(cmd.OutOrStdout(), format, rc)
}
