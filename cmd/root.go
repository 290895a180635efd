package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	// configPath replaces the layered configuration with a single file.
	configPath string
	// debug enables debug logging regardless of settings.logLevel.
	debug bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "runlevelctl",
	Short: "Bring an environment up and down one run level at a time",
	Long: `runlevelctl starts and stops the components of an environment in ordered
run levels. Components tagged with level N are started, together with their
dependencies, after every level below N is reached, and are stopped again in
reverse order when the environment goes below N.

Components are declared in ~/.config/runlevelctl/config.yaml,
./.runlevelctl/config.yaml and ./.runlevelctl/*.hcl.`,
	// SilenceUsage is set to true to prevent printing usage message on errors
	// handled by us (e.g. invalid configuration, failed levels)
	SilenceUsage: true,
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "runlevelctl version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		// Cobra prints the error, we just exit non-zero
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Use this configuration file instead of the layered configuration")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
	rootCmd.AddCommand(newUpCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newComponentsCmd())
	rootCmd.AddCommand(newRunlevelCmd())
}
