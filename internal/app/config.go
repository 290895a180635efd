package app

import (
	"io"
	"os"

	"runlevelctl/internal/config"
)

// Mode selects how the application runs.
type Mode int

const (
	// ModeCLI drives the environment to the target level and logs to the console.
	ModeCLI Mode = iota
	// ModeTUI shows the interactive dashboard.
	ModeTUI
	// ModeServe exposes the orchestrator over MCP.
	ModeServe
)

func (m Mode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeServe:
		return "serve"
	default:
		return "cli"
	}
}

// Config holds the application configuration
type Config struct {
	Mode Mode

	// ConfigPath replaces the layered configuration with a single file.
	ConfigPath string

	// Debug forces debug logging regardless of settings.logLevel.
	Debug bool

	// Target overrides settings.defaultTarget.
	Target *int

	// Environment overrides settings.environment.
	Environment string

	// Detach leaves components running when the process exits. Without it
	// the environment is shut down to below level 0 on exit.
	Detach bool

	// WithTUI runs the dashboard alongside the MCP server in serve mode.
	WithTUI bool

	// Output receives CLI log output. Defaults to os.Stdout.
	Output io.Writer

	// RunlevelConfig is filled by NewApplication.
	RunlevelConfig *config.RunlevelConfig
}

// NewConfig creates a new application configuration
func NewConfig(mode Mode, configPath string, debug bool) *Config {
	return &Config{
		Mode:       mode,
		ConfigPath: configPath,
		Debug:      debug,
		Output:     os.Stdout,
	}
}
