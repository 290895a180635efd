package config

import "time"

const (
	DefaultEnvironment = "default"
	DefaultWaitTimeout = 5 * time.Minute
	DefaultMCPHost     = "localhost"
	DefaultMCPPort     = 8090
)

// GetDefaultConfig returns the built-in configuration: no components, sync
// transitions in the default environment and the MCP server disabled.
func GetDefaultConfig() RunlevelConfig {
	return RunlevelConfig{
		Settings: Settings{
			Environment: DefaultEnvironment,
			Async:       boolPtr(false),
			WaitTimeout: DefaultWaitTimeout,
			LogLevel:    "info",
		},
		Components: []ComponentDefinition{},
		MCP: MCPConfig{
			Enabled: boolPtr(false),
			Host:    DefaultMCPHost,
			Port:    DefaultMCPPort,
		},
	}
}

func boolPtr(b bool) *bool { return &b }
