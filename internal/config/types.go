package config

import (
	"time"
)

// RunlevelConfig is the top-level configuration structure for runlevelctl.
type RunlevelConfig struct {
	Settings   Settings              `yaml:"settings"`
	Components []ComponentDefinition `yaml:"components,omitempty"`
	MCP        MCPConfig             `yaml:"mcp"`
}

// Settings controls how the orchestrator runs.
type Settings struct {
	Environment   string        `yaml:"environment,omitempty"`   // Environment the orchestrator manages (default: "default")
	Async         *bool         `yaml:"async,omitempty"`         // Run transitions on a background worker
	DefaultTarget *int          `yaml:"defaultTarget,omitempty"` // Level used by `up` when none is given
	WaitTimeout   time.Duration `yaml:"waitTimeout,omitempty"`   // How long CLI commands wait for a transition
	LogLevel      string        `yaml:"logLevel,omitempty"`      // debug, info, warn or error
}

// IsAsync reports whether transitions run on a background worker.
func (s Settings) IsAsync() bool {
	return s.Async != nil && *s.Async
}

// ComponentDefinition declares one managed component. The same fields can be
// written as `component "name" { ... }` blocks in HCL manifests.
type ComponentDefinition struct {
	Name        string   `yaml:"name" hcl:"name,label"`
	Level       *int     `yaml:"level,omitempty" hcl:"level,optional"`              // Run level; unset for plain dependencies
	Environment string   `yaml:"environment,omitempty" hcl:"environment,optional"`  // Defaults to settings.environment
	DependsOn   []string `yaml:"dependsOn,omitempty" hcl:"depends_on,optional"`     // Names started before this one
	Kind        string   `yaml:"kind,omitempty" hcl:"kind,optional"`                // noop (default), command or namespace
	Command     string   `yaml:"command,omitempty" hcl:"command,optional"`          // kind=command: run on activation
	StopCommand string   `yaml:"stopCommand,omitempty" hcl:"stop_command,optional"` // kind=command: run on release
	Namespace   string   `yaml:"namespace,omitempty" hcl:"namespace,optional"`      // kind=namespace: namespace to ensure
	KubeContext string   `yaml:"kubeContext,omitempty" hcl:"kube_context,optional"` // kind=namespace: kubeconfig context
}

// MCPConfig defines the MCP server exposed by `runlevelctl serve`.
type MCPConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Host    string `yaml:"host,omitempty"` // Host to bind to (default: localhost)
	Port    int    `yaml:"port,omitempty"` // Port for the SSE endpoint (default: 8090)
}

// IsEnabled reports whether the MCP server should be started.
func (m MCPConfig) IsEnabled() bool {
	return m.Enabled != nil && *m.Enabled
}
