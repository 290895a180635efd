package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(i int) *int { return &i }

func TestValidate(t *testing.T) {
	kinds := []string{"command", "namespace", "noop"}

	tests := []struct {
		name     string
		mutate   func(*RunlevelConfig)
		wantErrs []string
	}{
		{
			name:   "valid",
			mutate: func(*RunlevelConfig) {},
		},
		{
			name: "level -1 is activated at creation",
			mutate: func(c *RunlevelConfig) {
				c.Components = append(c.Components, ComponentDefinition{Name: "agent", Level: intPtr(-1)})
			},
		},
		{
			name: "duplicate name",
			mutate: func(c *RunlevelConfig) {
				c.Components = append(c.Components, ComponentDefinition{Name: "db"})
			},
			wantErrs: []string{"component db is defined twice"},
		},
		{
			name: "unknown kind and dependency",
			mutate: func(c *RunlevelConfig) {
				c.Components[1].Kind = "docker"
				c.Components[1].DependsOn = []string{"ghost"}
			},
			wantErrs: []string{`unknown kind "docker"`, "unknown component ghost"},
		},
		{
			name: "negative values",
			mutate: func(c *RunlevelConfig) {
				c.Components[0].Level = intPtr(-2)
				c.Settings.DefaultTarget = intPtr(-2)
				c.MCP.Port = 70000
			},
			wantErrs: []string{"level must not be below -1", "defaultTarget must not be negative", "mcp.port 70000"},
		},
		{
			name: "self dependency and missing name",
			mutate: func(c *RunlevelConfig) {
				c.Components[0].DependsOn = []string{"db"}
				c.Components = append(c.Components, ComponentDefinition{})
			},
			wantErrs: []string{"depends on itself", "without a name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			cfg.Components = []ComponentDefinition{
				{Name: "db", Level: intPtr(1), Kind: "command", Command: "make db"},
				{Name: "api", Level: intPtr(2), DependsOn: []string{"db"}},
			}
			tt.mutate(&cfg)

			err := Validate(cfg, kinds)
			if len(tt.wantErrs) == 0 {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrInvalidConfig)
			for _, want := range tt.wantErrs {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestValidate_NilKindsSkipsKindCheck(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Components = []ComponentDefinition{{Name: "x", Kind: "anything"}}
	assert.NoError(t, Validate(cfg, nil))
}
