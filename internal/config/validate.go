package config

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Validate checks cross-field rules of a loaded configuration. knownKinds lists
// the component kinds the caller can build; nil skips the kind check. All
// problems are reported together.
func Validate(cfg RunlevelConfig, knownKinds []string) error {
	var errs []error

	if cfg.Settings.DefaultTarget != nil && *cfg.Settings.DefaultTarget < 0 {
		errs = append(errs, fmt.Errorf("settings.defaultTarget must not be negative, got %d", *cfg.Settings.DefaultTarget))
	}
	if cfg.Settings.WaitTimeout < 0 {
		errs = append(errs, fmt.Errorf("settings.waitTimeout must not be negative"))
	}
	if cfg.MCP.Port < 0 || cfg.MCP.Port > 65535 {
		errs = append(errs, fmt.Errorf("mcp.port %d is out of range", cfg.MCP.Port))
	}

	names := make(map[string]bool, len(cfg.Components))
	for _, c := range cfg.Components {
		if c.Name == "" {
			errs = append(errs, fmt.Errorf("component without a name"))
			continue
		}
		if names[c.Name] {
			errs = append(errs, fmt.Errorf("component %s is defined twice", c.Name))
		}
		names[c.Name] = true
	}

	for _, c := range cfg.Components {
		if c.Name == "" {
			continue
		}
		if c.Level != nil && *c.Level < -1 {
			errs = append(errs, fmt.Errorf("component %s: level must not be below -1, got %d", c.Name, *c.Level))
		}
		kind := c.Kind
		if kind == "" {
			kind = "noop"
		}
		if knownKinds != nil && !slices.Contains(knownKinds, kind) {
			errs = append(errs, fmt.Errorf("component %s: unknown kind %q", c.Name, c.Kind))
		}
		for _, dep := range c.DependsOn {
			if dep == c.Name {
				errs = append(errs, fmt.Errorf("component %s depends on itself", c.Name))
				continue
			}
			if !names[dep] {
				errs = append(errs, fmt.Errorf("component %s depends on unknown component %s", c.Name, dep))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
