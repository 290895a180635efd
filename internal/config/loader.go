package config

import (
	"fmt"
	"os"
	"path/filepath"

	"runlevelctl/pkg/logging"

	"gopkg.in/yaml.v3"
)

// For mocking in tests
var osUserHomeDir = os.UserHomeDir
var osGetwd = os.Getwd

const (
	userConfigDir    = ".config/runlevelctl"
	projectConfigDir = ".runlevelctl"
	configFileName   = "config.yaml"
)

// LoadConfig loads the runlevelctl configuration by layering default, user and
// project settings, then adds the components of the project's HCL manifests.
func LoadConfig() (RunlevelConfig, error) {
	// 1. Start with the default configuration
	config := GetDefaultConfig()

	// 2. User-specific configuration
	userConfigPath, err := getUserConfigPath()
	if err != nil {
		// User config is optional
		logging.Warn("Config", "Could not determine user config path: %v", err)
	} else {
		if _, err := os.Stat(userConfigPath); !os.IsNotExist(err) {
			userConfig, err := loadConfigFromFile(userConfigPath)
			if err != nil {
				return RunlevelConfig{}, fmt.Errorf("error loading user config from %s: %w", userConfigPath, err)
			}
			config = mergeConfigs(config, userConfig)
		}
	}

	// 3. Project-specific configuration and manifests
	projectConfigPath, err := getProjectConfigPath()
	if err != nil {
		logging.Warn("Config", "Could not determine project config path: %v", err)
		return config, nil
	}
	if _, err := os.Stat(projectConfigPath); !os.IsNotExist(err) {
		projectConfig, err := loadConfigFromFile(projectConfigPath)
		if err != nil {
			return RunlevelConfig{}, fmt.Errorf("error loading project config from %s: %w", projectConfigPath, err)
		}
		config = mergeConfigs(config, projectConfig)
	}

	manifests, err := LoadManifests(filepath.Dir(projectConfigPath))
	if err != nil {
		return RunlevelConfig{}, err
	}
	config.Components = mergeComponents(config.Components, manifests)

	return config, nil
}

// LoadConfigFromPath loads a single configuration file on top of the defaults,
// skipping the user and project layers.
func LoadConfigFromPath(path string) (RunlevelConfig, error) {
	fileConfig, err := loadConfigFromFile(path)
	if err != nil {
		return RunlevelConfig{}, fmt.Errorf("error loading config from %s: %w", path, err)
	}
	return mergeConfigs(GetDefaultConfig(), fileConfig), nil
}

var getUserConfigPath = func() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir, configFileName), nil
}

var getProjectConfigPath = func() (string, error) {
	wd, err := osGetwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(wd, projectConfigDir, configFileName), nil
}

// loadConfigFromFile loads a RunlevelConfig from a YAML file.
func loadConfigFromFile(filePath string) (RunlevelConfig, error) {
	var config RunlevelConfig
	data, err := os.ReadFile(filePath)
	if err != nil {
		return RunlevelConfig{}, err
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return RunlevelConfig{}, err
	}
	return config, nil
}

// mergeConfigs merges 'overlay' config into 'base' config. Set fields of the
// overlay win; components are merged by name.
func mergeConfigs(base, overlay RunlevelConfig) RunlevelConfig {
	merged := base

	if overlay.Settings.Environment != "" {
		merged.Settings.Environment = overlay.Settings.Environment
	}
	if overlay.Settings.Async != nil {
		merged.Settings.Async = overlay.Settings.Async
	}
	if overlay.Settings.DefaultTarget != nil {
		merged.Settings.DefaultTarget = overlay.Settings.DefaultTarget
	}
	if overlay.Settings.WaitTimeout != 0 {
		merged.Settings.WaitTimeout = overlay.Settings.WaitTimeout
	}
	if overlay.Settings.LogLevel != "" {
		merged.Settings.LogLevel = overlay.Settings.LogLevel
	}

	merged.Components = mergeComponents(base.Components, overlay.Components)

	if overlay.MCP.Enabled != nil {
		merged.MCP.Enabled = overlay.MCP.Enabled
	}
	if overlay.MCP.Host != "" {
		merged.MCP.Host = overlay.MCP.Host
	}
	if overlay.MCP.Port != 0 {
		merged.MCP.Port = overlay.MCP.Port
	}

	return merged
}

// mergeComponents replaces components of the same name in place and appends new ones.
func mergeComponents(base, overlay []ComponentDefinition) []ComponentDefinition {
	result := append([]ComponentDefinition{}, base...)
	index := make(map[string]int, len(result))
	for i, c := range result {
		index[c.Name] = i
	}
	for _, c := range overlay {
		if i, exists := index[c.Name]; exists {
			result[i] = c
			continue
		}
		index[c.Name] = len(result)
		result = append(result, c)
	}
	return result
}

// GetUserConfigDir returns the user configuration directory path
func GetUserConfigDir() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, userConfigDir), nil
}
