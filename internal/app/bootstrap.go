package app

import (
	"context"
	"fmt"
	"os"

	"runlevelctl/internal/config"
	"runlevelctl/pkg/logging"
)

// Application is the main application structure that bootstraps and runs runlevelctl
type Application struct {
	config   *Config
	services *Services
}

// NewApplication loads the configuration, applies command line overrides and
// initializes the services.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	logging.InitForCLI(logLevel(cfg, ""), cfg.Output)

	rc, err := LoadRunlevelConfig(cfg)
	if err != nil {
		return nil, err
	}
	cfg.RunlevelConfig = &rc

	// Re-init now that settings.logLevel is known.
	logging.InitForCLI(logLevel(cfg, rc.Settings.LogLevel), cfg.Output)

	services, err := InitializeServices(cfg)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to initialize services")
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	return &Application{
		config:   cfg,
		services: services,
	}, nil
}

// LoadRunlevelConfig loads the layered configuration, or cfg.ConfigPath when set,
// and applies the overrides carried by cfg.
func LoadRunlevelConfig(cfg *Config) (config.RunlevelConfig, error) {
	var rc config.RunlevelConfig
	var err error

	if cfg.ConfigPath != "" {
		rc, err = config.LoadConfigFromPath(cfg.ConfigPath)
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration from path: %s", cfg.ConfigPath)
			return config.RunlevelConfig{}, fmt.Errorf("failed to load configuration from path %s: %w", cfg.ConfigPath, err)
		}
		logging.Info("Bootstrap", "Loaded configuration from custom path: %s", cfg.ConfigPath)
	} else {
		rc, err = config.LoadConfig()
		if err != nil {
			logging.Error("Bootstrap", err, "Failed to load configuration")
			return config.RunlevelConfig{}, fmt.Errorf("failed to load configuration: %w", err)
		}
		logging.Debug("Bootstrap", "Loaded configuration using layered approach")
	}

	if cfg.Environment != "" {
		rc.Settings.Environment = cfg.Environment
	}
	if cfg.Target != nil {
		rc.Settings.DefaultTarget = cfg.Target
	}
	return rc, nil
}

func logLevel(cfg *Config, configured string) logging.LogLevel {
	if cfg.Debug {
		return logging.LevelDebug
	}
	return logging.ParseLevel(configured)
}

// Services exposes the initialized services.
func (a *Application) Services() *Services {
	return a.services
}

// Run executes the application in the configured mode
func (a *Application) Run(ctx context.Context) error {
	switch a.config.Mode {
	case ModeTUI:
		return runTUIMode(ctx, a.config, a.services)
	case ModeServe:
		return runServeMode(ctx, a.config, a.services)
	default:
		return runCLIMode(ctx, a.config, a.services)
	}
}
