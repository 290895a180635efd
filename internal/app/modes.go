package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"runlevelctl/internal/mcpserver"
	"runlevelctl/internal/orchestrator"
	"runlevelctl/internal/tui"
	"runlevelctl/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// shutdownTimeout bounds the final descent below level 0 on exit.
var shutdownTimeout = 2 * time.Minute

// runCLIMode executes the non-interactive command line mode
func runCLIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Info("CLI", "Running in no-TUI mode.")

	target := targetLevel(config)
	if err := proceedAndWait(ctx, config, services.Orchestrator, target); err != nil {
		shutdown(config, services)
		return err
	}
	if config.Detach {
		logging.Info("CLI", "Environment %s is at level %d; leaving components running.",
			services.Orchestrator.Environment(), services.Orchestrator.CurrentRunLevel())
		return services.Orchestrator.Close()
	}

	var mcp *mcpserver.Server
	if config.RunlevelConfig.MCP.IsEnabled() {
		mcp = newMCPServer(config, services)
		if err := mcp.Start(ctx); err != nil {
			shutdown(config, services)
			return err
		}
	}

	logging.Info("CLI", "Environment %s is at level %d. Press Ctrl+C to shut down and exit.",
		services.Orchestrator.Environment(), services.Orchestrator.CurrentRunLevel())
	<-ctx.Done()

	logging.Info("CLI", "--- Shutting down components ---")
	if mcp != nil {
		stopMCPServer(mcp)
	}
	return shutdown(config, services)
}

// runTUIMode executes the interactive terminal UI mode
func runTUIMode(ctx context.Context, config *Config, services *Services) error {
	logging.Info("CLI", "Starting TUI mode...")

	if config.Target != nil {
		go func() {
			if _, err := services.Orchestrator.ProceedTo(ctx, *config.Target); err != nil {
				logging.Error("TUI-Lifecycle", err, "Failed to proceed to level %d", *config.Target)
			}
		}()
	}

	if err := runDashboard(ctx, config, services); err != nil {
		shutdown(config, services)
		return err
	}
	return shutdown(config, services)
}

// runDashboard runs the TUI until the user quits or ctx is cancelled.
func runDashboard(ctx context.Context, config *Config, services *Services) error {
	// Switch logging to channel-based system for TUI integration
	level := logLevel(config, config.RunlevelConfig.Settings.LogLevel)
	logChan := logging.InitForTUI(level)

	p := tui.NewProgram(tui.Config{
		Controller: services.Orchestrator,
		MaxLevel:   services.MaxLevel,
		Updates:    services.TUIUpdates,
		LogChannel: logChan,
	}, tea.WithContext(ctx))

	// Run the TUI until user exits
	_, runErr := p.Run()

	// The screen is gone; shutdown progress goes to the console again.
	logging.CloseTUIChannel()
	logging.InitForCLI(level, config.Output)

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		logging.Error("TUI-Lifecycle", runErr, "Error running TUI program")
		return runErr
	}
	logging.Info("TUI-Lifecycle", "TUI exited.")
	return nil
}

// runServeMode exposes the orchestrator over MCP until ctx is cancelled.
func runServeMode(ctx context.Context, config *Config, services *Services) error {
	mcp := newMCPServer(config, services)
	if err := mcp.Start(ctx); err != nil {
		return err
	}
	logging.Info("CLI", "Serving environment %s on %s", services.Orchestrator.Environment(), mcp.Addr())

	if config.WithTUI {
		if config.Target != nil {
			go func() {
				if _, err := services.Orchestrator.ProceedTo(ctx, *config.Target); err != nil {
					logging.Error("TUI-Lifecycle", err, "Failed to proceed to level %d", *config.Target)
				}
			}()
		}
		err := runDashboard(ctx, config, services)
		stopMCPServer(mcp)
		if shutdownErr := shutdown(config, services); err == nil {
			err = shutdownErr
		}
		return err
	}

	if config.Target != nil {
		if err := proceedAndWait(ctx, config, services.Orchestrator, *config.Target); err != nil {
			logging.Warn("CLI", "Initial transition to level %d did not complete: %v", *config.Target, err)
		}
	}

	<-ctx.Done()
	stopMCPServer(mcp)
	return shutdown(config, services)
}

// targetLevel is the level `up` drives to: the override, settings.defaultTarget
// or the highest configured level.
func targetLevel(config *Config) int {
	if config.Target != nil {
		return *config.Target
	}
	if t := config.RunlevelConfig.Settings.DefaultTarget; t != nil {
		return *t
	}
	highest := 0
	for _, c := range config.RunlevelConfig.Components {
		if c.Level != nil {
			highest = max(highest, *c.Level)
		}
	}
	return highest
}

// proceedAndWait requests target and waits for the transition within settings.waitTimeout.
func proceedAndWait(ctx context.Context, config *Config, o *orchestrator.Orchestrator, target int) error {
	t, err := o.ProceedTo(ctx, target)
	if err != nil {
		return fmt.Errorf("failed to proceed to level %d: %w", target, err)
	}

	waitCtx := ctx
	if timeout := config.RunlevelConfig.Settings.WaitTimeout; timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := t.Wait(waitCtx); err != nil {
		if t.Outcome() == orchestrator.OutcomePending {
			return fmt.Errorf("transition to level %d still running: %w", target, err)
		}
		return fmt.Errorf("level %d not reached: %w", target, err)
	}
	if t.Outcome() == orchestrator.OutcomeCancelled {
		return fmt.Errorf("transition to level %d was cancelled at level %d", target, o.CurrentRunLevel())
	}
	return nil
}

// shutdown releases every component unless the caller asked to detach.
func shutdown(config *Config, services *Services) error {
	defer services.Broadcaster.Close()
	if config.Detach {
		return services.Orchestrator.Close()
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := services.Orchestrator.Shutdown(ctx); err != nil {
		logging.Error("CLI", err, "Shutdown did not complete")
		return err
	}
	logging.Info("CLI", "All components released.")
	return nil
}

func newMCPServer(config *Config, services *Services) *mcpserver.Server {
	rc := config.RunlevelConfig
	return mcpserver.NewServer(mcpserver.Config{
		Host:        rc.MCP.Host,
		Port:        rc.MCP.Port,
		WaitTimeout: rc.Settings.WaitTimeout,
		MaxLevel:    services.MaxLevel,
	}, services.Orchestrator)
}

func stopMCPServer(mcp *mcpserver.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := mcp.Stop(ctx); err != nil {
		logging.Warn("CLI", "Failed to stop MCP server: %v", err)
	}
}
