package app

import (
	"fmt"

	"runlevelctl/internal/config"
	"runlevelctl/internal/orchestrator"
	"runlevelctl/internal/reporting"
	"runlevelctl/internal/services"
	"runlevelctl/internal/services/command"
	"runlevelctl/internal/services/k8s"
	"runlevelctl/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// tuiUpdateBuffer is the capacity of the channel feeding events to the TUI.
const tuiUpdateBuffer = 256

// Services holds all the initialized services
type Services struct {
	Kinds        *services.Kinds
	Registry     *services.InMemoryRegistry
	Orchestrator *orchestrator.Orchestrator
	Broadcaster  *reporting.Broadcaster

	// TUIUpdates is only set when a dashboard will run.
	TUIUpdates chan tea.Msg

	// MaxLevel is the highest level any component is tagged for.
	MaxLevel int
}

// NewKinds returns the component kinds runlevelctl knows how to build.
func NewKinds() (*services.Kinds, error) {
	kinds := services.NewKinds()
	if err := kinds.Register(command.Kind, command.New); err != nil {
		return nil, err
	}
	if err := kinds.Register(k8s.Kind, k8s.New); err != nil {
		return nil, err
	}
	return kinds, nil
}

// InitializeServices validates cfg, registers its components and creates the
// orchestrator with the listeners the mode needs.
func InitializeServices(cfg *Config) (*Services, error) {
	rc := cfg.RunlevelConfig
	if rc == nil {
		return nil, fmt.Errorf("configuration not loaded")
	}

	kinds, err := NewKinds()
	if err != nil {
		return nil, fmt.Errorf("failed to register component kinds: %w", err)
	}
	if err := config.Validate(*rc, kinds.Names()); err != nil {
		return nil, err
	}

	registry, maxLevel, err := registerComponents(rc, kinds)
	if err != nil {
		return nil, err
	}

	svc := &Services{
		Kinds:       kinds,
		Registry:    registry,
		Broadcaster: reporting.NewBroadcaster(),
		MaxLevel:    maxLevel,
	}

	listeners := []orchestrator.Listener{svc.Broadcaster}
	if cfg.Mode == ModeTUI || cfg.WithTUI {
		svc.TUIUpdates = make(chan tea.Msg, tuiUpdateBuffer)
		listeners = append(listeners, reporting.NewTUIReporter(svc.TUIUpdates))
	} else {
		listeners = append(listeners, reporting.NewConsoleReporter())
	}

	svc.Orchestrator, err = orchestrator.New(orchestrator.Config{
		Registry:    registry,
		Environment: services.Environment(rc.Settings.Environment),
		Async:       rc.Settings.IsAsync(),
		Listeners:   listeners,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create orchestrator: %w", err)
	}

	logging.Info("Bootstrap", "Registered %d component(s) in environment %s, highest level %d",
		len(rc.Components), svc.Orchestrator.Environment(), maxLevel)
	return svc, nil
}

// registerComponents builds each definition's lifecycle and registers it.
func registerComponents(rc *config.RunlevelConfig, kinds *services.Kinds) (*services.InMemoryRegistry, int, error) {
	registry := services.NewRegistry()
	maxLevel := 0
	if rc.Settings.DefaultTarget != nil {
		maxLevel = *rc.Settings.DefaultTarget
	}

	for _, def := range rc.Components {
		lc, err := kinds.Build(def.Kind, services.KindSpec{
			Name:        def.Name,
			Command:     def.Command,
			StopCommand: def.StopCommand,
			Namespace:   def.Namespace,
			KubeContext: def.KubeContext,
		})
		if err != nil {
			return nil, 0, err
		}

		env := def.Environment
		if env == "" {
			env = rc.Settings.Environment
		}
		d := services.Definition{
			Name:        def.Name,
			Environment: services.Environment(env),
			DependsOn:   def.DependsOn,
			Lifecycle:   lc,
		}
		if def.Level != nil {
			d.Level = *def.Level
			d.Tagged = true
			maxLevel = max(maxLevel, *def.Level)
		}

		if _, err := registry.Register(d); err != nil {
			return nil, 0, fmt.Errorf("failed to register component %s: %w", def.Name, err)
		}
		logging.Debug("Bootstrap", "Registered component %s (kind=%s, level=%v, env=%s)", def.Name, kindName(def.Kind), levelString(def.Level), env)
	}
	return registry, maxLevel, nil
}

func kindName(kind string) string {
	if kind == "" {
		return services.KindNoop
	}
	return kind
}

func levelString(level *int) string {
	if level == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *level)
}
