package tui

import (
	"time"

	"github.com/charmbracelet/lipgloss"
)

// maxLogLines bounds the activity log kept in memory.
const maxLogLines = 200

// statusMessageDuration is how long a status bar message stays up.
var statusMessageDuration = 3 * time.Second

const (
	IconCheck     = "✔"
	IconCross     = "❌"
	IconWarning   = "⚠"
	IconHourglass = "⏳"
)

var (
	appStyle = lipgloss.NewStyle().Margin(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#FFFFFF"}).
			Background(lipgloss.AdaptiveColor{Light: "#D0D0D0", Dark: "#303030"}).
			Padding(0, 2)

	panelTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#005FAF", Dark: "#5FAFFF"})

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#A0A0A0", Dark: "#505050"}).
			Padding(0, 1)

	levelReachedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#000000"}).
				Background(lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#66BB6A"}).
				Padding(0, 1)

	levelPlannedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#000000", Dark: "#000000"}).
				Background(lipgloss.AdaptiveColor{Light: "#FFB300", Dark: "#FFCA28"}).
				Padding(0, 1)

	levelIdleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#606060", Dark: "#909090"}).
			Padding(0, 1)

	logErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#EF5350"})
	logWarnStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#EF6C00", Dark: "#FFA726"})
	logInfoStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#303030", Dark: "#D0D0D0"})

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#303030", Dark: "#D0D0D0"}).
			Background(lipgloss.AdaptiveColor{Light: "#E0E0E0", Dark: "#262626"}).
			Padding(0, 1)

	statusErrorStyle = statusBarStyle.
				Foreground(lipgloss.AdaptiveColor{Light: "#FFFFFF", Dark: "#FFFFFF"}).
				Background(lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#B71C1C"})

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#707070", Dark: "#808080"})
)
