package console

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#1a1a1a", Dark: "#dddddd"}).
			Bold(true).
			Margin(1, 0, 1, 0)

	menuItemStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.AdaptiveColor{Light: "#262626", Dark: "#d9d9d9"})

	selectedMenuItemStyle = menuItemStyle.
				Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}).
				Background(lipgloss.AdaptiveColor{Light: "#005577", Dark: "#00aadd"}).
				Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#626262", Dark: "#a8a8a8"}).
			Margin(1, 0, 0, 0)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#005577", Dark: "#00aadd"})

	resultStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#859900", Dark: "#50fa7b"}).
			Padding(0, 1).
			Margin(1, 0, 0, 0)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#dc322f", Dark: "#ff5555"}).
			Bold(true).
			Margin(1, 0, 0, 0)
)
