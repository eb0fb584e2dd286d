package tui

import "github.com/charmbracelet/lipgloss"

// Colors adapt to light and dark terminals.
var (
	purple = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	cyan   = lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"}
	rose   = lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9399B2"}
	border = lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#45475A"}
)

const sidebarWidth = 28

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(purple).
			Padding(0, 1)

	sidebarStyle = lipgloss.NewStyle().
			Width(sidebarWidth).
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(border).
			Padding(0, 1)

	activeChatStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyan)

	chatStyle = lipgloss.NewStyle().
			Foreground(muted)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(cyan)

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(purple)

	typingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(muted)

	errorStyle = lipgloss.NewStyle().
			Foreground(rose)

	statusStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1)

	inputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1)
)
