package ui

import "github.com/charmbracelet/lipgloss"

// Semantic color palette.
var (
	colorPrimary = lipgloss.Color("#00BFFF") // Cyan, headings and banner
	colorAccent  = lipgloss.Color("#FFD700") // Gold, hubs and warnings
	colorSuccess = lipgloss.Color("#00E676") // Green, completed stages
	colorDanger  = lipgloss.Color("#FF5252") // Red, errors
	colorMuted   = lipgloss.Color("#8C8C8C") // Gray, details
)

// Status icons.
const (
	iconDone    = "✓"
	iconFailed  = "✗"
	iconWorking = "▶"
	iconHub     = "◆"
)

var (
	styleBanner = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 2)

	styleHeading = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	styleDanger  = lipgloss.NewStyle().Foreground(colorDanger).Bold(true)
	styleAccent  = lipgloss.NewStyle().Foreground(colorAccent)
	styleMuted   = lipgloss.NewStyle().Foreground(colorMuted)
	styleLabel   = lipgloss.NewStyle().Bold(true).Width(24)
)
