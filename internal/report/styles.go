package report

import "github.com/charmbracelet/lipgloss"

// Colors
var (
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Amber
	mutedColor     = lipgloss.Color("#6B7280") // Gray
	textColor      = lipgloss.Color("#F9FAFB") // Light gray
)

var zoneColors = []lipgloss.Color{
	lipgloss.Color("#10B981"), // Zone 1 - Green (recovery)
	lipgloss.Color("#3B82F6"), // Zone 2 - Blue (endurance)
	lipgloss.Color("#F59E0B"), // Zone 3 - Amber (tempo)
	lipgloss.Color("#EF4444"), // Zone 4 - Red (threshold)
	lipgloss.Color("#9333EA"), // Zone 5 - Purple (high intensity)
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor).
			Background(primaryColor).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	labelStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Width(18)

	valueStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(textColor)

	hideStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(warningColor)

	showStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(secondaryColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

func renderMetric(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Left, labelStyle.Render(label), valueStyle.Render(value))
}
