package ui

import "github.com/charmbracelet/lipgloss"

// devlog's palette: terminal greens for activity, ember for streaks.
var (
	Leaf    = lipgloss.Color("#39D353")
	Moss    = lipgloss.Color("#26A641")
	Fern    = lipgloss.Color("#006D32")
	Pine    = lipgloss.Color("#0E4429")
	Slate   = lipgloss.Color("#161B22")
	Ember   = lipgloss.Color("#FF7B39")
	Crimson = lipgloss.Color("#F85149")
	Sky     = lipgloss.Color("#58A6FF")
	Dim     = lipgloss.Color("#6E7681")
	Bright  = lipgloss.Color("#F0F6FC")

	// Semantic styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Leaf)

	Subtitle = lipgloss.NewStyle().
			Foreground(Moss)

	Success = lipgloss.NewStyle().
		Foreground(Leaf)

	Error = lipgloss.NewStyle().
		Foreground(Crimson)

	Warning = lipgloss.NewStyle().
		Foreground(Ember)

	Info = lipgloss.NewStyle().
		Foreground(Sky)

	Muted = lipgloss.NewStyle().
		Foreground(Dim)

	Accent = lipgloss.NewStyle().
		Foreground(Ember).
		Bold(true)

	Banner = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Moss).
		Padding(0, 1)

	Tag = lipgloss.NewStyle().
		Foreground(Bright).
		Background(Fern).
		Padding(0, 1).
		Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(Moss).
			Bold(true)

	ValueStyle = lipgloss.NewStyle().
			Foreground(Bright)

	// HeatLevels colours heatmap cells by intensity 0 through 4.
	HeatLevels = [5]lipgloss.Style{
		lipgloss.NewStyle().Foreground(Slate),
		lipgloss.NewStyle().Foreground(Pine),
		lipgloss.NewStyle().Foreground(Fern),
		lipgloss.NewStyle().Foreground(Moss),
		lipgloss.NewStyle().Foreground(Leaf),
	}
)

// Icon constants for a consistent emoji language.
const (
	IconLog       = "📓 "
	IconPost      = "✍️ "
	IconFire      = "🔥"
	IconTrophy    = "🏆"
	IconFlag      = "🚩"
	IconCalendar  = "📅"
	IconChallenge = "🎯"
	IconWarn      = "⚠️ "
	IconError     = "✗ "
	IconOk        = "✓ "
	IconArrow     = "→"
	IconDot       = "·"
)
