package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/layout"
)

// Adaptive color pairs (dark terminal value, light terminal value).
var (
	ColorBlue    = lipgloss.AdaptiveColor{Dark: "#5B9BD5", Light: "#2B6CB0"}
	ColorGreen   = lipgloss.AdaptiveColor{Dark: "#6BCB77", Light: "#2F855A"}
	ColorYellow  = lipgloss.AdaptiveColor{Dark: "#FFD93D", Light: "#B7791F"}
	ColorRed     = lipgloss.AdaptiveColor{Dark: "#FF6B6B", Light: "#C53030"}
	ColorOrange  = lipgloss.AdaptiveColor{Dark: "#FFA94D", Light: "#C05621"}
	ColorMagenta = lipgloss.AdaptiveColor{Dark: "#CC5DE8", Light: "#805AD5"}
	ColorGray    = lipgloss.AdaptiveColor{Dark: "#868E96", Light: "#718096"}
	ColorWhite   = lipgloss.AdaptiveColor{Dark: "#F8F9FA", Light: "#1A202C"}
	ColorSubtle  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#CBD5E0"}
	ColorBorder  = lipgloss.AdaptiveColor{Dark: "#495057", Light: "#E2E8F0"}
)

// HeaderStyle is used for the application title bar.
var HeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorWhite).
	Background(ColorBlue).
	Padding(0, 1)

// StatusBarStyle is used for the bottom status bar.
var StatusBarStyle = lipgloss.NewStyle().
	Foreground(ColorWhite).
	Background(ColorSubtle).
	Padding(0, 1)

// ErrorBannerStyle renders the dismissable error banner above the board.
var ErrorBannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.AdaptiveColor{Dark: "#1A202C", Light: "#F8F9FA"}).
	Background(ColorRed).
	Padding(0, 1)

// DetailPanelStyle wraps overlay panels.
var DetailPanelStyle = lipgloss.NewStyle().
	Padding(1, 2).
	Border(lipgloss.RoundedBorder()).
	BorderForeground(ColorBorder)

// ListItemStyle is the base style for a story line.
var ListItemStyle = lipgloss.NewStyle().
	PaddingLeft(1)

// SelectedItemStyle highlights the focused story.
var SelectedItemStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(ColorBlue).
	Border(lipgloss.NormalBorder(), false, false, false, true).
	BorderForeground(ColorBlue)

// HelpStyle is used for keyboard shortcut hints and help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(ColorGray).
	Italic(true)

// DimmedStyle renders completed stories and placeholders.
var DimmedStyle = lipgloss.NewStyle().
	Foreground(ColorGray)

// CompletedStyle renders the title of a completed story.
var CompletedStyle = DimmedStyle.
	Strikethrough(true)

// NumberStyle renders story numbers.
var NumberStyle = lipgloss.NewStyle().
	Foreground(ColorMagenta)

// TagStyle renders a single story tag.
var TagStyle = lipgloss.NewStyle().
	Foreground(ColorYellow)

// SprintBoxStyle returns the bordered box for a sprint in the given role.
// Focused boxes get a thick border.
func SprintBoxStyle(role layout.Role, focused bool) lipgloss.Style {
	border := lipgloss.RoundedBorder()
	if focused {
		border = lipgloss.ThickBorder()
	}
	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(RoleColor(role)).
		Padding(0, 1)
}

// SprintTitleStyle renders a sprint header line.
func SprintTitleStyle(role layout.Role) lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(RoleColor(role))
}

// RoleColor is the accent color of a board role.
func RoleColor(role layout.Role) lipgloss.AdaptiveColor {
	switch role {
	case layout.RolePriority:
		return ColorRed
	case layout.RoleBacklog:
		return ColorGray
	default:
		return ColorBlue
	}
}

// SourceLabelStyle returns a color-coded style for an intake source type.
func SourceLabelStyle(sourceType string) lipgloss.Style {
	base := lipgloss.NewStyle().Bold(true).Padding(0, 1)

	switch sourceType {
	case "jira":
		return base.Foreground(ColorBlue)
	case "email":
		return base.Foreground(ColorGreen)
	default:
		return base.Foreground(ColorGray)
	}
}
