package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/theme"
)

// Layout splits the terminal into header, optional banner, content and
// status bar rows.
type Layout struct {
	Width  int
	Height int
}

const (
	headerRows = 1
	statusRows = 1
)

// NewLayout creates a Layout for a terminal of the given size.
func NewLayout(width, height int) Layout {
	return Layout{Width: width, Height: height}
}

// ContentWidth is the width of the content area.
func (l Layout) ContentWidth() int {
	return l.Width
}

// ContentHeight is the height left for content without a banner.
func (l Layout) ContentHeight() int {
	return max(l.Height-headerRows-statusRows, 0)
}

// RenderBanner renders the dismissable error banner, or "" when msg is
// empty.
func (l Layout) RenderBanner(msg string) string {
	if msg == "" {
		return ""
	}
	return theme.ErrorBannerStyle.
		Width(l.Width).
		MaxHeight(2).
		Render("✗ " + msg + "  (esc to dismiss)")
}

// RenderHeader renders the title on the left and status on the right.
func (l Layout) RenderHeader(title, status string) string {
	return l.bar(theme.HeaderStyle, title, status)
}

// RenderStatusBar renders the key hints row.
func (l Layout) RenderStatusBar(hints string) string {
	return l.bar(theme.StatusBarStyle, hints, "")
}

// bar renders a full-width row in style with left and right aligned text.
// The right side is dropped first when the row is too narrow.
func (l Layout) bar(style lipgloss.Style, left, right string) string {
	lhs := style.Render(left)
	rhs := ""
	if right != "" {
		rhs = style.Render(right)
	}
	if lipgloss.Width(lhs)+lipgloss.Width(rhs) > l.Width {
		rhs = ""
	}
	gap := max(l.Width-lipgloss.Width(lhs)-lipgloss.Width(rhs), 0)
	fill := style.Padding(0).Render(strings.Repeat(" ", gap))
	return lipgloss.JoinHorizontal(lipgloss.Top, lhs, fill, rhs)
}

// RenderWithFrame stacks header, banner (skipped when empty), content and
// status bar.
func (l Layout) RenderWithFrame(header, banner, content, statusBar string) string {
	rows := make([]string, 0, 4)
	rows = append(rows, header)
	if banner != "" {
		rows = append(rows, banner)
	}
	rows = append(rows, content, statusBar)
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
