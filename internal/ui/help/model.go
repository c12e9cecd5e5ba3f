// Package help shows the key bindings, the board legend and the palette
// commands in one scrollable panel.
package help

import (
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/keys"
	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/theme"
	"github.com/nhle/sprint-board/internal/ui/command"
)

// Model is the help panel.
type Model struct {
	keys     *keys.KeyMap
	help     help.Model
	viewport viewport.Model
	width    int
	height   int
}

// New creates the help panel.
func New(k *keys.KeyMap, width, height int) Model {
	m := Model{keys: k, help: help.New()}
	m.help.ShowAll = true
	m.SetSize(width, height)
	return m
}

// Init returns nil.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update scrolls the panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Down):
			m.viewport.ScrollDown(1)
			return m, nil
		case key.Matches(msg, m.keys.Up):
			m.viewport.ScrollUp(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the panel.
func (m Model) View() string {
	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(m.viewport.View())
}

// SetSize resizes the panel and re-lays out its content.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.help.Width = max(width-8, 20)
	m.viewport = viewport.New(max(width-8, 20), max(height-6, 3))
	m.viewport.SetContent(m.content())
}

func (m Model) content() string {
	heading := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)

	legend := []string{
		theme.SprintTitleStyle(layout.RolePriority).Render("■ Priority") +
			theme.DimmedStyle.Render("  always first, cannot be moved or removed"),
		theme.SprintTitleStyle(layout.RoleUser).Render("■ Sprints") +
			theme.DimmedStyle.Render("  two per row in board order, [ and ] reorder"),
		theme.SprintTitleStyle(layout.RoleBacklog).Render("■ Backlog") +
			theme.DimmedStyle.Render("  full width at the bottom, new stories land here"),
	}

	sections := []string{
		heading.Render("Keys"),
		m.help.View(m.keys),
		"",
		heading.Render("Board"),
		strings.Join(legend, "\n"),
		"",
		heading.Render("Commands (:)"),
		theme.HelpStyle.Width(max(m.width-8, 20)).Render(strings.Join(command.Commands, " · ")),
	}
	return strings.Join(sections, "\n")
}
