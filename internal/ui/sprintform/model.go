package sprintform

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/theme"
)

// SubmitMsg is dispatched when the form is completed. SprintID is empty
// for a new sprint.
type SubmitMsg struct {
	SprintID string
	Input    model.SprintInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

type formBindings struct {
	title       string
	description string
	icon        string
}

// Model is the sprint create/edit form.
type Model struct {
	form     *huh.Form
	fb       *formBindings
	sprintID string
	width    int
	height   int
}

// New creates a sprint form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// StartCreate opens an empty form.
func (m *Model) StartCreate() tea.Cmd {
	m.sprintID = ""
	*m.fb = formBindings{}
	m.form = m.build()
	return m.form.Init()
}

// StartEdit opens the form on an existing sprint.
func (m *Model) StartEdit(s model.Sprint) tea.Cmd {
	m.sprintID = s.ID
	*m.fb = formBindings{title: s.Title, description: s.Description, icon: s.Icon}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.form = nil
		out := SubmitMsg{
			SprintID: m.sprintID,
			Input: model.SprintInput{
				Title:       strings.TrimSpace(m.fb.title),
				Description: strings.TrimSpace(m.fb.description),
				Icon:        strings.TrimSpace(m.fb.icon),
			},
		}
		return m, func() tea.Msg { return out }
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleText := "New Sprint"
	if m.sprintID != "" {
		titleText = "Edit Sprint"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(titleStyle.Render(titleText) + "\n" + m.form.View())
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Placeholder("Sprint name").
				CharLimit(100).
				Value(&m.fb.title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Description").
				Placeholder("Optional goal for the sprint").
				CharLimit(2000).
				Value(&m.fb.description),
			huh.NewInput().
				Title("Icon").
				Placeholder("emoji or short symbol (optional)").
				CharLimit(16).
				Value(&m.fb.icon),
		),
	).WithWidth(min(max(m.width-4, 40), 100)).WithHeight(max(m.height-4, 10))
}
