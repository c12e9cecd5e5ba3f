package detail

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/keys"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/theme"
)

// BackMsg signals the parent to navigate back to the board.
type BackMsg struct{}

// ActionMsg asks the parent to act on the displayed story. Action is one of
// "edit", "toggle" or "archive".
type ActionMsg struct {
	Action  string
	StoryID string
}

// Model is the story detail view.
type Model struct {
	story    *model.Story
	sprint   string
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the detail view.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }
		case key.Matches(msg, m.keys.Edit):
			return m, m.action("edit")
		case key.Matches(msg, m.keys.Toggle):
			return m, m.action("toggle")
		case key.Matches(msg, m.keys.Archive):
			return m, m.action("archive")
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) action(name string) tea.Cmd {
	if m.story == nil {
		return nil
	}
	msg := ActionMsg{Action: name, StoryID: m.story.ID}
	return func() tea.Msg { return msg }
}

// View renders the detail view.
func (m Model) View() string {
	if m.story == nil {
		return lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray).
			Render("No story selected")
	}

	return m.viewport.View()
}

// StoryID returns the ID of the displayed story, or "".
func (m Model) StoryID() string {
	if m.story == nil {
		return ""
	}
	return m.story.ID
}

// SetStory displays st, which belongs to the sprint titled sprintTitle.
// A nil story clears the view.
func (m *Model) SetStory(st *model.Story, sprintTitle string) {
	keepOffset := m.story != nil && st != nil && m.story.ID == st.ID
	m.story = st
	m.sprint = sprintTitle
	m.viewport.SetContent(m.renderContent())
	if !keepOffset {
		m.viewport.GotoTop()
	}
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}

// renderContent builds the full detail content string for the viewport.
func (m Model) renderContent() string {
	if m.story == nil {
		return ""
	}
	st := m.story
	var sections []string

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	sections = append(sections,
		theme.NumberStyle.Render(st.Number)+"  "+titleStyle.Render(st.Title))

	status := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorBlue).Render("open")
	if st.Completed {
		status = lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGreen).Render("done")
	}
	badges := []string{status}
	if src, _, ok := strings.Cut(st.ExternalRef, ":"); ok {
		badges = append(badges, theme.SourceLabelStyle(src).Render(strings.ToUpper(src)))
	}
	sections = append(sections, strings.Join(badges, "  "), "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray).Width(11)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)
	row := func(label, value string) {
		sections = append(sections, metaStyle.Render(label+":")+valStyle.Render(value))
	}

	row("Sprint", m.sprint)
	if len(st.Tags) > 0 {
		row("Tags", theme.TagStyle.Render("#"+strings.Join(st.Tags, " #")))
	}
	if st.Date != nil {
		row("Date", st.Date.Format("2006-01-02"))
	}
	if !st.CreatedAt.IsZero() {
		row("Created", st.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	if !st.UpdatedAt.IsZero() {
		row("Updated", st.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	if st.CompletedAt != nil {
		row("Completed", st.CompletedAt.Local().Format("2006-01-02 15:04"))
	}
	if st.ExternalRef != "" {
		row("Source", st.ExternalRef)
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 1)))
	sections = append(sections, "", separator, "")

	descHeaderStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	sections = append(sections, descHeaderStyle.Render("Description"))

	body := st.Description
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No description")
	} else {
		body = lipgloss.NewStyle().Width(max(m.width-2, 20)).Render(body)
	}
	sections = append(sections, body)

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}
