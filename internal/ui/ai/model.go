package ai

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	aiservice "github.com/nhle/sprint-board/internal/ai"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/theme"
)

// Drafter produces a story draft from a free-text prompt.
type Drafter interface {
	Draft(ctx context.Context, prompt string) (*aiservice.GeneratedStory, error)
}

// CloseMsg signals the parent to close the AI panel.
type CloseMsg struct{}

// AcceptMsg carries a draft the user chose to keep.
type AcceptMsg struct {
	Input model.StoryInput
}

// DraftMsg carries the outcome of a generation request.
type DraftMsg struct {
	Story *aiservice.GeneratedStory
	Err   error
}

type state int

const (
	stateCompose state = iota
	stateGenerating
	statePreview
)

// Model is the story generation panel: a prompt box, a spinner while the
// provider works, then a preview of the draft.
type Model struct {
	ctx      context.Context
	drafter  Drafter
	input    textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	state    state
	draft    *aiservice.GeneratedStory
	errMsg   string
	target   string
	width    int
	height   int
}

// New creates the AI panel. drafter may be nil when generation is not
// configured; the panel then explains how to set it up.
func New(ctx context.Context, drafter Drafter, width, height int) Model {
	ta := textarea.New()
	ta.Placeholder = "Describe the story you need..."
	ta.Prompt = "> "
	ta.ShowLineNumbers = false
	ta.SetWidth(width - 6)
	ta.SetHeight(3)
	ta.CharLimit = 2000
	ta.Focus()

	vp := viewport.New(width-6, max(height-10, 4))
	vp.Style = lipgloss.NewStyle()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.ColorMagenta)

	return Model{
		ctx:      ctx,
		drafter:  drafter,
		input:    ta,
		viewport: vp,
		spinner:  sp,
		width:    width,
		height:   height,
	}
}

// Init returns the initial command for the AI panel.
func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

// Open resets the panel for a new draft destined for sprintTitle.
func (m *Model) Open(sprintTitle string) tea.Cmd {
	m.state = stateCompose
	m.draft = nil
	m.errMsg = ""
	m.target = sprintTitle
	m.input.Reset()
	return m.input.Focus()
}

// Busy reports whether a request is in flight.
func (m Model) Busy() bool {
	return m.state == stateGenerating
}

// Update handles messages for the AI panel.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case DraftMsg:
		if m.state != stateGenerating {
			return m, nil
		}
		if msg.Err != nil {
			m.state = stateCompose
			m.errMsg = aiservice.UserMessage(msg.Err)
			return m, m.input.Focus()
		}
		m.state = statePreview
		m.draft = msg.Story
		m.viewport.SetContent(m.renderDraft())
		m.viewport.GotoTop()
		return m, nil

	case spinner.TickMsg:
		if m.state != stateGenerating {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	if m.state == stateCompose {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch m.state {
	case stateGenerating:
		return m, nil

	case statePreview:
		switch msg.String() {
		case "enter", "y":
			in := m.draft.Input()
			return m, func() tea.Msg { return AcceptMsg{Input: in} }
		case "r":
			return m, m.generate()
		case "esc", "n":
			m.state = stateCompose
			return m, m.input.Focus()
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "esc":
		return m, func() tea.Msg { return CloseMsg{} }
	case "enter":
		if m.drafter == nil || strings.TrimSpace(m.input.Value()) == "" {
			return m, nil
		}
		return m, m.generate()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) generate() tea.Cmd {
	m.state = stateGenerating
	m.errMsg = ""
	m.input.Blur()

	ctx, d, prompt := m.ctx, m.drafter, strings.TrimSpace(m.input.Value())
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		story, err := d.Draft(ctx, prompt)
		return DraftMsg{Story: story, Err: err}
	})
}

func (m Model) renderDraft() string {
	if m.draft == nil {
		return ""
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite)
	parts := []string{titleStyle.Render(m.draft.Title), ""}
	if len(m.draft.Tags) > 0 {
		parts = append(parts, theme.TagStyle.Render("#"+strings.Join(m.draft.Tags, " #")), "")
	}
	parts = append(parts, lipgloss.NewStyle().Width(max(m.width-8, 20)).Render(m.draft.Description))
	return strings.Join(parts, "\n")
}

// View renders the AI panel.
func (m Model) View() string {
	if m.drafter == nil {
		return m.renderUnconfigured()
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	title := "Generate Story"
	if m.target != "" {
		title += " → " + m.target
	}

	hint := theme.HelpStyle
	var body []string
	switch m.state {
	case stateGenerating:
		body = append(body, m.spinner.View()+" drafting...")
	case statePreview:
		body = append(body,
			m.viewport.View(),
			"",
			hint.Render("enter accept | r regenerate | esc edit prompt"))
	default:
		if m.errMsg != "" {
			body = append(body, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.errMsg), "")
		}
		body = append(body,
			m.input.View(),
			"",
			hint.Render("enter generate | esc close"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{titleStyle.Render(title)}, body...)...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

func (m Model) renderUnconfigured() string {
	style := lipgloss.NewStyle().
		Width(m.width - 8).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	msg := "Story generation is not configured.\n\n" +
		"Press s on the board to choose a provider and store an API key,\n" +
		"or set ANTHROPIC_API_KEY / OPENAI_API_KEY.\n\n" +
		"Press Esc to go back."

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(style.Render(msg))
}

// SetSize updates the AI panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.SetWidth(width - 6)
	m.viewport.Width = width - 6
	m.viewport.Height = max(height-10, 4)
}
