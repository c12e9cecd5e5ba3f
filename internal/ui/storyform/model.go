package storyform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/theme"
)

const dateLayout = "2006-01-02"

// SubmitMsg is dispatched when the form is completed. StoryID is empty for
// a new story.
type SubmitMsg struct {
	StoryID  string
	SprintID string
	Input    model.StoryInput
}

// CancelMsg is dispatched when the user aborts the form.
type CancelMsg struct{}

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	tags        string
	date        string
	sprintID    string
}

// Model is the story create/edit form.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	storyID string
	sprints []layout.OrderedSprint
	width   int
	height  int
}

// New creates a story form model.
func New(width, height int) Model {
	return Model{fb: &formBindings{}, width: width, height: height}
}

// StartCreate opens an empty form targeting sprintID. sprints feeds the
// sprint selector.
func (m *Model) StartCreate(sprints []layout.OrderedSprint, sprintID string) tea.Cmd {
	return m.StartDraft(sprints, sprintID, model.StoryInput{})
}

// StartDraft opens a create form prefilled with in, e.g. a generated draft.
func (m *Model) StartDraft(sprints []layout.OrderedSprint, sprintID string, in model.StoryInput) tea.Cmd {
	m.storyID = ""
	m.sprints = sprints
	m.fill(in)
	m.fb.sprintID = sprintID
	m.form = m.build(true)
	return m.form.Init()
}

// StartEdit opens the form on an existing story.
func (m *Model) StartEdit(st model.Story) tea.Cmd {
	m.storyID = st.ID
	m.fill(model.StoryInput{
		Title:       st.Title,
		Description: st.Description,
		Tags:        st.Tags,
		Date:        st.Date,
	})
	m.fb.sprintID = st.SprintID
	m.form = m.build(false)
	return m.form.Init()
}

func (m *Model) fill(in model.StoryInput) {
	m.fb.title = in.Title
	m.fb.description = in.Description
	m.fb.tags = strings.Join(in.Tags, ", ")
	m.fb.date = ""
	if in.Date != nil {
		m.fb.date = in.Date.Format(dateLayout)
	}
}

// Editing reports whether the form edits an existing story.
func (m Model) Editing() bool {
	return m.storyID != ""
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
		return m, m.submit()
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

	titleText := "New Story"
	if m.Editing() {
		titleText = "Edit Story"
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

func (m *Model) build(create bool) *huh.Form {
	fields := []huh.Field{
		huh.NewInput().
			Title("Title").
			Placeholder("What needs to be done?").
			CharLimit(200).
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Placeholder("Goal and acceptance criteria...").
			CharLimit(5000).
			Value(&m.fb.description),
		huh.NewInput().
			Title("Tags").
			Placeholder("comma separated, e.g. api, bug").
			Value(&m.fb.tags).
			Validate(validateTags),
		huh.NewInput().
			Title("Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.date).
			Validate(validateOptionalDate),
	}
	if create && len(m.sprints) > 0 {
		opts := make([]huh.Option[string], 0, len(m.sprints))
		for _, o := range m.sprints {
			opts = append(opts, huh.NewOption(strings.TrimSpace(o.Icon+" "+o.Title), o.ID))
		}
		fields = append(fields, huh.NewSelect[string]().
			Title("Sprint").
			Options(opts...).
			Value(&m.fb.sprintID))
	}

	return huh.NewForm(
		huh.NewGroup(fields...),
	).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) submit() tea.Cmd {
	msg := SubmitMsg{
		StoryID:  m.storyID,
		SprintID: m.fb.sprintID,
		Input: model.StoryInput{
			Title:       strings.TrimSpace(m.fb.title),
			Description: strings.TrimSpace(m.fb.description),
			Tags:        model.ParseTags(m.fb.tags),
		},
	}
	if d := strings.TrimSpace(m.fb.date); d != "" {
		if t, err := time.Parse(dateLayout, d); err == nil {
			msg.Input.Date = &t
		}
	}
	return func() tea.Msg { return msg }
}

func (m Model) formWidth() int {
	return min(max(m.width-4, 40), 100)
}

func (m Model) formHeight() int {
	return max(m.height-4, 10)
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateTags(s string) error {
	tags := model.ParseTags(s)
	if len(tags) > 20 {
		return fmt.Errorf("at most 20 tags")
	}
	for _, t := range tags {
		if len(t) > 32 {
			return fmt.Errorf("tag %q is longer than 32 characters", t)
		}
	}
	return nil
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(dateLayout, s); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}
