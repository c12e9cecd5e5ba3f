package settings

import (
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/theme"
)

// Store persists AI settings.
type Store interface {
	LoadAI(fallback model.AISettings) (model.AISettings, error)
	SaveAI(s model.AISettings) error
}

// KeyStore persists provider API keys. An empty key removes it.
type KeyStore interface {
	SetAPIKey(provider, key string) error
}

// SavedMsg is dispatched after the settings were stored.
type SavedMsg struct {
	Settings model.AISettings
}

// CancelMsg is dispatched when the user leaves without saving.
type CancelMsg struct{}

type formBindings struct {
	provider     string
	model        string
	systemPrompt string
	apiKey       string
	clearKey     bool
}

// Model is the AI settings form.
type Model struct {
	store        Store
	keys         KeyStore
	defaults     model.AISettings
	defaultModel func(provider string) string
	form         *huh.Form
	fb           *formBindings
	errMsg       string
	width        int
	height       int
}

// New creates the settings form. defaultModel supplies the model used when
// the field is left blank.
func New(s Store, k KeyStore, defaults model.AISettings, defaultModel func(string) string, width, height int) Model {
	return Model{
		store:        s,
		keys:         k,
		defaults:     defaults,
		defaultModel: defaultModel,
		fb:           &formBindings{},
		width:        width,
		height:       height,
	}
}

// Open loads the stored settings into a fresh form. A corrupt stored value
// is reported and replaced by the defaults.
func (m *Model) Open() tea.Cmd {
	m.errMsg = ""
	cur, err := m.store.LoadAI(m.defaults)
	if err != nil {
		m.errMsg = "Stored settings were unreadable; showing defaults. " + err.Error()
	}
	*m.fb = formBindings{
		provider:     cur.Provider,
		model:        cur.Model,
		systemPrompt: cur.SystemPrompt,
	}
	m.form = m.build()
	return m.form.Init()
}

// Update handles messages for the settings form.
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
		return m.save()
	case huh.StateAborted:
		m.form = nil
		return m, func() tea.Msg { return CancelMsg{} }
	}
	return m, cmd
}

func (m Model) save() (Model, tea.Cmd) {
	s := model.AISettings{
		Provider:     m.fb.provider,
		Model:        strings.TrimSpace(m.fb.model),
		SystemPrompt: strings.TrimSpace(m.fb.systemPrompt),
	}
	if s.Model == "" && m.defaultModel != nil {
		s.Model = m.defaultModel(s.Provider)
	}

	if err := m.store.SaveAI(s); err != nil {
		return m.retry(err)
	}

	key := strings.TrimSpace(m.fb.apiKey)
	if key != "" || m.fb.clearKey {
		if err := m.keys.SetAPIKey(s.Provider, key); err != nil {
			return m.retry(fmt.Errorf("storing API key: %w", err))
		}
	}

	m.form = nil
	return m, func() tea.Msg { return SavedMsg{Settings: s} }
}

// retry keeps the user's input and reopens the form with the error shown.
func (m Model) retry(err error) (Model, tea.Cmd) {
	var ve *model.ValidationError
	if errors.As(err, &ve) {
		m.errMsg = ve.Error()
	} else {
		m.errMsg = err.Error()
	}
	m.fb.apiKey = ""
	m.form = m.build()
	return m, m.form.Init()
}

// View renders the settings form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	parts := []string{titleStyle.Render("AI Settings")}
	if m.errMsg != "" {
		parts = append(parts, lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Width(max(m.width-8, 20)).
			Render(m.errMsg), "")
	}
	parts = append(parts, m.form.View())

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(strings.Join(parts, "\n"))
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) build() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Provider").
				Options(
					huh.NewOption("Anthropic", "anthropic"),
					huh.NewOption("OpenAI", "openai"),
				).
				Value(&m.fb.provider),
			huh.NewInput().
				Title("Model").
				Placeholder("leave blank for the provider default").
				Value(&m.fb.model),
			huh.NewText().
				Title("System prompt").
				Placeholder("optional instructions added to every request").
				CharLimit(4000).
				Value(&m.fb.systemPrompt),
			huh.NewInput().
				Title("API key").
				Description("Stored in the system keyring. Leave blank to keep the current key.").
				EchoMode(huh.EchoModePassword).
				Value(&m.fb.apiKey),
			huh.NewConfirm().
				Title("Remove the stored key?").
				Affirmative("Remove").
				Negative("Keep").
				Value(&m.fb.clearKey),
		),
	).WithWidth(min(max(m.width-4, 40), 100)).WithHeight(max(m.height-6, 10))
}
