package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/theme"
)

// CommandMsg carries a command line entered in the palette.
type CommandMsg string

// Commands lists what the palette understands.
var Commands = []string{
	"reload", "sync", "new story", "new sprint", "generate", "settings",
	"archive", "export json", "export csv", "export pdf", "show done",
	"hide done", "quit",
}

const historySize = 20

// Model is the command palette. Up and down recall earlier commands.
type Model struct {
	input   textinput.Model
	history []string
	recall  int
	width   int
	height  int
}

// New creates the palette.
func New(width, height int) Model {
	in := textinput.New()
	in.Prompt = ": "
	in.Placeholder = "command"
	in.ShowSuggestions = true
	in.SetSuggestions(Commands)
	in.Focus()

	m := Model{input: in}
	m.SetSize(width, height)
	return m
}

// Init starts the cursor blinking.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles palette input.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			line := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			m.recall = len(m.history)
			if line == "" {
				return m, nil
			}
			m.remember(line)
			return m, func() tea.Msg { return CommandMsg(line) }
		case tea.KeyUp:
			if m.recall > 0 {
				m.recall--
				m.input.SetValue(m.history[m.recall])
				m.input.CursorEnd()
			}
			return m, nil
		case tea.KeyDown:
			if m.recall < len(m.history)-1 {
				m.recall++
				m.input.SetValue(m.history[m.recall])
				m.input.CursorEnd()
			} else {
				m.recall = len(m.history)
				m.input.Reset()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) remember(line string) {
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		m.recall = n
		return
	}
	m.history = append(m.history, line)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	m.recall = len(m.history)
}

// matching returns the commands starting with the typed text.
func (m Model) matching() []string {
	typed := strings.ToLower(strings.TrimSpace(m.input.Value()))
	if typed == "" {
		return Commands
	}
	var out []string
	for _, c := range Commands {
		if strings.HasPrefix(c, typed) {
			out = append(out, c)
		}
	}
	return out
}

// View renders the palette.
func (m Model) View() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorWhite).Render("Command")

	hint := "no matching command"
	if matches := m.matching(); len(matches) > 0 {
		hint = strings.Join(matches, " · ")
	}

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			m.input.View(),
			"",
			theme.HelpStyle.Width(max(m.width-8, 20)).Render(hint),
		))
}

// SetSize resizes the palette.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-10, 10)
}

// Focus focuses the input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
