// Package archive lists soft-deleted sprints and stories so they can be
// restored or removed for good.
package archive

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/keys"
	"github.com/nhle/sprint-board/internal/theme"
)

// Kind tells sprints and stories apart in the archive list.
type Kind int

const (
	KindSprint Kind = iota
	KindStory
)

// LoadedMsg carries a fresh archive listing.
type LoadedMsg struct {
	Archive board.Archive
	Err     error
}

// RestoreMsg asks the parent to restore an item.
type RestoreMsg struct {
	Kind Kind
	ID   string
}

// DeleteMsg asks the parent to delete an item permanently.
type DeleteMsg struct {
	Kind Kind
	ID   string
}

// CloseMsg signals the parent to leave the archive.
type CloseMsg struct{}

type entry struct {
	kind  Kind
	id    string
	label string
	when  string
}

// Model is the archive browser.
type Model struct {
	keys    *keys.KeyMap
	entries []entry
	cursor  int
	confirm bool
	loading bool
	errMsg  string
	width   int
	height  int
}

// New creates the archive browser.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{keys: k, width: width, height: height, loading: true}
}

// SetLoading marks the listing as stale while a reload runs.
func (m *Model) SetLoading() {
	m.loading = true
	m.confirm = false
}

// Len returns the number of archived items listed.
func (m Model) Len() int {
	return len(m.entries)
}

// Update handles messages for the archive browser.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		m.loading = false
		m.errMsg = ""
		if msg.Err != nil {
			m.errMsg = msg.Err.Error()
			return m, nil
		}
		m.setArchive(msg.Archive)
		return m, nil

	case tea.KeyMsg:
		if m.confirm {
			m.confirm = false
			if msg.String() == "y" && m.cursor < len(m.entries) {
				e := m.entries[m.cursor]
				return m, func() tea.Msg { return DeleteMsg{Kind: e.kind, ID: e.id} }
			}
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.entries)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Restore), key.Matches(msg, m.keys.Select):
			if m.cursor < len(m.entries) {
				e := m.entries[m.cursor]
				return m, func() tea.Msg { return RestoreMsg{Kind: e.kind, ID: e.id} }
			}
		case key.Matches(msg, m.keys.Delete):
			if m.cursor < len(m.entries) {
				m.confirm = true
			}
		}
	}
	return m, nil
}

func (m *Model) setArchive(a board.Archive) {
	m.entries = make([]entry, 0, len(a.Sprints)+len(a.Stories))
	for _, s := range a.Sprints {
		m.entries = append(m.entries, entry{
			kind:  KindSprint,
			id:    s.ID,
			label: strings.TrimSpace(s.Icon + " " + s.Title),
			when:  s.ArchivedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	for _, st := range a.Stories {
		m.entries = append(m.entries, entry{
			kind:  KindStory,
			id:    st.ID,
			label: st.Number + " " + st.Title,
			when:  st.ArchivedAt.Local().Format("2006-01-02 15:04"),
		})
	}
	m.cursor = min(m.cursor, max(len(m.entries)-1, 0))
}

// View renders the archive list.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	lines := []string{titleStyle.Render("Archive")}
	switch {
	case m.loading:
		lines = append(lines, theme.DimmedStyle.Render("Loading..."))
	case m.errMsg != "":
		lines = append(lines, lipgloss.NewStyle().Foreground(theme.ColorRed).Render(m.errMsg))
	case len(m.entries) == 0:
		lines = append(lines, theme.DimmedStyle.Render("Nothing archived."))
	default:
		lines = append(lines, m.renderEntries()...)
	}

	hint := "u/enter restore | d delete | esc back"
	if m.confirm {
		hint = "Delete permanently? y to confirm, any other key to cancel"
	}
	lines = append(lines, "", theme.HelpStyle.Render(hint))

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(strings.Join(lines, "\n"))
}

func (m Model) renderEntries() []string {
	visible := max(m.height-10, 3)
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(start+visible, len(m.entries))

	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		e := m.entries[i]
		kind := "story "
		if e.kind == KindSprint {
			kind = "sprint"
		}
		line := fmt.Sprintf("%s  %s  %s", theme.DimmedStyle.Render(kind), e.label, theme.DimmedStyle.Render(e.when))
		if i == m.cursor {
			out = append(out, theme.SelectedItemStyle.Render(line))
		} else {
			out = append(out, theme.ListItemStyle.Render(line))
		}
	}
	return out
}
