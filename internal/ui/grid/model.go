// Package grid renders the sprint board: half-width sprints two per row, a
// blank filler when their count is odd, and the backlog on a full-width row.
package grid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/keys"
	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/theme"
)

// Action names something the user asked to do with the focused item.
type Action int

const (
	ActionOpen Action = iota
	ActionNewStory
	ActionEdit
	ActionToggle
	ActionArchive
	ActionDelete
	ActionMoveStory
	ActionCloseSprint
	ActionCloseAll
	ActionMoveSprint
)

// ActionMsg asks the parent to carry out an action. StoryID is empty when a
// sprint header is focused. For ActionMoveStory, TargetID is the destination
// sprint and Position the 1-based slot (0 appends). For ActionMoveSprint,
// Position is the new 0-based index among user sprints.
type ActionMsg struct {
	Action   Action
	SprintID string
	StoryID  string
	TargetID string
	Position int
}

// Model is the board grid view.
type Model struct {
	view          board.View
	keys          *keys.KeyMap
	focusSprint   string
	focusStory    string
	lastIndex     int
	showCompleted bool
	width         int
	height        int
}

// New creates a grid model.
func New(k *keys.KeyMap, width, height int) Model {
	return Model{
		keys:          k,
		showCompleted: true,
		width:         width,
		height:        height,
	}
}

// SetView installs a new board snapshot and keeps the focus on the same
// sprint and story when they still exist.
func (m *Model) SetView(v board.View) {
	m.view = v
	if len(v.Sprints) == 0 {
		m.focusSprint, m.focusStory = "", ""
		return
	}

	i := layout.Find(v.Sprints, m.focusSprint)
	if i < 0 {
		i = min(m.lastIndex, len(v.Sprints)-1)
		m.focusSprint = v.Sprints[i].ID
		m.focusStory = ""
	}
	m.lastIndex = i

	if m.focusStory != "" && m.storyIndex(m.focusStory) < 0 {
		m.focusStory = ""
	}
}

// BoardView returns the snapshot currently shown.
func (m Model) BoardView() board.View {
	return m.view
}

// Focus returns the focused sprint and story IDs. story is "" when the
// sprint header is focused.
func (m Model) Focus() (sprintID, storyID string) {
	return m.focusSprint, m.focusStory
}

// SetFocus moves the cursor to the given sprint and story.
func (m *Model) SetFocus(sprintID, storyID string) {
	if i := layout.Find(m.view.Sprints, sprintID); i >= 0 {
		m.focusSprint = sprintID
		m.focusStory = storyID
		m.lastIndex = i
		if storyID != "" && m.storyIndex(storyID) < 0 {
			m.focusStory = ""
		}
	}
}

// ShowCompleted reports whether completed stories are listed.
func (m Model) ShowCompleted() bool {
	return m.showCompleted
}

// SetShowCompleted shows or hides completed stories.
func (m *Model) SetShowCompleted(show bool) {
	m.showCompleted = show
	if !show && m.focusStory != "" {
		if st, ok := m.view.Story(m.focusStory); ok && st.Completed {
			m.focusStory = ""
		}
	}
}

// SetSize updates the grid dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key presses on the board.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyMsg)
	if !ok || len(m.view.Sprints) == 0 {
		return m, nil
	}

	switch {
	case key.Matches(kmsg, m.keys.Down):
		m.moveCursor(1)
	case key.Matches(kmsg, m.keys.Up):
		m.moveCursor(-1)
	case key.Matches(kmsg, m.keys.Right):
		m.focusIndex(m.current() + 1)
	case key.Matches(kmsg, m.keys.Left):
		m.focusIndex(m.current() - 1)
	case key.Matches(kmsg, m.keys.ShowCompleted):
		m.SetShowCompleted(!m.showCompleted)

	case key.Matches(kmsg, m.keys.Select):
		if m.focusStory != "" {
			return m, m.emit(ActionOpen)
		}
	case key.Matches(kmsg, m.keys.NewStory):
		return m, m.emit(ActionNewStory)
	case key.Matches(kmsg, m.keys.Edit):
		return m, m.emit(ActionEdit)
	case key.Matches(kmsg, m.keys.Toggle):
		if m.focusStory != "" {
			return m, m.emit(ActionToggle)
		}
	case key.Matches(kmsg, m.keys.Archive):
		return m, m.emit(ActionArchive)
	case key.Matches(kmsg, m.keys.Delete):
		return m, m.emit(ActionDelete)
	case key.Matches(kmsg, m.keys.CloseSprint):
		return m, m.emit(ActionCloseSprint)
	case key.Matches(kmsg, m.keys.CloseAll):
		return m, m.emit(ActionCloseAll)

	case key.Matches(kmsg, m.keys.MoveUp):
		return m, m.reorderStory(-1)
	case key.Matches(kmsg, m.keys.MoveDown):
		return m, m.reorderStory(1)
	case key.Matches(kmsg, m.keys.MovePrev):
		return m, m.shiftStory(-1)
	case key.Matches(kmsg, m.keys.MoveNext):
		return m, m.shiftStory(1)
	case key.Matches(kmsg, m.keys.SprintEarlier):
		return m, m.shiftSprint(-1)
	case key.Matches(kmsg, m.keys.SprintLater):
		return m, m.shiftSprint(1)
	}

	return m, nil
}

func (m Model) emit(a Action) tea.Cmd {
	msg := ActionMsg{Action: a, SprintID: m.focusSprint, StoryID: m.focusStory}
	return func() tea.Msg { return msg }
}

func (m Model) current() int {
	return max(layout.Find(m.view.Sprints, m.focusSprint), 0)
}

func (m *Model) focusIndex(i int) {
	if i < 0 || i >= len(m.view.Sprints) {
		return
	}
	m.focusSprint = m.view.Sprints[i].ID
	m.focusStory = ""
	m.lastIndex = i
}

// visible returns the stories of sprint i that are listed.
func (m Model) visible(i int) []model.Story {
	stories := m.view.Sprints[i].Stories
	if m.showCompleted {
		return stories
	}
	out := make([]model.Story, 0, len(stories))
	for _, st := range stories {
		if !st.Completed {
			out = append(out, st)
		}
	}
	return out
}

// storyIndex returns the index of id among the visible stories of the
// focused sprint, or -1.
func (m Model) storyIndex(id string) int {
	i := layout.Find(m.view.Sprints, m.focusSprint)
	if i < 0 {
		return -1
	}
	for j, st := range m.visible(i) {
		if st.ID == id {
			return j
		}
	}
	return -1
}

// moveCursor walks the header and visible stories of the focused sprint,
// crossing into the sprint above or below at either end.
func (m *Model) moveCursor(delta int) {
	i := m.current()
	stories := m.visible(i)
	pos := -1
	if m.focusStory != "" {
		pos = m.storyIndex(m.focusStory)
	}
	pos += delta

	switch {
	case pos < -1:
		if j := m.neighbour(i, -1); j >= 0 {
			m.focusIndex(j)
			if s := m.visible(j); len(s) > 0 {
				m.focusStory = s[len(s)-1].ID
			}
		}
	case pos >= len(stories):
		if j := m.neighbour(i, 1); j >= 0 {
			m.focusIndex(j)
		}
	case pos == -1:
		m.focusStory = ""
	default:
		m.focusStory = stories[pos].ID
	}
}

// cellOf returns the grid row and column of ordered sprint i.
func (m Model) cellOf(i int) (row, col int) {
	half := 0
	for j, o := range m.view.Sprints {
		if o.Policy.Width == layout.WidthFull {
			if j == i {
				return len(m.view.Grid.Rows), 0
			}
			continue
		}
		if j == i {
			return half / 2, half % 2
		}
		half++
	}
	return -1, 0
}

// neighbour returns the sprint one grid row above (dir -1) or below (dir 1)
// sprint i, preferring the same column, or -1.
func (m Model) neighbour(i, dir int) int {
	row, col := m.cellOf(i)
	want := row + dir
	fallback := -1
	for j := range m.view.Sprints {
		r, c := m.cellOf(j)
		if r != want {
			continue
		}
		if c == col {
			return j
		}
		if fallback < 0 {
			fallback = j
		}
	}
	return fallback
}

func (m Model) reorderStory(delta int) tea.Cmd {
	if m.focusStory == "" {
		return nil
	}
	stories := m.view.Sprints[m.current()].Stories
	for j, st := range stories {
		if st.ID != m.focusStory {
			continue
		}
		to := j + delta
		if to < 0 || to >= len(stories) {
			return nil
		}
		msg := ActionMsg{
			Action:   ActionMoveStory,
			SprintID: m.focusSprint,
			StoryID:  m.focusStory,
			TargetID: m.focusSprint,
			Position: to + 1,
		}
		return func() tea.Msg { return msg }
	}
	return nil
}

func (m Model) shiftStory(delta int) tea.Cmd {
	if m.focusStory == "" {
		return nil
	}
	j := m.current() + delta
	if j < 0 || j >= len(m.view.Sprints) {
		return nil
	}
	msg := ActionMsg{
		Action:   ActionMoveStory,
		SprintID: m.focusSprint,
		StoryID:  m.focusStory,
		TargetID: m.view.Sprints[j].ID,
	}
	return func() tea.Msg { return msg }
}

func (m Model) shiftSprint(delta int) tea.Cmd {
	users := 0
	at := -1
	for _, o := range m.view.Sprints {
		if o.Role != layout.RoleUser {
			continue
		}
		if o.ID == m.focusSprint {
			at = users
		}
		users++
	}
	if at < 0 {
		return nil
	}
	to := at + delta
	if to < 0 || to >= users {
		return nil
	}
	msg := ActionMsg{Action: ActionMoveSprint, SprintID: m.focusSprint, Position: to}
	return func() tea.Msg { return msg }
}

// View renders the grid, scrolled so the focused row is visible.
func (m Model) View() string {
	if m.view.Version == 0 {
		return m.centered("Loading board...")
	}
	if len(m.view.Sprints) == 0 {
		return m.centered("No sprints yet. Press N to create one.")
	}

	cellWidth := max((m.width-1)/2, 20)
	rows := make([]string, 0, m.view.Grid.Len())

	for _, row := range m.view.Grid.Rows {
		left := m.renderSprint(*row[0].Sprint, cellWidth)
		right := lipgloss.NewStyle().Width(cellWidth).Render("")
		if !row[1].Filler {
			right = m.renderSprint(*row[1].Sprint, cellWidth)
		}
		h := max(lipgloss.Height(left), lipgloss.Height(right))
		left = lipgloss.PlaceVertical(h, lipgloss.Top, left)
		right = lipgloss.PlaceVertical(h, lipgloss.Top, right)
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right))
	}
	if bl := m.view.Grid.Backlog; bl != nil {
		rows = append(rows, m.renderSprint(*bl, cellWidth*2+1))
	}

	focusRow, _ := m.cellOf(m.current())
	return m.scroll(rows, min(max(focusRow, 0), len(rows)-1))
}

// scroll drops leading rows until the focused row fits in the height.
func (m Model) scroll(rows []string, focus int) string {
	start := 0
	for start < focus {
		total := 0
		for _, r := range rows[start : focus+1] {
			total += lipgloss.Height(r)
		}
		if total <= m.height {
			break
		}
		start++
	}
	return lipgloss.NewStyle().
		MaxHeight(max(m.height, 1)).
		Render(lipgloss.JoinVertical(lipgloss.Left, rows[start:]...))
}

func (m Model) centered(text string) string {
	return lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray).
		Render(text)
}

func (m Model) renderSprint(o layout.OrderedSprint, width int) string {
	focused := o.ID == m.focusSprint
	inner := max(width-4, 10)

	header := fmt.Sprintf("%s %s", o.Icon, o.Title)
	count := fmt.Sprintf("%d/%d", o.CompletedCount(), len(o.Stories))
	gap := max(inner-lipgloss.Width(header)-lipgloss.Width(count), 1)
	headerLine := theme.SprintTitleStyle(o.Role).Render(clip(header, inner-lipgloss.Width(count)-1)) +
		strings.Repeat(" ", gap) + theme.DimmedStyle.Render(count)
	if focused && m.focusStory == "" {
		headerLine = lipgloss.NewStyle().Reverse(true).Render(headerLine)
	}

	idx := layout.Find(m.view.Sprints, o.ID)
	stories := m.visible(idx)

	var body string
	switch {
	case len(stories) == 0:
		body = theme.DimmedStyle.Render("no stories")
	case o.Policy.StoryColumns > 1:
		colWidth := (inner - 1) / 2
		split := (len(stories) + 1) / 2
		left := m.renderStories(stories[:split], colWidth)
		right := m.renderStories(stories[split:], colWidth)
		body = lipgloss.JoinHorizontal(lipgloss.Top,
			lipgloss.NewStyle().Width(colWidth).Render(left), " ",
			lipgloss.NewStyle().Width(colWidth).Render(right))
	default:
		body = m.renderStories(stories, inner)
	}

	return theme.SprintBoxStyle(o.Role, focused).
		Width(width - 2).
		Render(lipgloss.JoinVertical(lipgloss.Left, headerLine, body))
}

func (m Model) renderStories(stories []model.Story, width int) string {
	lines := make([]string, 0, len(stories))
	for _, st := range stories {
		lines = append(lines, m.renderStory(st, width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderStory(st model.Story, width int) string {
	mark := "[ ]"
	if st.Completed {
		mark = "[x]"
	}
	plain := fmt.Sprintf("%s %s %s", mark, st.Number, st.Title)
	if len(st.Tags) > 0 {
		plain += " #" + strings.Join(st.Tags, " #")
	}
	plain = clip(plain, width-1)

	if st.ID == m.focusStory {
		return theme.SelectedItemStyle.Render(plain)
	}

	prefix := mark + " " + st.Number + " "
	if !strings.HasPrefix(plain, prefix) {
		return theme.ListItemStyle.Render(plain)
	}
	rest := strings.TrimPrefix(plain, prefix)
	title, tags, _ := strings.Cut(rest, " #")
	titleStyle := lipgloss.NewStyle()
	if st.Completed {
		titleStyle = theme.CompletedStyle
	}
	line := mark + " " + theme.NumberStyle.Render(st.Number) + " " + titleStyle.Render(title)
	if tags != "" {
		line += " " + theme.TagStyle.Render("#"+tags)
	}
	return theme.ListItemStyle.Render(line)
}

// clip shortens s to at most n runes, marking the cut with an ellipsis.
func clip(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
