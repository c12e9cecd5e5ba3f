package grid

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/keys"
	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
)

func story(id, number string, completed bool) model.Story {
	return model.Story{ID: id, Number: number, Title: "story " + id, Completed: completed}
}

// testView builds priority, two user sprints and the backlog:
//
//	row 0: priority | alpha
//	row 1: beta     | filler
//	row 2: backlog
func testView(t *testing.T) board.View {
	t.Helper()
	sprints := []model.Sprint{
		{ID: "bl", Title: "Backlog", IsBacklog: true, Stories: []model.Story{story("b1", "S-5", false)}},
		{ID: "beta", Title: "Beta", Position: 2},
		{ID: model.PrioritySprintID, Title: "Priority", Stories: []model.Story{story("p1", "S-1", false)}},
		{ID: "alpha", Title: "Alpha", Position: 1, Stories: []model.Story{
			story("a1", "S-2", false),
			story("a2", "S-3", true),
			story("a3", "S-4", false),
		}},
	}
	ordered, err := layout.ClassifyAndOrder(sprints)
	require.NoError(t, err)
	return board.View{Version: 1, Sprints: ordered, Grid: layout.BuildGrid(ordered)}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Msg) {
	t.Helper()
	var last tea.Msg
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "down", "up", "left", "right", "enter", "tab":
			msg = tea.KeyMsg{Type: keyType(k)}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		last = nil
		if cmd != nil {
			last = cmd()
		}
	}
	return m, last
}

func keyType(k string) tea.KeyType {
	switch k {
	case "down":
		return tea.KeyDown
	case "up":
		return tea.KeyUp
	case "left":
		return tea.KeyLeft
	case "right":
		return tea.KeyRight
	case "tab":
		return tea.KeyTab
	}
	return tea.KeyEnter
}

func newModel(t *testing.T) Model {
	m := New(keys.DefaultKeyMap(), 100, 40)
	m.SetView(testView(t))
	return m
}

func TestInitialFocusIsPrioritySprint(t *testing.T) {
	m := newModel(t)
	sprintID, storyID := m.Focus()
	assert.Equal(t, model.PrioritySprintID, sprintID)
	assert.Empty(t, storyID)
}

func TestCursorWalksStoriesAndCrossesRows(t *testing.T) {
	m := newModel(t)

	m, _ = press(t, m, "down")
	_, st := m.Focus()
	assert.Equal(t, "p1", st)

	// Past the last story of priority: beta sits below it in column 0.
	m, _ = press(t, m, "down")
	sp, st := m.Focus()
	assert.Equal(t, "beta", sp)
	assert.Empty(t, st)

	// Beta is empty; the backlog is the next row.
	m, _ = press(t, m, "down")
	sp, _ = m.Focus()
	assert.Equal(t, "bl", sp)

	// Up from the backlog header lands on beta, which has no stories.
	m, _ = press(t, m, "up")
	sp, st = m.Focus()
	assert.Equal(t, "beta", sp)
	assert.Empty(t, st)
}

func TestLeftRightFollowBoardOrder(t *testing.T) {
	m := newModel(t)
	var got []string
	for range 4 {
		sp, _ := m.Focus()
		got = append(got, sp)
		m, _ = press(t, m, "right")
	}
	assert.Equal(t, []string{model.PrioritySprintID, "alpha", "beta", "bl"}, got)

	m, _ = press(t, m, "right")
	sp, _ := m.Focus()
	assert.Equal(t, "bl", sp, "right stops at the last sprint")
}

func TestHidingCompletedSkipsThem(t *testing.T) {
	m := newModel(t)
	m.SetFocus("alpha", "a1")

	m, _ = press(t, m, ".")
	assert.False(t, m.ShowCompleted())

	m, _ = press(t, m, "down")
	_, st := m.Focus()
	assert.Equal(t, "a3", st)
}

func TestActionsCarryFocus(t *testing.T) {
	m := newModel(t)
	m.SetFocus("alpha", "a2")

	_, msg := press(t, m, "x")
	assert.Equal(t, ActionMsg{Action: ActionToggle, SprintID: "alpha", StoryID: "a2"}, msg)

	_, msg = press(t, m, "enter")
	assert.Equal(t, ActionOpen, msg.(ActionMsg).Action)

	m.SetFocus("alpha", "")
	_, msg = press(t, m, "x")
	assert.Nil(t, msg, "toggle needs a story")

	_, msg = press(t, m, "c")
	assert.Equal(t, ActionMsg{Action: ActionCloseSprint, SprintID: "alpha"}, msg)
}

func TestReorderStoryPositionsAreOneBased(t *testing.T) {
	m := newModel(t)
	m.SetFocus("alpha", "a2")

	_, msg := press(t, m, "K")
	assert.Equal(t, ActionMsg{
		Action: ActionMoveStory, SprintID: "alpha", StoryID: "a2", TargetID: "alpha", Position: 1,
	}, msg)

	m.SetFocus("alpha", "a3")
	_, msg = press(t, m, "J")
	assert.Nil(t, msg, "last story cannot move down")
}

func TestShiftStoryToNeighbourSprintAppends(t *testing.T) {
	m := newModel(t)
	m.SetFocus("alpha", "a1")

	_, msg := press(t, m, ">")
	assert.Equal(t, ActionMsg{Action: ActionMoveStory, SprintID: "alpha", StoryID: "a1", TargetID: "beta"}, msg)
}

func TestShiftSprintOnlyForUserSprints(t *testing.T) {
	m := newModel(t)

	_, msg := press(t, m, "]")
	assert.Nil(t, msg, "priority sprint cannot move")

	m.SetFocus("alpha", "")
	_, msg = press(t, m, "]")
	assert.Equal(t, ActionMsg{Action: ActionMoveSprint, SprintID: "alpha", Position: 1}, msg)

	_, msg = press(t, m, "[")
	assert.Nil(t, msg, "alpha is already first")
}

func TestSetViewKeepsFocusAcrossReloads(t *testing.T) {
	m := newModel(t)
	m.SetFocus("alpha", "a3")

	v := testView(t)
	v.Version = 2
	m.SetView(v)
	sp, st := m.Focus()
	assert.Equal(t, "alpha", sp)
	assert.Equal(t, "a3", st)

	// Alpha disappears: focus falls back to the same index.
	var kept []model.Sprint
	for _, o := range v.Sprints {
		if o.ID != "alpha" {
			kept = append(kept, o.Sprint)
		}
	}
	ordered, err := layout.ClassifyAndOrder(kept)
	require.NoError(t, err)
	m.SetView(board.View{Version: 3, Sprints: ordered, Grid: layout.BuildGrid(ordered)})
	sp, st = m.Focus()
	assert.Equal(t, "beta", sp)
	assert.Empty(t, st)
}

func TestViewRendersEverySprint(t *testing.T) {
	m := newModel(t)
	out := m.View()
	for _, title := range []string{"Priority", "Alpha", "Beta", "Backlog", "S-4"} {
		assert.Contains(t, out, title)
	}

	empty := New(keys.DefaultKeyMap(), 80, 10)
	assert.Contains(t, empty.View(), "Loading board")
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 5))
	assert.Equal(t, "ab…", clip("abcdef", 3))
	assert.Equal(t, "", clip("abc", 0))
}
