package layout

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func userSprint(id string, pos int, stories int) model.Sprint {
	s := model.Sprint{ID: id, Title: id, Position: pos, IsDraggable: true}
	for i := 0; i < stories; i++ {
		s.Stories = append(s.Stories, model.Story{ID: id + "-story"})
	}
	return s
}

func ids(ordered []OrderedSprint) []string {
	out := make([]string, len(ordered))
	for i, o := range ordered {
		out[i] = o.ID
	}
	return out
}

func TestClassifyAndOrder(t *testing.T) {
	sprints := []model.Sprint{
		userSprint("b", 2, 0),
		{ID: "backlog-1", IsBacklog: true, Position: -5},
		userSprint("a", 1, 3),
		{ID: model.PrioritySprintID, Position: 99},
		userSprint("c", 3, 0),
	}

	ordered, err := ClassifyAndOrder(sprints)
	require.NoError(t, err)
	assert.Equal(t, []string{model.PrioritySprintID, "a", "b", "c", "backlog-1"}, ids(ordered))

	assert.Equal(t, RolePriority, ordered[0].Role)
	assert.Equal(t, Policy{Width: WidthHalf, StoryColumns: 1}, ordered[0].Policy)

	assert.Equal(t, RoleUser, ordered[1].Role)
	assert.True(t, ordered[1].Policy.Draggable)
	assert.False(t, ordered[1].Policy.Deletable, "sprint with stories is not deletable")
	assert.True(t, ordered[2].Policy.Deletable)

	assert.Equal(t, RoleBacklog, ordered[4].Role)
	assert.Equal(t, Policy{Width: WidthFull, StoryColumns: 2}, ordered[4].Policy)
}

func TestClassifyAndOrderProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for iter := 0; iter < 200; iter++ {
		var sprints []model.Sprint
		n := r.IntN(8)
		for i := 0; i < n; i++ {
			sprints = append(sprints, userSprint(string(rune('a'+i)), r.IntN(4), r.IntN(2)))
		}
		hasPriority := r.IntN(2) == 0
		hasBacklog := r.IntN(2) == 0
		if hasPriority {
			sprints = append(sprints, model.Sprint{ID: model.PrioritySprintID, Position: r.IntN(10)})
		}
		if hasBacklog {
			sprints = append(sprints, model.Sprint{ID: "bl", IsBacklog: true, Position: r.IntN(10)})
		}
		r.Shuffle(len(sprints), func(i, j int) { sprints[i], sprints[j] = sprints[j], sprints[i] })

		ordered, err := ClassifyAndOrder(sprints)
		require.NoError(t, err)
		require.Len(t, ordered, len(sprints))

		if hasPriority {
			assert.Equal(t, model.PrioritySprintID, ordered[0].ID)
		}
		if hasBacklog {
			last := ordered[len(ordered)-1]
			assert.True(t, last.IsBacklog)
			assert.Equal(t, WidthFull, last.Policy.Width)
			assert.Equal(t, 2, last.Policy.StoryColumns)
		}

		var prev *OrderedSprint
		for i := range ordered {
			o := &ordered[i]
			if o.Role != RoleUser {
				continue
			}
			assert.True(t, o.Policy.Draggable)
			assert.Equal(t, WidthHalf, o.Policy.Width)
			assert.Equal(t, len(o.Stories) == 0, o.Policy.Deletable)
			if prev != nil {
				assert.LessOrEqual(t, prev.Position, o.Position)
			}
			prev = o
		}
	}
}

func TestClassifyAndOrderStableForEqualPositions(t *testing.T) {
	ordered, err := ClassifyAndOrder([]model.Sprint{
		userSprint("x", 1, 0),
		userSprint("y", 1, 0),
		userSprint("z", 0, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"z", "x", "y"}, ids(ordered))
}

func TestClassifyAndOrderRejectsDuplicates(t *testing.T) {
	_, err := ClassifyAndOrder([]model.Sprint{
		{ID: "b1", IsBacklog: true},
		{ID: "b2", IsBacklog: true},
	})
	assert.True(t, errors.Is(err, ErrDuplicateSystemSprint))

	_, err = ClassifyAndOrder([]model.Sprint{
		{ID: model.PrioritySprintID},
		{ID: model.PrioritySprintID},
	})
	assert.ErrorIs(t, err, ErrDuplicateSystemSprint)
}

func TestClassifyPriorityWinsOverBacklogFlag(t *testing.T) {
	assert.Equal(t, RolePriority, Classify(model.Sprint{ID: model.PrioritySprintID, IsBacklog: true}))
}

func TestClassifyAndOrderEmpty(t *testing.T) {
	ordered, err := ClassifyAndOrder(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)
	assert.Equal(t, 0, BuildGrid(ordered).Len())
}

func TestSystemSprintsNeverDeletableOrDraggable(t *testing.T) {
	for _, role := range []Role{RolePriority, RoleBacklog} {
		for _, n := range []int{0, 1, 10} {
			p := PolicyFor(role, n)
			assert.False(t, p.Deletable, "%s with %d stories", role, n)
			assert.False(t, p.Draggable, "%s with %d stories", role, n)
		}
	}
}
