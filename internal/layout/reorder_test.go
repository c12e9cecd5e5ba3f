package layout

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func board(t *testing.T) []OrderedSprint {
	t.Helper()
	ordered, err := ClassifyAndOrder([]model.Sprint{
		{ID: model.PrioritySprintID},
		userSprint("a", 1, 0),
		userSprint("b", 2, 0),
		userSprint("c", 3, 0),
		{ID: "bl", IsBacklog: true},
	})
	require.NoError(t, err)
	return ordered
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name string
		id   string
		to   int
		want []string
	}{
		{name: "to front", id: "c", to: 0, want: []string{"c", "a", "b"}},
		{name: "to back", id: "a", to: 2, want: []string{"b", "c", "a"}},
		{name: "same place", id: "b", to: 1, want: []string{"a", "b", "c"}},
		{name: "clamped high", id: "a", to: 50, want: []string{"b", "c", "a"}},
		{name: "clamped low", id: "b", to: -3, want: []string{"b", "a", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			updates, err := Reorder(board(t), tt.id, tt.to)
			require.NoError(t, err)
			require.Len(t, updates, len(tt.want))
			for i, u := range updates {
				assert.Equal(t, tt.want[i], u.SprintID)
				assert.Equal(t, i+1, u.Position)
			}
		})
	}
}

func TestReorderRejectsSystemSprints(t *testing.T) {
	for _, id := range []string{model.PrioritySprintID, "bl"} {
		_, err := Reorder(board(t), id, 0)
		assert.ErrorIs(t, err, ErrNotDraggable)
	}
}

func TestReorderUnknownSprint(t *testing.T) {
	_, err := Reorder(board(t), "missing", 0)
	assert.Error(t, err)
}
