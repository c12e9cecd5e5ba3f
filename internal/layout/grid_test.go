package layout

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func TestBuildGridPairsHalfWidthSprints(t *testing.T) {
	for n := 0; n <= 7; n++ {
		t.Run(fmt.Sprintf("%d user sprints", n), func(t *testing.T) {
			sprints := []model.Sprint{
				{ID: model.PrioritySprintID},
				{ID: "bl", IsBacklog: true},
			}
			for i := 0; i < n; i++ {
				sprints = append(sprints, userSprint(fmt.Sprintf("u%d", i), i, 0))
			}
			ordered, err := ClassifyAndOrder(sprints)
			require.NoError(t, err)

			g := BuildGrid(ordered)
			half := n + 1
			assert.Len(t, g.Rows, (half+1)/2)
			require.NotNil(t, g.Backlog)
			assert.Equal(t, "bl", g.Backlog.ID)

			fillers := 0
			for _, row := range g.Rows {
				assert.NotNil(t, row[0].Sprint)
				if row[1].Filler {
					fillers++
					assert.Nil(t, row[1].Sprint)
				}
			}
			assert.Equal(t, half%2, fillers)
			assert.Equal(t, len(g.Rows)+1, g.Len())
		})
	}
}

func TestBuildGridWithoutBacklog(t *testing.T) {
	ordered, err := ClassifyAndOrder([]model.Sprint{userSprint("a", 1, 0)})
	require.NoError(t, err)

	g := BuildGrid(ordered)
	assert.Nil(t, g.Backlog)
	require.Len(t, g.Rows, 1)
	assert.Equal(t, "a", g.Rows[0][0].Sprint.ID)
	assert.True(t, g.Rows[0][1].Filler)
}
