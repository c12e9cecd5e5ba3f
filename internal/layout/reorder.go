package layout

import (
	"errors"
	"fmt"
	"slices"
)

// ErrNotDraggable is returned when a move targets a sprint whose policy
// forbids dragging.
var ErrNotDraggable = errors.New("sprint is not draggable")

// PositionUpdate is a new position for one sprint.
type PositionUpdate struct {
	SprintID string
	Position int
}

// Reorder moves the user sprint sprintID to index toIndex within the user
// sprints (0-based, clamped) and returns positions 1..n for every user
// sprint in the new order.
func Reorder(ordered []OrderedSprint, sprintID string, toIndex int) ([]PositionUpdate, error) {
	var users []string
	from := -1
	for _, o := range ordered {
		if o.ID == sprintID && !o.Policy.Draggable {
			return nil, fmt.Errorf("moving sprint %s: %w", sprintID, ErrNotDraggable)
		}
		if o.Role != RoleUser {
			continue
		}
		if o.ID == sprintID {
			from = len(users)
		}
		users = append(users, o.ID)
	}
	if from < 0 {
		return nil, fmt.Errorf("sprint %s not on board", sprintID)
	}

	toIndex = max(0, min(toIndex, len(users)-1))
	users = slices.Delete(users, from, from+1)
	users = slices.Insert(users, toIndex, sprintID)

	updates := make([]PositionUpdate, len(users))
	for i, id := range users {
		updates[i] = PositionUpdate{SprintID: id, Position: i + 1}
	}
	return updates, nil
}
