// Package layout classifies sprints into board roles, orders them and
// decides how each one is rendered and what the user may do with it.
package layout

import (
	"errors"
	"fmt"
	"slices"

	"github.com/nhle/sprint-board/internal/model"
)

// Role is the board role of a sprint.
type Role string

const (
	RolePriority Role = "priority"
	RoleUser     Role = "user"
	RoleBacklog  Role = "backlog"
)

// Width is the horizontal share of the board a sprint occupies.
type Width string

const (
	WidthHalf Width = "half"
	WidthFull Width = "full"
)

// ErrDuplicateSystemSprint is returned when more than one sprint claims the
// priority or backlog role.
var ErrDuplicateSystemSprint = errors.New("duplicate system sprint")

// Policy is the render and interaction policy attached to a role.
type Policy struct {
	Width     Width `json:"width"`
	Draggable bool  `json:"draggable"`
	// Deletable is only ever true for user sprints without stories.
	Deletable    bool `json:"deletable"`
	StoryColumns int  `json:"story_columns"`
}

// OrderedSprint is a sprint annotated with its role and policy.
type OrderedSprint struct {
	model.Sprint
	Role   Role   `json:"role"`
	Policy Policy `json:"policy"`
}

// Classify returns the role of s. The reserved priority ID wins over the
// backlog flag.
func Classify(s model.Sprint) Role {
	switch {
	case s.IsPriority():
		return RolePriority
	case s.IsBacklog:
		return RoleBacklog
	default:
		return RoleUser
	}
}

// PolicyFor returns the policy for a role given how many stories the sprint
// currently owns.
func PolicyFor(role Role, storyCount int) Policy {
	switch role {
	case RolePriority:
		return Policy{Width: WidthHalf, StoryColumns: 1}
	case RoleBacklog:
		return Policy{Width: WidthFull, StoryColumns: 2}
	default:
		return Policy{
			Width:        WidthHalf,
			Draggable:    true,
			Deletable:    storyCount == 0,
			StoryColumns: 1,
		}
	}
}

func rank(r Role) int {
	switch r {
	case RolePriority:
		return 0
	case RoleBacklog:
		return 2
	default:
		return 1
	}
}

// ClassifyAndOrder annotates every sprint with a role and policy and orders
// them: priority first, backlog last, user sprints by ascending position.
// Equal positions keep their input order. More than one priority or backlog
// sprint is rejected with ErrDuplicateSystemSprint; none is fine.
func ClassifyAndOrder(sprints []model.Sprint) ([]OrderedSprint, error) {
	out := make([]OrderedSprint, 0, len(sprints))
	var priorities, backlogs int

	for _, s := range sprints {
		role := Classify(s)
		switch role {
		case RolePriority:
			priorities++
		case RoleBacklog:
			backlogs++
		}
		out = append(out, OrderedSprint{
			Sprint: s,
			Role:   role,
			Policy: PolicyFor(role, len(s.Stories)),
		})
	}

	if priorities > 1 {
		return nil, fmt.Errorf("%d priority sprints: %w", priorities, ErrDuplicateSystemSprint)
	}
	if backlogs > 1 {
		return nil, fmt.Errorf("%d backlog sprints: %w", backlogs, ErrDuplicateSystemSprint)
	}

	slices.SortStableFunc(out, func(a, b OrderedSprint) int {
		if ra, rb := rank(a.Role), rank(b.Role); ra != rb {
			return ra - rb
		}
		if a.Role != RoleUser {
			return 0
		}
		return a.Position - b.Position
	})

	return out, nil
}

// Find returns the index of the sprint with the given ID, or -1.
func Find(ordered []OrderedSprint, id string) int {
	return slices.IndexFunc(ordered, func(o OrderedSprint) bool { return o.ID == id })
}
