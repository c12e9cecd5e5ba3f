package model

import "time"

// PrioritySprintID is the reserved identifier of the per-user priority sprint.
const PrioritySprintID = "priority"

// Sprint is a titled, ordered container of stories. Two sprints per user are
// created by the system: the priority sprint (reserved ID) and the backlog
// (IsBacklog set). Everything else is a user sprint.
type Sprint struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Icon        string     `json:"icon" db:"icon"`
	IsBacklog   bool       `json:"is_backlog" db:"is_backlog"`
	IsDraggable bool       `json:"is_draggable" db:"is_draggable"`
	Position    int        `json:"position" db:"position"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`

	// Stories is populated at load time, ordered by position.
	Stories []Story `json:"stories" db:"-"`
}

// IsPriority reports whether s is the priority sprint.
func (s Sprint) IsPriority() bool {
	return s.ID == PrioritySprintID
}

// IsSystem reports whether s was created by the system rather than a user.
func (s Sprint) IsSystem() bool {
	return s.IsPriority() || s.IsBacklog
}

// IsArchived reports whether the sprint has been soft-deleted.
func (s Sprint) IsArchived() bool {
	return s.ArchivedAt != nil
}

// CompletedCount returns the number of completed stories in the sprint.
func (s Sprint) CompletedCount() int {
	n := 0
	for _, st := range s.Stories {
		if st.Completed {
			n++
		}
	}
	return n
}

// Default titles and icons for the system sprints.
const (
	PrioritySprintTitle = "Priority"
	PrioritySprintIcon  = "!"
	BacklogSprintTitle  = "Backlog"
	BacklogSprintIcon   = "≡"
)

// SprintInput carries the user-editable fields of a sprint.
type SprintInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description" validate:"max=2000"`
	Icon        string `json:"icon" validate:"max=16"`
}
