package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/sprint-board/internal/model"
)

// RowError reports a persisted row that could not be mapped to a model.
type RowError struct {
	Table  string
	ID     string
	Reason string
}

func (e *RowError) Error() string {
	return fmt.Sprintf("malformed %s row %q: %s", e.Table, e.ID, e.Reason)
}

// sprintRow mirrors the sprints table at schemaVersion.
type sprintRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Icon        string     `db:"icon"`
	IsBacklog   int        `db:"is_backlog"`
	IsDraggable int        `db:"is_draggable"`
	Position    int        `db:"position"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	ArchivedAt  *time.Time `db:"archived_at"`
}

func (r sprintRow) toModel() (model.Sprint, error) {
	bad := func(reason string) (model.Sprint, error) {
		return model.Sprint{}, &RowError{Table: "sprints", ID: r.ID, Reason: reason}
	}
	switch {
	case r.ID == "":
		return bad("empty id")
	case r.UserID == "":
		return bad("empty user_id")
	case strings.TrimSpace(r.Title) == "":
		return bad("empty title")
	case r.IsBacklog != 0 && r.IsBacklog != 1:
		return bad(fmt.Sprintf("is_backlog=%d", r.IsBacklog))
	case r.IsDraggable != 0 && r.IsDraggable != 1:
		return bad(fmt.Sprintf("is_draggable=%d", r.IsDraggable))
	case r.ID == model.PrioritySprintID && r.IsBacklog == 1:
		return bad("priority sprint flagged as backlog")
	}

	return model.Sprint{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Icon:        r.Icon,
		IsBacklog:   r.IsBacklog == 1,
		IsDraggable: r.IsDraggable == 1,
		Position:    r.Position,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ArchivedAt:  r.ArchivedAt,
	}, nil
}

// storyRow mirrors the stories table at schemaVersion.
type storyRow struct {
	ID          string     `db:"id"`
	UserID      string     `db:"user_id"`
	Number      string     `db:"number"`
	Title       string     `db:"title"`
	Description string     `db:"description"`
	Completed   int        `db:"completed"`
	CompletedAt *time.Time `db:"completed_at"`
	Date        *time.Time `db:"date"`
	Tags        string     `db:"tags"`
	SprintID    string     `db:"sprint_id"`
	Position    int        `db:"position"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
	ArchivedAt  *time.Time `db:"archived_at"`
	ExternalRef string     `db:"external_ref"`
}

func (r storyRow) toModel() (model.Story, error) {
	bad := func(reason string) (model.Story, error) {
		return model.Story{}, &RowError{Table: "stories", ID: r.ID, Reason: reason}
	}
	switch {
	case r.ID == "":
		return bad("empty id")
	case r.UserID == "":
		return bad("empty user_id")
	case r.SprintID == "":
		return bad("empty sprint_id")
	case r.Number == "":
		return bad("empty number")
	case r.Completed != 0 && r.Completed != 1:
		return bad(fmt.Sprintf("completed=%d", r.Completed))
	}

	var tags []string
	if r.Tags != "" {
		if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
			return bad("tags: " + err.Error())
		}
	}

	return model.Story{
		ID:          r.ID,
		UserID:      r.UserID,
		Number:      r.Number,
		Title:       r.Title,
		Description: r.Description,
		Tags:        model.NormalizeTags(tags),
		Completed:   r.Completed == 1,
		CompletedAt: r.CompletedAt,
		Date:        r.Date,
		SprintID:    r.SprintID,
		Position:    r.Position,
		ExternalRef: r.ExternalRef,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		ArchivedAt:  r.ArchivedAt,
	}, nil
}

func marshalTags(tags []string) (string, error) {
	tags = model.NormalizeTags(tags)
	b, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("marshaling tags: %w", err)
	}
	return string(b), nil
}
