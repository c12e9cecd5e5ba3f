package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/sprint-board/internal/model"
)

var (
	// ErrNotFound is returned when a row addressed by ID does not exist in the
	// caller's user scope.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate is returned when an insert violates a unique constraint.
	ErrDuplicate = errors.New("duplicate")
)

// SprintFilter narrows sprint queries.
type SprintFilter struct {
	// Archived selects archived (true) or active (false) sprints; nil for both.
	Archived *bool
}

// StoryFilter narrows story queries. UserID is required.
type StoryFilter struct {
	UserID      string
	SprintID    *string
	Archived    *bool
	Completed   *bool
	ExternalRef *string
}

// Store defines the persistence interface for sprints, stories and per-user
// settings. Every method is scoped to a single user.
type Store interface {
	// === Sprints ===

	CreateSprint(ctx context.Context, sprint model.Sprint) (model.Sprint, error)
	UpdateSprint(ctx context.Context, sprint model.Sprint) error
	DeleteSprint(ctx context.Context, userID, id string) error
	GetSprint(ctx context.Context, userID, id string) (*model.Sprint, error)
	GetSprints(ctx context.Context, userID string, filter SprintFilter) ([]model.Sprint, error)
	ArchiveSprint(ctx context.Context, userID, id string, at time.Time) error
	RestoreSprint(ctx context.Context, userID, id string) error
	SetSprintPositions(ctx context.Context, userID string, positions map[string]int) error
	EnsureSystemSprint(ctx context.Context, sprint model.Sprint) (model.Sprint, bool, error)

	// === Stories ===

	CreateStory(ctx context.Context, story model.Story) (model.Story, error)
	UpdateStory(ctx context.Context, story model.Story) error
	DeleteStory(ctx context.Context, userID, id string) error
	GetStory(ctx context.Context, userID, id string) (*model.Story, error)
	GetStories(ctx context.Context, filter StoryFilter) ([]model.Story, error)
	CountStories(ctx context.Context, userID, sprintID string) (int, error)
	SetStoryCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) error
	MoveStory(ctx context.Context, userID, id, sprintID string, position int) error
	ArchiveStory(ctx context.Context, userID, id string, at time.Time) error
	ArchiveSprintStories(ctx context.Context, userID, sprintID string, completedOnly bool, at time.Time) (int, error)
	RestoreStory(ctx context.Context, userID, id string) error
	MaxStoryNumber(ctx context.Context, userID, prefix string) (int, error)

	// === User settings and roles ===

	GetUserSettings(ctx context.Context, userID string) (*model.UserSettings, error)
	SaveUserSettings(ctx context.Context, settings model.UserSettings) error
	GetUserRole(ctx context.Context, userID string) (model.Role, error)
	SetUserRole(ctx context.Context, userID string, role model.Role) error

	// === Change notification ===

	Changes() *Broker
}
