package model

import (
	"strings"
	"time"
)

// DefaultStoryPrefix is used for story numbers when the user has not chosen one.
const DefaultStoryPrefix = "STORY"

// Story is a unit of work owned by exactly one sprint.
type Story struct {
	ID          string     `json:"id" db:"id"`
	UserID      string     `json:"user_id" db:"user_id"`
	Number      string     `json:"number" db:"number"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Tags        []string   `json:"tags" db:"-"`
	Completed   bool       `json:"completed" db:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Date        *time.Time `json:"date,omitempty" db:"date"`
	SprintID    string     `json:"sprint_id" db:"sprint_id"`
	Position    int        `json:"position" db:"position"`
	ExternalRef string     `json:"external_ref,omitempty" db:"external_ref"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty" db:"archived_at"`
}

// IsArchived reports whether the story has been soft-deleted.
func (s Story) IsArchived() bool {
	return s.ArchivedAt != nil
}

// StoryInput carries the user-editable fields of a story.
type StoryInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description" validate:"max=5000"`
	Tags        []string   `json:"tags" validate:"max=20,dive,max=32"`
	Date        *time.Time `json:"date,omitempty"`
}

// NormalizeTags trims, drops empties and deduplicates tags case-insensitively,
// keeping the first spelling seen.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		k := strings.ToLower(t)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, t)
	}
	return out
}

// ParseTags splits a comma separated list into normalized tags.
func ParseTags(s string) []string {
	return NormalizeTags(strings.Split(s, ","))
}

// IntakeItem is a story candidate pulled from an external source.
type IntakeItem struct {
	// ExternalRef identifies the item at its source, e.g. "jira:PROJ-12".
	ExternalRef string   `json:"external_ref"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}
