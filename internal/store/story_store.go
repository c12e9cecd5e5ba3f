package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/model"
)

// CreateStory inserts a new story. Generates a UUID if ID is empty and
// appends to the end of the sprint when Position is zero. A taken number
// yields ErrDuplicate.
func (s *SQLiteStore) CreateStory(ctx context.Context, story model.Story) (model.Story, error) {
	if strings.TrimSpace(story.Title) == "" {
		return model.Story{}, fmt.Errorf("story title must not be empty")
	}
	if story.UserID == "" || story.SprintID == "" || story.Number == "" {
		return model.Story{}, fmt.Errorf("story requires user, sprint and number")
	}
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	story.CreatedAt = now
	story.UpdatedAt = now
	story.Tags = model.NormalizeTags(story.Tags)

	if story.Position == 0 {
		pos, err := s.nextStoryPosition(ctx, s.db, story.UserID, story.SprintID, "")
		if err != nil {
			return model.Story{}, err
		}
		story.Position = pos
	}

	tags, err := marshalTags(story.Tags)
	if err != nil {
		return model.Story{}, err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO stories (
			id, user_id, number, title, description,
			completed, completed_at, date, tags,
			sprint_id, position, external_ref,
			created_at, updated_at, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		story.ID, story.UserID, story.Number, story.Title, story.Description,
		boolToInt(story.Completed), story.CompletedAt, story.Date, tags,
		story.SprintID, story.Position, story.ExternalRef,
		story.CreatedAt, story.UpdatedAt, story.ArchivedAt,
	)
	if err != nil {
		return model.Story{}, fmt.Errorf("creating story %s: %w", story.Number, classify(err))
	}

	s.publish("stories", OpInsert, story.UserID, story.ID)
	return story, nil
}

// UpdateStory updates the editable fields of a story.
func (s *SQLiteStore) UpdateStory(ctx context.Context, story model.Story) error {
	if strings.TrimSpace(story.Title) == "" {
		return fmt.Errorf("story title must not be empty")
	}
	tags, err := marshalTags(story.Tags)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE stories SET
			title = ?, description = ?, tags = ?, date = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		story.Title, story.Description, tags, story.Date, time.Now().UTC(),
		story.UserID, story.ID,
	)
	if err != nil {
		return fmt.Errorf("updating story %s: %w", story.ID, err)
	}
	if err := expectRow(result, "story", story.ID); err != nil {
		return err
	}

	s.publish("stories", OpUpdate, story.UserID, story.ID)
	return nil
}

// DeleteStory permanently removes a story.
func (s *SQLiteStore) DeleteStory(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM stories WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("deleting story %s: %w", id, err)
	}
	if err := expectRow(result, "story", id); err != nil {
		return err
	}

	s.publish("stories", OpDelete, userID, id)
	return nil
}

// GetStory retrieves a single story by ID.
func (s *SQLiteStore) GetStory(ctx context.Context, userID, id string) (*model.Story, error) {
	var row storyRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM stories WHERE user_id = ? AND id = ?", userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("story %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting story %s: %w", id, err)
	}

	story, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &story, nil
}

// GetStories retrieves stories matching the filter ordered by sprint and
// position. Rows that fail mapping are logged and skipped.
func (s *SQLiteStore) GetStories(ctx context.Context, filter StoryFilter) ([]model.Story, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{filter.UserID}

	if filter.SprintID != nil {
		conditions = append(conditions, "sprint_id = ?")
		args = append(args, *filter.SprintID)
	}
	if filter.Archived != nil {
		if *filter.Archived {
			conditions = append(conditions, "archived_at IS NOT NULL")
		} else {
			conditions = append(conditions, "archived_at IS NULL")
		}
	}
	if filter.Completed != nil {
		conditions = append(conditions, "completed = ?")
		args = append(args, boolToInt(*filter.Completed))
	}
	if filter.ExternalRef != nil {
		conditions = append(conditions, "external_ref = ?")
		args = append(args, *filter.ExternalRef)
	}

	query := "SELECT * FROM stories WHERE " + strings.Join(conditions, " AND ") +
		" ORDER BY sprint_id, position, created_at"

	var rows []storyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying stories: %w", err)
	}

	stories := make([]model.Story, 0, len(rows))
	for _, r := range rows {
		story, err := r.toModel()
		if err != nil {
			s.log.Warn("skipping story row", zap.Error(err))
			continue
		}
		stories = append(stories, story)
	}
	return stories, nil
}

// CountStories returns the number of active stories in a sprint.
func (s *SQLiteStore) CountStories(ctx context.Context, userID, sprintID string) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM stories WHERE user_id = ? AND sprint_id = ? AND archived_at IS NULL",
		userID, sprintID)
	if err != nil {
		return 0, fmt.Errorf("counting stories in sprint %s: %w", sprintID, err)
	}
	return n, nil
}

// SetStoryCompleted sets the completion flag, stamping completed_at when the
// story becomes complete and clearing it otherwise.
func (s *SQLiteStore) SetStoryCompleted(ctx context.Context, userID, id string, completed bool, at time.Time) error {
	var completedAt *time.Time
	if completed {
		t := at.UTC()
		completedAt = &t
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE stories SET completed = ?, completed_at = ?, updated_at = ? WHERE user_id = ? AND id = ?",
		boolToInt(completed), completedAt, at.UTC(), userID, id)
	if err != nil {
		return fmt.Errorf("completing story %s: %w", id, err)
	}
	if err := expectRow(result, "story", id); err != nil {
		return err
	}

	s.publish("stories", OpUpdate, userID, id)
	return nil
}

// MoveStory re-parents a story into sprintID. A position of zero or less
// appends it; otherwise it is inserted at that 1-based slot and the target
// sprint's active stories are renumbered.
func (s *SQLiteStore) MoveStory(ctx context.Context, userID, id, sprintID string, position int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists,
		"SELECT COUNT(*) FROM sprints WHERE user_id = ? AND id = ?", userID, sprintID)
	if err != nil {
		return fmt.Errorf("checking sprint %s: %w", sprintID, err)
	}
	if exists == 0 {
		return fmt.Errorf("sprint %s: %w", sprintID, ErrNotFound)
	}

	now := time.Now().UTC()
	if position <= 0 {
		pos, err := s.nextStoryPosition(ctx, tx, userID, sprintID, id)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx,
			"UPDATE stories SET sprint_id = ?, position = ?, updated_at = ? WHERE user_id = ? AND id = ?",
			sprintID, pos, now, userID, id)
		if err != nil {
			return fmt.Errorf("moving story %s: %w", id, err)
		}
		if err := expectRow(result, "story", id); err != nil {
			return err
		}
	} else {
		var siblings []string
		err := tx.SelectContext(ctx, &siblings, `
			SELECT id FROM stories
			WHERE user_id = ? AND sprint_id = ? AND archived_at IS NULL AND id != ?
			ORDER BY position, created_at`,
			userID, sprintID, id)
		if err != nil {
			return fmt.Errorf("listing stories in sprint %s: %w", sprintID, err)
		}

		idx := min(position-1, len(siblings))
		siblings = slices.Insert(siblings, idx, id)

		for i, sid := range siblings {
			result, err := tx.ExecContext(ctx,
				"UPDATE stories SET sprint_id = ?, position = ?, updated_at = ? WHERE user_id = ? AND id = ?",
				sprintID, i+1, now, userID, sid)
			if err != nil {
				return fmt.Errorf("positioning story %s: %w", sid, err)
			}
			if sid == id {
				if err := expectRow(result, "story", id); err != nil {
					return err
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing story move: %w", err)
	}

	s.publish("stories", OpUpdate, userID, id)
	return nil
}

// ArchiveStory soft-deletes a story. updated_at is left alone so a restore
// returns the story to its exact prior state.
func (s *SQLiteStore) ArchiveStory(ctx context.Context, userID, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE stories SET archived_at = ? WHERE user_id = ? AND id = ?",
		at.UTC(), userID, id)
	if err != nil {
		return fmt.Errorf("archiving story %s: %w", id, err)
	}
	if err := expectRow(result, "story", id); err != nil {
		return err
	}

	s.publish("stories", OpUpdate, userID, id)
	return nil
}

// ArchiveSprintStories archives the active stories of a sprint, only the
// completed ones when completedOnly is set. It returns how many were archived.
func (s *SQLiteStore) ArchiveSprintStories(
	ctx context.Context,
	userID, sprintID string,
	completedOnly bool,
	at time.Time,
) (int, error) {
	query := "UPDATE stories SET archived_at = ? WHERE user_id = ? AND sprint_id = ? AND archived_at IS NULL"
	if completedOnly {
		query += " AND completed = 1"
	}

	result, err := s.db.ExecContext(ctx, query, at.UTC(), userID, sprintID)
	if err != nil {
		return 0, fmt.Errorf("archiving stories in sprint %s: %w", sprintID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("archiving stories in sprint %s: %w", sprintID, err)
	}
	if n > 0 {
		s.publish("stories", OpUpdate, userID, "")
	}
	return int(n), nil
}

// RestoreStory clears archived_at.
func (s *SQLiteStore) RestoreStory(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE stories SET archived_at = NULL WHERE user_id = ? AND id = ?",
		userID, id)
	if err != nil {
		return fmt.Errorf("restoring story %s: %w", id, err)
	}
	if err := expectRow(result, "story", id); err != nil {
		return err
	}

	s.publish("stories", OpUpdate, userID, id)
	return nil
}

// MaxStoryNumber returns the highest numeric suffix among the user's story
// numbers with the given prefix, archived stories included. Zero when none.
// The prefix match is exact and counted in characters.
func (s *SQLiteStore) MaxStoryNumber(ctx context.Context, userID, prefix string) (int, error) {
	var maxNum sql.NullInt64
	err := s.db.GetContext(ctx, &maxNum, `
		SELECT MAX(CAST(SUBSTR(number, LENGTH(?1) + 2) AS INTEGER))
		FROM stories
		WHERE user_id = ?2 AND SUBSTR(number, 1, LENGTH(?1) + 1) = ?1 || '-'`,
		prefix, userID)
	if err != nil {
		return 0, fmt.Errorf("reading max story number: %w", err)
	}
	return int(maxNum.Int64), nil
}

type querier interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

func (s *SQLiteStore) nextStoryPosition(ctx context.Context, q querier, userID, sprintID, excludeID string) (int, error) {
	var maxPos int
	err := q.GetContext(ctx, &maxPos,
		"SELECT COALESCE(MAX(position), 0) FROM stories WHERE user_id = ? AND sprint_id = ? AND id != ?",
		userID, sprintID, excludeID)
	if err != nil {
		return 0, fmt.Errorf("getting max story position: %w", err)
	}
	return maxPos + 1, nil
}
