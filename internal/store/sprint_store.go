package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/model"
)

// CreateSprint inserts a new sprint. Generates a UUID if ID is empty and
// defaults the position to max+1 within the user's sprints.
func (s *SQLiteStore) CreateSprint(ctx context.Context, sprint model.Sprint) (model.Sprint, error) {
	if strings.TrimSpace(sprint.Title) == "" {
		return model.Sprint{}, fmt.Errorf("sprint title must not be empty")
	}
	if sprint.UserID == "" {
		return model.Sprint{}, fmt.Errorf("sprint user must not be empty")
	}
	if sprint.ID == "" {
		sprint.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	sprint.CreatedAt = now
	sprint.UpdatedAt = now

	if sprint.Position == 0 && !sprint.IsSystem() {
		var maxPos int
		err := s.db.GetContext(ctx, &maxPos,
			"SELECT COALESCE(MAX(position), 0) FROM sprints WHERE user_id = ? AND is_backlog = 0 AND id != ?",
			sprint.UserID, model.PrioritySprintID)
		if err != nil {
			return model.Sprint{}, fmt.Errorf("getting max sprint position: %w", err)
		}
		sprint.Position = maxPos + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sprints (
			id, user_id, title, description, icon,
			is_backlog, is_draggable, position,
			created_at, updated_at, archived_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sprint.ID, sprint.UserID, sprint.Title, sprint.Description, sprint.Icon,
		boolToInt(sprint.IsBacklog), boolToInt(sprint.IsDraggable), sprint.Position,
		sprint.CreatedAt, sprint.UpdatedAt, sprint.ArchivedAt,
	)
	if err != nil {
		return model.Sprint{}, fmt.Errorf("creating sprint %s: %w", sprint.ID, classify(err))
	}

	s.publish("sprints", OpInsert, sprint.UserID, sprint.ID)
	return sprint, nil
}

// UpdateSprint updates the editable fields of a sprint.
func (s *SQLiteStore) UpdateSprint(ctx context.Context, sprint model.Sprint) error {
	if strings.TrimSpace(sprint.Title) == "" {
		return fmt.Errorf("sprint title must not be empty")
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE sprints SET
			title = ?, description = ?, icon = ?, updated_at = ?
		WHERE user_id = ? AND id = ?`,
		sprint.Title, sprint.Description, sprint.Icon, time.Now().UTC(),
		sprint.UserID, sprint.ID,
	)
	if err != nil {
		return fmt.Errorf("updating sprint %s: %w", sprint.ID, err)
	}
	if err := expectRow(result, "sprint", sprint.ID); err != nil {
		return err
	}

	s.publish("sprints", OpUpdate, sprint.UserID, sprint.ID)
	return nil
}

// DeleteSprint removes a sprint. Its stories, archived ones included, are
// removed by cascade.
func (s *SQLiteStore) DeleteSprint(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM sprints WHERE user_id = ? AND id = ?", userID, id)
	if err != nil {
		return fmt.Errorf("deleting sprint %s: %w", id, err)
	}
	if err := expectRow(result, "sprint", id); err != nil {
		return err
	}

	s.publish("sprints", OpDelete, userID, id)
	return nil
}

// GetSprint retrieves a single sprint without its stories.
func (s *SQLiteStore) GetSprint(ctx context.Context, userID, id string) (*model.Sprint, error) {
	var row sprintRow
	err := s.db.GetContext(ctx, &row,
		"SELECT * FROM sprints WHERE user_id = ? AND id = ?", userID, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sprint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting sprint %s: %w", id, err)
	}

	sprint, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

// GetSprints retrieves a user's sprints ordered by position. Rows that fail
// mapping are logged and skipped.
func (s *SQLiteStore) GetSprints(ctx context.Context, userID string, filter SprintFilter) ([]model.Sprint, error) {
	query := "SELECT * FROM sprints WHERE user_id = ?"
	args := []interface{}{userID}
	if filter.Archived != nil {
		if *filter.Archived {
			query += " AND archived_at IS NOT NULL"
		} else {
			query += " AND archived_at IS NULL"
		}
	}
	query += " ORDER BY position, created_at"

	var rows []sprintRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying sprints: %w", err)
	}

	sprints := make([]model.Sprint, 0, len(rows))
	for _, r := range rows {
		sprint, err := r.toModel()
		if err != nil {
			s.log.Warn("skipping sprint row", zap.Error(err))
			continue
		}
		sprints = append(sprints, sprint)
	}
	return sprints, nil
}

// ArchiveSprint soft-deletes a sprint. updated_at is left alone so a restore
// returns the sprint to its exact prior state.
func (s *SQLiteStore) ArchiveSprint(ctx context.Context, userID, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sprints SET archived_at = ? WHERE user_id = ? AND id = ?",
		at.UTC(), userID, id)
	if err != nil {
		return fmt.Errorf("archiving sprint %s: %w", id, err)
	}
	if err := expectRow(result, "sprint", id); err != nil {
		return err
	}

	s.publish("sprints", OpUpdate, userID, id)
	return nil
}

// RestoreSprint clears archived_at.
func (s *SQLiteStore) RestoreSprint(ctx context.Context, userID, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE sprints SET archived_at = NULL WHERE user_id = ? AND id = ?",
		userID, id)
	if err != nil {
		return fmt.Errorf("restoring sprint %s: %w", id, err)
	}
	if err := expectRow(result, "sprint", id); err != nil {
		return err
	}

	s.publish("sprints", OpUpdate, userID, id)
	return nil
}

// SetSprintPositions writes several sprint positions in one transaction.
func (s *SQLiteStore) SetSprintPositions(ctx context.Context, userID string, positions map[string]int) error {
	if len(positions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for id, pos := range positions {
		result, err := tx.ExecContext(ctx,
			"UPDATE sprints SET position = ?, updated_at = ? WHERE user_id = ? AND id = ?",
			pos, now, userID, id)
		if err != nil {
			return fmt.Errorf("positioning sprint %s: %w", id, err)
		}
		if err := expectRow(result, "sprint", id); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sprint positions: %w", err)
	}

	s.publish("sprints", OpUpdate, userID, "")
	return nil
}

// EnsureSystemSprint returns the user's priority or backlog sprint, creating
// it from the template when missing. A concurrent creator winning the race
// is detected through the unique constraint and its row is returned. The
// bool reports whether this call created the row.
func (s *SQLiteStore) EnsureSystemSprint(ctx context.Context, tmpl model.Sprint) (model.Sprint, bool, error) {
	if !tmpl.IsSystem() {
		return model.Sprint{}, false, fmt.Errorf("sprint %s is not a system sprint", tmpl.ID)
	}

	existing, err := s.findSystemSprint(ctx, tmpl)
	if err != nil {
		return model.Sprint{}, false, err
	}
	if existing != nil {
		if existing.IsArchived() {
			if err := s.RestoreSprint(ctx, existing.UserID, existing.ID); err != nil {
				return model.Sprint{}, false, err
			}
			existing.ArchivedAt = nil
		}
		return *existing, false, nil
	}

	tmpl.IsDraggable = false
	created, err := s.CreateSprint(ctx, tmpl)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, ErrDuplicate) {
		return model.Sprint{}, false, err
	}

	existing, err = s.findSystemSprint(ctx, tmpl)
	if err != nil {
		return model.Sprint{}, false, err
	}
	if existing == nil {
		return model.Sprint{}, false, fmt.Errorf("system sprint %s vanished after duplicate insert", tmpl.ID)
	}
	return *existing, false, nil
}

func (s *SQLiteStore) findSystemSprint(ctx context.Context, tmpl model.Sprint) (*model.Sprint, error) {
	query := "SELECT * FROM sprints WHERE user_id = ? AND is_backlog = 1"
	args := []interface{}{tmpl.UserID}
	if tmpl.IsPriority() {
		query = "SELECT * FROM sprints WHERE user_id = ? AND id = ?"
		args = append(args, model.PrioritySprintID)
	}

	var row sprintRow
	err := s.db.GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up system sprint: %w", err)
	}

	sprint, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &sprint, nil
}

func expectRow(result sql.Result, kind, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s: %w", kind, id, err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
