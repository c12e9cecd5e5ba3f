package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nhle/sprint-board/internal/model"
)

// GetUserSettings returns the user's settings, or ErrNotFound when the user
// has never saved any.
func (s *SQLiteStore) GetUserSettings(ctx context.Context, userID string) (*model.UserSettings, error) {
	var us model.UserSettings
	err := s.db.GetContext(ctx, &us,
		"SELECT user_id, display_name, story_prefix, updated_at FROM user_settings WHERE user_id = ?",
		userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("settings for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting settings for %s: %w", userID, err)
	}
	return &us, nil
}

// SaveUserSettings inserts or replaces the user's settings.
func (s *SQLiteStore) SaveUserSettings(ctx context.Context, us model.UserSettings) error {
	if us.UserID == "" {
		return fmt.Errorf("settings user must not be empty")
	}
	if us.StoryPrefix == "" {
		us.StoryPrefix = model.DefaultStoryPrefix
	}
	if err := model.Validate(us); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO user_settings (user_id, display_name, story_prefix, updated_at)
		VALUES (?, ?, ?, ?)`,
		us.UserID, us.DisplayName, us.StoryPrefix, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", us.UserID, err)
	}

	s.publish("user_settings", OpUpdate, us.UserID, us.UserID)
	return nil
}

// GetUserRole returns the user's role, or ErrNotFound when none is assigned.
func (s *SQLiteStore) GetUserRole(ctx context.Context, userID string) (model.Role, error) {
	var role string
	err := s.db.GetContext(ctx, &role,
		"SELECT role FROM user_roles WHERE user_id = ?", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("role for %s: %w", userID, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("getting role for %s: %w", userID, err)
	}

	r := model.Role(role)
	if !r.Valid() {
		return "", &RowError{Table: "user_roles", ID: userID, Reason: "unknown role " + role}
	}
	return r, nil
}

// SetUserRole assigns a role to a user.
func (s *SQLiteStore) SetUserRole(ctx context.Context, userID string, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO user_roles (user_id, role, updated_at) VALUES (?, ?, ?)",
		userID, string(role), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("setting role for %s: %w", userID, err)
	}

	s.publish("user_roles", OpUpdate, userID, userID)
	return nil
}
