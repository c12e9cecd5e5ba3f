package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

func TestUserSettings(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetUserSettings(ctx, testUser)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SaveUserSettings(ctx, model.UserSettings{UserID: testUser, DisplayName: "Ada"}))
	us, err := s.GetUserSettings(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "Ada", us.DisplayName)
	assert.Equal(t, model.DefaultStoryPrefix, us.StoryPrefix)

	require.NoError(t, s.SaveUserSettings(ctx, model.UserSettings{UserID: testUser, StoryPrefix: "TASK"}))
	us, err = s.GetUserSettings(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "TASK", us.StoryPrefix)

	err = s.SaveUserSettings(ctx, model.UserSettings{UserID: testUser, StoryPrefix: "NO GOOD"})
	require.Error(t, err)
	assert.True(t, model.IsValidationError(err))
	us, err = s.GetUserSettings(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, "TASK", us.StoryPrefix)
}

func TestUserRoles(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.GetUserRole(ctx, testUser)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.SetUserRole(ctx, testUser, model.RoleViewer))
	role, err := s.GetUserRole(ctx, testUser)
	require.NoError(t, err)
	assert.Equal(t, model.RoleViewer, role)
	assert.False(t, role.CanWrite())

	assert.Error(t, s.SetUserRole(ctx, testUser, model.Role("admin")))
}
