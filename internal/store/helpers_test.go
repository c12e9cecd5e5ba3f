package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
)

const testUser = "user-1"

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mustSprint(t *testing.T, s *SQLiteStore, title string) model.Sprint {
	t.Helper()
	sp, err := s.CreateSprint(context.Background(), model.Sprint{
		UserID: testUser, Title: title, IsDraggable: true,
	})
	require.NoError(t, err)
	return sp
}

func mustStory(t *testing.T, s *SQLiteStore, sprintID, number string) model.Story {
	t.Helper()
	st, err := s.CreateStory(context.Background(), model.Story{
		UserID: testUser, SprintID: sprintID, Number: number, Title: "Story " + number,
	})
	require.NoError(t, err)
	return st
}

func ptr[T any](v T) *T { return &v }
