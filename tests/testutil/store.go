package testutil

import (
	"context"
	"testing"

	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}

	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})

	return s
}

// SeedSprint creates a user sprint for userID and fails the test on error.
func SeedSprint(t *testing.T, s store.Store, userID, title string) model.Sprint {
	t.Helper()

	sp, err := s.CreateSprint(context.Background(), model.Sprint{
		UserID: userID, Title: title, IsDraggable: true,
	})
	if err != nil {
		t.Fatalf("seeding sprint %q: %v", title, err)
	}
	return sp
}
