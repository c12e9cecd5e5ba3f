package board

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
	"github.com/nhle/sprint-board/tests/testutil"
)

const testUser = "user-1"

// recordingStore wraps a real store to inject failures and count calls.
type recordingStore struct {
	store.Store

	mu             sync.Mutex
	collisions     int
	createAttempts []string
	deletes        int
	blockCreate    chan struct{}
	getSprintErr   error
}

func (r *recordingStore) CreateStory(ctx context.Context, st model.Story) (model.Story, error) {
	r.mu.Lock()
	r.createAttempts = append(r.createAttempts, st.Number)
	inject := r.collisions > 0
	if inject {
		r.collisions--
	}
	block := r.blockCreate
	r.mu.Unlock()

	if block != nil {
		<-block
	}
	if inject {
		// A concurrent writer took this number first.
		if _, err := r.Store.CreateStory(ctx, model.Story{
			UserID: st.UserID, SprintID: st.SprintID, Number: st.Number, Title: "concurrent",
		}); err != nil {
			return model.Story{}, err
		}
		return r.Store.CreateStory(ctx, st)
	}
	return r.Store.CreateStory(ctx, st)
}

func (r *recordingStore) GetSprint(ctx context.Context, userID, id string) (*model.Sprint, error) {
	r.mu.Lock()
	err := r.getSprintErr
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return r.Store.GetSprint(ctx, userID, id)
}

func (r *recordingStore) DeleteSprint(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	r.deletes++
	r.mu.Unlock()
	return r.Store.DeleteSprint(ctx, userID, id)
}

func newBoard(t *testing.T, opts ...Option) (*Board, *recordingStore) {
	t.Helper()
	rs := &recordingStore{Store: testutil.NewTestStore(t)}
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed }), WithRandom(func(int) int { return 0 })}, opts...)
	b := New(rs, testUser, opts...)
	require.NoError(t, b.Load(context.Background(), true))
	return b, rs
}

func addSprint(t *testing.T, b *Board, title string) model.Sprint {
	t.Helper()
	sp, err := b.AddSprint(context.Background(), model.SprintInput{Title: title})
	require.NoError(t, err)
	return sp
}

func addStory(t *testing.T, b *Board, sprintID, title string) model.Story {
	t.Helper()
	st, err := b.AddStory(context.Background(), sprintID, model.StoryInput{Title: title})
	require.NoError(t, err)
	return st
}

func backlogID(t *testing.T, b *Board) string {
	t.Helper()
	bl, ok := b.View().Backlog()
	require.True(t, ok)
	return bl.ID
}
