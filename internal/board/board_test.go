package board

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

func TestLoadCreatesSystemSprintsOnce(t *testing.T) {
	ctx := context.Background()
	b, rs := newBoard(t)

	v := b.View()
	require.Len(t, v.Sprints, 2)
	assert.Equal(t, layout.RolePriority, v.Sprints[0].Role)
	assert.Equal(t, layout.RoleBacklog, v.Sprints[1].Role)
	assert.EqualValues(t, 1, v.Version)

	for i := 0; i < 3; i++ {
		require.NoError(t, b.Load(ctx, true))
	}
	sprints, err := rs.GetSprints(ctx, testUser, store.SprintFilter{})
	require.NoError(t, err)
	assert.Len(t, sprints, 2)

	backlogs := 0
	for _, s := range sprints {
		if s.IsBacklog {
			backlogs++
		}
	}
	assert.Equal(t, 1, backlogs)
}

func TestLoadSkipsWhenFresh(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	version := b.View().Version

	require.NoError(t, b.Load(ctx, false))
	assert.Equal(t, version, b.View().Version)

	require.NoError(t, b.Load(ctx, true))
	assert.Equal(t, version+1, b.View().Version)
}

func TestBoardOrderAndGrid(t *testing.T) {
	b, _ := newBoard(t)
	a := addSprint(t, b, "Sprint A")
	c := addSprint(t, b, "Sprint C")

	v := b.View()
	require.Len(t, v.Sprints, 4)
	assert.Equal(t, model.PrioritySprintID, v.Sprints[0].ID)
	assert.Equal(t, a.ID, v.Sprints[1].ID)
	assert.Equal(t, c.ID, v.Sprints[2].ID)
	assert.True(t, v.Sprints[3].IsBacklog)

	require.Len(t, v.Grid.Rows, 2)
	assert.True(t, v.Grid.Rows[1][1].Filler)
	require.NotNil(t, v.Grid.Backlog)
}

func TestAddStoryNumbersSequentially(t *testing.T) {
	b, _ := newBoard(t)
	bl := backlogID(t, b)

	first := addStory(t, b, bl, "one")
	second := addStory(t, b, bl, "two")
	assert.Equal(t, "STORY-001", first.Number)
	assert.Equal(t, "STORY-002", second.Number)

	v := b.View()
	backlog, _ := v.Backlog()
	require.Len(t, backlog.Stories, 2)
	assert.Equal(t, first.ID, backlog.Stories[0].ID)
	assert.Equal(t, second.ID, backlog.Stories[1].ID)
}

func TestAddStoryUsesSavedPrefix(t *testing.T) {
	ctx := context.Background()
	b, rs := newBoard(t, WithStoryPrefix("TASK"))
	bl := backlogID(t, b)

	assert.Equal(t, "TASK-001", addStory(t, b, bl, "default prefix").Number)

	require.NoError(t, rs.SaveUserSettings(ctx, model.UserSettings{UserID: testUser, StoryPrefix: "BUG"}))
	assert.Equal(t, "BUG-001", addStory(t, b, bl, "saved prefix").Number)
}

func TestAddStoryRetriesOnCollision(t *testing.T) {
	b, rs := newBoard(t)
	bl := backlogID(t, b)
	addStory(t, b, bl, "existing")

	rs.collisions = 2
	st, err := b.AddStory(context.Background(), bl, model.StoryInput{Title: "new"})
	require.NoError(t, err)

	assert.Len(t, rs.createAttempts, 4)
	seen := map[string]bool{}
	backlog, _ := b.View().Backlog()
	for _, s := range backlog.Stories {
		assert.False(t, seen[s.Number], "duplicate number %s", s.Number)
		seen[s.Number] = true
	}
	assert.True(t, seen[st.Number])
	assert.Len(t, backlog.Stories, 4)
}

func TestAddStoryGivesUpAfterBudget(t *testing.T) {
	b, rs := newBoard(t, WithNumberAttempts(2))
	bl := backlogID(t, b)
	rs.collisions = 5

	_, err := b.AddStory(context.Background(), bl, model.StoryInput{Title: "new"})
	assert.ErrorIs(t, err, ErrNumberCollision)
	assert.NotEmpty(t, b.LastError())
}

func TestAddStoryValidation(t *testing.T) {
	b, rs := newBoard(t)
	bl := backlogID(t, b)

	_, err := b.AddStory(context.Background(), bl, model.StoryInput{Title: ""})
	assert.True(t, model.IsValidationError(err))
	assert.Contains(t, b.LastError(), "title is required")
	assert.Empty(t, rs.createAttempts)

	b.ClearError()
	assert.Empty(t, b.LastError())
}

func TestToggleStory(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	st := addStory(t, b, backlogID(t, b), "toggle me")

	done, err := b.ToggleStory(ctx, st.ID)
	require.NoError(t, err)
	assert.True(t, done)
	got, _ := b.View().Story(st.ID)
	assert.True(t, got.Completed)
	require.NotNil(t, got.CompletedAt)

	done, err = b.ToggleStory(ctx, st.ID)
	require.NoError(t, err)
	assert.False(t, done)
	got, _ = b.View().Story(st.ID)
	assert.Nil(t, got.CompletedAt)
}

func TestMoveStoryAppendsByDefault(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	sp := addSprint(t, b, "Sprint")
	existing := addStory(t, b, sp.ID, "existing")
	mover := addStory(t, b, backlogID(t, b), "mover")

	require.NoError(t, b.MoveStory(ctx, mover.ID, sp.ID, nil))

	target, _ := b.View().Sprint(sp.ID)
	require.Len(t, target.Stories, 2)
	assert.Equal(t, existing.ID, target.Stories[0].ID)
	assert.Equal(t, mover.ID, target.Stories[1].ID)

	first := 1
	require.NoError(t, b.MoveStory(ctx, mover.ID, sp.ID, &first))
	target, _ = b.View().Sprint(sp.ID)
	assert.Equal(t, mover.ID, target.Stories[0].ID)

	backlog, _ := b.View().Backlog()
	assert.Empty(t, backlog.Stories)
}

func TestArchiveRestoreStory(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	st := addStory(t, b, backlogID(t, b), "archive me")

	require.NoError(t, b.ArchiveStory(ctx, st.ID))
	_, ok := b.View().Story(st.ID)
	assert.False(t, ok)

	arch, err := b.Archived(ctx)
	require.NoError(t, err)
	require.Len(t, arch.Stories, 1)

	require.NoError(t, b.RestoreStory(ctx, st.ID))
	restored, ok := b.View().Story(st.ID)
	require.True(t, ok)
	assert.Nil(t, restored.ArchivedAt)
	assert.Equal(t, st.Number, restored.Number)
	assert.Equal(t, st.Title, restored.Title)
}

func TestRestoreStoryOfArchivedSprintLandsInBacklog(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	sp := addSprint(t, b, "Temp")
	st := addStory(t, b, sp.ID, "orphan")

	require.NoError(t, b.ArchiveStory(ctx, st.ID))
	require.NoError(t, b.ArchiveSprint(ctx, sp.ID))
	require.NoError(t, b.RestoreStory(ctx, st.ID))

	backlog, _ := b.View().Backlog()
	require.Len(t, backlog.Stories, 1)
	assert.Equal(t, st.ID, backlog.Stories[0].ID)
}

func TestRestoreStoryKeepsSprintOnReadError(t *testing.T) {
	ctx := context.Background()
	b, rs := newBoard(t)
	sp := addSprint(t, b, "Sprint 1")
	st := addStory(t, b, sp.ID, "stay put")
	require.NoError(t, b.ArchiveStory(ctx, st.ID))

	rs.mu.Lock()
	rs.getSprintErr = errors.New("database is locked")
	rs.mu.Unlock()

	err := b.RestoreStory(ctx, st.ID)
	require.Error(t, err)
	assert.NotErrorIs(t, err, store.ErrNotFound)

	got, err := rs.Store.GetStory(ctx, testUser, st.ID)
	require.NoError(t, err)
	assert.Equal(t, sp.ID, got.SprintID)
	assert.NotNil(t, got.ArchivedAt, "story stays archived when the restore fails")
}

func TestRestoreStoryOfDeletedSprintLandsInBacklog(t *testing.T) {
	ctx := context.Background()
	b, rs := newBoard(t)
	st := addStory(t, b, backlogID(t, b), "lost sprint")
	require.NoError(t, b.ArchiveStory(ctx, st.ID))

	rs.mu.Lock()
	rs.getSprintErr = fmt.Errorf("sprint x: %w", store.ErrNotFound)
	rs.mu.Unlock()

	require.NoError(t, b.RestoreStory(ctx, st.ID))
	got, ok := b.View().Story(st.ID)
	require.True(t, ok)
	assert.Equal(t, backlogID(t, b), got.SprintID)
}

func TestDeleteStory(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	st := addStory(t, b, backlogID(t, b), "gone")

	require.NoError(t, b.DeleteStory(ctx, st.ID))
	_, ok := b.View().Story(st.ID)
	assert.False(t, ok)

	err := b.DeleteStory(ctx, st.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotEmpty(t, b.LastError())
}

func TestCloseSprint(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	sp := addSprint(t, b, "Sprint")
	done := addStory(t, b, sp.ID, "done")
	addStory(t, b, sp.ID, "open")
	_, err := b.ToggleStory(ctx, done.ID)
	require.NoError(t, err)

	n, err := b.CloseSprint(ctx, sp.ID, CloseCompleted)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _ := b.View().Sprint(sp.ID)
	assert.Len(t, got.Stories, 1)

	n, err = b.CloseSprint(ctx, sp.ID, CloseAll)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, _ = b.View().Sprint(sp.ID)
	assert.Empty(t, got.Stories)
	assert.True(t, got.Policy.Deletable)

	_, err = b.CloseSprint(ctx, sp.ID, CloseMode("some"))
	assert.Error(t, err)
}

func TestDeleteSprintGuards(t *testing.T) {
	ctx := context.Background()
	b, rs := newBoard(t)
	bl := backlogID(t, b)

	for _, id := range []string{model.PrioritySprintID, bl} {
		err := b.DeleteSprint(ctx, id)
		assert.ErrorIs(t, err, ErrProtectedSprint)
	}
	assert.Zero(t, rs.deletes, "guarded deletes never reach the store")

	sp := addSprint(t, b, "Busy")
	addStory(t, b, sp.ID, "blocking")
	assert.ErrorIs(t, b.DeleteSprint(ctx, sp.ID), ErrSprintNotEmpty)
	assert.Zero(t, rs.deletes)

	empty := addSprint(t, b, "Empty")
	require.NoError(t, b.DeleteSprint(ctx, empty.ID))
	assert.Equal(t, 1, rs.deletes)
	_, ok := b.View().Sprint(empty.ID)
	assert.False(t, ok)

	v := b.View()
	assert.Equal(t, model.PrioritySprintID, v.Sprints[0].ID)
	assert.True(t, v.Sprints[len(v.Sprints)-1].IsBacklog)
}

func TestArchiveSprintGuards(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)

	assert.ErrorIs(t, b.ArchiveSprint(ctx, model.PrioritySprintID), ErrProtectedSprint)
	assert.ErrorIs(t, b.ArchiveSprint(ctx, backlogID(t, b)), ErrProtectedSprint)

	sp := addSprint(t, b, "Old")
	addStory(t, b, sp.ID, "hidden with it")
	require.NoError(t, b.ArchiveSprint(ctx, sp.ID))
	_, ok := b.View().Sprint(sp.ID)
	assert.False(t, ok)

	require.NoError(t, b.RestoreSprint(ctx, sp.ID))
	got, ok := b.View().Sprint(sp.ID)
	require.True(t, ok)
	assert.Len(t, got.Stories, 1)
}

func TestMoveSprint(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)
	a := addSprint(t, b, "A")
	bb := addSprint(t, b, "B")
	c := addSprint(t, b, "C")

	require.NoError(t, b.MoveSprint(ctx, c.ID, 0))

	v := b.View()
	var got []string
	for _, s := range v.Sprints {
		if s.Role == layout.RoleUser {
			got = append(got, s.ID)
		}
	}
	assert.Equal(t, []string{c.ID, a.ID, bb.ID}, got)

	assert.ErrorIs(t, b.MoveSprint(ctx, model.PrioritySprintID, 1), ErrProtectedSprint)
	assert.ErrorIs(t, b.MoveSprint(ctx, backlogID(t, b), 0), ErrProtectedSprint)
}

func TestInFlightOperationsAreRejected(t *testing.T) {
	b, rs := newBoard(t)
	bl := backlogID(t, b)

	rs.mu.Lock()
	rs.blockCreate = make(chan struct{})
	rs.mu.Unlock()

	errc := make(chan error, 1)
	go func() {
		_, err := b.AddStory(context.Background(), bl, model.StoryInput{Title: "slow"})
		errc <- err
	}()

	key := Key(OpAddStory, bl)
	require.Eventually(t, func() bool { return b.Loading(key) }, 2*time.Second, 5*time.Millisecond)
	assert.Contains(t, b.Pending(), key)

	_, err := b.AddStory(context.Background(), bl, model.StoryInput{Title: "again"})
	assert.ErrorIs(t, err, ErrInFlight)

	close(rs.blockCreate)
	require.NoError(t, <-errc)
	assert.False(t, b.Loading(key))
}

func TestImportStoriesSkipsKnownRefs(t *testing.T) {
	ctx := context.Background()
	b, _ := newBoard(t)

	items := []model.IntakeItem{
		{ExternalRef: "jira:PROJ-1", Title: "Fix login", Tags: []string{"jira"}},
		{ExternalRef: "jira:PROJ-2", Title: "Add logout"},
	}
	n, err := b.ImportStories(ctx, items)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = b.ImportStories(ctx, items)
	require.NoError(t, err)
	assert.Zero(t, n)

	backlog, _ := b.View().Backlog()
	require.Len(t, backlog.Stories, 2)
	assert.Equal(t, "jira:PROJ-1", backlog.Stories[0].ExternalRef)
}

func TestSubscribeReceivesViews(t *testing.T) {
	b, _ := newBoard(t)
	views, cancel := b.Subscribe()
	defer cancel()

	addSprint(t, b, "New")

	select {
	case v := <-views:
		assert.Len(t, v.Sprints, 3)
	case <-time.After(time.Second):
		t.Fatal("no view published")
	}
}

func TestRunReloadsOnExternalChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	b, rs := newBoard(t)

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	require.Eventually(t, func() bool { return rs.Changes().Subscribers() > 0 }, time.Second, 5*time.Millisecond)

	// A write that bypasses the board, as another process would make.
	_, err := rs.CreateSprint(context.Background(), model.Sprint{UserID: testUser, Title: "Elsewhere"})
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(b.View().Sprints) == 3 }, 2*time.Second, 10*time.Millisecond)

	// Other users' writes are ignored.
	version := b.View().Version
	_, err = rs.CreateSprint(context.Background(), model.Sprint{UserID: "someone-else", Title: "Theirs"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, version, b.View().Version)
}
