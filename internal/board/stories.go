package board

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

// AddStory creates a story at the end of sprintID.
func (b *Board) AddStory(ctx context.Context, sprintID string, in model.StoryInput) (model.Story, error) {
	done, err := b.begin(Key(OpAddStory, sprintID))
	if err != nil {
		return model.Story{}, b.fail(OpAddStory, err)
	}
	defer done()

	st, err := b.addStory(ctx, sprintID, in, "")
	if err != nil {
		return model.Story{}, b.fail(OpAddStory, err)
	}

	b.log.Info("story added", zap.String("story", st.Number), zap.String("sprint", sprintID))
	b.refresh(ctx)
	return st, nil
}

func (b *Board) addStory(ctx context.Context, sprintID string, in model.StoryInput, externalRef string) (model.Story, error) {
	in.Tags = model.NormalizeTags(in.Tags)
	if err := model.Validate(in); err != nil {
		return model.Story{}, err
	}

	sp, err := b.store.GetSprint(ctx, b.userID, sprintID)
	if err != nil {
		return model.Story{}, err
	}
	if sp.IsArchived() {
		return model.Story{}, fmt.Errorf("sprint %s is archived", sprintID)
	}

	return b.createNumbered(ctx, model.Story{
		UserID:      b.userID,
		SprintID:    sprintID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Date:        in.Date,
		ExternalRef: externalRef,
	})
}

// UpdateStory replaces the editable fields of a story.
func (b *Board) UpdateStory(ctx context.Context, storyID string, in model.StoryInput) error {
	done, err := b.begin(Key(OpUpdateStory, storyID))
	if err != nil {
		return b.fail(OpUpdateStory, err)
	}
	defer done()

	in.Tags = model.NormalizeTags(in.Tags)
	if err := model.Validate(in); err != nil {
		return b.fail(OpUpdateStory, err)
	}

	err = b.store.UpdateStory(ctx, model.Story{
		ID:          storyID,
		UserID:      b.userID,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Date:        in.Date,
	})
	if err != nil {
		return b.fail(OpUpdateStory, err)
	}

	b.refresh(ctx)
	return nil
}

// ToggleStory flips a story's completion state and returns the new state.
func (b *Board) ToggleStory(ctx context.Context, storyID string) (bool, error) {
	done, err := b.begin(Key(OpToggleStory, storyID))
	if err != nil {
		return false, b.fail(OpToggleStory, err)
	}
	defer done()

	st, err := b.store.GetStory(ctx, b.userID, storyID)
	if err != nil {
		return false, b.fail(OpToggleStory, err)
	}

	completed := !st.Completed
	if err := b.store.SetStoryCompleted(ctx, b.userID, storyID, completed, b.now()); err != nil {
		return false, b.fail(OpToggleStory, err)
	}

	b.refresh(ctx)
	return completed, nil
}

// MoveStory re-parents a story into targetSprintID. A nil position appends
// it to the end of the target; otherwise position is the 1-based slot.
func (b *Board) MoveStory(ctx context.Context, storyID, targetSprintID string, position *int) error {
	done, err := b.begin(Key(OpMoveStory, storyID))
	if err != nil {
		return b.fail(OpMoveStory, err)
	}
	defer done()

	pos := 0
	if position != nil {
		pos = max(*position, 1)
	}

	target, err := b.store.GetSprint(ctx, b.userID, targetSprintID)
	if err != nil {
		return b.fail(OpMoveStory, err)
	}
	if target.IsArchived() {
		return b.fail(OpMoveStory, fmt.Errorf("sprint %s is archived", targetSprintID))
	}

	if err := b.store.MoveStory(ctx, b.userID, storyID, targetSprintID, pos); err != nil {
		return b.fail(OpMoveStory, err)
	}

	b.refresh(ctx)
	return nil
}

// ArchiveStory soft-deletes a story.
func (b *Board) ArchiveStory(ctx context.Context, storyID string) error {
	done, err := b.begin(Key(OpArchiveStory, storyID))
	if err != nil {
		return b.fail(OpArchiveStory, err)
	}
	defer done()

	if err := b.store.ArchiveStory(ctx, b.userID, storyID, b.now()); err != nil {
		return b.fail(OpArchiveStory, err)
	}

	b.refresh(ctx)
	return nil
}

// RestoreStory brings an archived story back. When its sprint is itself
// archived the story is moved to the backlog so it stays visible.
func (b *Board) RestoreStory(ctx context.Context, storyID string) error {
	done, err := b.begin(Key(OpRestoreStory, storyID))
	if err != nil {
		return b.fail(OpRestoreStory, err)
	}
	defer done()

	st, err := b.store.GetStory(ctx, b.userID, storyID)
	if err != nil {
		return b.fail(OpRestoreStory, err)
	}

	var orphaned bool
	sp, err := b.store.GetSprint(ctx, b.userID, st.SprintID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		orphaned = true
	case err != nil:
		return b.fail(OpRestoreStory, err)
	default:
		orphaned = sp.IsArchived()
	}

	if orphaned {
		backlog, _, err := b.store.EnsureSystemSprint(ctx, model.Sprint{
			UserID: b.userID, Title: model.BacklogSprintTitle, Icon: model.BacklogSprintIcon, IsBacklog: true,
		})
		if err != nil {
			return b.fail(OpRestoreStory, err)
		}
		if err := b.store.MoveStory(ctx, b.userID, storyID, backlog.ID, 0); err != nil {
			return b.fail(OpRestoreStory, err)
		}
	}
	if err := b.store.RestoreStory(ctx, b.userID, storyID); err != nil {
		return b.fail(OpRestoreStory, err)
	}

	b.refresh(ctx)
	return nil
}

// DeleteStory permanently removes a story.
func (b *Board) DeleteStory(ctx context.Context, storyID string) error {
	done, err := b.begin(Key(OpDeleteStory, storyID))
	if err != nil {
		return b.fail(OpDeleteStory, err)
	}
	defer done()

	if err := b.store.DeleteStory(ctx, b.userID, storyID); err != nil {
		return b.fail(OpDeleteStory, err)
	}

	b.refresh(ctx)
	return nil
}

// ImportStories adds intake items to the backlog, skipping items whose
// external reference is already on file. It returns how many were added.
func (b *Board) ImportStories(ctx context.Context, items []model.IntakeItem) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}
	done, err := b.begin(OpImport)
	if err != nil {
		return 0, b.fail(OpImport, err)
	}
	defer done()

	backlog, _, err := b.store.EnsureSystemSprint(ctx, model.Sprint{
		UserID: b.userID, Title: model.BacklogSprintTitle, Icon: model.BacklogSprintIcon, IsBacklog: true,
	})
	if err != nil {
		return 0, b.fail(OpImport, err)
	}

	added := 0
	var errs []error
	for _, item := range items {
		if item.ExternalRef != "" {
			ref := item.ExternalRef
			existing, err := b.store.GetStories(ctx, store.StoryFilter{UserID: b.userID, ExternalRef: &ref})
			if err != nil {
				errs = append(errs, err)
				continue
			}
			if len(existing) > 0 {
				continue
			}
		}

		in := model.StoryInput{
			Title:       truncate(item.Title, 200),
			Description: truncate(item.Description, 5000),
			Tags:        clampTags(item.Tags),
		}
		if _, err := b.addStory(ctx, backlog.ID, in, item.ExternalRef); err != nil {
			errs = append(errs, fmt.Errorf("importing %s: %w", item.ExternalRef, err))
			continue
		}
		added++
	}

	if added > 0 {
		b.log.Info("imported stories", zap.Int("count", added))
		b.refresh(ctx)
	}
	if len(errs) > 0 {
		return added, b.fail(OpImport, errors.Join(errs...))
	}
	return added, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clampTags(tags []string) []string {
	tags = model.NormalizeTags(tags)
	if len(tags) > 20 {
		tags = tags[:20]
	}
	for i, t := range tags {
		tags[i] = truncate(t, 32)
	}
	return tags
}
