package board

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
)

// CloseMode selects which stories CloseSprint archives.
type CloseMode string

const (
	CloseCompleted CloseMode = "completed"
	CloseAll       CloseMode = "all"
)

// ParseCloseMode validates a close mode string.
func ParseCloseMode(s string) (CloseMode, error) {
	switch m := CloseMode(s); m {
	case CloseCompleted, CloseAll:
		return m, nil
	}
	return "", fmt.Errorf("unknown close mode %q", s)
}

// CloseSprint archives the completed stories of a sprint, or all of them
// with CloseAll. It returns how many stories were archived.
func (b *Board) CloseSprint(ctx context.Context, sprintID string, mode CloseMode) (int, error) {
	done, err := b.begin(Key(OpCloseSprint, sprintID))
	if err != nil {
		return 0, b.fail(OpCloseSprint, err)
	}
	defer done()

	if _, err := ParseCloseMode(string(mode)); err != nil {
		return 0, b.fail(OpCloseSprint, err)
	}
	if _, err := b.store.GetSprint(ctx, b.userID, sprintID); err != nil {
		return 0, b.fail(OpCloseSprint, err)
	}

	n, err := b.store.ArchiveSprintStories(ctx, b.userID, sprintID, mode == CloseCompleted, b.now())
	if err != nil {
		return 0, b.fail(OpCloseSprint, err)
	}

	b.log.Info("sprint closed", zap.String("sprint", sprintID), zap.String("mode", string(mode)), zap.Int("archived", n))
	b.refresh(ctx)
	return n, nil
}

// AddSprint creates a user sprint after the existing ones. System sprints
// are never created here.
func (b *Board) AddSprint(ctx context.Context, in model.SprintInput) (model.Sprint, error) {
	done, err := b.begin(OpAddSprint)
	if err != nil {
		return model.Sprint{}, b.fail(OpAddSprint, err)
	}
	defer done()

	if err := model.Validate(in); err != nil {
		return model.Sprint{}, b.fail(OpAddSprint, err)
	}

	sp, err := b.store.CreateSprint(ctx, model.Sprint{
		UserID:      b.userID,
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
		IsDraggable: true,
	})
	if err != nil {
		return model.Sprint{}, b.fail(OpAddSprint, err)
	}

	b.log.Info("sprint added", zap.String("sprint", sp.ID))
	b.refresh(ctx)
	return sp, nil
}

// UpdateSprint replaces the editable fields of any sprint, system sprints
// included.
func (b *Board) UpdateSprint(ctx context.Context, sprintID string, in model.SprintInput) error {
	done, err := b.begin(Key(OpUpdateSprint, sprintID))
	if err != nil {
		return b.fail(OpUpdateSprint, err)
	}
	defer done()

	if err := model.Validate(in); err != nil {
		return b.fail(OpUpdateSprint, err)
	}

	err = b.store.UpdateSprint(ctx, model.Sprint{
		ID:          sprintID,
		UserID:      b.userID,
		Title:       in.Title,
		Description: in.Description,
		Icon:        in.Icon,
	})
	if err != nil {
		return b.fail(OpUpdateSprint, err)
	}

	b.refresh(ctx)
	return nil
}

// guardUserSprint loads sprintID and rejects system sprints.
func (b *Board) guardUserSprint(ctx context.Context, sprintID string) (*model.Sprint, error) {
	if sprintID == model.PrioritySprintID {
		return nil, fmt.Errorf("sprint %s: %w", sprintID, ErrProtectedSprint)
	}
	sp, err := b.store.GetSprint(ctx, b.userID, sprintID)
	if err != nil {
		return nil, err
	}
	if sp.IsSystem() {
		return nil, fmt.Errorf("sprint %s: %w", sprintID, ErrProtectedSprint)
	}
	return sp, nil
}

// DeleteSprint permanently removes a user sprint that owns no stories.
func (b *Board) DeleteSprint(ctx context.Context, sprintID string) error {
	done, err := b.begin(Key(OpDeleteSprint, sprintID))
	if err != nil {
		return b.fail(OpDeleteSprint, err)
	}
	defer done()

	if _, err := b.guardUserSprint(ctx, sprintID); err != nil {
		return b.fail(OpDeleteSprint, err)
	}

	n, err := b.store.CountStories(ctx, b.userID, sprintID)
	if err != nil {
		return b.fail(OpDeleteSprint, err)
	}
	if !layout.PolicyFor(layout.RoleUser, n).Deletable {
		return b.fail(OpDeleteSprint, fmt.Errorf("sprint %s has %d stories: %w", sprintID, n, ErrSprintNotEmpty))
	}

	if err := b.store.DeleteSprint(ctx, b.userID, sprintID); err != nil {
		return b.fail(OpDeleteSprint, err)
	}

	b.log.Info("sprint deleted", zap.String("sprint", sprintID))
	b.refresh(ctx)
	return nil
}

// ArchiveSprint soft-deletes a user sprint together with the view of its
// stories.
func (b *Board) ArchiveSprint(ctx context.Context, sprintID string) error {
	done, err := b.begin(Key(OpArchiveSprint, sprintID))
	if err != nil {
		return b.fail(OpArchiveSprint, err)
	}
	defer done()

	if _, err := b.guardUserSprint(ctx, sprintID); err != nil {
		return b.fail(OpArchiveSprint, err)
	}
	if err := b.store.ArchiveSprint(ctx, b.userID, sprintID, b.now()); err != nil {
		return b.fail(OpArchiveSprint, err)
	}

	b.refresh(ctx)
	return nil
}

// RestoreSprint brings an archived sprint back to the board.
func (b *Board) RestoreSprint(ctx context.Context, sprintID string) error {
	done, err := b.begin(Key(OpRestoreSprint, sprintID))
	if err != nil {
		return b.fail(OpRestoreSprint, err)
	}
	defer done()

	if err := b.store.RestoreSprint(ctx, b.userID, sprintID); err != nil {
		return b.fail(OpRestoreSprint, err)
	}

	b.refresh(ctx)
	return nil
}

// MoveSprint moves a user sprint to index newPosition among the user
// sprints (0-based, clamped) and renumbers them.
func (b *Board) MoveSprint(ctx context.Context, sprintID string, newPosition int) error {
	done, err := b.begin(Key(OpMoveSprint, sprintID))
	if err != nil {
		return b.fail(OpMoveSprint, err)
	}
	defer done()

	if _, err := b.guardUserSprint(ctx, sprintID); err != nil {
		return b.fail(OpMoveSprint, err)
	}

	if err := b.Load(ctx, true); err != nil {
		return err
	}
	updates, err := layout.Reorder(b.View().Sprints, sprintID, newPosition)
	if errors.Is(err, layout.ErrNotDraggable) {
		err = fmt.Errorf("%w: %w", ErrProtectedSprint, err)
	}
	if err != nil {
		return b.fail(OpMoveSprint, err)
	}

	positions := make(map[string]int, len(updates))
	for _, u := range updates {
		positions[u.SprintID] = u.Position
	}
	if err := b.store.SetSprintPositions(ctx, b.userID, positions); err != nil {
		return b.fail(OpMoveSprint, err)
	}

	b.refresh(ctx)
	return nil
}
