package board

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

// Load fetches the board and publishes a new view. Without forceRefresh the
// fetch is skipped when no change was observed since the last load. Loads
// are serialized; the last one to finish wins.
func (b *Board) Load(ctx context.Context, forceRefresh bool) error {
	if !forceRefresh {
		b.mu.RLock()
		fresh := !b.stale && b.view.Version > 0
		b.mu.RUnlock()
		if fresh {
			return nil
		}
	}

	done := b.track(OpLoad)
	defer done()

	b.loadMu.Lock()
	defer b.loadMu.Unlock()

	ordered, err := b.fetch(ctx)
	if err != nil {
		return b.fail(OpLoad, err)
	}

	v := b.publish(ordered)
	b.log.Debug("board loaded",
		zap.Uint64("version", v.Version),
		zap.Int("sprints", len(v.Sprints)),
		zap.Int("stories", v.StoryCount()))
	return nil
}

// refresh reloads after a successful mutation. A failed reload is recorded
// in the error slot but does not fail the mutation.
func (b *Board) refresh(ctx context.Context) {
	b.markStale()
	_ = b.Load(ctx, true)
}

func (b *Board) markStale() {
	b.mu.Lock()
	b.stale = true
	b.mu.Unlock()
}

// EnsureSystemSprints creates the priority and backlog sprints when missing.
func (b *Board) EnsureSystemSprints(ctx context.Context) error {
	templates := []model.Sprint{
		{
			ID:     model.PrioritySprintID,
			UserID: b.userID,
			Title:  model.PrioritySprintTitle,
			Icon:   model.PrioritySprintIcon,
		},
		{
			UserID:    b.userID,
			Title:     model.BacklogSprintTitle,
			Icon:      model.BacklogSprintIcon,
			IsBacklog: true,
		},
	}
	for _, tmpl := range templates {
		sp, created, err := b.store.EnsureSystemSprint(ctx, tmpl)
		if err != nil {
			return fmt.Errorf("ensuring %s sprint: %w", tmpl.Title, err)
		}
		if created {
			b.log.Info("created system sprint", zap.String("sprint", sp.ID), zap.String("title", sp.Title))
		}
	}
	return nil
}

func (b *Board) fetch(ctx context.Context) ([]layout.OrderedSprint, error) {
	if err := b.EnsureSystemSprints(ctx); err != nil {
		return nil, err
	}

	active := false
	var (
		sprints []model.Sprint
		stories []model.Story
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sprints, err = b.store.GetSprints(gctx, b.userID, store.SprintFilter{Archived: &active})
		return err
	})
	g.Go(func() error {
		var err error
		stories, err = b.store.GetStories(gctx, store.StoryFilter{UserID: b.userID, Archived: &active})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	attachStories(sprints, stories)
	return layout.ClassifyAndOrder(sprints)
}

// attachStories joins stories into their owning sprints, keeping store
// order. Stories of sprints not in the slice are dropped.
func attachStories(sprints []model.Sprint, stories []model.Story) {
	idx := make(map[string]int, len(sprints))
	for i := range sprints {
		idx[sprints[i].ID] = i
		sprints[i].Stories = []model.Story{}
	}
	for _, st := range stories {
		if i, ok := idx[st.SprintID]; ok {
			sprints[i].Stories = append(sprints[i].Stories, st)
		}
	}
}

// Run reloads the board on every change reported by the store until ctx is
// cancelled. Changes that arrive while a reload runs are coalesced into one
// further reload.
func (b *Board) Run(ctx context.Context) error {
	events, cancel := b.store.Changes().Subscribe(64)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if !b.concerns(ev) {
				continue
			}
			b.markStale()
		drain:
			for {
				select {
				case <-events:
				default:
					break drain
				}
			}
			if err := b.Load(ctx, true); err != nil && ctx.Err() == nil {
				b.log.Debug("reload after change failed", zap.Error(err))
			}
		}
	}
}

func (b *Board) concerns(ev store.ChangeEvent) bool {
	if ev.Op == store.OpExternal {
		return true
	}
	if ev.Table != "sprints" && ev.Table != "stories" {
		return false
	}
	return ev.UserID == "" || ev.UserID == b.userID
}

// Snapshot returns every sprint with its stories for export: the active
// board in display order followed by archived sprints. Archived stories are
// included only when includeArchived is set.
func (b *Board) Snapshot(ctx context.Context, includeArchived bool) ([]model.Sprint, error) {
	var (
		sprints []model.Sprint
		stories []model.Story
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sprints, err = b.store.GetSprints(gctx, b.userID, store.SprintFilter{})
		return err
	})
	g.Go(func() error {
		filter := store.StoryFilter{UserID: b.userID}
		if !includeArchived {
			f := false
			filter.Archived = &f
		}
		var err error
		stories, err = b.store.GetStories(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, b.fail("export", err)
	}

	var active, archived []model.Sprint
	for _, s := range sprints {
		if s.IsArchived() {
			if includeArchived {
				archived = append(archived, s)
			}
			continue
		}
		active = append(active, s)
	}

	attachStories(active, stories)
	attachStories(archived, stories)

	ordered, err := layout.ClassifyAndOrder(active)
	if err != nil {
		return nil, b.fail("export", err)
	}

	out := make([]model.Sprint, 0, len(ordered)+len(archived))
	for _, o := range ordered {
		out = append(out, o.Sprint)
	}
	return append(out, archived...), nil
}

// Archive lists archived sprints and stories.
type Archive struct {
	Sprints []model.Sprint `json:"sprints"`
	Stories []model.Story  `json:"stories"`
}

// Archived returns everything that has been archived, newest first.
func (b *Board) Archived(ctx context.Context) (Archive, error) {
	archived := true
	var a Archive

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		a.Sprints, err = b.store.GetSprints(gctx, b.userID, store.SprintFilter{Archived: &archived})
		return err
	})
	g.Go(func() error {
		var err error
		a.Stories, err = b.store.GetStories(gctx, store.StoryFilter{UserID: b.userID, Archived: &archived})
		return err
	})
	if err := g.Wait(); err != nil {
		return Archive{}, b.fail("list archive", err)
	}

	slices.SortStableFunc(a.Sprints, func(x, y model.Sprint) int {
		return newestFirst(x.ArchivedAt, y.ArchivedAt)
	})
	slices.SortStableFunc(a.Stories, func(x, y model.Story) int {
		return newestFirst(x.ArchivedAt, y.ArchivedAt)
	})
	return a, nil
}

func newestFirst(x, y *time.Time) int {
	switch {
	case x == nil || y == nil:
		return 0
	case x.After(*y):
		return -1
	case y.After(*x):
		return 1
	}
	return 0
}
