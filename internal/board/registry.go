package board

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/store"
)

// Registry hands out one running Board per user for multi-user surfaces.
type Registry struct {
	store store.Store
	log   *zap.Logger
	opts  []Option

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	boards map[string]*Board
}

// NewRegistry creates a registry. Boards it creates run until Close or
// until ctx is cancelled.
func NewRegistry(ctx context.Context, s store.Store, log *zap.Logger, opts ...Option) *Registry {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Registry{
		store:  s,
		log:    log,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		boards: make(map[string]*Board),
	}
}

// Get returns the board for userID, creating and starting it on first use.
func (r *Registry) Get(userID string) *Board {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.boards[userID]; ok {
		return b
	}
	opts := append([]Option{WithLogger(r.log)}, r.opts...)
	b := New(r.store, userID, opts...)
	r.boards[userID] = b

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		_ = b.Run(r.ctx)
	}()
	return b
}

// Len returns the number of boards created so far.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.boards)
}

// Close stops every board's change loop and waits for them to exit.
func (r *Registry) Close() {
	r.cancel()
	r.wg.Wait()
}
