// Package board keeps a user's sprints and stories in sync with the store
// and exposes the operations the surfaces call.
package board

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/layout"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/store"
)

var (
	// ErrProtectedSprint is returned for deletes, archives and moves of the
	// priority or backlog sprint.
	ErrProtectedSprint = errors.New("sprint is protected")

	// ErrSprintNotEmpty is returned when deleting a sprint that still owns
	// stories.
	ErrSprintNotEmpty = errors.New("sprint still has stories")

	// ErrInFlight is returned when the same operation is submitted again
	// before the first one finished.
	ErrInFlight = errors.New("operation already in progress")

	// ErrNumberCollision is returned when no free story number was found
	// within the retry budget.
	ErrNumberCollision = errors.New("could not allocate a story number")
)

// View is an immutable snapshot of the board.
type View struct {
	Version  uint64                 `json:"version"`
	Sprints  []layout.OrderedSprint `json:"sprints"`
	Grid     layout.Grid            `json:"grid"`
	LoadedAt time.Time              `json:"loaded_at"`
}

// Sprint returns the sprint with the given ID.
func (v View) Sprint(id string) (layout.OrderedSprint, bool) {
	i := layout.Find(v.Sprints, id)
	if i < 0 {
		return layout.OrderedSprint{}, false
	}
	return v.Sprints[i], true
}

// Backlog returns the backlog sprint if loaded.
func (v View) Backlog() (layout.OrderedSprint, bool) {
	for _, s := range v.Sprints {
		if s.Role == layout.RoleBacklog {
			return s, true
		}
	}
	return layout.OrderedSprint{}, false
}

// Story returns the active story with the given ID.
func (v View) Story(id string) (model.Story, bool) {
	for _, s := range v.Sprints {
		for _, st := range s.Stories {
			if st.ID == id {
				return st, true
			}
		}
	}
	return model.Story{}, false
}

// StoryCount returns the number of active stories on the board.
func (v View) StoryCount() int {
	n := 0
	for _, s := range v.Sprints {
		n += len(s.Stories)
	}
	return n
}

// Board is the sync service for one user scope. It is safe for concurrent
// use; store calls are made without holding the state lock.
type Board struct {
	store       store.Store
	userID      string
	log         *zap.Logger
	now         func() time.Time
	intn        func(n int) int
	prefix      string
	maxAttempts int

	loadMu sync.Mutex

	mu      sync.RWMutex
	view    View
	stale   bool
	lastErr string
	pending map[string]int
	subs    map[int]chan View
	nextSub int
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Board) { b.log = log }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(b *Board) { b.now = now }
}

// WithRandom overrides the source of the story number retry jitter.
func WithRandom(intn func(n int) int) Option {
	return func(b *Board) { b.intn = intn }
}

// WithStoryPrefix sets the number prefix used when the user has no saved
// preference.
func WithStoryPrefix(prefix string) Option {
	return func(b *Board) {
		if prefix != "" {
			b.prefix = prefix
		}
	}
}

// WithNumberAttempts bounds how many numbers AddStory tries.
func WithNumberAttempts(n int) Option {
	return func(b *Board) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// New returns a board for userID backed by s. Call Load before reading the
// view.
func New(s store.Store, userID string, opts ...Option) *Board {
	b := &Board{
		store:       s,
		userID:      userID,
		log:         zap.NewNop(),
		now:         time.Now,
		intn:        rand.IntN,
		prefix:      model.DefaultStoryPrefix,
		maxAttempts: 5,
		stale:       true,
		pending:     make(map[string]int),
		subs:        make(map[int]chan View),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With(zap.String("user", userID))
	return b
}

// UserID returns the user scope of the board.
func (b *Board) UserID() string {
	return b.userID
}

// View returns the latest published snapshot.
func (b *Board) View() View {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.view
}

// LastError returns the message of the most recent failure, or "".
func (b *Board) LastError() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastErr
}

// ClearError empties the error slot.
func (b *Board) ClearError() {
	b.mu.Lock()
	b.lastErr = ""
	b.mu.Unlock()
}

// Loading reports whether the operation with the given key is in flight.
func (b *Board) Loading(key string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.pending[key] > 0
}

// Pending returns the keys of all in-flight operations, sorted.
func (b *Board) Pending() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.pending))
	for k := range b.pending {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Subscribe returns a channel that receives every published view. Slow
// readers only see the latest one. The cancel func closes the channel.
func (b *Board) Subscribe() (<-chan View, func()) {
	ch := make(chan View, 1)

	b.mu.Lock()
	id := b.nextSub
	b.nextSub++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
}

// Key builds the loading-flag key for an operation on an entity.
func Key(op, id string) string {
	if id == "" {
		return op
	}
	return op + ":" + id
}

// Operation names used in loading-flag keys.
const (
	OpLoad          = "load"
	OpAddStory      = "addStory"
	OpUpdateStory   = "updateStory"
	OpToggleStory   = "toggleStory"
	OpMoveStory     = "moveStory"
	OpArchiveStory  = "archiveStory"
	OpRestoreStory  = "restoreStory"
	OpDeleteStory   = "deleteStory"
	OpCloseSprint   = "closeSprint"
	OpAddSprint     = "addSprint"
	OpUpdateSprint  = "updateSprint"
	OpDeleteSprint  = "deleteSprint"
	OpArchiveSprint = "archiveSprint"
	OpRestoreSprint = "restoreSprint"
	OpMoveSprint    = "moveSprint"
	OpImport        = "import"
)

// begin marks key in flight, rejecting a second submission.
func (b *Board) begin(key string) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[key] > 0 {
		return nil, fmt.Errorf("%s: %w", key, ErrInFlight)
	}
	b.pending[key] = 1
	return func() { b.release(key) }, nil
}

// track marks key in flight without rejecting concurrent callers.
func (b *Board) track(key string) func() {
	b.mu.Lock()
	b.pending[key]++
	b.mu.Unlock()
	return func() { b.release(key) }
}

func (b *Board) release(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending[key]--; b.pending[key] <= 0 {
		delete(b.pending, key)
	}
}

// fail records err in the error slot and returns it wrapped with the
// operation name.
func (b *Board) fail(op string, err error) error {
	msg := Describe(op, err)
	b.mu.Lock()
	b.lastErr = msg
	b.mu.Unlock()

	b.log.Warn("board operation failed", zap.String("op", op), zap.Error(err))
	return fmt.Errorf("%s: %w", op, err)
}

// Describe renders the error of operation op for people.
func Describe(op string, err error) string {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, ErrProtectedSprint):
		return "The priority and backlog sprints cannot be moved, archived or deleted."
	case errors.Is(err, ErrSprintNotEmpty):
		return "Move or archive this sprint's stories before deleting it."
	case errors.Is(err, ErrInFlight):
		return "That change is already being saved."
	case errors.Is(err, store.ErrNotFound):
		return "That item no longer exists. Reload the board and try again."
	case errors.Is(err, ErrNumberCollision):
		return "Could not number the new story. Please try again."
	}
	return fmt.Sprintf("Failed to %s: %v", humanOp(op), err)
}

func humanOp(op string) string {
	var words []string
	start := 0
	for i, r := range op {
		if i > 0 && r >= 'A' && r <= 'Z' {
			words = append(words, strings.ToLower(op[start:i]))
			start = i
		}
	}
	words = append(words, strings.ToLower(op[start:]))
	return strings.Join(words, " ")
}

// publish installs v as the current view and fans it out.
func (b *Board) publish(sprints []layout.OrderedSprint) View {
	b.mu.Lock()
	defer b.mu.Unlock()

	v := View{
		Version:  b.view.Version + 1,
		Sprints:  slices.Clone(sprints),
		LoadedAt: b.now().UTC(),
	}
	v.Grid = layout.BuildGrid(v.Sprints)
	b.view = v
	b.stale = false

	for _, ch := range b.subs {
		select {
		case ch <- v:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- v:
			default:
			}
		}
	}
	return v
}
