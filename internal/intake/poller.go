package intake

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is the sync state of one source.
type State int

const (
	StateIdle State = iota
	StateRunning
	StateError
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateError:
		return "error"
	}
	return "idle"
}

// Status is a point-in-time view of one source.
type Status struct {
	SourceID string
	Type     Type
	State    State
	LastSync time.Time
	Err      error
}

// Result reports the outcome of one fetch-and-import cycle.
type Result struct {
	SourceID string
	Type     Type
	Fetched  int
	Imported int
	Err      error
}

// AuthFailed reports whether the cycle failed on credentials.
func (r Result) AuthFailed() bool {
	return IsAuthError(r.Err)
}

const (
	fetchTimeout    = 30 * time.Second
	defaultInterval = 120 * time.Second
)

type entry struct {
	src      Source
	interval time.Duration
	trigger  chan struct{}
}

// Poller periodically fetches every registered source and imports the
// results.
type Poller struct {
	importer Importer
	log      *zap.Logger

	mu       sync.Mutex
	sources  []*entry
	statuses map[string]*Status
	results  chan Result
	stop     chan struct{}
	wg       sync.WaitGroup
	running  bool
}

// NewPoller creates a Poller importing into imp.
func NewPoller(imp Importer, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{
		importer: imp,
		log:      log,
		statuses: make(map[string]*Status),
		results:  make(chan Result, 16),
	}
}

// Register adds a source polled every interval. Non-positive intervals use
// the default. Sources registered after Start are not polled.
func (p *Poller) Register(src Source, interval time.Duration) {
	if interval <= 0 {
		interval = defaultInterval
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.sources = append(p.sources, &entry{src: src, interval: interval, trigger: make(chan struct{}, 1)})
	p.statuses[src.ID()] = &Status{SourceID: src.ID(), Type: src.Type()}
}

// Results delivers one Result per cycle. Results are dropped when nobody
// is reading.
func (p *Poller) Results() <-chan Result {
	return p.results
}

// Start launches one polling goroutine per source. Each source is fetched
// immediately, then on its interval. Polling ends on Stop or when ctx is
// cancelled.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	p.running = true
	p.stop = make(chan struct{})

	for _, e := range p.sources {
		p.wg.Add(1)
		go func(e *entry, stop <-chan struct{}) {
			defer p.wg.Done()
			p.poll(ctx, e, stop)
		}(e, p.stop)
	}
}

// Stop halts all polling goroutines and waits for them to exit.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	close(p.stop)
	p.running = false
	p.mu.Unlock()

	p.wg.Wait()
}

// Trigger requests an immediate fetch of one source. It returns false when
// the source is unknown.
func (p *Poller) Trigger(sourceID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.sources {
		if e.src.ID() == sourceID {
			nudge(e.trigger)
			return true
		}
	}
	return false
}

// TriggerAll requests an immediate fetch of every source.
func (p *Poller) TriggerAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.sources {
		nudge(e.trigger)
	}
}

func nudge(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Statuses returns the status of every source ordered by ID.
func (p *Poller) Statuses() []Status {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Status, 0, len(p.statuses))
	for _, s := range p.statuses {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out
}

func (p *Poller) poll(ctx context.Context, e *entry, stop <-chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	p.cycle(ctx, e.src)
	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.cycle(ctx, e.src)
		case <-e.trigger:
			p.cycle(ctx, e.src)
		}
	}
}

// cycle fetches one source, imports what it returned and acknowledges the
// items when the source supports it.
func (p *Poller) cycle(ctx context.Context, src Source) {
	id := src.ID()
	p.setStatus(id, StateRunning, nil)

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	res := Result{SourceID: id, Type: src.Type()}
	items, err := src.Fetch(ctx)
	if err != nil {
		res.Err = fmt.Errorf("fetching %s: %w", id, err)
		p.finish(res)
		return
	}
	res.Fetched = len(items)

	if len(items) > 0 {
		n, err := p.importer.ImportStories(ctx, items)
		res.Imported = n
		if err != nil {
			res.Err = fmt.Errorf("importing from %s: %w", id, err)
			p.finish(res)
			return
		}
		if ack, ok := src.(Acknowledger); ok {
			if err := ack.Ack(ctx, items); err != nil {
				p.log.Warn("acknowledging intake items", zap.String("source", id), zap.Error(err))
			}
		}
	}
	p.finish(res)
}

func (p *Poller) finish(res Result) {
	if res.Err != nil {
		p.setStatus(res.SourceID, StateError, res.Err)
		p.log.Warn("intake cycle failed",
			zap.String("source", res.SourceID),
			zap.Bool("auth", res.AuthFailed()),
			zap.Error(res.Err),
		)
	} else {
		p.setStatus(res.SourceID, StateIdle, nil)
		p.log.Debug("intake cycle done",
			zap.String("source", res.SourceID),
			zap.Int("fetched", res.Fetched),
			zap.Int("imported", res.Imported),
		)
	}

	select {
	case p.results <- res:
	default:
	}
}

func (p *Poller) setStatus(id string, state State, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[id]
	if !ok {
		return
	}
	status.State = state
	status.Err = err
	if state == StateIdle {
		status.LastSync = time.Now()
	}
}
