package intake

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nhle/sprint-board/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	id    string
	items []model.IntakeItem
	err   error

	mu    sync.Mutex
	calls int
	acked []string
}

func (f *fakeSource) ID() string { return f.id }
func (f *fakeSource) Type() Type { return TypeJira }

func (f *fakeSource) ValidateConnection(context.Context) (string, error) { return "ok", nil }

func (f *fakeSource) Fetch(context.Context) ([]model.IntakeItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.items, f.err
}

func (f *fakeSource) Ack(_ context.Context, items []model.IntakeItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range items {
		f.acked = append(f.acked, it.ExternalRef)
	}
	return nil
}

func (f *fakeSource) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeImporter struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (f *fakeImporter) ImportStories(_ context.Context, items []model.IntakeItem) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen == nil {
		f.seen = map[string]bool{}
	}
	n := 0
	for _, it := range items {
		if !f.seen[it.ExternalRef] {
			f.seen[it.ExternalRef] = true
			n++
		}
	}
	return n, nil
}

func nextResult(t *testing.T, p *Poller) Result {
	t.Helper()
	select {
	case r := <-p.Results():
		return r
	case <-time.After(2 * time.Second):
		t.Fatal("no poll result")
		return Result{}
	}
}

func TestPollerImportsAndAcks(t *testing.T) {
	src := &fakeSource{id: "jira-main", items: []model.IntakeItem{
		{ExternalRef: "jira:P-1", Title: "one"},
		{ExternalRef: "jira:P-2", Title: "two"},
	}}
	p := NewPoller(&fakeImporter{}, nil)
	p.Register(src, time.Hour)

	p.Start(context.Background())
	defer p.Stop()

	r := nextResult(t, p)
	require.NoError(t, r.Err)
	assert.Equal(t, "jira-main", r.SourceID)
	assert.Equal(t, 2, r.Fetched)
	assert.Equal(t, 2, r.Imported)

	require.True(t, p.Trigger("jira-main"))
	r = nextResult(t, p)
	assert.Equal(t, 2, r.Fetched)
	assert.Equal(t, 0, r.Imported)

	assert.False(t, p.Trigger("missing"))

	src.mu.Lock()
	assert.Equal(t, []string{"jira:P-1", "jira:P-2", "jira:P-1", "jira:P-2"}, src.acked)
	src.mu.Unlock()

	statuses := p.Statuses()
	require.Len(t, statuses, 1)
	assert.Equal(t, StateIdle, statuses[0].State)
	assert.False(t, statuses[0].LastSync.IsZero())
}

func TestPollerReportsAuthErrors(t *testing.T) {
	src := &fakeSource{id: "mail", err: &AuthError{Type: TypeEmail, Message: "bad password"}}
	p := NewPoller(&fakeImporter{}, nil)
	p.Register(src, time.Hour)

	p.Start(context.Background())
	r := nextResult(t, p)
	p.Stop()

	require.Error(t, r.Err)
	assert.True(t, r.AuthFailed())
	statuses := p.Statuses()
	assert.Equal(t, StateError, statuses[0].State)
	assert.Contains(t, statuses[0].Err.Error(), "bad password")
}

func TestPollerStopsOnContextCancel(t *testing.T) {
	src := &fakeSource{id: "a", err: errors.New("boom")}
	p := NewPoller(&fakeImporter{}, nil)
	p.Register(src, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	nextResult(t, p)
	cancel()
	p.Stop()

	calls := src.Calls()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, calls, src.Calls())
}

func TestPollerStartStopIdempotent(t *testing.T) {
	p := NewPoller(&fakeImporter{}, nil)
	p.Stop()
	p.Start(context.Background())
	p.Start(context.Background())
	p.Stop()
	p.Stop()
}
