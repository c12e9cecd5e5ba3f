package store

import (
	"sync"
	"sync/atomic"
	"time"
)

// Op is the kind of change carried by a ChangeEvent.
type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	// OpExternal is a write made by another process to the same database.
	OpExternal Op = "external"
)

// ChangeEvent describes one committed write.
type ChangeEvent struct {
	Seq    uint64    `json:"seq"`
	Table  string    `json:"table"`
	Op     Op        `json:"op"`
	UserID string    `json:"user_id,omitempty"`
	RowID  string    `json:"row_id,omitempty"`
	At     time.Time `json:"at"`
}

// Broker fans change events out to subscribers. Delivery never blocks the
// writer: a subscriber whose buffer is full misses the event, which is fine
// for consumers that reload everything on any change.
type Broker struct {
	mu     sync.Mutex
	subs   map[uint64]chan ChangeEvent
	nextID uint64

	seq       atomic.Uint64
	lastLocal atomic.Int64
}

// NewBroker returns an empty broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]chan ChangeEvent)}
}

// Subscribe registers a subscriber with the given buffer size. The returned
// cancel func unregisters it and closes the channel.
func (b *Broker) Subscribe(buffer int) (<-chan ChangeEvent, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan ChangeEvent, buffer)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish stamps ev with a sequence number and time and delivers it.
func (b *Broker) Publish(ev ChangeEvent) {
	ev.Seq = b.seq.Add(1)
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if ev.Op != OpExternal {
		b.lastLocal.Store(ev.At.UnixNano())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// LastLocalWrite returns the time of the last event published by this
// process, or the zero time.
func (b *Broker) LastLocalWrite() time.Time {
	n := b.lastLocal.Load()
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n)
}

// Subscribers returns the number of active subscribers.
func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
