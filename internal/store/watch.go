package store

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher turns writes made to the database file by other processes into
// OpExternal change events. Writes that follow one of our own within the
// debounce window are attributed to this process and ignored.
type Watcher struct {
	fsw      *fsnotify.Watcher
	names    map[string]bool
	broker   *Broker
	debounce time.Duration
	log      *zap.Logger
}

// NewWatcher watches the directory holding dbPath for changes to the
// database, its WAL and its shared-memory file.
func NewWatcher(dbPath string, broker *Broker, debounce time.Duration, log *zap.Logger) (*Watcher, error) {
	if isMemory(dbPath) {
		return nil, fmt.Errorf("cannot watch in-memory database")
	}
	if log == nil {
		log = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = 250 * time.Millisecond
	}

	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dbPath, err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fs watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	base := filepath.Base(abs)
	return &Watcher{
		fsw:      fsw,
		names:    map[string]bool{base: true, base + "-wal": true, base + "-shm": true},
		broker:   broker,
		debounce: debounce,
		log:      log,
	}, nil
}

// Run processes filesystem events until ctx is cancelled. Bursts are
// coalesced into a single event published once the debounce window passes
// without further writes.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.names[filepath.Base(ev.Name)] || !ev.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			if time.Since(w.broker.LastLocalWrite()) < w.debounce {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("database watcher error", zap.Error(err))

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if time.Since(w.broker.LastLocalWrite()) < w.debounce {
				continue
			}
			w.log.Debug("external database change")
			w.broker.Publish(ChangeEvent{Table: "*", Op: OpExternal})
		}
	}
}
