package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/nhle/sprint-board/internal/board"
)

const keepAlive = 25 * time.Second

// sseEvent is the payload of a board change event.
type sseEvent struct {
	Version  uint64    `json:"version"`
	LoadedAt time.Time `json:"loaded_at"`
	Stories  int       `json:"stories"`
}

// handleEvents streams a "board" event for every new view of the user's
// board. Clients refetch /api/board when the version changes.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	b := boardFrom(r.Context())
	views, cancel := b.Subscribe()
	defer cancel()

	if err := b.Load(r.Context(), false); err != nil {
		s.fail(w, board.OpLoad, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(v board.View) error {
		data, err := json.Marshal(sseEvent{Version: v.Version, LoadedAt: v.LoadedAt, Stories: v.StoryCount()})
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: board\ndata: %s\n\n", data); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}

	last := b.View()
	if err := send(last); err != nil {
		return
	}

	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			if v.Version <= last.Version {
				continue
			}
			last = v
			if err := send(v); err != nil {
				return
			}
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
