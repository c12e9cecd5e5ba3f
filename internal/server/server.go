// Package server exposes boards over a JSON HTTP API with server-sent
// change events.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/ai"
	"github.com/nhle/sprint-board/internal/board"
	"github.com/nhle/sprint-board/internal/model"
	"github.com/nhle/sprint-board/internal/settings"
	"github.com/nhle/sprint-board/internal/store"
)

// UserHeader carries the user scope of a request.
const UserHeader = "X-User-ID"

// Config configures the HTTP server.
type Config struct {
	Addr        string
	CORSOrigins []string
	// DefaultUser scopes requests that carry no user header. Empty means
	// the header is required.
	DefaultUser string
}

// Server serves the board API.
type Server struct {
	cfg      Config
	store    store.Store
	boards   *board.Registry
	drafter  *ai.Drafter
	settings *settings.File
	origins  map[string]struct{}
	log      *zap.Logger
	now      func() time.Time
	server   *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithDrafter enables POST /api/generate.
func WithDrafter(d *ai.Drafter) Option {
	return func(s *Server) { s.drafter = d }
}

// WithSettings enables the AI settings endpoints.
func WithSettings(f *settings.File) Option {
	return func(s *Server) { s.settings = f }
}

// WithClock overrides the clock used for export timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a server. Boards are taken from boards, one per user.
func New(cfg Config, st store.Store, boards *board.Registry, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		store:   st,
		boards:  boards,
		origins: make(map[string]struct{}, len(cfg.CORSOrigins)),
		log:     zap.NewNop(),
		now:     time.Now,
	}
	for _, o := range cfg.CORSOrigins {
		s.origins[o] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the full middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.recoverMiddleware(s.corsMiddleware(s.registerRoutes()))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("api listening", zap.String("addr", s.cfg.Addr))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down api server: %w", err)
	}
	<-errCh
	return nil
}

// role resolves the user's role. Users without an assigned role own their
// own board.
func (s *Server) role(ctx context.Context, userID string) (model.Role, error) {
	r, err := s.store.GetUserRole(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return model.RoleOwner, nil
	}
	return r, err
}
