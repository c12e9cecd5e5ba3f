package server

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/nhle/sprint-board/internal/board"
)

type ctxKey struct{}

// boardFrom returns the board bound to the request by read or write.
func boardFrom(ctx context.Context) *board.Board {
	b, _ := ctx.Value(ctxKey{}).(*board.Board)
	return b
}

func (s *Server) isAllowedOrigin(origin string) bool {
	if _, ok := s.origins["*"]; ok {
		return true
	}
	_, ok := s.origins[origin]
	return ok
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" {
			w.Header().Set("Vary", "Origin")
			if s.isAllowedOrigin(origin) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+UserHeader)
			}
		}

		if r.Method == http.MethodOptions {
			if origin != "" && !s.isAllowedOrigin(origin) {
				writeError(w, http.StatusForbidden, "origin not allowed")
				return
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware turns handler panics into a generic 500.
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if p := recover(); p != nil {
				if p == http.ErrAbortHandler {
					panic(p)
				}
				s.log.Error("handler panic",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", p),
					zap.Stack("stack"))
				writeError(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) read(h http.HandlerFunc) http.Handler {
	return s.scoped(false, h)
}

func (s *Server) write(h http.HandlerFunc) http.Handler {
	return s.scoped(true, h)
}

// scoped resolves the user scope, enforces the role and binds the user's
// board to the request context.
func (s *Server) scoped(needsWrite bool, h http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.Header.Get(UserHeader))
		if userID == "" {
			userID = s.cfg.DefaultUser
		}
		if userID == "" {
			writeError(w, http.StatusUnauthorized, "missing "+UserHeader+" header")
			return
		}

		if needsWrite {
			role, err := s.role(r.Context(), userID)
			if err != nil {
				s.log.Warn("resolving role", zap.String("user", userID), zap.Error(err))
				writeError(w, http.StatusInternalServerError, "could not resolve permissions")
				return
			}
			if !role.CanWrite() {
				writeError(w, http.StatusForbidden, "your role does not allow changes")
				return
			}
		}

		ctx := context.WithValue(r.Context(), ctxKey{}, s.boards.Get(userID))
		h(w, r.WithContext(ctx))
	})
}
