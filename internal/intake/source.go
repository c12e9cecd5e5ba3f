// Package intake pulls story candidates from external systems and feeds
// them into a board.
package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/sprint-board/internal/model"
)

// Type identifies the kind of external source.
type Type string

const (
	TypeJira  Type = "jira"
	TypeEmail Type = "email"
)

// AuthError indicates that authentication has failed or expired for a source.
type AuthError struct {
	Type    Type
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error (%s): %s", e.Type, e.Message)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Source is an external system that yields story candidates.
type Source interface {
	// ID is the configured instance identifier.
	ID() string

	Type() Type

	// ValidateConnection verifies credentials and connectivity and returns
	// a human-readable status message.
	ValidateConnection(ctx context.Context) (string, error)

	// Fetch returns the current candidates. Items carry a stable
	// ExternalRef so repeated fetches import each item once.
	Fetch(ctx context.Context) ([]model.IntakeItem, error)
}

// Acknowledger is implemented by sources that mark items as consumed once
// they have been imported.
type Acknowledger interface {
	Ack(ctx context.Context, items []model.IntakeItem) error
}

// Importer receives fetched items. board.Board satisfies it.
type Importer interface {
	ImportStories(ctx context.Context, items []model.IntakeItem) (int, error)
}
