package store

import (
	"context"
	"errors"
	"time"

	"github.com/letieu/reddit-profiler/internal/reddit"
)

var ErrNotFound = errors.New("session not found")

// Session is the saved state for one Reddit user.
type Session struct {
	Username       string           `json:"username"`
	FetchedAt      time.Time        `json:"fetched_at"`
	Comments       []reddit.Comment `json:"comments"`
	CachedAnalysis *string          `json:"cached_analysis,omitempty"`
}

// Store keeps at most one Session per username. Put and SetAnalysis are
// atomic per username and the last write wins.
type Store interface {
	// Put replaces any session for username, stamping FetchedAt and
	// clearing the cached analysis.
	Put(ctx context.Context, username string, comments []reddit.Comment) (*Session, error)
	Get(ctx context.Context, username string) (*Session, error)
	// SetAnalysis returns ErrNotFound when username has no session.
	SetAnalysis(ctx context.Context, username, text string) error
	// List returns every session ordered by username ascending.
	List(ctx context.Context) ([]*Session, error)
	Delete(ctx context.Context, username string) error
	Close() error
}
