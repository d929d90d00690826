// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/arthshield/fraudlabs/internal/domain"
)

// Repository defines the interface for persisting users and completed
// simulation runs. Live simulation state is never persisted; a session
// is ephemeral and held only in memory by its machine.
type Repository interface {
	// GetUser retrieves a user by their user ID.
	GetUser(ctx context.Context, userID string) (*domain.User, error)

	// UpsertUser creates or updates a user record.
	UpsertUser(ctx context.Context, user *domain.User) error

	// UpdateLastSeen updates the last_seen_at timestamp for a user.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// SaveRunResult appends a completed run for a user and returns the
	// stored record ID.
	SaveRunResult(ctx context.Context, userID string, result domain.RunResult) (int64, error)

	// ListRunResults returns a user's completed runs, newest first,
	// capped at limit.
	ListRunResults(ctx context.Context, userID string, limit int) ([]domain.RunRecord, error)

	// CleanupOldRuns removes run results older than the retention
	// window and reports how many were deleted.
	CleanupOldRuns(ctx context.Context, olderThan time.Duration) (int64, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
