package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/arthshield/fraudlabs/internal/store"
)

const ttlSweepInterval = 1 * time.Minute

// runRetention is how long completed run results are kept before the
// sweeper prunes them from the store.
const runRetention = 90 * 24 * time.Hour

// CleanupCallback is called for each user whose abandoned session the
// TTL worker disposed, so transports can drop their connections too.
type CleanupCallback func(userID string)

// StartTTLWorker runs a background goroutine that periodically disposes
// machines idle past ttl and prunes old run results. Failing to dispose
// an abandoned machine would leak timer goroutines firing against a
// session nothing renders anymore.
func StartTTLWorker(ctx context.Context, reg *Registry, repo store.Repository, ttl time.Duration, onCleanup CleanupCallback) {
	ticker := time.NewTicker(ttlSweepInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("Session TTL worker started", "interval", ttlSweepInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepOnce(ctx, reg, repo, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("Session TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepOnce(ctx context.Context, reg *Registry, repo store.Repository, ttl time.Duration, onCleanup CleanupCallback) {
	swept := reg.Sweep(ttl, func(userID string) {
		slog.Info("TTL worker disposed idle session", "user_id", userID)
		if onCleanup != nil {
			onCleanup(userID)
		}
	})
	if swept > 0 {
		slog.Info("TTL worker sweep completed", "disposed", swept, "remaining", reg.Len())
	}

	if repo == nil {
		return
	}
	if deleted, err := repo.CleanupOldRuns(ctx, runRetention); err != nil {
		slog.Error("TTL worker failed to prune old run results", "error", err)
	} else if deleted > 0 {
		slog.Info("TTL worker pruned old run results", "count", deleted)
	}
}
