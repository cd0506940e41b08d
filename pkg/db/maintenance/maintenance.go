package maintenance

import (
	"context"
	"log/slog"
	"time"

	"podsumgo/pkg/db"
)

// Run executes startup maintenance tasks. It blocks until completion.
func Run(ctx context.Context, d *db.DB, cacheTTL time.Duration) error {
	slog.Info("Starting database maintenance...")

	if err := pruneCache(ctx, d, cacheTTL); err != nil {
		slog.Error("Cache pruning failed", "error", err)
	} else {
		slog.Info("Cache pruning completed")
	}

	if err := vacuum(ctx, d); err != nil {
		slog.Error("Vacuum failed", "error", err)
	}

	return nil
}

func pruneCache(ctx context.Context, d *db.DB, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return d.PruneCache(ttl)
}

// vacuum reclaims space freed by pruning. Incremental vacuum is not
// available without auto_vacuum, so this is a full pass.
func vacuum(ctx context.Context, d *db.DB) error {
	_, err := d.ExecContext(ctx, "VACUUM")
	return err
}
