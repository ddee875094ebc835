package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/s4rv4d/kobe-dashboard/internal/domain"
)

// SnapshotGenerator records a dated snapshot of the vault's statistics.
type SnapshotGenerator interface {
	Generate(ctx context.Context, date time.Time) (domain.VaultStats, error)
}

// SnapshotWorker periodically records vault statistics snapshots.
type SnapshotWorker struct {
	generator SnapshotGenerator
	interval  time.Duration
}

// NewSnapshotWorker creates a new SnapshotWorker.
func NewSnapshotWorker(generator SnapshotGenerator, interval time.Duration) *SnapshotWorker {
	return &SnapshotWorker{
		generator: generator,
		interval:  interval,
	}
}

// Run starts the snapshot worker loop. It blocks until the context is
// cancelled.
func (w *SnapshotWorker) Run(ctx context.Context) {
	slog.Info("SnapshotWorker: starting", "interval", w.interval)

	// Record immediately on startup
	w.generate(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("SnapshotWorker: shutting down")
			return
		case <-ticker.C:
			w.generate(ctx)
		}
	}
}

func (w *SnapshotWorker) generate(ctx context.Context) {
	stats, err := w.generator.Generate(ctx, time.Now().UTC())
	if err != nil {
		slog.Error("SnapshotWorker: snapshot failed", "error", err)
		return
	}
	slog.Info("SnapshotWorker: snapshot recorded",
		"currentValue", stats.CurrentValue,
		"multiple", stats.Multiple,
	)
}
