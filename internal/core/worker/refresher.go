package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/vietddude/walletwatch/internal/indexing/filter"
	"github.com/vietddude/walletwatch/internal/indexing/metrics"
)

// FilterRefresher periodically reloads the address filter from the wallet
// registry, so wallets added by other processes start matching.
type FilterRefresher struct {
	filter   filter.Filter
	interval time.Duration
}

// NewFilterRefresher creates a new FilterRefresher worker.
func NewFilterRefresher(f filter.Filter, interval time.Duration) *FilterRefresher {
	return &FilterRefresher{
		filter:   f,
		interval: max(interval, time.Second),
	}
}

// Start runs the refresh loop until ctx is cancelled.
func (r *FilterRefresher) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	// Initial refresh
	r.Refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Refresh(ctx)
		}
	}
}

// Refresh rebuilds the filter once. On failure the previous set is kept.
func (r *FilterRefresher) Refresh(ctx context.Context) {
	if err := r.filter.Rebuild(ctx); err != nil {
		slog.Error("[FilterRefresher] failed to rebuild address filter", "error", err)
		return
	}
	metrics.TrackedAddresses.Set(float64(r.filter.Size()))
	slog.Debug("[FilterRefresher] address filter rebuilt", "size", r.filter.Size())
}
