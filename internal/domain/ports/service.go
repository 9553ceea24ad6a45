package ports

import (
	"context"

	"currency-rates-service/internal/domain/model"
)

// Updater orchestrates one refresh cycle across the configured sources.
type Updater interface {
	// RunUpdate fetches from the selected sources (all when the subset is
	// empty), journals successful observations, and replaces the snapshot.
	// The returned error is non-nil only when no source produced any rates.
	RunUpdate(ctx context.Context, sources []string) (*model.UpdateResult, error)
}

// RateQuery answers rate(A->B) queries against the snapshot, refreshing on
// staleness and triangulating through the bridge currency when no direct
// quote exists.
type RateQuery interface {
	GetRate(ctx context.Context, from, to string) (*model.Quote, error)
}

// Scheduler drives the updater on a fixed interval in the background.
type Scheduler interface {
	// Start launches the periodic loop. Returns false if already running.
	Start() bool
	// Stop signals cancellation and waits (bounded) for the loop to exit.
	// Returns false if not running.
	Stop() bool
	// Running reports whether the loop is alive.
	Running() bool
}
