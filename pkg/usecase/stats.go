package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// StatsAggregator serves aggregate statistics with an age-based TTL cache.
// The cache is never invalidated on write; two reads within the TTL return
// the identical snapshot. Redundant recomputation under concurrent misses
// is harmless since the scan is a pure read.
type StatsAggregator struct {
	store interfaces.RunStore
	ttl   time.Duration
	now   func() time.Time

	mu         sync.Mutex
	snapshot   *model.Stats
	computedAt time.Time
}

// StatsOption is a functional option for the stats aggregator
type StatsOption func(*StatsAggregator)

// WithClock overrides the time source, used by tests
func WithClock(now func() time.Time) StatsOption {
	return func(a *StatsAggregator) {
		a.now = now
	}
}

// NewStats creates a stats aggregator over the given store
func NewStats(store interfaces.RunStore, ttl time.Duration, opts ...StatsOption) *StatsAggregator {
	a := &StatsAggregator{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// GetStats returns the cached snapshot while fresh, otherwise recomputes
// synchronously and replaces it.
func (a *StatsAggregator) GetStats(ctx context.Context) (*model.Stats, error) {
	now := a.now()

	a.mu.Lock()
	if a.snapshot != nil && now.Sub(a.computedAt) < a.ttl {
		snapshot := a.snapshot
		a.mu.Unlock()
		return snapshot, nil
	}
	a.mu.Unlock()

	snapshot, err := a.store.Stats(ctx)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	a.snapshot = snapshot
	a.computedAt = now
	a.mu.Unlock()

	return snapshot, nil
}
