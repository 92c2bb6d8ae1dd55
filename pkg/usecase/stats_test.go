package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"github.com/m-mizutani/mooring/pkg/usecase"
)

// countingStore serves a canned rollup and counts how often it is scanned
type countingStore struct {
	stats model.Stats
	scans int
}

var _ interfaces.RunStore = (*countingStore)(nil)

func (s *countingStore) CreateRun(ctx context.Context, run *model.Run, findings []*model.Finding) (int64, error) {
	s.stats.TotalRuns++
	s.stats.TotalFindings += int64(len(findings))
	return s.stats.TotalRuns, nil
}

func (s *countingStore) ListRuns(ctx context.Context, f *model.RunFilter) ([]*model.Run, error) {
	return nil, nil
}

func (s *countingStore) ListFindings(ctx context.Context, f *model.FindingFilter) ([]*model.Finding, error) {
	return nil, nil
}

func (s *countingStore) Stats(ctx context.Context) (*model.Stats, error) {
	s.scans++
	snapshot := s.stats
	return &snapshot, nil
}

func (s *countingStore) Prune(ctx context.Context, retain int) (int64, error) {
	return 0, nil
}

func TestStatsAggregator_CacheTTL(t *testing.T) {
	ctx := context.Background()
	db := &countingStore{}

	now := time.Unix(1000, 0)
	agg := usecase.NewStats(db, 15*time.Second, usecase.WithClock(func() time.Time {
		return now
	}))

	first, err := agg.GetStats(ctx)
	gt.NoError(t, err)
	gt.Value(t, db.scans).Equal(1)

	// New run lands, but the snapshot is age-based, not invalidated on write
	_, err = db.CreateRun(ctx, &model.Run{}, nil)
	gt.NoError(t, err)

	now = now.Add(5 * time.Second)
	second, err := agg.GetStats(ctx)
	gt.NoError(t, err)
	gt.Value(t, db.scans).Equal(1)
	gt.Value(t, second).Equal(first) // identical snapshot within TTL

	// Past the TTL the snapshot is recomputed and reflects the new run
	now = now.Add(15 * time.Second)
	third, err := agg.GetStats(ctx)
	gt.NoError(t, err)
	gt.Value(t, db.scans).Equal(2)
	gt.Value(t, third.TotalRuns).Equal(int64(1))
}

func TestStatsAggregator_ExactTTLBoundary(t *testing.T) {
	ctx := context.Background()
	db := &countingStore{}

	now := time.Unix(2000, 0)
	agg := usecase.NewStats(db, 15*time.Second, usecase.WithClock(func() time.Time {
		return now
	}))

	_, err := agg.GetStats(ctx)
	gt.NoError(t, err)

	// age == ttl is stale
	now = now.Add(15 * time.Second)
	_, err = agg.GetStats(ctx)
	gt.NoError(t, err)
	gt.Value(t, db.scans).Equal(2)
}
