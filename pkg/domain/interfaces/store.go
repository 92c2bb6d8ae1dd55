package interfaces

import (
	"context"

	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// RunStore is the persistence and query layer for runs and findings
type RunStore interface {
	// CreateRun persists a run and its findings in a single transaction and
	// returns the assigned run ID. Either all rows are written or none are.
	CreateRun(ctx context.Context, run *model.Run, findings []*model.Finding) (int64, error)

	// ListRuns returns runs matching the filter, most recent first
	ListRuns(ctx context.Context, f *model.RunFilter) ([]*model.Run, error)

	// ListFindings returns findings matching the filter, most recent first
	ListFindings(ctx context.Context, f *model.FindingFilter) ([]*model.Finding, error)

	// Stats computes the aggregate rollup over all stored records
	Stats(ctx context.Context) (*model.Stats, error)

	// Prune deletes the oldest runs beyond retain, cascading their findings,
	// and returns the number of deleted runs
	Prune(ctx context.Context, retain int) (int64, error)
}
