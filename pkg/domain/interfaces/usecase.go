package interfaces

import (
	"context"

	"github.com/m-mizutani/mooring/pkg/domain/model"
)

// WebhookUseCase defines the interface for webhook event processing
type WebhookUseCase interface {
	// ProcessEvent runs one event through the pipeline: replay check, diff
	// scan, reference extraction, persistence and best-effort reporting
	ProcessEvent(ctx context.Context, event *model.WebhookEvent) (*model.ProcessResult, error)
}

// StatsUseCase serves the cached aggregate statistics view
type StatsUseCase interface {
	GetStats(ctx context.Context) (*model.Stats, error)
}
