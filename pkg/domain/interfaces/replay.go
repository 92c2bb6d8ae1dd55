package interfaces

import (
	"context"
	"time"
)

// ReplayGuard suppresses duplicate processing of the same delivery within a
// sliding time window.
type ReplayGuard interface {
	// Admit atomically checks and marks a delivery ID. It returns true the
	// first time an ID is seen within the window and false for any repeat.
	Admit(ctx context.Context, deliveryID string, now time.Time) (bool, error)

	// Forget releases a previously admitted delivery ID so that a
	// redelivery after a persistence failure is admitted again.
	Forget(ctx context.Context, deliveryID string) error
}
