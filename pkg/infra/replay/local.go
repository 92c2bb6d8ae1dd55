package replay

import (
	"context"
	"sync"
	"time"
)

// Local is the in-process replay guard for single-instance deployments.
// Expired entries are evicted opportunistically on admit.
type Local struct {
	mu        sync.Mutex
	window    time.Duration
	seen      map[string]time.Time
	lastSweep time.Time
}

// NewLocal creates a replay guard with the given window
func NewLocal(window time.Duration) *Local {
	return &Local{
		window: window,
		seen:   map[string]time.Time{},
	}
}

// Admit returns true the first time a delivery ID is seen within the window.
// Check-and-mark is atomic under the guard's mutex.
func (g *Local) Admit(ctx context.Context, deliveryID string, now time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if at, ok := g.seen[deliveryID]; ok && now.Sub(at) < g.window {
		return false, nil
	}
	g.seen[deliveryID] = now

	if now.Sub(g.lastSweep) >= g.window {
		for id, at := range g.seen {
			if now.Sub(at) >= g.window {
				delete(g.seen, id)
			}
		}
		g.lastSweep = now
	}

	return true, nil
}

// Forget releases a delivery ID so a redelivery is admitted again
func (g *Local) Forget(ctx context.Context, deliveryID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.seen, deliveryID)
	return nil
}
