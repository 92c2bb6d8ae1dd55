package replay

import (
	"context"
	"errors"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Firestore is the shared replay guard for multi-instance deployments. One
// document per delivery ID; the transactional get-then-set gives the atomic
// "mark if absent or expired" the admit contract needs.
type Firestore struct {
	client     *firestore.Client
	collection string
	window     time.Duration
	failOpen   bool
}

type replayDoc struct {
	SeenAt    time.Time `firestore:"seen_at"`
	ExpiresAt time.Time `firestore:"expires_at"`
}

var errDuplicate = errors.New("delivery already seen")

// NewFirestore creates a Firestore-backed replay guard. When failOpen is
// set, an unreachable store admits the delivery instead of rejecting it.
func NewFirestore(ctx context.Context, projectID, collection string, window time.Duration, failOpen bool) (*Firestore, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("project_id", projectID))
	}
	return &Firestore{
		client:     client,
		collection: collection,
		window:     window,
		failOpen:   failOpen,
	}, nil
}

// Admit returns true the first time a delivery ID is seen within the window
func (g *Firestore) Admit(ctx context.Context, deliveryID string, now time.Time) (bool, error) {
	ref := g.client.Collection(g.collection).Doc(deliveryID)

	err := g.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil && status.Code(err) != codes.NotFound {
			return err
		}
		if err == nil {
			var doc replayDoc
			if derr := snap.DataTo(&doc); derr == nil && now.Before(doc.ExpiresAt) {
				return errDuplicate
			}
		}
		return tx.Set(ref, &replayDoc{
			SeenAt:    now,
			ExpiresAt: now.Add(g.window),
		})
	})
	if errors.Is(err, errDuplicate) {
		return false, nil
	}
	if err != nil {
		if g.failOpen {
			ctxlog.From(ctx).Warn("replay store unreachable, admitting delivery (fail-open)",
				"delivery_id", deliveryID,
				"error", err,
			)
			return true, nil
		}
		return false, goerr.Wrap(err, "replay store unreachable", goerr.V("delivery_id", deliveryID))
	}
	return true, nil
}

// Forget releases a delivery ID so a redelivery is admitted again
func (g *Firestore) Forget(ctx context.Context, deliveryID string) error {
	_, err := g.client.Collection(g.collection).Doc(deliveryID).Delete(ctx)
	if err != nil && status.Code(err) != codes.NotFound {
		return goerr.Wrap(err, "failed to delete replay entry", goerr.V("delivery_id", deliveryID))
	}
	return nil
}

// Close releases the underlying Firestore client
func (g *Firestore) Close() error {
	return g.client.Close()
}
