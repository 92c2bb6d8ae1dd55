package config

import (
	"context"
	"time"

	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/infra/replay"
	"github.com/urfave/cli/v3"
)

// Replay holds replay guard configuration. Setting a Firestore project
// selects the distributed guard; otherwise the in-process guard is used.
type Replay struct {
	Window              time.Duration
	FirestoreProject    string
	FirestoreCollection string
	FailOpen            bool
}

// Flags returns CLI flags for replay guard configuration
func (c *Replay) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "replay-window",
			Usage:       "Replay suppression window",
			Value:       300 * time.Second,
			Destination: &c.Window,
			Sources:     cli.EnvVars("MOORING_REPLAY_WINDOW"),
		},
		&cli.StringFlag{
			Name:        "replay-firestore-project",
			Usage:       "Google Cloud project for the shared replay store (empty: in-process guard)",
			Destination: &c.FirestoreProject,
			Sources:     cli.EnvVars("MOORING_REPLAY_FIRESTORE_PROJECT"),
		},
		&cli.StringFlag{
			Name:        "replay-firestore-collection",
			Usage:       "Firestore collection for replay entries",
			Value:       "replay_guard",
			Destination: &c.FirestoreCollection,
			Sources:     cli.EnvVars("MOORING_REPLAY_FIRESTORE_COLLECTION"),
		},
		&cli.BoolFlag{
			Name:        "replay-fail-open",
			Usage:       "Admit deliveries when the shared replay store is unreachable (default: reject)",
			Value:       false,
			Destination: &c.FailOpen,
			Sources:     cli.EnvVars("MOORING_REPLAY_FAIL_OPEN"),
		},
	}
}

// NewGuard builds the replay guard selected by the configuration
func (c *Replay) NewGuard(ctx context.Context) (interfaces.ReplayGuard, error) {
	if c.FirestoreProject != "" {
		return replay.NewFirestore(ctx, c.FirestoreProject, c.FirestoreCollection, c.Window, c.FailOpen)
	}
	return replay.NewLocal(c.Window), nil
}
