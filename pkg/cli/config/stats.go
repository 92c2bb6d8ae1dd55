package config

import (
	"time"

	"github.com/urfave/cli/v3"
)

// Stats holds stats aggregator configuration
type Stats struct {
	CacheTTL time.Duration
}

// Flags returns CLI flags for stats configuration
func (c *Stats) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:        "stats-cache-ttl",
			Usage:       "Time to live of the cached stats snapshot",
			Value:       15 * time.Second,
			Destination: &c.CacheTTL,
			Sources:     cli.EnvVars("MOORING_STATS_CACHE_TTL"),
		},
	}
}
