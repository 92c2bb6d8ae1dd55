package config

import "github.com/urfave/cli/v3"

// Store holds run/finding store configuration
type Store struct {
	Path              string
	Retention         int
	RunsPageLimit     int
	FindingsPageLimit int
}

// Flags returns CLI flags for store configuration
func (c *Store) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "db-path",
			Usage:       "Path to the SQLite database file",
			Value:       "mooring.db",
			Destination: &c.Path,
			Sources:     cli.EnvVars("MOORING_DB_PATH"),
		},
		&cli.IntFlag{
			Name:        "retention",
			Usage:       "Maximum number of runs to keep, oldest are pruned",
			Value:       1000,
			Destination: &c.Retention,
			Sources:     cli.EnvVars("MOORING_RETENTION"),
		},
		&cli.IntFlag{
			Name:        "runs-page-limit",
			Usage:       "Maximum page size of the run listing endpoint",
			Value:       200,
			Destination: &c.RunsPageLimit,
			Sources:     cli.EnvVars("MOORING_RUNS_PAGE_LIMIT"),
		},
		&cli.IntFlag{
			Name:        "findings-page-limit",
			Usage:       "Maximum page size of the finding listing endpoints",
			Value:       500,
			Destination: &c.FindingsPageLimit,
			Sources:     cli.EnvVars("MOORING_FINDINGS_PAGE_LIMIT"),
		},
	}
}
