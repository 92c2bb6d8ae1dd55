package config

import "github.com/urfave/cli/v3"

// Policy holds classification policy configuration
type Policy struct {
	InternalOrgs []string
}

// Flags returns CLI flags for policy configuration
func (c *Policy) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "internal-org",
			Usage:       "Owner namespace treated as internal (repeatable)",
			Destination: &c.InternalOrgs,
			Sources:     cli.EnvVars("MOORING_INTERNAL_ORGS"),
		},
	}
}
