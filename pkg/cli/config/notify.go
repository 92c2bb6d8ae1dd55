package config

import "github.com/urfave/cli/v3"

// Notify holds notification side-channel configuration
type Notify struct {
	SlackWebhookURL string
}

// Flags returns CLI flags for notification configuration
func (c *Notify) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "slack-webhook-url",
			Usage:       "Slack incoming webhook URL for run summaries (empty: disabled)",
			Destination: &c.SlackWebhookURL,
			Sources:     cli.EnvVars("MOORING_SLACK_WEBHOOK_URL"),
		},
	}
}
