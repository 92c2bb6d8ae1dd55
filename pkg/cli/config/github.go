package config

import (
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	githubinfra "github.com/m-mizutani/mooring/pkg/infra/github"
	"github.com/urfave/cli/v3"
)

// GitHub holds GitHub App configuration
type GitHub struct {
	WebhookSecret     string
	NoVerifySignature bool
	AppID             int64
	InstallationID    int64
	PrivateKeyPath    string
}

// Flags returns CLI flags for GitHub configuration
func (c *GitHub) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "github-webhook-secret",
			Usage:       "GitHub webhook secret",
			Destination: &c.WebhookSecret,
			Sources:     cli.EnvVars("MOORING_GITHUB_WEBHOOK_SECRET"),
		},
		&cli.BoolFlag{
			Name:        "no-verify-signature",
			Usage:       "Disable webhook signature verification (test deployments only)",
			Value:       false,
			Destination: &c.NoVerifySignature,
			Sources:     cli.EnvVars("MOORING_NO_VERIFY_SIGNATURE"),
		},
		&cli.Int64Flag{
			Name:        "github-app-id",
			Usage:       "GitHub App ID",
			Required:    true,
			Destination: &c.AppID,
			Sources:     cli.EnvVars("MOORING_GITHUB_APP_ID"),
		},
		&cli.Int64Flag{
			Name:        "github-installation-id",
			Usage:       "GitHub App installation ID",
			Required:    true,
			Destination: &c.InstallationID,
			Sources:     cli.EnvVars("MOORING_GITHUB_INSTALLATION_ID"),
		},
		&cli.StringFlag{
			Name:        "github-private-key",
			Usage:       "Path to the GitHub App private key PEM file",
			Required:    true,
			Destination: &c.PrivateKeyPath,
			Sources:     cli.EnvVars("MOORING_GITHUB_PRIVATE_KEY"),
		},
	}
}

// Validate checks the configuration consistency
func (c *GitHub) Validate() error {
	if c.WebhookSecret == "" && !c.NoVerifySignature {
		return goerr.New("github-webhook-secret is required unless no-verify-signature is set")
	}
	return nil
}

// NewClient builds the GitHub App client from the configuration
func (c *GitHub) NewClient() (interfaces.GitHubClient, error) {
	privateKey, err := os.ReadFile(c.PrivateKeyPath)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read private key", goerr.V("path", c.PrivateKeyPath))
	}
	return githubinfra.NewClient(c.AppID, c.InstallationID, privateKey)
}
