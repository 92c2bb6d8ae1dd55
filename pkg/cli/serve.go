package cli

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/cli/config"
	controller "github.com/m-mizutani/mooring/pkg/controller/http"
	"github.com/m-mizutani/mooring/pkg/infra/notify"
	"github.com/m-mizutani/mooring/pkg/infra/store"
	"github.com/m-mizutani/mooring/pkg/usecase"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg config.Server
		githubCfg config.GitHub
		storeCfg  config.Store
		replayCfg config.Replay
		statsCfg  config.Stats
		policyCfg config.Policy
		notifyCfg config.Notify
		sentryCfg config.Sentry
	)

	var flags []cli.Flag
	flags = append(flags, serverCfg.Flags()...)
	flags = append(flags, githubCfg.Flags()...)
	flags = append(flags, storeCfg.Flags()...)
	flags = append(flags, replayCfg.Flags()...)
	flags = append(flags, statsCfg.Flags()...)
	flags = append(flags, policyCfg.Flags()...)
	flags = append(flags, notifyCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := githubCfg.Validate(); err != nil {
				return err
			}

			sentryEnabled, err := sentryCfg.Configure()
			if err != nil {
				return err
			}
			if sentryEnabled {
				defer sentry.Flush(2 * time.Second)
			}

			logger.Info("Starting mooring server",
				slog.String("addr", serverCfg.Addr),
				slog.String("db_path", storeCfg.Path),
				slog.Any("internal_orgs", policyCfg.InternalOrgs),
			)

			// Persistence
			db, err := store.Open(storeCfg.Path)
			if err != nil {
				return err
			}
			defer func() {
				if err := db.Close(); err != nil {
					logger.Warn("Failed to close store", slog.Any("error", err))
				}
			}()

			// Replay guard (local or Firestore, per configuration)
			guard, err := replayCfg.NewGuard(ctx)
			if err != nil {
				return err
			}
			if closer, ok := guard.(io.Closer); ok {
				defer func() {
					if err := closer.Close(); err != nil {
						logger.Warn("Failed to close replay guard", slog.Any("error", err))
					}
				}()
			}

			// GitHub App client
			githubClient, err := githubCfg.NewClient()
			if err != nil {
				return err
			}

			// Best-effort reporting
			var reporterOpts []usecase.ReporterOption
			if notifyCfg.SlackWebhookURL != "" {
				reporterOpts = append(reporterOpts, usecase.WithNotifier(notify.NewSlack(notifyCfg.SlackWebhookURL)))
			}
			reporter := usecase.NewReporter(githubClient, reporterOpts...)

			// Use cases
			webhookUC := usecase.NewWebhook(db, guard, githubClient,
				usecase.WithReporter(reporter),
				usecase.WithInternalOrgs(policyCfg.InternalOrgs),
				usecase.WithRetention(storeCfg.Retention),
			)
			statsUC := usecase.NewStats(db, statsCfg.CacheTTL)

			// Create HTTP server with options
			serverOpts := []controller.Option{
				controller.WithAddr(serverCfg.Addr),
				controller.WithWebhookSecret(githubCfg.WebhookSecret),
				controller.WithRunsPageLimit(storeCfg.RunsPageLimit),
				controller.WithFindingsPageLimit(storeCfg.FindingsPageLimit),
			}
			if githubCfg.NoVerifySignature {
				logger.Warn("Webhook signature verification is DISABLED")
				serverOpts = append(serverOpts, controller.WithNoVerifySignature())
			}

			server, err := controller.NewServer(ctx, webhookUC, statsUC, db, serverOpts...)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			// Start server in goroutine
			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			// Wait for interrupt signal
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Graceful shutdown
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
