package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
)

// config holds internal HTTP server configuration
type config struct {
	addr              string
	webhookSecret     string
	noVerifySignature bool
	runsPageLimit     int
	findingsPageLimit int
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithNoVerifySignature disables signature verification. Test deployments
// only; without this flag an empty secret rejects every delivery.
func WithNoVerifySignature() Option {
	return func(c *config) {
		c.noVerifySignature = true
	}
}

// WithRunsPageLimit caps the page size of the run listing endpoint
func WithRunsPageLimit(n int) Option {
	return func(c *config) {
		c.runsPageLimit = n
	}
}

// WithFindingsPageLimit caps the page size of the finding listing endpoints
func WithFindingsPageLimit(n int) Option {
	return func(c *config) {
		c.findingsPageLimit = n
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	webhookUC interfaces.WebhookUseCase,
	statsUC interfaces.StatsUseCase,
	store interfaces.RunStore,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:              "localhost:8080",
		runsPageLimit:     200,
		findingsPageLimit: 500,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Webhook endpoint
	webhookHandler := NewWebhookHandler(cfg.webhookSecret, cfg.noVerifySignature, webhookUC)
	router.Post("/hooks/github/app", webhookHandler.Handle)

	// Query surface
	queryHandler := NewQueryHandler(store, statsUC, cfg.runsPageLimit, cfg.findingsPageLimit)
	router.Route("/api", func(r chi.Router) {
		r.Get("/runs", queryHandler.HandleListRuns)
		r.Get("/findings", queryHandler.HandleListFindings)
		r.Get("/runs/{runID}/findings", queryHandler.HandleRunFindings)
		r.Get("/stats", queryHandler.HandleStats)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
