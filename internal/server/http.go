package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const (
	// DefaultAddr is the default listen address of the webhook server.
	DefaultAddr = ":8080"

	// WebhookPath is where the voice platform delivers call events.
	WebhookPath = "/retell/webhook"
)

// Config configures the webhook HTTP server.
type Config struct {
	Addr string

	// Webhook handles signed call events.
	Webhook http.Handler

	// Health serves the probe endpoints. Defaults to a checker without a
	// session counter.
	Health *HealthChecker

	// RateLimiter guards the webhook. Nil disables rate limiting.
	RateLimiter *RateLimiter

	// WriteTimeout must cover the slowest tool dispatch.
	WriteTimeout time.Duration

	Logger *slog.Logger
}

// Server is the public HTTP listener.
type Server struct {
	httpServer *http.Server
	health     *HealthChecker
	logger     *slog.Logger
}

// NewServer builds the route table and the underlying http.Server.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Webhook == nil {
		return nil, errors.New("webhook handler is required")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Health == nil {
		cfg.Health = NewHealthChecker(nil)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	webhook := cfg.Webhook
	if cfg.RateLimiter != nil {
		webhook = cfg.RateLimiter.Middleware(webhook)
	}
	mux.Handle(WebhookPath, webhook)
	cfg.Health.RegisterHealthEndpoints(mux)

	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      cfg.WriteTimeout,
			IdleTimeout:       120 * time.Second,
		},
		health: cfg.Health,
		logger: cfg.Logger,
	}, nil
}

// Handler returns the route table.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Serve accepts connections on l until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(l net.Listener) error {
	s.logger.Info("starting webhook server", "addr", l.Addr().String(), "webhook", WebhookPath)
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *Server) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown marks the server not ready and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.health.MarkShuttingDown()
	s.logger.Info("shutting down webhook server")
	return s.httpServer.Shutdown(ctx)
}
