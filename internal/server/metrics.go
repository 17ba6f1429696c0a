package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// DefaultMetricsAddr keeps Prometheus scrapes off the public webhook port.
const DefaultMetricsAddr = ":9090"

// MetricsSource exports a Prometheus handler.
type MetricsSource interface {
	Enabled() bool
	MetricsHandler() http.Handler
}

// MetricsServerConfig configures a MetricsServer.
type MetricsServerConfig struct {
	// Addr defaults to DefaultMetricsAddr.
	Addr string

	Source MetricsSource
	Logger *slog.Logger
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewMetricsServer fails when the source exports nothing to scrape, for
// example when instrumentation is disabled or uses the OTLP exporter.
func NewMetricsServer(cfg MetricsServerConfig) (*MetricsServer, error) {
	if cfg.Source == nil {
		return nil, errors.New("metrics source is required")
	}
	if !cfg.Source.Enabled() {
		return nil, errors.New("instrumentation is disabled")
	}
	metrics := cfg.Source.MetricsHandler()
	if metrics == nil {
		return nil, errors.New("instrumentation does not export prometheus metrics")
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultMetricsAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metrics)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return &MetricsServer{
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}, nil
}

// Handler returns the route table without starting a listener.
func (s *MetricsServer) Handler() http.Handler {
	return s.httpServer.Handler
}

// Addr returns the configured listen address.
func (s *MetricsServer) Addr() string {
	return s.httpServer.Addr
}

// Serve accepts scrapes on l until Shutdown. It returns nil after a
// graceful shutdown.
func (s *MetricsServer) Serve(l net.Listener) error {
	s.logger.Info("starting metrics server", "addr", l.Addr().String())
	if err := s.httpServer.Serve(l); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Start listens on the configured address and serves until Shutdown.
func (s *MetricsServer) Start() error {
	l, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return err
	}
	return s.Serve(l)
}

// Shutdown stops the listener. It is a no-op if the server never started.
func (s *MetricsServer) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")
	return s.httpServer.Shutdown(ctx)
}
