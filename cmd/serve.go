package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/voicedesk/internal/config"
	"github.com/teemow/voicedesk/internal/logging"
	"github.com/teemow/voicedesk/internal/server"
	"github.com/teemow/voicedesk/internal/webhook"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		Long: `Start the HTTP server that receives the voice platform's signed call
events on ` + server.WebhookPath + `.

Every delivery must carry a valid X-Retell-Signature (hex HMAC-SHA256 of
the raw body keyed by --retell-signing-secret). Without a secret every
delivery is rejected.

Endpoints:
  POST ` + server.WebhookPath + `   call events and tool calls
  GET  /healthz          liveness
  GET  /readyz           readiness
  GET  /metrics          Prometheus metrics, on --metrics-addr`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func runServe(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger := newLogger(os.Stderr, cfg)

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}

	handler := webhook.NewHandler(webhook.Config{
		Secret:     cfg.SigningSecret,
		Sessions:   a.sessions,
		Dispatcher: a.dispatcher,
		Metrics:    a.provider.Metrics(),
		Logger:     logger,
	})

	logger.Info("webhook configured",
		"path", server.WebhookPath,
		"secret", logging.SanitizeSecret(cfg.SigningSecret),
		"calendar_id", cfg.CalendarID)
	a.logReady("receptionist ready")

	health := server.NewHealthChecker(a.sessions)
	srv, err := server.NewServer(server.Config{
		Addr:         cfg.Addr,
		Webhook:      handler,
		Health:       health,
		RateLimiter:  server.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger),
		WriteTimeout: cfg.ToolTimeout + 5*time.Second,
		Logger:       logger,
	})
	if err != nil {
		_ = a.close(context.Background())
		return err
	}

	var metricsServer *server.MetricsServer
	if cfg.MetricsEnabled && a.provider.Enabled() {
		metricsServer, err = server.NewMetricsServer(server.MetricsServerConfig{
			Addr:   cfg.MetricsAddr,
			Source: a.provider,
			Logger: logger,
		})
		if err != nil {
			logger.Warn("metrics server disabled", "error", err)
			metricsServer = nil
		}
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.Start()
	}()
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(); err != nil {
				errCh <- fmt.Errorf("metrics server: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case runErr = <-errCh:
		if runErr != nil {
			logger.Error("server stopped", "error", runErr)
		}
	}

	// Readiness off first, then drain in-flight deliveries, then stop the
	// sweeper and flush telemetry.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if runErr != nil {
		errs = append(errs, runErr)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("webhook server shutdown: %w", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	if err := a.close(shutdownCtx); err != nil {
		errs = append(errs, err)
	}
	logger.Info("shutdown complete", "open_sessions", a.sessions.Len())
	return errors.Join(errs...)
}
