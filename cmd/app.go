package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/teemow/voicedesk/internal/booking"
	"github.com/teemow/voicedesk/internal/calendar"
	"github.com/teemow/voicedesk/internal/config"
	"github.com/teemow/voicedesk/internal/instrumentation"
	"github.com/teemow/voicedesk/internal/knowledge"
	"github.com/teemow/voicedesk/internal/logging"
	"github.com/teemow/voicedesk/internal/scheduling"
	"github.com/teemow/voicedesk/internal/session"
	"github.com/teemow/voicedesk/internal/tools"
)

// app holds the collaborators shared by the serve and mcp commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	provider *instrumentation.Provider

	sessions   *session.Store
	sweeper    *session.Sweeper
	resolver   *scheduling.Resolver
	dispatcher *tools.Dispatcher
}

// loadConfig reads the configuration for cmd from its flags, the
// environment and the optional config file.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(config.New(), cmd.Flags())
}

func newLogger(w io.Writer, cfg config.Config) *slog.Logger {
	return logging.New(w, cfg.Level(), cfg.LogFormat)
}

// newApp wires the session store, Google Calendar and the tool dispatcher.
// Call close when done.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*app, error) {
	instrConfig, err := instrumentation.LoadConfig()
	if err != nil {
		return nil, err
	}
	instrConfig.ServiceVersion = version

	provider, err := instrumentation.NewProvider(ctx, instrConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
	}
	metrics := provider.Metrics()

	a := &app{cfg: cfg, logger: logger, provider: provider}

	a.sessions = session.NewStore(
		session.WithTTL(cfg.SessionTTL),
		session.WithGauge(metrics),
		session.WithLogger(logger),
	)
	a.sweeper = session.NewSweeper(a.sessions, cfg.SweepInterval)

	httpClient, err := cfg.Google.HTTPClient(ctx)
	if err != nil {
		_ = a.close(ctx)
		return nil, fmt.Errorf("failed to create Google client: %w", err)
	}
	cal, err := calendar.NewClient(ctx, calendar.Config{
		CalendarID:    cfg.CalendarID,
		ClientOptions: []option.ClientOption{option.WithHTTPClient(httpClient)},
		Metrics:       metrics,
		Logger:        logger,
	})
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}

	hours := cfg.ServiceHours()
	a.resolver = scheduling.NewResolver(cal, hours,
		scheduling.WithDefaultDuration(cfg.Business.DefaultDuration),
		scheduling.WithLogger(logger),
	)
	recorder := booking.NewRecorder(cal, a.sessions, hours.Location,
		booking.WithSummaryPrefix(cfg.Business.SummaryPrefix),
		booking.WithMetrics(metrics),
		booking.WithLogger(logger),
	)

	kb, err := loadKnowledge(cfg.KnowledgeFile)
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	logger.Debug("knowledge base loaded", "entries", kb.Len())

	a.dispatcher, err = tools.NewDispatcher(tools.Config{
		Slots:       a.resolver,
		Bookings:    recorder,
		Knowledge:   kb,
		Sessions:    a.sessions,
		Location:    hours.Location,
		Clock:       a.resolver,
		Timeout:     cfg.ToolTimeout,
		MaxDuration: cfg.Business.MaxDuration,
		Metrics:     metrics,
		Audit:       instrumentation.NewAuditLoggerWithConfig(logger, instrConfig.AuditLogging),
		Logger:      logger,
	})
	if err != nil {
		_ = a.close(ctx)
		return nil, err
	}
	return a, nil
}

// logReady reports what the receptionist will answer with.
func (a *app) logReady(msg string) {
	hours := a.resolver.Hours()
	a.logger.Info(msg,
		"tools", a.dispatcher.Tools(),
		"timezone", hours.Location.String(),
		"open", hours.Open.String(),
		"close", hours.Close.String(),
		"session_ttl", a.sessions.TTL().String())
}

func loadKnowledge(path string) (*knowledge.Base, error) {
	if path == "" {
		return knowledge.Default()
	}
	kb, err := knowledge.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load knowledge file: %w", err)
	}
	return kb, nil
}

// close stops the sweeper and flushes telemetry.
func (a *app) close(ctx context.Context) error {
	if a.sweeper != nil {
		a.sweeper.Stop()
	}
	var errs []error
	if a.provider != nil {
		if err := a.provider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("instrumentation shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}
