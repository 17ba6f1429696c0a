package server

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/teemow/voicedesk/internal/instrumentation"
)

type staticSource struct {
	enabled bool
	handler http.Handler
}

func (s staticSource) Enabled() bool                { return s.enabled }
func (s staticSource) MetricsHandler() http.Handler { return s.handler }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewMetricsServer(t *testing.T) {
	ok := http.NotFoundHandler()
	tests := []struct {
		name        string
		source      MetricsSource
		errContains string
	}{
		{name: "valid", source: staticSource{enabled: true, handler: ok}},
		{name: "nil source", source: nil, errContains: "metrics source is required"},
		{name: "disabled", source: staticSource{enabled: false, handler: ok}, errContains: "disabled"},
		{name: "no prometheus exporter", source: staticSource{enabled: true}, errContains: "does not export prometheus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, err := NewMetricsServer(MetricsServerConfig{Source: tt.source, Logger: quietLogger()})
			if tt.errContains != "" {
				if err == nil || !strings.Contains(err.Error(), tt.errContains) {
					t.Fatalf("NewMetricsServer() error = %v, want %q", err, tt.errContains)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewMetricsServer() unexpected error: %v", err)
			}
			if srv.Addr() != DefaultMetricsAddr {
				t.Errorf("Addr() = %q, want %q", srv.Addr(), DefaultMetricsAddr)
			}
		})
	}
}

func TestMetricsServer_ServesProviderRegistry(t *testing.T) {
	ctx := context.Background()
	provider, err := instrumentation.NewProvider(ctx, instrumentation.Config{
		ServiceName:     "voicedesk-test",
		ServiceVersion:  "test",
		Enabled:         true,
		MetricsExporter: instrumentation.ExporterPrometheus,
		TracingExporter: instrumentation.ExporterNone,
	})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	provider.Metrics().RecordSignatureFailure(ctx)

	srv, err := NewMetricsServer(MetricsServerConfig{Source: provider, Logger: quietLogger()})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "webhook_signature_failures_total") {
		t.Errorf("metrics output missing webhook_signature_failures_total:\n%s", rec.Body.String())
	}
}

func TestMetricsServer_ServeAndShutdown(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		Source: staticSource{enabled: true, handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("scrape"))
		})},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "scrape" {
		t.Errorf("body = %q, want scrape", body)
	}

	resp, err = http.Post("http://"+l.Addr().String()+"/metrics", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("POST /metrics status = %d, want 405", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve() error = %v", err)
	}
}

func TestMetricsServer_ShutdownWithoutStart(t *testing.T) {
	srv, err := NewMetricsServer(MetricsServerConfig{
		Source: staticSource{enabled: true, handler: http.NotFoundHandler()},
		Logger: quietLogger(),
	})
	if err != nil {
		t.Fatalf("NewMetricsServer() error = %v", err)
	}
	if err := srv.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() without Serve() error = %v", err)
	}
}
