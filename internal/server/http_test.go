package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewServer_Routes(t *testing.T) {
	webhook := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv, err := NewServer(Config{Webhook: webhook, RateLimiter: NewRateLimiter(1, 1, nil)})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodPost, WebhookPath, http.StatusNoContent},
		{http.MethodPost, WebhookPath, http.StatusTooManyRequests},
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/readyz", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))
		if rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestNewServer_RequiresWebhook(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Error("NewServer() without webhook should fail")
	}
}

func TestServer_ServeAndShutdown(t *testing.T) {
	health := NewHealthChecker(nil)
	srv, err := NewServer(Config{
		Webhook: http.NotFoundHandler(),
		Health:  health,
	})
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- srv.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /healthz = %d", resp.StatusCode)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if err := <-done; err != nil {
		t.Errorf("Serve() after shutdown = %v, want nil", err)
	}
	if health.IsReady() {
		t.Error("server should not be ready after shutdown")
	}
}
