package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiter_Burst(t *testing.T) {
	l := NewRateLimiter(1, 3, nil)
	now := time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !l.Allow("10.0.0.1") {
			t.Fatalf("request %d within burst was rejected", i)
		}
	}
	if l.Allow("10.0.0.1") {
		t.Error("request over burst was allowed")
	}
	if !l.Allow("10.0.0.2") {
		t.Error("a different client should have its own bucket")
	}

	now = now.Add(time.Second)
	if !l.Allow("10.0.0.1") {
		t.Error("bucket should refill after a second")
	}
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	l := NewRateLimiter(1, 1, nil)
	now := time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	l.Allow("a")
	now = now.Add(2 * limiterIdleTTL)
	l.Allow("b")

	if _, ok := l.clients["a"]; ok {
		t.Error("idle client a should have been evicted")
	}
	if len(l.clients) != 1 {
		t.Errorf("clients = %d, want 1", len(l.clients))
	}
}

func TestRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0, 0, nil)
	for i := 0; i < 1000; i++ {
		if !l.Allow("a") {
			t.Fatalf("disabled limiter rejected request %d", i)
		}
	}
}

func TestRateLimiter_Middleware(t *testing.T) {
	l := NewRateLimiter(1, 1, nil)
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	h := l.Middleware(next)

	codes := make([]int, 2)
	for i := range codes {
		req := httptest.NewRequest(http.MethodPost, WebhookPath, nil)
		req.RemoteAddr = "192.0.2.10:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
	}

	if codes[0] != http.StatusNoContent || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [204 429]", codes)
	}
}
