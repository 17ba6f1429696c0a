package server

import (
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"
)

const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
)

// SessionCounter reports the number of live call sessions.
type SessionCounter interface {
	Len() int
}

// HealthChecker serves the liveness and readiness probes. It starts ready.
type HealthChecker struct {
	ready        atomic.Bool
	shuttingDown atomic.Bool

	// sessions is optional and only reported by the detailed endpoint.
	sessions SessionCounter
	started  time.Time
}

// NewHealthChecker creates a ready HealthChecker. sessions may be nil.
func NewHealthChecker(sessions SessionCounter) *HealthChecker {
	h := &HealthChecker{sessions: sessions, started: time.Now()}
	h.ready.Store(true)
	return h
}

// SetReady toggles readiness. It has no effect once shutdown has begun.
func (h *HealthChecker) SetReady(ready bool) {
	if h.shuttingDown.Load() {
		return
	}
	h.ready.Store(ready)
}

// IsReady reports whether the webhook should receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load() && !h.shuttingDown.Load()
}

// MarkShuttingDown flips readiness off for the rest of the process lifetime.
func (h *HealthChecker) MarkShuttingDown() {
	h.shuttingDown.Store(true)
	h.ready.Store(false)
}

// HealthResponse is the body of /healthz and /readyz.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// DetailedHealthResponse is the body of /healthz/detailed.
type DetailedHealthResponse struct {
	Status         string `json:"status"`
	Uptime         string `json:"uptime"`
	ActiveSessions int    `json:"active_sessions"`
}

func check(ok bool, failed string) string {
	if ok {
		return healthStatusOK
	}
	return failed
}

// LivenessHandler answers 200 for as long as the process runs.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler answers 503 while not ready or shutting down.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{
			Status: healthStatusOK,
			Checks: map[string]string{
				"ready":    check(h.ready.Load(), healthStatusNotReady),
				"shutdown": check(!h.shuttingDown.Load(), healthStatusShuttingDown),
			},
		}
		code := http.StatusOK
		if !h.IsReady() {
			resp.Status = healthStatusNotReady
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})
}

// DetailedHealthHandler reports uptime and the live session count.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp := DetailedHealthResponse{
			Status: healthStatusOK,
			Uptime: time.Since(h.started).Truncate(time.Second).String(),
		}
		if h.sessions != nil {
			resp.ActiveSessions = h.sessions.Len()
		}

		code := http.StatusServiceUnavailable
		switch {
		case h.shuttingDown.Load():
			resp.Status = healthStatusShuttingDown
		case !h.ready.Load():
			resp.Status = healthStatusNotReady
		default:
			code = http.StatusOK
		}
		writeJSON(w, code, resp)
	})
}

// RegisterHealthEndpoints mounts the probes on mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("GET /healthz", h.LivenessHandler())
	mux.Handle("GET /readyz", h.ReadinessHandler())
	mux.Handle("GET /healthz/detailed", h.DetailedHealthHandler())
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
