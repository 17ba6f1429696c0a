// Package server hosts the voicedesk HTTP surface.
//
// # Key Components
//
// Server serves the signed webhook at /retell/webhook behind a per-client
// RateLimiter, together with the probe endpoints of HealthChecker:
//   - /healthz: liveness
//   - /readyz: readiness, false once shutdown has begun
//   - /healthz/detailed: uptime and the number of live call sessions
//
// MetricsServer exposes Prometheus metrics on a dedicated port so that
// operational data never shares a listener with webhook traffic.
package server
