// Package instrumentation provides OpenTelemetry instrumentation for the
// voicedesk webhook service.
//
// # Metrics
//
// Webhook Metrics:
//   - webhook_requests_total: Counter of webhook deliveries by event type and status
//   - webhook_request_duration_seconds: Histogram of webhook handling durations
//   - webhook_signature_failures_total: Counter of rejected signatures
//
// Tool Metrics:
//   - tool_invocations_total: Counter of tool dispatches by tool name and result kind
//   - tool_duration_seconds: Histogram of tool dispatch durations
//
// Calendar Metrics:
//   - calendar_api_operations_total: Counter of Google Calendar calls by operation and status
//   - calendar_api_operation_duration_seconds: Histogram of Google Calendar call durations
//
// Session and Booking Metrics:
//   - active_call_sessions: Gauge of live call sessions
//   - bookings_total: Counter of booking attempts by result (created, deduplicated, failed)
//
// # Tracing
//
// Spans are created for every tool dispatch (tool.<name>) and every Google
// Calendar call (calendar.<operation>).
//
// # Configuration
//
// Instrumentation is configured from the environment via LoadConfig:
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp or stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout or none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 0.1)
//   - OTEL_SERVICE_NAME: Service name (default: voicedesk)
//
// # Example Usage
//
//	config, err := instrumentation.LoadConfig()
//	if err != nil {
//		return err
//	}
//	provider, err := instrumentation.NewProvider(ctx, config)
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordToolInvocation(ctx, "propose_slot", "ok", time.Since(start))
package instrumentation
