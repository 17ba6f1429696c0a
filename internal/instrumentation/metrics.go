package instrumentation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	attrEvent     = "event"
	attrStatus    = "status"
	attrOperation = "operation"
	attrResult    = "result"
	attrTool      = "tool"
	attrKind      = "kind"
)

// Metrics provides methods for recording observability metrics.
// The zero value is a valid no-op recorder.
type Metrics struct {
	// Webhook metrics
	webhookRequestsTotal   metric.Int64Counter
	webhookRequestDuration metric.Float64Histogram
	signatureFailuresTotal metric.Int64Counter
	activeCallSessions     metric.Int64UpDownCounter

	// Tool metrics
	toolInvocationsTotal metric.Int64Counter
	toolDuration         metric.Float64Histogram

	// Calendar metrics
	calendarOperationsTotal   metric.Int64Counter
	calendarOperationDuration metric.Float64Histogram

	// Booking metrics
	bookingsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all instruments initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.webhookRequestsTotal, err = meter.Int64Counter(
		"webhook_requests_total",
		metric.WithDescription("Total number of webhook deliveries"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook_requests_total counter: %w", err)
	}

	m.webhookRequestDuration, err = meter.Float64Histogram(
		"webhook_request_duration_seconds",
		metric.WithDescription("Webhook handling duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook_request_duration_seconds histogram: %w", err)
	}

	m.signatureFailuresTotal, err = meter.Int64Counter(
		"webhook_signature_failures_total",
		metric.WithDescription("Total number of webhook deliveries rejected for a bad signature"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create webhook_signature_failures_total counter: %w", err)
	}

	m.activeCallSessions, err = meter.Int64UpDownCounter(
		"active_call_sessions",
		metric.WithDescription("Number of live call sessions"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create active_call_sessions gauge: %w", err)
	}

	m.toolInvocationsTotal, err = meter.Int64Counter(
		"tool_invocations_total",
		metric.WithDescription("Total number of tool dispatches"),
		metric.WithUnit("{invocation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_invocations_total counter: %w", err)
	}

	m.toolDuration, err = meter.Float64Histogram(
		"tool_duration_seconds",
		metric.WithDescription("Tool dispatch duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool_duration_seconds histogram: %w", err)
	}

	m.calendarOperationsTotal, err = meter.Int64Counter(
		"calendar_api_operations_total",
		metric.WithDescription("Total number of Google Calendar API operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operations_total counter: %w", err)
	}

	m.calendarOperationDuration, err = meter.Float64Histogram(
		"calendar_api_operation_duration_seconds",
		metric.WithDescription("Google Calendar API operation duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar_api_operation_duration_seconds histogram: %w", err)
	}

	m.bookingsTotal, err = meter.Int64Counter(
		"bookings_total",
		metric.WithDescription("Total number of booking attempts by result"),
		metric.WithUnit("{booking}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create bookings_total counter: %w", err)
	}

	return m, nil
}

// RecordWebhookRequest records a webhook delivery with its event type,
// HTTP status code and handling duration.
func (m *Metrics) RecordWebhookRequest(ctx context.Context, event string, statusCode int, duration time.Duration) {
	if m == nil || m.webhookRequestsTotal == nil || m.webhookRequestDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrEvent, event),
		attribute.String(attrStatus, strconv.Itoa(statusCode)),
	)
	m.webhookRequestsTotal.Add(ctx, 1, attrs)
	m.webhookRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordSignatureFailure counts a delivery rejected by signature verification.
func (m *Metrics) RecordSignatureFailure(ctx context.Context) {
	if m == nil || m.signatureFailuresTotal == nil {
		return
	}
	m.signatureFailuresTotal.Add(ctx, 1)
}

// RecordToolInvocation records a tool dispatch. kind is "ok" on success or
// the error kind reported back to the caller.
func (m *Metrics) RecordToolInvocation(ctx context.Context, tool, kind string, duration time.Duration) {
	if m == nil || m.toolInvocationsTotal == nil || m.toolDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrTool, tool),
		attribute.String(attrKind, kind),
	)
	m.toolInvocationsTotal.Add(ctx, 1, attrs)
	m.toolDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordCalendarOperation records a Google Calendar API call.
//
// Parameters:
//   - operation: OperationFreeBusy or OperationInsertEvent
//   - status: StatusSuccess or StatusError
//   - duration: Time taken for the call
func (m *Metrics) RecordCalendarOperation(ctx context.Context, operation, status string, duration time.Duration) {
	if m == nil || m.calendarOperationsTotal == nil || m.calendarOperationDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, status),
	)
	m.calendarOperationsTotal.Add(ctx, 1, attrs)
	m.calendarOperationDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordBooking counts a booking attempt. result is one of BookingCreated,
// BookingDeduplicated or BookingFailed.
func (m *Metrics) RecordBooking(ctx context.Context, result string) {
	if m == nil || m.bookingsTotal == nil {
		return
	}
	m.bookingsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// IncrementActiveSessions increments the live call session gauge.
func (m *Metrics) IncrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeCallSessions == nil {
		return
	}
	m.activeCallSessions.Add(ctx, 1)
}

// DecrementActiveSessions decrements the live call session gauge.
func (m *Metrics) DecrementActiveSessions(ctx context.Context) {
	if m == nil || m.activeCallSessions == nil {
		return
	}
	m.activeCallSessions.Add(ctx, -1)
}
