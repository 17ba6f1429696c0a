package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer behind every voicedesk span.
const TracerName = "github.com/teemow/voicedesk"

// Span attribute keys. Call ids are always hashed before they are attached.
const (
	SpanAttrTool       = "voicedesk.tool"
	SpanAttrCallID     = "voicedesk.call_id"
	SpanAttrEvent      = "voicedesk.event"
	SpanAttrKind       = "voicedesk.error_kind"
	SpanAttrOperation  = "calendar.operation"
	SpanAttrCalendarID = "calendar.id"
)

func tracer() trace.Tracer {
	return otel.GetTracerProvider().Tracer(TracerName)
}

// StartSpan starts an internal span, such as "webhook.tool.call". End it
// with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartToolSpan wraps one dispatch as the server span "tool.<name>".
func StartToolSpan(ctx context.Context, toolName string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, "tool."+toolName,
		trace.WithAttributes(prepend(attribute.String(SpanAttrTool, toolName), attrs)...),
		trace.WithSpanKind(trace.SpanKindServer),
	)
}

// StartCalendarSpan wraps a Google Calendar request as the client span
// "calendar.<operation>" (freebusy, insert).
func StartCalendarSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer().Start(ctx, "calendar."+operation,
		trace.WithAttributes(prepend(attribute.String(SpanAttrOperation, operation), attrs)...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

func prepend(first attribute.KeyValue, rest []attribute.KeyValue) []attribute.KeyValue {
	return append([]attribute.KeyValue{first}, rest...)
}

// SetSpanError marks span failed. A nil err leaves it untouched.
func SetSpanError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanSuccess marks span OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace id of the span in ctx, or "" without one.
// The webhook logs it next to the request id.
func GetTraceID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.TraceID().String()
	}
	return ""
}

// GetSpanID returns the span id of the span in ctx, or "".
func GetSpanID(ctx context.Context) string {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		return sc.SpanID().String()
	}
	return ""
}
