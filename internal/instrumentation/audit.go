package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/voicedesk/internal/logging"
)

// ToolInvocation captures one tool dispatch for audit logging.
type ToolInvocation struct {
	Tool   string
	CallID string

	// Kind is "ok" on success, otherwise the error kind sent to the caller.
	Kind string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation creates a new ToolInvocation with timing started.
// Call Complete() when the dispatch finishes.
func NewToolInvocation(tool, callID string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		CallID:    callID,
		StartTime: time.Now(),
	}
}

// Status returns "success" or "error" based on the Success field.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

// WithSpanContext extracts trace context from the current span.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete records the outcome. kind is "ok" when err is nil.
func (ti *ToolInvocation) Complete(kind string, err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Kind = kind
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// LogAttrs returns slog attributes for structured logging. The call id is
// hashed unless includeCallID is set.
func (ti *ToolInvocation) LogAttrs(includeCallID bool) []slog.Attr {
	callID := logging.HashCallID(ti.CallID)
	if includeCallID {
		callID = ti.CallID
	}

	attrs := []slog.Attr{
		logging.Tool(ti.Tool),
		logging.CallID(callID),
		logging.Kind(ti.Kind),
		logging.Duration(ti.Duration),
		logging.Status(ti.Status()),
	}

	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}

	return attrs
}

// AuditLogger provides structured audit logging for tool invocations.
type AuditLogger struct {
	logger         *slog.Logger
	includeCallIDs bool
	enabled        bool
}

// NewAuditLogger creates a new AuditLogger. Call ids are hashed by default.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:         logger.With("component", "audit"),
		includeCallIDs: config.IncludeCallIDs,
		enabled:        config.Enabled,
	}
}

// LogToolInvocation logs a completed tool invocation, at info on success
// and warn on failure. A nil AuditLogger is a no-op.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}

	attrs := ti.LogAttrs(al.includeCallIDs)
	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ti.Success {
		al.logger.Info("tool_executed", args...)
	} else {
		al.logger.Warn("tool_failed", args...)
	}
}
