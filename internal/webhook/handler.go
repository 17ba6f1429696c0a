package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/voicedesk/internal/instrumentation"
	"github.com/teemow/voicedesk/internal/logging"
	"github.com/teemow/voicedesk/internal/session"
	"github.com/teemow/voicedesk/internal/tools"
)

// DefaultMaxBodyBytes caps the raw body read for verification.
const DefaultMaxBodyBytes = 1 << 20

// RequestIDHeader is set on every response.
const RequestIDHeader = "X-Request-ID"

// eventUnknown labels metrics for bodies that never decoded.
const eventUnknown = "unknown"

// Sessions is the part of the session store driven by call events.
type Sessions interface {
	Init(callID string)
	AppendTranscript(callID, delta string)
	Close(callID string) (session.Summary, bool)
}

// Dispatcher answers tool calls.
type Dispatcher interface {
	Dispatch(ctx context.Context, callID string, inv tools.Invocation) tools.Result
}

// Config wires a Handler.
type Config struct {
	// Secret is the shared signing secret. When empty every delivery is
	// rejected.
	Secret string

	Sessions   Sessions
	Dispatcher Dispatcher

	// MaxBodyBytes defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64

	Metrics *instrumentation.Metrics
	Logger  *slog.Logger
}

// Handler serves POST /retell/webhook.
type Handler struct {
	secret     string
	sessions   Sessions
	dispatcher Dispatcher
	maxBody    int64
	metrics    *instrumentation.Metrics
	logger     *slog.Logger
}

// NewHandler creates a webhook Handler.
func NewHandler(cfg Config) *Handler {
	h := &Handler{
		secret:     cfg.Secret,
		sessions:   cfg.Sessions,
		dispatcher: cfg.Dispatcher,
		maxBody:    cfg.MaxBodyBytes,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
	}
	if h.maxBody <= 0 {
		h.maxBody = DefaultMaxBodyBytes
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}
	if h.secret == "" {
		h.logger.Warn("webhook signing secret is not configured, all deliveries will be rejected")
	}
	return h
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := uuid.NewString()
	w.Header().Set(RequestIDHeader, requestID)
	logger := h.logger.With(logging.RequestID(requestID))

	event := eventUnknown
	status := http.StatusNoContent
	defer func() {
		h.metrics.RecordWebhookRequest(r.Context(), event, status, time.Since(start))
	}()

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		status = http.StatusMethodNotAllowed
		writeJSON(w, status, errorResponse{Error: "method not allowed"})
		return
	}

	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
			writeJSON(w, status, errorResponse{Error: "request body too large"})
			return
		}
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "unreadable request body"})
		return
	}

	if !Verify(raw, r.Header.Get(SignatureHeader), h.secret) {
		h.metrics.RecordSignatureFailure(r.Context())
		logger.Warn("webhook signature rejected", slog.Int("body_bytes", len(raw)))
		status = http.StatusUnauthorized
		writeJSON(w, status, errorResponse{Error: "invalid signature"})
		return
	}

	ev, err := ParseEvent(raw)
	if err != nil {
		logger.Warn("malformed webhook event", logging.Err(err))
		status = http.StatusBadRequest
		writeJSON(w, status, errorResponse{Error: "malformed event"})
		return
	}
	event = knownEvent(ev.Event)
	callID := ev.Call.CallID
	ctx, span := instrumentation.StartSpan(r.Context(), "webhook."+event,
		attribute.String(instrumentation.SpanAttrEvent, event),
		attribute.String(instrumentation.SpanAttrCallID, logging.HashCallID(callID)),
	)
	defer span.End()

	logger = logger.With(logging.Event(ev.Event), logging.CallID(callID))
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With("trace_id", traceID)
	}
	logger.Debug("webhook event received")

	switch ev.Event {
	case EventCallStarted:
		h.sessions.Init(callID)
	case EventTranscriptDelta:
		if ev.Transcript != nil && ev.Transcript.Delta != "" {
			h.sessions.AppendTranscript(callID, ev.Transcript.Delta)
		}
	case EventToolCall:
		result := h.dispatcher.Dispatch(ctx, callID, ev.ToolCall.Invocation())
		status = http.StatusOK
		writeJSON(w, status, result)
		return
	case EventCallEnded:
		h.sessions.Close(callID)
	default:
		logger.Info("unhandled webhook event type")
	}

	w.WriteHeader(status)
}

// knownEvent keeps the metrics label set bounded.
func knownEvent(event string) string {
	switch event {
	case EventCallStarted, EventCallEnded, EventTranscriptDelta, EventToolCall:
		return event
	default:
		return eventUnknown
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
