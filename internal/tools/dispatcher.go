package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/teemow/voicedesk/internal/instrumentation"
	"github.com/teemow/voicedesk/internal/logging"
	"github.com/teemow/voicedesk/internal/scheduling"
)

// DefaultTimeout bounds a single dispatch, including every calendar call it
// makes.
const DefaultTimeout = 10 * time.Second

// unknownToolLabel replaces unregistered tool names in metrics and spans so
// the agent cannot inflate label cardinality.
const unknownToolLabel = "unknown"

// Invocation is one tool call from the voice agent.
type Invocation struct {
	// ID correlates the result with the agent's request.
	ID        string
	Name      string
	Arguments map[string]any

	// ArgumentsErr is set when the arguments could not be read, typically
	// by DecodeArguments. A known tool then fails without running.
	ArgumentsErr error
}

// Result is the envelope returned to the agent for every invocation.
type Result struct {
	ToolCallID string `json:"tool_call_id"`
	ToolResult any    `json:"tool_result"`

	kind Kind
}

// Kind reports how the dispatch ended. It is KindOK for a successful result.
func (r Result) Kind() Kind {
	if r.kind == "" {
		return KindOK
	}
	return r.kind
}

// Failure is the ToolResult of an invocation that did not succeed.
type Failure struct {
	Error string `json:"error"`
	Code  Kind   `json:"code"`
}

// HandlerFunc runs one tool. Its error is classified with Classify.
type HandlerFunc func(ctx context.Context, callID string, args Args) (any, error)

// Config wires a Dispatcher to its collaborators. Slots, Bookings and
// Knowledge are required.
type Config struct {
	Slots     SlotFinder
	Bookings  Booker
	Knowledge KnowledgeLookup

	// Sessions receives the customer fields seen in tool arguments.
	Sessions FieldRecorder

	// Location is the service timezone used to read dates. Defaults to UTC.
	Location *time.Location

	// Clock decides which dates are in the past. Defaults to the wall clock.
	Clock scheduling.Clock

	// Timeout bounds each dispatch. Defaults to DefaultTimeout.
	Timeout time.Duration

	// MaxDuration caps propose_slot's durationMins. Defaults to MaxDuration.
	MaxDuration time.Duration

	Metrics *instrumentation.Metrics
	Audit   *instrumentation.AuditLogger
	Logger  *slog.Logger
}

// Dispatcher owns the fixed mapping from tool name to handler.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers map[string]HandlerFunc

	slots       SlotFinder
	bookings    Booker
	knowledge   KnowledgeLookup
	sessions    FieldRecorder
	location    *time.Location
	clock       scheduling.Clock
	timeout     time.Duration
	maxDuration time.Duration

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger
}

// NewDispatcher creates a Dispatcher with the four receptionist tools
// registered.
func NewDispatcher(cfg Config) (*Dispatcher, error) {
	switch {
	case cfg.Slots == nil:
		return nil, errors.New("tools: slot finder is required")
	case cfg.Bookings == nil:
		return nil, errors.New("tools: booker is required")
	case cfg.Knowledge == nil:
		return nil, errors.New("tools: knowledge lookup is required")
	}

	d := &Dispatcher{
		handlers:    make(map[string]HandlerFunc),
		slots:       cfg.Slots,
		bookings:    cfg.Bookings,
		knowledge:   cfg.Knowledge,
		sessions:    cfg.Sessions,
		location:    cfg.Location,
		clock:       cfg.Clock,
		timeout:     cfg.Timeout,
		maxDuration: cfg.MaxDuration,
		metrics:     cfg.Metrics,
		audit:       cfg.Audit,
		logger:      cfg.Logger,
	}
	if d.sessions == nil {
		d.sessions = discardFields{}
	}
	if d.location == nil {
		d.location = time.UTC
	}
	if d.clock == nil {
		d.clock = scheduling.ClockFunc(time.Now)
	}
	if d.timeout <= 0 {
		d.timeout = DefaultTimeout
	}
	if d.maxDuration <= 0 {
		d.maxDuration = MaxDuration
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	d.Register(SearchKB, d.searchKB)
	d.Register(ProposeSlot, d.proposeSlot)
	d.Register(BookCalendar, d.bookCalendar)
	d.Register(ConfirmReadback, d.confirmReadback)
	return d, nil
}

// Register adds or replaces the handler for name. It panics on an empty
// name or a nil handler.
func (d *Dispatcher) Register(name string, h HandlerFunc) {
	if name == "" {
		panic("tools: tool name is required")
	}
	if h == nil {
		panic("tools: handler is required for " + name)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers[name] = h
}

// Tools returns the registered tool names in sorted order.
func (d *Dispatcher) Tools() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dispatcher) handler(name string) (HandlerFunc, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[name]
	return h, ok
}

// Dispatch runs inv on behalf of callID and always returns a well-formed
// envelope carrying inv.ID.
func (d *Dispatcher) Dispatch(ctx context.Context, callID string, inv Invocation) Result {
	h, known := d.handler(inv.Name)
	label := inv.Name
	if !known {
		label = unknownToolLabel
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	ctx, span := instrumentation.StartToolSpan(ctx, label,
		attribute.String(instrumentation.SpanAttrCallID, logging.HashCallID(callID)))
	defer span.End()

	ti := instrumentation.NewToolInvocation(label, callID).WithSpanContext(ctx)

	var (
		payload any
		err     error
	)
	switch {
	case known && inv.ArgumentsErr != nil:
		err = inv.ArgumentsErr
	case known:
		payload, err = d.invoke(ctx, h, callID, Args(inv.Arguments))
	default:
		err = fmt.Errorf("%w %q", ErrUnknownTool, inv.Name)
	}

	kind := Classify(err)
	ti.Complete(string(kind), err)
	d.metrics.RecordToolInvocation(ctx, label, string(kind), ti.Duration)
	d.audit.LogToolInvocation(ti)

	if err != nil {
		span.SetAttributes(attribute.String(instrumentation.SpanAttrKind, string(kind)))
		instrumentation.SetSpanError(span, err)
		logger := logging.WithTool(d.logger, label)
		if kind == KindInternal {
			logger.Error("tool dispatch failed", logging.CallID(callID), logging.Err(err))
		} else {
			logger.Debug("tool returned failure", logging.CallID(callID), logging.Kind(string(kind)), logging.Err(err))
		}
		return Result{
			ToolCallID: inv.ID,
			ToolResult: Failure{Error: message(kind, err), Code: kind},
			kind:       kind,
		}
	}

	instrumentation.SetSpanSuccess(span)
	return Result{ToolCallID: inv.ID, ToolResult: payload, kind: KindOK}
}

func (d *Dispatcher) invoke(ctx context.Context, h HandlerFunc, callID string, args Args) (payload any, err error) {
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = fmt.Errorf("%w: %v", errPanic, r)
		}
	}()
	return h(ctx, callID, args)
}
