package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/teemow/voicedesk/internal/booking"
	"github.com/teemow/voicedesk/internal/scheduling"
)

var (
	// ErrUnknownTool is returned for an invocation naming no registered tool.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrKnowledgeLookup wraps failures of the KnowledgeLookup.
	ErrKnowledgeLookup = errors.New("knowledge lookup failed")

	// errPanic marks a recovered handler panic.
	errPanic = errors.New("tool handler panicked")
)

// Kind classifies a dispatch outcome for the caller.
type Kind string

const (
	KindOK          Kind = "ok"
	KindValidation  Kind = "validation_failed"
	KindNotFound    Kind = "not_found"
	KindExternal    Kind = "external_failure"
	KindUnknownTool Kind = "unknown_tool"
	KindInternal    Kind = "internal"
)

// ValidationError reports an argument that does not match the tool's shape.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid argument %q: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Classify maps an error returned by a handler to its Kind. A nil error is
// KindOK and anything unrecognised is KindInternal.
func Classify(err error) Kind {
	var verr *ValidationError
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, errPanic):
		return KindInternal
	case errors.As(err, &verr),
		errors.Is(err, scheduling.ErrInvalidDuration),
		errors.Is(err, booking.ErrInvalidRequest):
		return KindValidation
	case errors.Is(err, ErrUnknownTool):
		return KindUnknownTool
	case errors.Is(err, scheduling.ErrNoAvailability):
		return KindNotFound
	case errors.Is(err, scheduling.ErrBusyLookup),
		errors.Is(err, booking.ErrBookingFailed),
		errors.Is(err, ErrKnowledgeLookup),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindExternal
	default:
		return KindInternal
	}
}

// message is the text the agent may read back to the caller. External and
// internal failures never expose downstream error details.
func message(kind Kind, err error) string {
	switch kind {
	case KindValidation, KindNotFound, KindUnknownTool:
		return err.Error()
	case KindExternal:
		for _, known := range []error{
			booking.ErrBookingFailed,
			scheduling.ErrBusyLookup,
			ErrKnowledgeLookup,
		} {
			if errors.Is(err, known) {
				return known.Error()
			}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "tool timed out"
		}
		return "external service unavailable"
	default:
		return "internal error"
	}
}
