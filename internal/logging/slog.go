package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyCallID    = "call_id"
	KeyEvent     = "event"
	KeyTool      = "tool"
	KeyKind      = "kind"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyDuration  = "duration"
	KeyRequestID = "request_id"
	KeyPhone     = "phone"
)

// Status values for consistent logging.
// Note: These are intentionally duplicated from instrumentation package
// to avoid circular dependencies (instrumentation imports logging).
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Output formats accepted by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New builds the process logger. Unknown formats fall back to JSON.
func New(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(name))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}

// WithCall returns a logger with the call_id attribute set.
func WithCall(logger *slog.Logger, callID string) *slog.Logger {
	return logger.With(slog.String(KeyCallID, callID))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// CallID returns a slog attribute for the call identifier.
func CallID(callID string) slog.Attr {
	return slog.String(KeyCallID, callID)
}

// Event returns a slog attribute for the webhook event type.
func Event(event string) slog.Attr {
	return slog.String(KeyEvent, event)
}

// Tool returns a slog attribute for the tool name.
func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

// Kind returns a slog attribute for an error kind.
func Kind(kind string) slog.Attr {
	return slog.String(KeyKind, kind)
}

// Status returns a slog attribute for the status.
func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Duration returns a slog attribute for an elapsed duration.
func Duration(d time.Duration) slog.Attr {
	return slog.Duration(KeyDuration, d)
}

// RequestID returns a slog attribute for the inbound request id.
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that will be omitted from output.
//
// Usage:
//
//	logger.Info("operation", logging.Err(err))  // Safe even if err is nil
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// MaskPhone keeps only the last four digits of a phone number.
// Numbers with four or fewer digits are fully masked.
func MaskPhone(phone string) string {
	var digits []rune
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	if len(digits) == 0 {
		return ""
	}
	if len(digits) <= 4 {
		return strings.Repeat("*", len(digits))
	}
	return strings.Repeat("*", len(digits)-4) + string(digits[len(digits)-4:])
}

// Phone returns a slog attribute with the masked phone number.
func Phone(phone string) slog.Attr {
	return slog.String(KeyPhone, MaskPhone(phone))
}

// HashCallID returns a short, stable hash of a call id. It is used where
// call ids would otherwise end up in low-trust sinks such as metric labels.
func HashCallID(callID string) string {
	if callID == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(callID))
	return "call:" + hex.EncodeToString(hash[:6])
}

// SanitizeSecret returns a length indicator without exposing any content.
func SanitizeSecret(secret string) string {
	if secret == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[secret:%d chars]", len(secret))
}
