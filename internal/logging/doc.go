// Package logging provides structured logging utilities for the voicedesk service.
//
// This package centralizes logging patterns so that every component logs with
// the same attribute names, using the standard library's slog package.
//
// # Key Features
//
//   - Process logger construction (JSON for production, text for debugging)
//   - Consistent attribute naming across the codebase
//   - PII masking for caller phone numbers and call identifiers
//   - Level parsing for the --log-level flag
//
// # Usage Patterns
//
// Create a logger scoped to one call:
//
//	logger := logging.WithCall(slog.Default(), callID)
//	logger.Info("session started", logging.Event("call.started"))
//
// Mask caller data before logging:
//
//	logger.Info("booking confirmed", logging.Phone(fields.Phone))
//
// # Security Considerations
//
//   - Customer names, addresses and issue descriptions are never logged
//   - Phone numbers are reduced to their last four digits
//   - Signing secrets and OAuth tokens are never logged directly
package logging
