package instrumentation

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/teemow/voicedesk/internal/logging"
)

const (
	testCallID = "call_8f2e"
	testTool   = "book_calendar"
)

func TestToolInvocation_NewAndComplete(t *testing.T) {
	ti := NewToolInvocation(testTool, testCallID)
	if ti.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ti.Complete("ok", nil)

	if !ti.Success || ti.Kind != "ok" {
		t.Errorf("unexpected completion: success=%v kind=%q", ti.Success, ti.Kind)
	}
	if ti.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ti.Status() != StatusSuccess {
		t.Errorf("Status() = %q", ti.Status())
	}
}

func TestToolInvocation_CompleteFailure(t *testing.T) {
	ti := NewToolInvocation(testTool, testCallID)
	ti.Complete("external_failure", errors.New("calendar unavailable"))

	if ti.Success {
		t.Error("Success should be false")
	}
	if ti.Kind != "external_failure" || ti.Error != "calendar unavailable" {
		t.Errorf("unexpected failure fields: kind=%q error=%q", ti.Kind, ti.Error)
	}
	if ti.Status() != StatusError {
		t.Errorf("Status() = %q", ti.Status())
	}
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", buf.String(), err)
	}
	return record
}

func TestAuditLogger_HashesCallID(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

	audit.LogToolInvocation(NewToolInvocation(testTool, testCallID).Complete("ok", nil))

	record := decodeLine(t, &buf)
	if record["msg"] != "tool_executed" || record["level"] != "INFO" {
		t.Errorf("unexpected record %v", record)
	}
	if record["call_id"] != logging.HashCallID(testCallID) {
		t.Errorf("call_id = %v, want hashed id", record["call_id"])
	}
	if record["status"] != StatusSuccess {
		t.Errorf("status = %v, want %q", record["status"], StatusSuccess)
	}
	if record["component"] != "audit" {
		t.Errorf("component = %v", record["component"])
	}
}

func TestAuditLogger_IncludeCallIDsAndFailure(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{
		Enabled:        true,
		IncludeCallIDs: true,
	})

	audit.LogToolInvocation(NewToolInvocation(testTool, testCallID).Complete("validation_failed", errors.New("name is required")))

	record := decodeLine(t, &buf)
	if record["msg"] != "tool_failed" || record["level"] != "WARN" {
		t.Errorf("unexpected record %v", record)
	}
	if record["call_id"] != testCallID {
		t.Errorf("call_id = %v, want raw id", record["call_id"])
	}
	if record["error"] != "name is required" || record["kind"] != "validation_failed" {
		t.Errorf("unexpected error fields %v", record)
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	var buf bytes.Buffer
	audit := NewAuditLoggerWithConfig(slog.New(slog.NewJSONHandler(&buf, nil)), AuditLoggingConfig{Enabled: false})
	audit.LogToolInvocation(NewToolInvocation(testTool, testCallID).Complete("ok", nil))

	var nilAudit *AuditLogger
	nilAudit.LogToolInvocation(NewToolInvocation(testTool, testCallID).Complete("ok", nil))

	if buf.Len() != 0 {
		t.Errorf("disabled audit logger wrote %q", buf.String())
	}
}
