package webhook

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/teemow/voicedesk/internal/tools"
)

// Event types delivered by the platform.
const (
	EventCallStarted     = "call.started"
	EventCallEnded       = "call.ended"
	EventTranscriptDelta = "transcript.delta"
	EventToolCall        = "tool.call"
)

// Event is one webhook delivery.
type Event struct {
	Event      string      `json:"event"`
	Call       Call        `json:"call"`
	Transcript *Transcript `json:"transcript,omitempty"`
	ToolCall   *ToolCall   `json:"tool_call,omitempty"`
}

// Call identifies the call an event belongs to.
type Call struct {
	CallID         string `json:"call_id"`
	AgentID        string `json:"agent_id,omitempty"`
	FromNumber     string `json:"from_number,omitempty"`
	ToNumber       string `json:"to_number,omitempty"`
	StartTimestamp int64  `json:"start_timestamp,omitempty"`
	EndTimestamp   int64  `json:"end_timestamp,omitempty"`
}

// Transcript is the payload of a transcript.delta event.
type Transcript struct {
	Delta     string `json:"delta,omitempty"`
	Role      string `json:"role,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`
}

// ToolCall is the payload of a tool.call event.
type ToolCall struct {
	ToolCallID string          `json:"tool_call_id"`
	ToolName   string          `json:"tool_name"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
}

// Invocation converts the tool call for dispatch. Arguments that are not an
// object are carried as ArgumentsErr so the agent still gets an envelope
// with its tool_call_id.
func (tc *ToolCall) Invocation() tools.Invocation {
	args, err := tools.DecodeArguments(tc.Arguments)
	return tools.Invocation{
		ID:           tc.ToolCallID,
		Name:         tc.ToolName,
		Arguments:    args,
		ArgumentsErr: err,
	}
}

// ErrMalformedEvent is returned by ParseEvent for a body that is not a
// usable event.
var ErrMalformedEvent = errors.New("malformed webhook event")

// ParseEvent decodes an authenticated body. Unknown event types parse
// successfully so they can be acknowledged.
func ParseEvent(raw []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if ev.Event == "" {
		return Event{}, fmt.Errorf("%w: missing event type", ErrMalformedEvent)
	}
	if ev.Call.CallID == "" {
		return Event{}, fmt.Errorf("%w: missing call id", ErrMalformedEvent)
	}
	if ev.Event == EventToolCall {
		if ev.ToolCall == nil || ev.ToolCall.ToolName == "" {
			return Event{}, fmt.Errorf("%w: tool call without a tool name", ErrMalformedEvent)
		}
	}
	return ev, nil
}
