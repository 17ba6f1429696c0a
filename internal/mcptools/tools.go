package mcptools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/voicedesk/internal/tools"
)

// DefaultCallID is the session used when a request names no call_id.
const DefaultCallID = "mcp-console"

const callIDArg = "call_id"

// Dispatcher runs tool invocations.
type Dispatcher interface {
	Dispatch(ctx context.Context, callID string, inv tools.Invocation) tools.Result
}

// SessionEnsurer creates a session if it does not exist yet.
type SessionEnsurer interface {
	Ensure(callID string) bool
}

func callIDOption() mcp.ToolOption {
	return mcp.WithString(callIDArg,
		mcp.Description("Session to act in (default: '"+DefaultCallID+"'). Bookings are deduplicated per session."),
	)
}

var bookingFields = map[string]any{
	"name":     map[string]any{"type": "string", "description": "Customer full name"},
	"phone":    map[string]any{"type": "string", "description": "Customer phone number"},
	"address":  map[string]any{"type": "string", "description": "Service address"},
	"issue":    map[string]any{"type": "string", "description": "Description of the HVAC issue"},
	"startISO": map[string]any{"type": "string", "description": "Start time (RFC3339)"},
	"endISO":   map[string]any{"type": "string", "description": "End time (RFC3339)"},
}

// Definitions returns the MCP tool definitions, one per receptionist tool.
func Definitions() []mcp.Tool {
	return []mcp.Tool{
		mcp.NewTool(tools.SearchKB,
			mcp.WithDescription("Search the knowledge base for answers to customer questions"),
			mcp.WithString("query",
				mcp.Required(),
				mcp.Description("Search query for the knowledge base"),
			),
			callIDOption(),
		),
		mcp.NewTool(tools.ProposeSlot,
			mcp.WithDescription("Find the first available appointment slot"),
			mcp.WithString("date",
				mcp.Description("Preferred date in YYYY-MM-DD format (default: next business day)"),
			),
			mcp.WithNumber("durationMins",
				mcp.Description("Duration in minutes (default: 120)"),
			),
			callIDOption(),
		),
		mcp.NewTool(tools.BookCalendar,
			mcp.WithDescription("Book a confirmed appointment in Google Calendar"),
			mcp.WithString("name", mcp.Required(), mcp.Description("Customer full name")),
			mcp.WithString("phone", mcp.Required(), mcp.Description("Customer phone number")),
			mcp.WithString("address", mcp.Required(), mcp.Description("Service address")),
			mcp.WithString("issue", mcp.Required(), mcp.Description("Description of the HVAC issue")),
			mcp.WithString("startISO", mcp.Required(), mcp.Description("Start time (RFC3339, e.g., '2025-01-03T11:00:00-08:00')")),
			mcp.WithString("endISO", mcp.Required(), mcp.Description("End time (RFC3339)")),
			callIDOption(),
		),
		mcp.NewTool(tools.ConfirmReadback,
			mcp.WithDescription("Record appointment details confirmed with the customer"),
			mcp.WithObject("details",
				mcp.Required(),
				mcp.Description("Confirmed appointment details"),
				mcp.Properties(bookingFields),
			),
			callIDOption(),
		),
	}
}

// Register adds every receptionist tool to s.
func Register(s *mcpserver.MCPServer, d Dispatcher, sessions SessionEnsurer) {
	for _, tool := range Definitions() {
		s.AddTool(tool, Handler(tool.Name, d, sessions))
	}
}

// Handler returns the MCP handler for the named tool.
func Handler(name string, d Dispatcher, sessions SessionEnsurer) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := make(map[string]any)
		for k, v := range request.GetArguments() {
			args[k] = v
		}

		callID := DefaultCallID
		if v, ok := args[callIDArg].(string); ok && v != "" {
			callID = v
		}
		delete(args, callIDArg)
		if sessions != nil {
			sessions.Ensure(callID)
		}

		result := d.Dispatch(ctx, callID, tools.Invocation{
			ID:        "mcp-" + name,
			Name:      name,
			Arguments: args,
		})

		payload, err := json.MarshalIndent(result.ToolResult, "", "  ")
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
		}
		if result.Kind() != tools.KindOK {
			return mcp.NewToolResultError(string(payload)), nil
		}
		return mcp.NewToolResultText(string(payload)), nil
	}
}
