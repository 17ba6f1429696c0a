// Package mcptools exposes the receptionist tools over the Model Context
// Protocol so staff can check availability and book from an MCP client
// without placing a call.
//
// Every tool accepts an optional call_id (default "mcp-console"). The
// session is created on demand, so repeated bookings from the console are
// deduplicated just like bookings made during a call.
package mcptools
