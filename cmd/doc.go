// Package cmd implements the command-line interface for voicedesk.
//
// This package provides the following commands:
//   - serve: Start the signed webhook server for the voice platform
//   - mcp: Serve the receptionist tools to an MCP client over stdio
//   - version: Display version information
//
// The serve command is the default command when no subcommand is specified.
// Every command reads the same configuration from flags, environment
// variables named after the flag (--retell-signing-secret becomes
// RETELL_SIGNING_SECRET) and an optional YAML file named by --config.
package cmd
