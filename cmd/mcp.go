package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/teemow/voicedesk/internal/mcptools"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the receptionist tools over MCP stdio",
		Long: `Serve search_kb, propose_slot, book_calendar and confirm_readback to an
MCP client over standard input/output, so staff can check availability and
book appointments without a phone call.

Tools act in the session named by their optional call_id argument
(default: ` + mcptools.DefaultCallID + `). Logs go to stderr.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			logger := newLogger(os.Stderr, cfg)
			a, err := newApp(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.close(context.Background()); err != nil {
					logger.Error("shutdown failed", "error", err)
				}
			}()

			a.logReady("mcp tools ready")
			return runStdioServer(ctx, newMCPServer(a))
		},
	}
}

func newMCPServer(a *app) *mcpserver.MCPServer {
	mcpSrv := mcpserver.NewMCPServer("voicedesk", version,
		mcpserver.WithToolCapabilities(true),
	)
	mcptools.Register(mcpSrv, a.dispatcher, a.sessions)
	return mcpSrv
}

func runStdioServer(ctx context.Context, mcpSrv *mcpserver.MCPServer) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- mcpserver.ServeStdio(mcpSrv)
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
