package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/teemow/voicedesk/internal/config"
)

// rootCmd represents the base command for the voicedesk application
var rootCmd = &cobra.Command{
	Use:   "voicedesk",
	Short: "Phone receptionist backend for an HVAC business",
	Long: `voicedesk answers the voice platform's signed webhooks for an HVAC
business: it tracks live calls, answers FAQ questions, finds free
appointment slots in Google Calendar and books them exactly once.

It can run as:
  - A webhook server for the voice platform (default)
  - An MCP (Model Context Protocol) server so staff can use the same tools`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "voicedesk version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newMCPCmd())
	rootCmd.AddCommand(newVersionCmd())
}
