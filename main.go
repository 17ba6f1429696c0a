package main

import (
	// The business timezone must resolve on hosts without a zoneinfo database.
	_ "time/tzdata"

	"github.com/teemow/voicedesk/cmd"
)

// version will be set by goreleaser during build
var version = "dev"

func main() {
	// Set the version from build-time variable
	cmd.SetVersion(version)

	// Execute the root command
	cmd.Execute()
}
