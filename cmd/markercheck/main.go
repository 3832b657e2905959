package main

import (
	"os"

	"github.com/arenzana/markercheck/cmd/markercheck/cmd"
)

// Build information set by goreleaser
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
	builtBy = "unknown"
)

func main() {
	// Set version information for cobra command
	cmd.SetVersionInfo(version, commit, date, builtBy)

	os.Exit(cmd.Execute())
}
