// Notes Dashboard - terminal client for a study-notes file server.
package main

import (
	"os"

	"github.com/studyvault/notesdash/internal/cli"
	"github.com/studyvault/notesdash/internal/version"
)

// Set by ldflags during build.
var (
	Version   = ""
	BuildTime = ""
)

func main() {
	if Version != "" {
		version.Version = Version
	}
	if BuildTime != "" {
		version.BuildTime = BuildTime
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
