// Package main provides the twowaysql command.
package main

import (
	"os"

	"github.com/leapstack-labs/twowaysql/internal/cli"
)

// Set at build time with -ldflags "-X main.version=...".
var (
	version   = ""
	buildDate = ""
	gitCommit = ""
)

func main() {
	if version != "" {
		cli.Version = version
	}
	if buildDate != "" {
		cli.BuildDate = buildDate
	}
	if gitCommit != "" {
		cli.GitCommit = gitCommit
	}

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
