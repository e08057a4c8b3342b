// Package main is the entry point for the testlaunch CLI.
//
// testlaunch runs the project's local test suite with NODE_ENV=test and
// DOCKER_ENV=true, loading .env first, and exits with the test runner's
// own exit code. It delegates all functionality to the internal/cli
// package, which defines cobra commands.
//
// Build-time variables (version, commit, date) are injected via ldflags
// during the release process. During development, they default to
// "dev", "none", and "unknown" respectively.
package main

import (
	"github.com/shinji-kodama/testlaunch/internal/cli"
)

// version, commit, and date are set at build time via ldflags, e.g.
// -ldflags "-X main.version=1.2.0".
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	// Execute handles error formatting and exits with the runner's code.
	cli.Execute(cli.NewRootCommand())
}
