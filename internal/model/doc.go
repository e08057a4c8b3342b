// Package model defines the domain types and value objects for the
// testlaunch CLI.
//
// This package contains pure data structures with no external dependencies.
// The launch specification (LaunchSpec), the child outcome (Result) and the
// environment mapping (Env) are transient: they are built at start-up,
// handed to the child process and discarded when the launcher exits.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
