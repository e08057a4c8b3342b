// Package launcher runs an external test runner as a child process and
// turns its outcome into a status code.
//
// The launch is strictly linear: compose the environment, spawn the child
// with the launcher's own stdin/stdout/stderr, block until it exits, map
// the outcome. The composed environment is handed to the child through
// exec.Cmd.Env; the launcher never writes it into its own process
// environment.
//
// Outcomes:
//   - the child exits with status C: Result.ExitCode is C
//   - the child is killed by a signal and has no status: Result.ExitCode
//     is chosen by the SignalPolicy (0 by default)
//   - the child cannot be started: a CLIError with ExitSpawnFailure
package launcher
