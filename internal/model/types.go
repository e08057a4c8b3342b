package model

import (
	"errors"
	"fmt"
	"strings"
)

// SignalPolicy decides which status code the launcher reports when the
// child process was terminated by a signal and therefore has no exit
// status of its own.
type SignalPolicy string

const (
	// SignalPolicySuccess reports an absent status as 0. This matches the
	// historical behavior of the launcher and is the default.
	SignalPolicySuccess SignalPolicy = "success"

	// SignalPolicyConventional reports 128 + signal number, the shell
	// convention (e.g., 137 for SIGKILL, 143 for SIGTERM).
	SignalPolicyConventional SignalPolicy = "conventional"
)

// String returns the string representation of SignalPolicy.
func (p SignalPolicy) String() string {
	return string(p)
}

// IsValid checks whether the SignalPolicy value is one of the
// predefined policies.
func (p SignalPolicy) IsValid() bool {
	switch p {
	case SignalPolicySuccess, SignalPolicyConventional:
		return true
	default:
		return false
	}
}

// ParseSignalPolicy converts a string to a SignalPolicy.
// An empty string yields the default policy.
func ParseSignalPolicy(s string) (SignalPolicy, error) {
	if strings.TrimSpace(s) == "" {
		return SignalPolicySuccess, nil
	}
	policy := SignalPolicy(strings.ToLower(strings.TrimSpace(s)))
	if !policy.IsValid() {
		return "", fmt.Errorf("invalid signal policy: %q (valid: success, conventional)", s)
	}
	return policy, nil
}

// LaunchSpec describes a single child process launch.
//
// Command holds argv: Command[0] is the program, resolved against PATH
// by the launcher. Env is the complete environment handed to the child;
// the launcher never consults its own process environment when starting
// the child.
type LaunchSpec struct {
	// Command is the program and its arguments. Must not be empty.
	Command []string `json:"command"`

	// Dir is the child's working directory. Empty means the launcher's
	// current working directory.
	Dir string `json:"dir,omitempty"`

	// Env is the full child environment.
	Env Env `json:"-"`
}

// Validate checks that the command can be launched.
func (s *LaunchSpec) Validate() error {
	if len(s.Command) == 0 || strings.TrimSpace(s.Command[0]) == "" {
		return errors.New("launch spec: command must not be empty")
	}
	return nil
}

// String returns the command line joined with spaces, for log output.
func (s *LaunchSpec) String() string {
	return strings.Join(s.Command, " ")
}

// Result is the outcome of a child process that was started successfully.
type Result struct {
	// ExitCode is the status the launcher should exit with.
	ExitCode ExitCode `json:"exitCode"`

	// StatusReported is false when the OS reported no exit status for the
	// child (it was terminated by a signal).
	StatusReported bool `json:"statusReported"`

	// Signal names the terminating signal when StatusReported is false.
	Signal string `json:"signal,omitempty"`
}

// ExitCode defines CLI exit codes. Codes 0-255 are also used verbatim
// for child statuses propagated by the launcher.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitSpawnFailure indicates the child process could not be started.
	// It shares its value with ExitGeneralError: CI systems only ever see 1.
	ExitSpawnFailure ExitCode = 1

	// ExitConfigError indicates invalid launcher configuration, detected
	// before anything was spawned.
	ExitConfigError ExitCode = 2

	// ExitPreflightFailed indicates that at least one doctor check failed.
	ExitPreflightFailed ExitCode = 3
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}

// ExitCodeOf returns the exit code carried by err. nil maps to
// ExitSuccess; errors without a CLIError in their chain map to
// ExitGeneralError.
func ExitCodeOf(err error) ExitCode {
	if err == nil {
		return ExitSuccess
	}
	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr.Code
	}
	return ExitGeneralError
}
