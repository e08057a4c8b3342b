// Package cli implements the cobra-based CLI for testlaunch.
//
// The root command launches the test runner. The doctor and config
// subcommands are defined in their own files within this package. This
// file defines the root command, the flags shared by every command, and
// the translation of command errors into process exit codes.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/testlaunch/internal/config"
	"github.com/shinji-kodama/testlaunch/internal/model"
	"github.com/shinji-kodama/testlaunch/internal/observability"
)

// Version, Commit, and Date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// exit terminates the process. Tests replace it to observe Execute.
var exit = os.Exit

// rootOptions holds the global flag values and the state PersistentPreRunE
// prepares for the command that runs.
type rootOptions struct {
	// jsonOutput controls whether errors and reports are formatted as JSON.
	jsonOutput bool

	// verbose forces debug-level logging regardless of log.level.
	verbose bool

	// configFile is an explicit config file path (--config).
	configFile string

	cfg    *config.Config
	logger *slog.Logger
}

// exitStatus carries the test runner's own exit code up to Run. It is
// not a failure of testlaunch, so Run exits with it silently.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("test runner exited with status %d", int(e))
}

// NewRootCommand creates and configures the root cobra command.
//
// Running the root command launches the test runner. Positional
// arguments (usually after "--") are appended to the configured command.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "testlaunch [flags] [-- runner args...]",
		Short: "Run the local test suite with a Docker-oriented environment",
		Long: `testlaunch loads .env, forces NODE_ENV=test and DOCKER_ENV=true, and runs
the test runner (npx jest --config jest.config.local.js by default) with
the terminal attached. It exits with the runner's own exit code.

Examples:
  testlaunch
  testlaunch -- --watch
  testlaunch --env-file .env.test --env-file .env
  testlaunch doctor`,

		// Extra arguments are forwarded to the test runner.
		Args: cobra.ArbitraryArgs,

		// SilenceUsage prevents cobra from printing usage on every error.
		// We handle error output ourselves for cleaner UX.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.prepare(cmd)
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runLaunch(cmd, opts, args)
		},
	}

	// Global flags. Config-backed flags only override the config layer
	// when the user actually sets them.
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output in JSON format")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	flags.StringVar(&opts.configFile, "config", "",
		"Config file (default: .testlaunch.{yaml,yml,json,toml} in the working directory)")
	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-format", "text", "Log format: text, json")
	flags.StringSlice("env-file", []string{config.DefaultEnvFile},
		"Env file to load; repeatable, earlier files win")
	flags.String("dir", "", "Working directory for the test runner")
	flags.String("signal-policy", string(model.SignalPolicySuccess),
		"Exit code when the runner is killed by a signal: success, conventional")

	rootCmd.AddCommand(NewDoctorCommand(opts))
	rootCmd.AddCommand(NewConfigCommand(opts))

	return rootCmd
}

// prepare loads configuration and builds the logger for the command about
// to run. The logger is stored in the command's context.
func (o *rootOptions) prepare(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		File:  o.configFile,
		Flags: cmd.Flags(),
	})
	if err != nil {
		return err
	}

	level := cfg.LogLevel()
	if o.verbose {
		level = "debug"
	}

	logger, err := observability.NewLogger(observability.Config{
		Level:   level,
		Format:  cfg.LogFormat(),
		Writer:  cmd.ErrOrStderr(),
		RunID:   observability.NewRunID(),
		Version: Version,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "failed to configure logging", err)
	}

	o.cfg = cfg
	o.logger = logger
	cmd.SetContext(observability.WithLogger(cmd.Context(), logger))

	if cfg.File() != "" {
		logger.Debug("loaded config file", slog.String("path", cfg.File()))
	}
	return nil
}

// Run executes the command tree rooted at rootCmd and returns the process
// exit code.
//
// CLIError types carry their own exit codes; a test runner status is
// returned as is; other errors default to exit code 1.
func Run(rootCmd *cobra.Command) int {
	err := rootCmd.Execute()
	if err == nil {
		return int(model.ExitSuccess)
	}

	var status exitStatus
	if errors.As(err, &status) {
		return int(status)
	}

	jsonOutput, _ := rootCmd.PersistentFlags().GetBool("json")
	stderr := rootCmd.ErrOrStderr()

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(stderr, jsonOutput, cliErr.Message, cliErr.Err)
	} else {
		// Generic error (unknown flag, bad arguments).
		printError(stderr, jsonOutput, err.Error(), nil)
	}
	return int(model.ExitCodeOf(err))
}

// Main builds the root command and runs it with the process arguments.
func Main() int {
	return Run(NewRootCommand())
}

// Execute runs the root command and exits the process with its code.
// This is the main entry point called from main.go.
func Execute(rootCmd *cobra.Command) {
	exit(Run(rootCmd))
}

// printError outputs an error message in the appropriate format
// (JSON or text).
func printError(w io.Writer, jsonOutput bool, message string, underlying error) {
	if jsonOutput {
		// JSON error format: {"error": {"message": ..., "detail": ...}}.
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode because stdout belongs to
		// the test runner and to successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	c := newConsole(io.Discard, w)
	if underlying != nil {
		c.Errorf("Error: %s: %v", message, underlying)
	} else {
		c.Errorf("Error: %s", message)
	}
}
