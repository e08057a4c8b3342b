package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/shinji-kodama/testlaunch/internal/envfile"
	"github.com/shinji-kodama/testlaunch/internal/launcher"
	"github.com/shinji-kodama/testlaunch/internal/model"
)

// launchBanner is printed before the test runner starts.
const launchBanner = "Running tests in Docker environment..."

// runLaunch is the main logic of the root command. It prepares the
// environment, runs the test runner to completion, and reports the
// runner's exit code through an exitStatus error.
func runLaunch(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()
	cfg := opts.cfg
	logger := opts.logger

	// Step 1: Resolve the command line. Config validation already
	// rejected an empty or unparsable command.
	argv, err := cfg.Command()
	if err != nil {
		return err
	}
	argv = append(argv, args...)

	policy, err := cfg.SignalPolicy()
	if err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid signal_policy", err)
	}

	// Step 2: Load env files. A file that cannot be read is reported but
	// never stops the run; every other file is still loaded. The error
	// returned by Load only summarizes the Source.Err values logged below.
	loaded, sources, _ := envfile.Load(cfg.EnvFiles()...)
	for _, src := range sources {
		switch {
		case src.Err != nil:
			logger.Warn("skipping unreadable env file",
				slog.String("path", src.Path),
				slog.Any("error", src.Err),
			)
		case src.Warning != nil:
			logger.Warn("env file has malformed lines",
				slog.String("path", src.Path),
				slog.Any("error", src.Warning),
			)
		case src.Found:
			logger.Debug("loaded env file",
				slog.String("path", src.Path),
				slog.Int("vars", src.Vars),
			)
		default:
			logger.Debug("env file not found", slog.String("path", src.Path))
		}
	}

	// Step 3: Compose the child's environment. The process environment
	// wins over env files, and the forced test settings win over both.
	spec := launcher.BuildSpec(argv, cfg.Dir(), model.EnvFromList(os.Environ()), loaded)

	newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr()).Info(launchBanner)

	// Step 4: Run the child with the terminal attached and wait for it.
	l := launcher.New(
		launcher.WithStdio(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr()),
		launcher.WithSignalPolicy(policy),
	)
	result, err := l.Run(ctx, spec)
	if err != nil {
		logger.Debug("test runner could not be started", slog.Any("error", err))
		return err
	}

	if result.ExitCode != model.ExitSuccess {
		return exitStatus(result.ExitCode)
	}
	return nil
}
