package launcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"

	"github.com/shinji-kodama/testlaunch/internal/model"
	"github.com/shinji-kodama/testlaunch/internal/observability"
)

// spawnFailureMessage is the message of every SpawnFailure CLIError.
const spawnFailureMessage = "failed to launch test runner"

// Launcher starts child processes with inherited standard streams.
//
// A Launcher holds no per-run state and may be reused, but Run blocks
// until its child exits, so runs are sequential by construction.
type Launcher struct {
	// stdin is handed to the child. When it is the controlling terminal,
	// it also decides which signals the child already receives from the
	// terminal driver (see Run).
	stdin io.Reader

	// stdout and stderr are handed to the child. The launcher's own
	// diagnostics go through the logger, never through these streams.
	stdout io.Writer
	stderr io.Writer

	// policy decides the exit code of a child that was killed by a signal
	// and therefore has no status of its own.
	policy model.SignalPolicy
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithStdio replaces the streams handed to the child. When they are
// *os.File values the child receives the file descriptors directly;
// any other reader or writer is copied by os/exec.
func WithStdio(stdin io.Reader, stdout, stderr io.Writer) Option {
	return func(l *Launcher) {
		l.stdin = stdin
		l.stdout = stdout
		l.stderr = stderr
	}
}

// WithSignalPolicy sets how a signal-terminated child is reported.
func WithSignalPolicy(policy model.SignalPolicy) Option {
	return func(l *Launcher) {
		l.policy = policy
	}
}

// New creates a Launcher connected to the process's own standard streams.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		policy: model.SignalPolicySuccess,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run starts spec.Command and blocks until it exits.
//
// There is no timeout and ctx does not cancel the child: it only carries
// the logger. While the child runs, the launcher catches interrupt,
// hangup and termination signals so that it always outlives the child
// and can report its status.
//
// Caught signals are forwarded to the child, with one exception. The
// child is started in the launcher's process group, so when stdin is the
// controlling terminal and that group is in the foreground, Ctrl-C and a
// terminal hangup already reach the child from the terminal driver.
// Forwarding them as well would deliver every Ctrl-C twice, which jest
// reads as a request to force quit. In that case only SIGTERM is
// forwarded; SIGINT and SIGHUP sent with kill(1) to the launcher alone
// are then not passed on.
//
// A child that exits non-zero is not an error. Run returns an error only
// for SpawnFailure: a *model.CLIError with ExitSpawnFailure.
func (l *Launcher) Run(ctx context.Context, spec model.LaunchSpec) (model.Result, error) {
	logger := observability.FromContext(ctx)

	// Step 1: Reject specs that cannot possibly start, with the same
	// error shape as an OS-level spawn failure.
	if err := spec.Validate(); err != nil {
		return model.Result{}, model.WrapCLIError(model.ExitSpawnFailure, spawnFailureMessage, err)
	}

	// Step 2: Build the command. The environment is passed explicitly,
	// so nothing is inherited implicitly from the launcher.
	// #nosec G204 -- running a configured command is the purpose of this tool
	cmd := exec.Command(spec.Command[0], spec.Command[1:]...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env.List()
	cmd.Stdin = l.stdin
	cmd.Stdout = l.stdout
	cmd.Stderr = l.stderr

	// Step 3: Subscribe before Start so a signal that arrives during
	// start-up is queued for the child instead of killing the launcher.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, relayedSignals...)
	defer signal.Stop(sigs)

	fromTerminal := childSharesTerminal(l.stdin)

	logger.Debug("spawning test runner",
		slog.String("command", spec.String()),
		slog.String("dir", spec.Dir),
		slog.Int("env.count", len(spec.Env)),
		slog.Bool("terminal.foreground", fromTerminal),
	)

	// Step 4: Start the child. Every error here (missing binary, not
	// executable, bad working directory) is a SpawnFailure.
	if err := cmd.Start(); err != nil {
		return model.Result{}, model.WrapCLIError(model.ExitSpawnFailure, spawnFailureMessage, err)
	}

	done := make(chan struct{})
	go relay(logger, cmd.Process, sigs, done, fromTerminal)

	// Step 5: Block until the child exits.
	waitErr := cmd.Wait()
	close(done)

	if waitErr == nil {
		logger.Debug("test runner exited", slog.Int("exit.code", 0))
		return model.Result{ExitCode: model.ExitSuccess, StatusReported: true}, nil
	}

	// Step 6: Map the outcome. A non-zero exit or a signal arrives as
	// *exec.ExitError; anything else means the child's fate is unknown.
	var exitErr *exec.ExitError
	if !errors.As(waitErr, &exitErr) {
		// Wait failed without an exit status, e.g. copying a non-file
		// stream broke.
		return model.Result{}, model.WrapCLIError(model.ExitSpawnFailure, spawnFailureMessage, waitErr)
	}

	result := l.resultFrom(exitErr.ProcessState)
	if result.StatusReported {
		logger.Debug("test runner exited", slog.Int("exit.code", int(result.ExitCode)))
	} else {
		logger.Warn("test runner terminated by signal",
			slog.String("signal", result.Signal),
			slog.String("signal.policy", l.policy.String()),
			slog.Int("exit.code", int(result.ExitCode)),
		)
	}
	return result, nil
}

// resultFrom maps a finished process state onto a Result.
func (l *Launcher) resultFrom(state *os.ProcessState) model.Result {
	if code := state.ExitCode(); code >= 0 {
		return model.Result{ExitCode: model.ExitCode(code), StatusReported: true}
	}

	signo, name := terminatingSignal(state)
	result := model.Result{StatusReported: false, Signal: name}

	switch l.policy {
	case model.SignalPolicyConventional:
		if signo > 0 {
			result.ExitCode = model.ExitCode(128 + signo)
		} else {
			result.ExitCode = model.ExitGeneralError
		}
	default:
		// No status means success; see SignalPolicySuccess.
		result.ExitCode = model.ExitSuccess
	}
	return result
}

// relay forwards signals received by the launcher to the child until
// done is closed. When fromTerminal is set, signals the terminal driver
// already delivered to the child are swallowed instead.
func relay(logger *slog.Logger, proc *os.Process, sigs <-chan os.Signal, done <-chan struct{}, fromTerminal bool) {
	for {
		select {
		case sig := <-sigs:
			if !shouldRelay(sig, fromTerminal) {
				logger.Debug("test runner receives signal from the terminal", slog.String("signal", sig.String()))
				continue
			}
			logger.Debug("relaying signal to test runner", slog.String("signal", sig.String()))
			if err := proc.Signal(sig); err != nil && !errors.Is(err, os.ErrProcessDone) {
				logger.Warn("failed to relay signal", slog.String("signal", sig.String()), slog.Any("error", err))
			}
		case <-done:
			return
		}
	}
}

// shouldRelay reports whether sig must be forwarded to the child. Signals
// generated by the terminal for the foreground group are not forwarded
// when the child is part of that group.
func shouldRelay(sig os.Signal, fromTerminal bool) bool {
	if !fromTerminal {
		return true
	}
	for _, ts := range terminalSignals {
		if sig == ts {
			return false
		}
	}
	return true
}
