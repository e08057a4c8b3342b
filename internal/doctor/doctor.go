package doctor

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/shinji-kodama/testlaunch/internal/docker"
)

// Status represents the result of a diagnostic check.
type Status int

const (
	// StatusPass indicates the check passed.
	StatusPass Status = iota
	// StatusWarn indicates a non-critical issue.
	StatusWarn
	// StatusFail indicates a critical failure.
	StatusFail
)

// String returns the lowercase status name used in JSON output.
func (s Status) String() string {
	switch s {
	case StatusPass:
		return "pass"
	case StatusWarn:
		return "warn"
	case StatusFail:
		return "fail"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Symbol returns the status symbol for display.
func (s Status) Symbol() string {
	switch s {
	case StatusPass:
		return checkMark
	case StatusWarn:
		return warningMark
	case StatusFail:
		return xMark
	default:
		return "?"
	}
}

const (
	checkMark   = "\u2713" // ✓
	xMark       = "\u2717" // ✗
	warningMark = "\u26A0" // ⚠
)

// Result holds the outcome of a single check.
type Result struct {
	Name    string `json:"name"`
	Status  Status `json:"status"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// Check is a diagnostic check function.
type Check func(ctx context.Context) Result

// Pinger reports whether a Docker daemon answers.
type Pinger interface {
	Ping(ctx context.Context) (string, error)
	Host() string
	Close() error
}

// Options describes the run being diagnosed and the hooks the checks use
// to touch the outside world. Nil hooks fall back to the real
// implementations.
type Options struct {
	// Command is the test runner argv.
	Command []string
	// Dir is the working directory of the test runner. Empty means the
	// current directory.
	Dir string
	// EnvFiles are the env files the launcher would load.
	EnvFiles []string
	// NodeConstraint is a semver range such as ">=18".
	NodeConstraint string
	// PackageJSON is the manifest inspected for a jest dependency.
	PackageJSON string

	LookPath   func(file string) (string, error)
	RunCommand func(ctx context.Context, name string, args ...string) ([]byte, error)
	ReadFile   func(name string) ([]byte, error)
	Stat       func(name string) (fs.FileInfo, error)
	NewDocker  func() (Pinger, error)
}

// Runner executes diagnostic checks.
type Runner struct {
	checks []namedCheck
}

type namedCheck struct {
	name  string
	check Check
}

// New creates a runner with the default preflight checks registered.
func New(opts Options) *Runner {
	opts = opts.withDefaults()

	r := &Runner{}
	r.AddCheck("Test command", opts.checkTestCommand)
	r.AddCheck("Node.js", opts.checkNode)
	r.AddCheck("Jest dependency", opts.checkJestDependency)
	r.AddCheck("Jest config", opts.checkJestConfig)
	r.AddCheck("Env files", opts.checkEnvFiles)
	r.AddCheck("Docker daemon", opts.checkDocker)

	return r
}

// AddCheck registers a diagnostic check.
func (r *Runner) AddCheck(name string, check Check) {
	r.checks = append(r.checks, namedCheck{name: name, check: check})
}

// Run executes all registered checks and returns the results.
func (r *Runner) Run(ctx context.Context) []Result {
	results := make([]Result, 0, len(r.checks))

	for _, nc := range r.checks {
		result := nc.check(ctx)
		result.Name = nc.name
		results = append(results, result)
	}

	return results
}

// Summary returns counts of passed, failed, and warning checks.
func Summary(results []Result) (passed, failed, warnings int) {
	for _, r := range results {
		switch r.Status {
		case StatusPass:
			passed++
		case StatusFail:
			failed++
		case StatusWarn:
			warnings++
		}
	}

	return passed, failed, warnings
}

func (o Options) withDefaults() Options {
	if o.LookPath == nil {
		o.LookPath = exec.LookPath
	}
	if o.RunCommand == nil {
		o.RunCommand = func(ctx context.Context, name string, args ...string) ([]byte, error) {
			return exec.CommandContext(ctx, name, args...).Output()
		}
	}
	if o.ReadFile == nil {
		o.ReadFile = os.ReadFile
	}
	if o.Stat == nil {
		o.Stat = os.Stat
	}
	if o.NewDocker == nil {
		o.NewDocker = func() (Pinger, error) {
			c, err := docker.NewClient()
			if err != nil {
				return nil, err
			}
			return c, nil
		}
	}
	return o
}

// firstLine trims command output down to its first non-empty line.
func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		s = strings.TrimSpace(s[:idx])
	}
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
