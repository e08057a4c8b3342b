package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePinger is a Pinger that answers with a fixed version or error.
type fakePinger struct {
	version string
	err     error
	closed  bool
}

func (f *fakePinger) Ping(context.Context) (string, error) { return f.version, f.err }
func (f *fakePinger) Host() string                         { return "unix:///fake.sock" }

func (f *fakePinger) Close() error {
	f.closed = true
	return nil
}

// healthyOptions returns Options where every check passes, rooted at a
// temp directory holding a package.json, jest config and .env.
func healthyOptions(t *testing.T) Options {
	t.Helper()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"), `{"devDependencies": {"jest": "^29.7.0"}}`)
	writeFile(t, filepath.Join(dir, "jest.config.local.js"), "module.exports = {};\n")
	writeFile(t, filepath.Join(dir, ".env"), "A=1\n")

	return Options{
		Command:        []string{"npx", "jest", "--config", "jest.config.local.js"},
		Dir:            dir,
		EnvFiles:       []string{filepath.Join(dir, ".env")},
		NodeConstraint: ">=18",
		PackageJSON:    filepath.Join(dir, "package.json"),
		LookPath: func(file string) (string, error) {
			return "/usr/local/bin/" + file, nil
		},
		RunCommand: func(context.Context, string, ...string) ([]byte, error) {
			return []byte("v20.11.1\n"), nil
		},
		NewDocker: func() (Pinger, error) {
			return &fakePinger{version: "1.47"}, nil
		},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// resultByName runs the default checks and returns the one named name.
func resultByName(t *testing.T, opts Options, name string) Result {
	t.Helper()
	for _, r := range New(opts).Run(context.Background()) {
		if r.Name == name {
			return r
		}
	}
	t.Fatalf("no check named %q", name)
	return Result{}
}

func TestRunner_AllPass(t *testing.T) {
	results := New(healthyOptions(t)).Run(context.Background())

	require.Len(t, results, 6)
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.Name)
		assert.Equal(t, StatusPass, r.Status, "%s: %s (%s)", r.Name, r.Message, r.Detail)
	}
	assert.Equal(t, []string{
		"Test command", "Node.js", "Jest dependency", "Jest config", "Env files", "Docker daemon",
	}, names)

	passed, failed, warnings := Summary(results)
	assert.Equal(t, 6, passed)
	assert.Zero(t, failed)
	assert.Zero(t, warnings)
}

func TestRunner_AddCheckSetsName(t *testing.T) {
	r := &Runner{}
	r.AddCheck("custom", func(context.Context) Result {
		return Result{Name: "ignored", Status: StatusWarn, Message: "m"}
	})

	results := r.Run(context.Background())
	require.Len(t, results, 1)
	assert.Equal(t, "custom", results[0].Name)
	assert.Equal(t, StatusWarn, results[0].Status)
}

func TestSummary(t *testing.T) {
	passed, failed, warnings := Summary([]Result{
		{Status: StatusPass}, {Status: StatusFail}, {Status: StatusWarn},
		{Status: StatusWarn}, {Status: StatusPass}, {Status: StatusPass},
	})
	assert.Equal(t, 3, passed)
	assert.Equal(t, 1, failed)
	assert.Equal(t, 2, warnings)
}

func TestStatus_Strings(t *testing.T) {
	tests := []struct {
		status Status
		name   string
		symbol string
	}{
		{StatusPass, "pass", "✓"},
		{StatusWarn, "warn", "⚠"},
		{StatusFail, "fail", "✗"},
		{Status(9), "unknown", "?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.status.String())
			assert.Equal(t, tt.symbol, tt.status.Symbol())
		})
	}
}

func TestResult_JSON(t *testing.T) {
	data, err := json.Marshal(Result{Name: "Node.js", Status: StatusFail, Message: "Not found in PATH"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Node.js","status":"fail","message":"Not found in PATH"}`, string(data))
}

func TestCheckTestCommand(t *testing.T) {
	t.Run("missing npx", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.LookPath = func(string) (string, error) { return "", errors.New("not found") }

		r := resultByName(t, opts, "Test command")
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, "npx not found in PATH", r.Message)
		assert.Contains(t, r.Detail, "nodejs.org")
	})

	t.Run("empty command", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.Command = nil

		r := resultByName(t, opts, "Test command")
		assert.Equal(t, StatusFail, r.Status)
	})

	t.Run("relative path resolved from dir", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.Command = []string{filepath.Join("bin", "jest")}
		var looked string
		opts.LookPath = func(file string) (string, error) {
			looked = file
			return file, nil
		}

		r := resultByName(t, opts, "Test command")
		assert.Equal(t, StatusPass, r.Status)
		assert.Equal(t, filepath.Join(opts.Dir, "bin", "jest"), looked)
	})
}

func TestCheckNode(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		runErr     error
		constraint string
		want       Status
		message    string
	}{
		{name: "satisfied", output: "v20.11.1\n", constraint: ">=18", want: StatusPass, message: "v20.11.1 (>=18)"},
		{name: "too old", output: "v16.20.2\n", constraint: ">=18", want: StatusFail, message: "v16.20.2 does not satisfy >=18"},
		{name: "missing", runErr: errors.New("exec: not found"), constraint: ">=18", want: StatusFail, message: "Not found in PATH"},
		{name: "garbage", output: "node?\n", constraint: ">=18", want: StatusWarn, message: "Found but version unknown"},
		{name: "empty constraint", output: "v12.0.0", constraint: "", want: StatusPass, message: "v12.0.0 (*)"},
		{name: "bad constraint", output: "v20.0.0", constraint: "not-a-range", want: StatusFail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := healthyOptions(t)
			opts.NodeConstraint = tt.constraint
			opts.RunCommand = func(_ context.Context, name string, args ...string) ([]byte, error) {
				assert.Equal(t, "node", name)
				assert.Equal(t, []string{"--version"}, args)
				return []byte(tt.output), tt.runErr
			}

			r := resultByName(t, opts, "Node.js")
			assert.Equal(t, tt.want, r.Status, r.Message)
			if tt.message != "" {
				assert.Equal(t, tt.message, r.Message)
			}
		})
	}
}

func TestCheckJestDependency(t *testing.T) {
	tests := []struct {
		name     string
		manifest string // empty means no file
		want     Status
		message  string
	}{
		{name: "devDependencies", manifest: `{"devDependencies": {"jest": "^29.7.0"}}`, want: StatusPass, message: "jest ^29.7.0 (devDependencies)"},
		{name: "dependencies", manifest: `{"dependencies": {"jest": "29.0.0"}}`, want: StatusPass, message: "jest 29.0.0 (dependencies)"},
		{name: "comments and trailing comma", manifest: "{\n  // test deps\n  \"devDependencies\": {\"jest\": \"^29\",},\n}", want: StatusPass, message: "jest ^29 (devDependencies)"},
		{name: "not declared", manifest: `{"devDependencies": {"mocha": "10"}}`, want: StatusWarn},
		{name: "invalid json", manifest: `{"devDependencies": [`, want: StatusWarn},
		{name: "missing file", want: StatusWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := healthyOptions(t)
			opts.PackageJSON = filepath.Join(t.TempDir(), "package.json")
			if tt.manifest != "" {
				writeFile(t, opts.PackageJSON, tt.manifest)
			}

			r := resultByName(t, opts, "Jest dependency")
			assert.Equal(t, tt.want, r.Status, "%s: %s", r.Message, r.Detail)
			if tt.message != "" {
				assert.Equal(t, tt.message, r.Message)
			}
		})
	}
}

func TestCheckJestDependency_ReadError(t *testing.T) {
	opts := healthyOptions(t)
	opts.ReadFile = func(string) ([]byte, error) { return nil, fs.ErrPermission }

	r := resultByName(t, opts, "Jest dependency")
	assert.Equal(t, StatusWarn, r.Status)
	assert.Contains(t, r.Message, "Could not read")
}

func TestCheckJestConfig(t *testing.T) {
	t.Run("present", func(t *testing.T) {
		r := resultByName(t, healthyOptions(t), "Jest config")
		assert.Equal(t, StatusPass, r.Status)
		assert.Equal(t, "jest.config.local.js", r.Message)
	})

	t.Run("missing", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.Command = []string{"npx", "jest", "--config=jest.config.ci.js"}

		r := resultByName(t, opts, "Jest config")
		assert.Equal(t, StatusFail, r.Status)
		assert.Equal(t, "jest.config.ci.js not found", r.Message)
	})

	t.Run("directory", func(t *testing.T) {
		opts := healthyOptions(t)
		require.NoError(t, os.Mkdir(filepath.Join(opts.Dir, "cfg"), 0o755))
		opts.Command = []string{"npx", "jest", "-c", "cfg"}

		r := resultByName(t, opts, "Jest config")
		assert.Equal(t, StatusFail, r.Status)
	})

	t.Run("no config argument", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.Command = []string{"npx", "jest"}

		r := resultByName(t, opts, "Jest config")
		assert.Equal(t, StatusPass, r.Status)
		assert.Contains(t, r.Message, "skipped")
	})
}

func TestConfigArg(t *testing.T) {
	tests := []struct {
		name  string
		argv  []string
		want  string
		found bool
	}{
		{name: "separate", argv: []string{"npx", "jest", "--config", "a.js"}, want: "a.js", found: true},
		{name: "equals", argv: []string{"npx", "jest", "--config=b.js"}, want: "b.js", found: true},
		{name: "short", argv: []string{"jest", "-c", "c.js"}, want: "c.js", found: true},
		{name: "first wins", argv: []string{"jest", "--config", "a.js", "--config", "b.js"}, want: "a.js", found: true},
		{name: "dangling", argv: []string{"jest", "--config"}},
		{name: "empty equals", argv: []string{"jest", "--config="}},
		{name: "after terminator", argv: []string{"jest", "--", "--config", "a.js"}},
		{name: "program name ignored", argv: []string{"--config", "x"}},
		{name: "none", argv: []string{"npx", "jest"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ConfigArg(tt.argv)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckEnvFiles(t *testing.T) {
	t.Run("some found", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.EnvFiles = append(opts.EnvFiles, filepath.Join(opts.Dir, ".env.local"))

		r := resultByName(t, opts, "Env files")
		assert.Equal(t, StatusPass, r.Status)
		assert.Contains(t, r.Message, "1 file found")
	})

	t.Run("none found", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.EnvFiles = []string{filepath.Join(t.TempDir(), ".env")}

		r := resultByName(t, opts, "Env files")
		assert.Equal(t, StatusWarn, r.Status)
		assert.Contains(t, r.Detail, "Searched:")
	})

	t.Run("none configured", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.EnvFiles = nil

		r := resultByName(t, opts, "Env files")
		assert.Equal(t, StatusWarn, r.Status)
	})
}

func TestCheckDocker(t *testing.T) {
	t.Run("reachable", func(t *testing.T) {
		opts := healthyOptions(t)
		pinger := &fakePinger{version: "1.47"}
		opts.NewDocker = func() (Pinger, error) { return pinger, nil }

		r := resultByName(t, opts, "Docker daemon")
		assert.Equal(t, StatusPass, r.Status)
		assert.Equal(t, "API 1.47 at unix:///fake.sock", r.Message)
		assert.True(t, pinger.closed)
	})

	t.Run("not responding", func(t *testing.T) {
		opts := healthyOptions(t)
		pinger := &fakePinger{err: errors.New("connection refused")}
		opts.NewDocker = func() (Pinger, error) { return pinger, nil }

		r := resultByName(t, opts, "Docker daemon")
		assert.Equal(t, StatusWarn, r.Status)
		assert.Equal(t, "connection refused", r.Detail)
		assert.True(t, pinger.closed)
	})

	t.Run("no socket", func(t *testing.T) {
		opts := healthyOptions(t)
		opts.NewDocker = func() (Pinger, error) { return nil, errors.New("Docker socket not found") }

		r := resultByName(t, opts, "Docker daemon")
		assert.Equal(t, StatusWarn, r.Status)
		assert.Equal(t, "Docker not found", r.Message)
	})
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "v20.0.0", firstLine([]byte("  v20.0.0\nextra\n")))
	assert.Equal(t, "", firstLine(nil))
}
