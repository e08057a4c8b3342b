package doctor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/jsonc"
)

// checkTestCommand verifies the test runner executable can be found.
func (o Options) checkTestCommand(_ context.Context) Result {
	if len(o.Command) == 0 {
		return Result{
			Status:  StatusFail,
			Message: "No test command configured",
			Detail:  "Set command in .testlaunch.yaml or TESTLAUNCH_COMMAND",
		}
	}

	name := o.Command[0]
	// Relative paths with a separator are resolved from the runner's
	// working directory, the same way the child will see them.
	if strings.ContainsRune(name, filepath.Separator) && !filepath.IsAbs(name) && o.Dir != "" {
		name = filepath.Join(o.Dir, name)
	}

	path, err := o.LookPath(name)
	if err != nil {
		result := Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found in PATH", o.Command[0]),
		}
		if o.Command[0] == "npx" {
			result.Detail = "Install Node.js from https://nodejs.org (npm ships npx)"
		} else {
			result.Detail = err.Error()
		}
		return result
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s at %s", o.Command[0], path),
	}
}

// checkNode verifies node is installed and satisfies NodeConstraint.
func (o Options) checkNode(ctx context.Context) Result {
	constraintText := o.NodeConstraint
	if constraintText == "" {
		constraintText = "*"
	}
	constraint, err := semver.NewConstraint(constraintText)
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("Invalid version constraint %q", o.NodeConstraint),
			Detail:  err.Error(),
		}
	}

	out, err := o.RunCommand(ctx, "node", "--version")
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: "Not found in PATH",
			Detail:  "Install Node.js from https://nodejs.org",
		}
	}

	raw := firstLine(out)
	version, err := semver.NewVersion(raw)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "Found but version unknown",
			Detail:  fmt.Sprintf("could not parse %q", raw),
		}
	}

	if !constraint.Check(version) {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("v%s does not satisfy %s", version, constraintText),
			Detail:  "Upgrade Node.js or adjust doctor.node_constraint",
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("v%s (%s)", version, constraintText),
	}
}

// packageManifest is the subset of package.json the checks read.
type packageManifest struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// checkJestDependency looks for jest in the package manifest.
func (o Options) checkJestDependency(_ context.Context) Result {
	data, err := o.ReadFile(o.PackageJSON)
	if errors.Is(err, fs.ErrNotExist) {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("%s not found", o.PackageJSON),
			Detail:  "npx will download jest on demand",
		}
	}
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Could not read %s", o.PackageJSON),
			Detail:  err.Error(),
		}
	}

	var manifest packageManifest
	// package.json is strict JSON, but editors and tooling occasionally
	// leave comments or trailing commas behind.
	if err := json.Unmarshal(jsonc.ToJSON(data), &manifest); err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Could not parse %s", o.PackageJSON),
			Detail:  err.Error(),
		}
	}

	if v, ok := manifest.DevDependencies["jest"]; ok {
		return Result{Status: StatusPass, Message: fmt.Sprintf("jest %s (devDependencies)", v)}
	}
	if v, ok := manifest.Dependencies["jest"]; ok {
		return Result{Status: StatusPass, Message: fmt.Sprintf("jest %s (dependencies)", v)}
	}

	return Result{
		Status:  StatusWarn,
		Message: fmt.Sprintf("jest not declared in %s", o.PackageJSON),
		Detail:  "npx will download jest on demand",
	}
}

// checkJestConfig verifies the file passed via --config exists.
func (o Options) checkJestConfig(_ context.Context) Result {
	name, ok := ConfigArg(o.Command)
	if !ok {
		return Result{Status: StatusPass, Message: "No --config argument (skipped)"}
	}

	path := name
	if !filepath.IsAbs(path) && o.Dir != "" {
		path = filepath.Join(o.Dir, path)
	}

	info, err := o.Stat(path)
	if err != nil {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s not found", name),
			Detail:  err.Error(),
		}
	}
	if info.IsDir() {
		return Result{
			Status:  StatusFail,
			Message: fmt.Sprintf("%s is a directory", name),
		}
	}

	return Result{Status: StatusPass, Message: name}
}

// ConfigArg returns the value of the first --config (or -c) argument in
// argv. Both the separate and the --config=value forms are recognized.
func ConfigArg(argv []string) (string, bool) {
	for i := 1; i < len(argv); i++ {
		arg := argv[i]
		if arg == "--" {
			break
		}
		if v, ok := strings.CutPrefix(arg, "--config="); ok {
			return v, v != ""
		}
		if (arg == "--config" || arg == "-c") && i+1 < len(argv) {
			return argv[i+1], true
		}
	}
	return "", false
}

// checkEnvFiles reports which env files exist.
func (o Options) checkEnvFiles(_ context.Context) Result {
	if len(o.EnvFiles) == 0 {
		return Result{Status: StatusWarn, Message: "No env files configured"}
	}

	var found []string
	for _, path := range o.EnvFiles {
		if info, err := o.Stat(path); err == nil && !info.IsDir() {
			found = append(found, path)
		}
	}

	if len(found) == 0 {
		return Result{
			Status:  StatusWarn,
			Message: "No env file found",
			Detail:  "Searched: " + strings.Join(o.EnvFiles, ", "),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("%s found (%s)", plural(len(found), "file"), strings.Join(found, ", ")),
	}
}

// checkDocker pings the Docker daemon. Tests started with DOCKER_ENV=true
// usually expect containers to be reachable, but the launcher can run
// without one, so failures only warn.
func (o Options) checkDocker(ctx context.Context) Result {
	client, err := o.NewDocker()
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: "Docker not found",
			Detail:  err.Error(),
		}
	}
	defer func() { _ = client.Close() }()

	version, err := client.Ping(ctx)
	if err != nil {
		return Result{
			Status:  StatusWarn,
			Message: fmt.Sprintf("Not responding at %s", client.Host()),
			Detail:  err.Error(),
		}
	}

	return Result{
		Status:  StatusPass,
		Message: fmt.Sprintf("API %s at %s", version, client.Host()),
	}
}
