package launcher

import "github.com/shinji-kodama/testlaunch/internal/model"

// Variables forced into every child environment.
const (
	NodeEnvKey     = "NODE_ENV"
	NodeEnvValue   = "test"
	DockerEnvKey   = "DOCKER_ENV"
	DockerEnvValue = "true"
)

// ForcedOverrides returns the variables that are set unconditionally,
// whatever the process environment or env files say.
func ForcedOverrides() model.Env {
	return model.Env{
		NodeEnvKey:   NodeEnvValue,
		DockerEnvKey: DockerEnvValue,
	}
}

// ComposeEnv merges the three environment layers into a new Env:
//
//  1. base, usually the launcher's own process environment
//  2. loaded, variables read from env files; a key already present in
//     base keeps its base value
//  3. overrides, which replace any value from the first two layers
//
// None of the inputs is modified.
func ComposeEnv(base, loaded, overrides model.Env) model.Env {
	env := base.Clone()
	for k, v := range loaded {
		if _, exists := env[k]; !exists {
			env[k] = v
		}
	}
	for k, v := range overrides {
		env[k] = v
	}
	return env
}

// BuildSpec assembles a LaunchSpec for argv with the forced overrides
// applied on top of base and loaded.
func BuildSpec(argv []string, dir string, base, loaded model.Env) model.LaunchSpec {
	command := make([]string, len(argv))
	copy(command, argv)

	return model.LaunchSpec{
		Command: command,
		Dir:     dir,
		Env:     ComposeEnv(base, loaded, ForcedOverrides()),
	}
}
