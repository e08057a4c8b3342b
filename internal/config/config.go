// Package config handles testlaunch configuration using Viper.
//
// Configuration sources (in priority order):
//  1. Command-line flags bound through Options.Flags
//  2. Environment variables (TESTLAUNCH_*)
//  3. Config file (--config, or .testlaunch.{yaml,yml,json,toml} in the
//     working directory)
//  4. Built-in defaults
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/shinji-kodama/testlaunch/internal/model"
	"github.com/shinji-kodama/testlaunch/internal/observability"
)

const (
	// DefaultCommand is the test runner invocation used when none is configured.
	DefaultCommand = "npx jest --config jest.config.local.js"
	// DefaultEnvFile is the dotenv file loaded before spawning.
	DefaultEnvFile = ".env"
	// DefaultNodeConstraint is the Node.js version range doctor accepts.
	DefaultNodeConstraint = ">=18"
	// DefaultPackageJSON is the manifest doctor inspects for a jest dependency.
	DefaultPackageJSON = "package.json"

	// EnvPrefix prefixes every environment variable read by the config layer.
	EnvPrefix = "TESTLAUNCH"
	// FileName is the base name of the optional config file.
	FileName = ".testlaunch"
)

// Keys understood by the config layer.
const (
	KeyCommand        = "command"
	KeyEnvFiles       = "env_files"
	KeyDir            = "dir"
	KeySignalPolicy   = "signal_policy"
	KeyLogLevel       = "log.level"
	KeyLogFormat      = "log.format"
	KeyNodeConstraint = "doctor.node_constraint"
	KeyPackageJSON    = "doctor.package_json"
)

// flagKeys maps flag names to the config keys they override.
var flagKeys = map[string]string{
	"env-file":      KeyEnvFiles,
	"dir":           KeyDir,
	"signal-policy": KeySignalPolicy,
	"log-level":     KeyLogLevel,
	"log-format":    KeyLogFormat,
}

// Options controls where Load looks for configuration.
type Options struct {
	// File is an explicit config file path. When empty, FileName is
	// searched for in SearchDir.
	File string

	// SearchDir is the directory searched for FileName. Empty means the
	// current working directory.
	SearchDir string

	// Flags, when set, is consulted for the flags listed in flagKeys.
	// Only flags the user actually changed take precedence.
	Flags *pflag.FlagSet
}

// Config holds the testlaunch configuration.
type Config struct {
	v *viper.Viper
	// file is the config file that was read, if any.
	file string
}

// Load reads configuration from all sources and validates it.
// Invalid configuration is reported as a CLIError with ExitConfigError.
func Load(opts Options) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault(KeyCommand, DefaultCommand)
	v.SetDefault(KeyEnvFiles, []string{DefaultEnvFile})
	v.SetDefault(KeyDir, "")
	v.SetDefault(KeySignalPolicy, string(model.SignalPolicySuccess))
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyNodeConstraint, DefaultNodeConstraint)
	v.SetDefault(KeyPackageJSON, DefaultPackageJSON)

	// Environment variables
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for name, key := range flagKeys {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, model.WrapCLIError(model.ExitConfigError,
						fmt.Sprintf("failed to bind flag --%s", name), err)
				}
			}
		}
	}

	cfg := &Config{v: v}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("failed to read config file %s", opts.File), err)
		}
		cfg.file = v.ConfigFileUsed()
	} else {
		searchDir := opts.SearchDir
		if searchDir == "" {
			searchDir = "."
		}
		v.AddConfigPath(searchDir)
		v.SetConfigName(FileName)

		// A missing config file is fine; a broken one is not.
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, model.WrapCLIError(model.ExitConfigError,
					"failed to read config file", err)
			}
		} else {
			cfg.file = v.ConfigFileUsed()
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks every setting that can be checked without touching the
// outside world.
func (c *Config) Validate() error {
	if _, err := c.Command(); err != nil {
		return err
	}
	if _, err := c.SignalPolicy(); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid signal_policy", err)
	}
	if _, err := observability.ParseLevel(c.LogLevel()); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid log.level", err)
	}
	if err := observability.ValidateFormat(c.LogFormat()); err != nil {
		return model.WrapCLIError(model.ExitConfigError, "invalid log.format", err)
	}
	return nil
}

// Command returns the child command line as argv. The command may be
// configured as a single shell-like string or as a list of words.
func (c *Config) Command() ([]string, error) {
	var argv []string

	switch c.v.Get(KeyCommand).(type) {
	case []interface{}, []string:
		argv = c.v.GetStringSlice(KeyCommand)
	default:
		raw := strings.TrimSpace(c.v.GetString(KeyCommand))
		words, err := shellwords.Parse(raw)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitConfigError,
				fmt.Sprintf("invalid command %q", raw), err)
		}
		argv = words
	}

	if len(argv) == 0 || strings.TrimSpace(argv[0]) == "" {
		return nil, model.NewCLIError(model.ExitConfigError, "command must not be empty")
	}
	return argv, nil
}

// EnvFiles returns the env files to load, resolved against Dir when they
// are relative.
//
// TESTLAUNCH_ENV_FILES may list several files separated by commas or
// whitespace (".env.local,.env"). Viper only splits environment values on
// whitespace, so commas are split here.
func (c *Config) EnvFiles() []string {
	files := c.v.GetStringSlice(KeyEnvFiles)
	dir := c.Dir()
	out := make([]string, 0, len(files))
	for _, entry := range files {
		for _, f := range strings.Split(entry, ",") {
			f = strings.TrimSpace(f)
			if f == "" {
				continue
			}
			if dir != "" && !filepath.IsAbs(f) {
				f = filepath.Join(dir, f)
			}
			out = append(out, f)
		}
	}
	return out
}

// Dir returns the child working directory. Empty means the current one.
func (c *Config) Dir() string {
	return strings.TrimSpace(c.v.GetString(KeyDir))
}

// SignalPolicy returns the configured policy for signal-terminated children.
func (c *Config) SignalPolicy() (model.SignalPolicy, error) {
	return model.ParseSignalPolicy(c.v.GetString(KeySignalPolicy))
}

// LogLevel returns the configured log level name.
func (c *Config) LogLevel() string {
	return c.v.GetString(KeyLogLevel)
}

// LogFormat returns the configured log format name.
func (c *Config) LogFormat() string {
	return c.v.GetString(KeyLogFormat)
}

// NodeConstraint returns the semver range doctor checks node against.
func (c *Config) NodeConstraint() string {
	return c.v.GetString(KeyNodeConstraint)
}

// PackageJSON returns the manifest path doctor inspects, resolved
// against Dir when relative.
func (c *Config) PackageJSON() string {
	p := c.v.GetString(KeyPackageJSON)
	if dir := c.Dir(); dir != "" && !filepath.IsAbs(p) {
		return filepath.Join(dir, p)
	}
	return p
}

// File returns the config file that was read, or "" when none was found.
func (c *Config) File() string {
	return c.file
}
