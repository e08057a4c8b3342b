package config

// Settings is the effective configuration in a serializable shape.
// It backs the "testlaunch config" command.
type Settings struct {
	ConfigFile   string         `json:"configFile,omitempty" yaml:"config_file,omitempty" toml:"config_file,omitempty"`
	Command      []string       `json:"command" yaml:"command" toml:"command"`
	EnvFiles     []string       `json:"envFiles" yaml:"env_files" toml:"env_files"`
	Dir          string         `json:"dir,omitempty" yaml:"dir,omitempty" toml:"dir,omitempty"`
	SignalPolicy string         `json:"signalPolicy" yaml:"signal_policy" toml:"signal_policy"`
	Log          LogSettings    `json:"log" yaml:"log" toml:"log"`
	Doctor       DoctorSettings `json:"doctor" yaml:"doctor" toml:"doctor"`
}

// LogSettings is the log section of Settings.
type LogSettings struct {
	Level  string `json:"level" yaml:"level" toml:"level"`
	Format string `json:"format" yaml:"format" toml:"format"`
}

// DoctorSettings is the doctor section of Settings.
type DoctorSettings struct {
	NodeConstraint string `json:"nodeConstraint" yaml:"node_constraint" toml:"node_constraint"`
	PackageJSON    string `json:"packageJson" yaml:"package_json" toml:"package_json"`
}

// Settings returns the effective configuration. Load has already
// validated it, so conversion errors cannot occur here.
func (c *Config) Settings() Settings {
	argv, _ := c.Command()
	policy, _ := c.SignalPolicy()

	envFiles := c.EnvFiles()
	if envFiles == nil {
		envFiles = []string{}
	}

	return Settings{
		ConfigFile:   c.File(),
		Command:      argv,
		EnvFiles:     envFiles,
		Dir:          c.Dir(),
		SignalPolicy: policy.String(),
		Log: LogSettings{
			Level:  c.LogLevel(),
			Format: c.LogFormat(),
		},
		Doctor: DoctorSettings{
			NodeConstraint: c.NodeConstraint(),
			PackageJSON:    c.PackageJSON(),
		},
	}
}
