package cli

import (
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/shinji-kodama/testlaunch/internal/model"
)

// configFlags holds the flag values for the config command.
type configFlags struct {
	// format selects the output encoding: yaml, json, or toml.
	format string
}

// NewConfigCommand creates the "config" cobra command, which prints the
// effective configuration after defaults, the config file, TESTLAUNCH_*
// variables, and flags have been applied.
func NewConfigCommand(opts *rootOptions) *cobra.Command {
	flags := &configFlags{}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration testlaunch would run with.

The output can be saved as .testlaunch.yaml (or .json/.toml) to pin the
current settings.

Examples:
  testlaunch config
  testlaunch config --format toml
  TESTLAUNCH_COMMAND="npx jest --ci" testlaunch config --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format := flags.format
			// --json is a shorthand for --format json.
			if opts.jsonOutput && !cmd.Flags().Changed("format") {
				format = "json"
			}

			data, err := encodeSettings(opts.cfg.Settings(), format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().StringVar(&flags.format, "format", "yaml", "Output format: yaml, json, toml")

	return cmd
}

// encodeSettings renders v in the named format with a trailing newline.
func encodeSettings(v interface{}, format string) ([]byte, error) {
	var (
		data []byte
		err  error
	)

	switch format {
	case "yaml", "yml":
		data, err = yaml.Marshal(v)
	case "json":
		data, err = json.MarshalIndent(v, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case "toml":
		data, err = toml.Marshal(v)
	default:
		return nil, model.NewCLIError(model.ExitGeneralError,
			fmt.Sprintf("invalid format %q: valid values are yaml, json, toml", format))
	}

	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("failed to encode configuration as %s", format), err)
	}
	return data, nil
}
