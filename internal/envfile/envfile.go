package envfile

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/subosito/gotenv"

	"github.com/shinji-kodama/testlaunch/internal/model"
)

// DefaultFile is the env file read when none is configured.
const DefaultFile = ".env"

// Source reports what happened to one env file during Load.
type Source struct {
	// Path is the file path as given to Load.
	Path string `json:"path"`

	// Found is false when the file does not exist. A missing file is
	// never an error.
	Found bool `json:"found"`

	// Vars is the number of variables read from the file.
	Vars int `json:"vars"`

	// Warning is set when the file contained lines that could not be
	// parsed. The valid lines are still loaded.
	Warning error `json:"-"`

	// Err is set when the file exists but could not be read. Found is
	// true and Vars is 0 in that case.
	Err error `json:"-"`
}

// Load reads each path in order and merges the results. A key defined in
// an earlier file wins over the same key in a later file, so callers list
// files from most to least specific (".env.local", ".env").
//
// Missing files are skipped. A file that exists but cannot be read is
// recorded on its Source and loading continues with the next path; once
// every path has been tried, the read failures are returned together as
// a CLIError with ExitConfigError alongside everything that was loaded.
func Load(paths ...string) (model.Env, []Source, error) {
	env := model.Env{}
	sources := make([]Source, 0, len(paths))
	var readErrs []error

	for _, path := range paths {
		src := Source{Path: path}

		vars, err := readFile(&src)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				// The file is there but unusable (permissions, a directory).
				src.Found = true
				src.Err = err
				readErrs = append(readErrs, fmt.Errorf("%s: %w", path, err))
			}
			sources = append(sources, src)
			continue
		}

		src.Found = true
		src.Vars = len(vars)
		sources = append(sources, src)

		// Earlier files win: only fill keys that are still unset.
		for k, v := range vars {
			if _, exists := env[k]; !exists {
				env[k] = v
			}
		}
	}

	if len(readErrs) > 0 {
		return env, sources, model.WrapCLIError(
			model.ExitConfigError,
			"failed to read env file",
			errors.Join(readErrs...),
		)
	}

	return env, sources, nil
}

// readFile parses a single env file. Strict parsing is attempted first so
// malformed lines can be reported on src.Warning; on failure the lenient
// parser is used, which keeps every valid line and drops the rest.
func readFile(src *Source) (map[string]string, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, err
	}

	vars, strictErr := gotenv.StrictParse(bytes.NewReader(data))
	if strictErr == nil {
		return vars, nil
	}

	src.Warning = fmt.Errorf("%s: %w", src.Path, strictErr)
	return gotenv.Parse(bytes.NewReader(data)), nil
}
