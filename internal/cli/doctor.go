package cli

import (
	"github.com/spf13/cobra"

	"github.com/shinji-kodama/testlaunch/internal/doctor"
	"github.com/shinji-kodama/testlaunch/internal/model"
)

// doctorReport is the JSON shape of the doctor command's output.
type doctorReport struct {
	Checks   []doctor.Result `json:"checks"`
	Passed   int             `json:"passed"`
	Failed   int             `json:"failed"`
	Warnings int             `json:"warnings"`
}

// newDoctorRunner builds the check runner. Tests replace it to inject
// fake hooks.
var newDoctorRunner = doctor.New

// NewDoctorCommand creates the "doctor" cobra command.
// It is called from NewRootCommand to register as a subcommand.
func NewDoctorCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check that the local test setup is ready",
		Long: `Run preflight checks for a local test run.

Checks performed:
  - Test command resolves on PATH
  - Node.js version satisfies doctor.node_constraint
  - jest is declared in package.json
  - The jest config file passed via --config exists
  - At least one env file is present
  - A Docker daemon is reachable

Exits with code 3 when any check fails. Warnings do not change the exit code.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, opts)
		},
	}
}

// runDoctor runs every check and renders the results as text or JSON.
func runDoctor(cmd *cobra.Command, opts *rootOptions) error {
	cfg := opts.cfg
	out := newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr())

	argv, err := cfg.Command()
	if err != nil {
		return err
	}

	runner := newDoctorRunner(doctor.Options{
		Command:        argv,
		Dir:            cfg.Dir(),
		EnvFiles:       cfg.EnvFiles(),
		NodeConstraint: cfg.NodeConstraint(),
		PackageJSON:    cfg.PackageJSON(),
	})
	results := runner.Run(cmd.Context())
	passed, failed, warnings := doctor.Summary(results)

	if opts.jsonOutput {
		if err := out.PrintJSON(doctorReport{
			Checks:   results,
			Passed:   passed,
			Failed:   failed,
			Warnings: warnings,
		}); err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to encode report", err)
		}
	} else {
		renderDoctor(out, results, passed, failed, warnings)
	}

	if failed > 0 {
		return model.NewCLIError(model.ExitPreflightFailed,
			"preflight checks failed")
	}
	return nil
}

func renderDoctor(out *console, results []doctor.Result, passed, failed, warnings int) {
	out.Println("testlaunch doctor")
	out.Println("=================")
	out.Println()

	maxNameLen := 0
	for _, r := range results {
		if len(r.Name) > maxNameLen {
			maxNameLen = len(r.Name)
		}
	}

	for _, r := range results {
		width := maxNameLen + 4

		switch r.Status {
		case doctor.StatusPass:
			out.Success("%-*s%s", width, r.Name, r.Message)
		case doctor.StatusWarn:
			out.Warning("%-*s%s", width, r.Name, r.Message)
		case doctor.StatusFail:
			out.Failure("%-*s%s", width, r.Name, r.Message)
		default:
			out.Printf("%s %-*s%s\n", r.Status.Symbol(), width, r.Name, r.Message)
		}

		if r.Detail != "" {
			out.Muted("    %s", r.Detail)
		}
	}

	out.Println()
	out.Printf("%d passed", passed)
	if failed > 0 {
		out.Printf(", %d failed", failed)
	}
	if warnings > 0 {
		out.Printf(", %d warning(s)", warnings)
	}
	out.Println()
}
