package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/harness"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	Filter string // scenario name glob
}

// ScenarioOutcome is the result of one scenario.
type ScenarioOutcome struct {
	Name   string   `json:"name"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// CheckOutput is the JSON payload of the check command.
type CheckOutput struct {
	Scenarios []ScenarioOutcome `json:"scenarios"`
	Passed    int               `json:"passed"`
	Failed    int               `json:"failed"`
	Total     int               `json:"total"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <scenarios-dir>",
		Short: "Run translation scenarios",
		Long: `Translate every scenario file (*.yaml) in a directory and check its
expected WHERE clause, parameters or error code and its assertions.

Scenarios are translated against the active schema, so a CUE overlay given
with --schema-dir applies to them.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (unreadable directory, malformed scenario)

Examples:
  labsearch check ./scenarios
  labsearch check ./scenarios --filter "sample_*"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run scenarios whose name matches this glob")

	return cmd
}

func runCheck(opts *CheckOptions, dir string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	env, err := opts.loadEnv(cmd, formatter)
	if err != nil {
		return err
	}

	scenarios, err := harness.LoadScenarios(dir)
	if err != nil {
		return failWith(formatter, ErrCodeGeneric, ExitCommandError, err.Error(), nil)
	}
	if opts.Filter != "" {
		if _, err := filepath.Match(opts.Filter, ""); err != nil {
			return failWith(formatter, ErrCodeGeneric, ExitCommandError, fmt.Sprintf("invalid filter pattern: %v", err), nil)
		}
	}

	h := harness.New(env.schemas)
	out := CheckOutput{Scenarios: []ScenarioOutcome{}}
	for _, s := range scenarios {
		if opts.Filter != "" {
			if ok, _ := filepath.Match(opts.Filter, s.Name); !ok {
				continue
			}
		}

		outcome := ScenarioOutcome{Name: s.Name}
		result, err := h.Run(s)
		if err != nil {
			outcome.Errors = []string{err.Error()}
		} else {
			outcome.Pass = result.Pass
			outcome.Errors = result.Errors
		}
		formatter.VerboseLog("%s: pass=%t", s.Name, outcome.Pass)

		out.Scenarios = append(out.Scenarios, outcome)
		out.Total++
		if outcome.Pass {
			out.Passed++
		} else {
			out.Failed++
		}
	}

	if formatter.Format == "json" {
		if err := formatter.Success(out); err != nil {
			return err
		}
	} else {
		outputCheckText(formatter, out)
	}

	if out.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d of %d scenario(s) failed", out.Failed, out.Total))
	}
	return nil
}

func outputCheckText(f *OutputFormatter, out CheckOutput) {
	if out.Total == 0 {
		fmt.Fprintln(f.Writer, "No scenarios found.")
		return
	}
	for _, s := range out.Scenarios {
		if s.Pass {
			f.Done("%s", s.Name)
			continue
		}
		errMark.Fprintf(f.Writer, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(f.Writer, "  %s\n", e)
		}
	}
	fmt.Fprintln(f.Writer)
	fmt.Fprintf(f.Writer, "%d passed, %d failed, %d total\n", out.Passed, out.Failed, out.Total)
}
