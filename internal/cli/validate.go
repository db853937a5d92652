package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/criteria"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Entity string // also translate against this kind
}

// ValidationOutput is the JSON payload of the validate command.
type ValidationOutput struct {
	Valid    bool     `json:"valid"`
	Problems []string `json:"problems,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <criteria-file>",
		Short: "Check a criteria file without translating it",
		Long: `Decode a criteria file and report structural problems: nil nodes,
empty field names, unknown operators, mixed collection elements and mixed id
types. With --entity the tree is also translated for that kind, so
unsupported criteria are reported as well.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Entity, "entity", "", "also translate for this entity kind")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	_, crit, err := readCriteria(cmd, path)
	if err != nil {
		return fail(formatter, err)
	}

	result := criteria.Validate(crit)
	if !result.Valid {
		return outputProblems(formatter, result.Problems)
	}

	if opts.Entity != "" {
		env, err := opts.loadEnv(cmd, formatter)
		if err != nil {
			return err
		}
		kind, err := env.resolveKind(formatter, opts.Entity)
		if err != nil {
			return err
		}
		if _, err := env.compiler(nil).Compile(kind, crit); err != nil {
			return fail(formatter, err)
		}
		formatter.VerboseLog("Translated for %s", kind)
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationOutput{Valid: true})
	}
	formatter.Done("%s is valid", path)
	return nil
}

func outputProblems(f *OutputFormatter, problems []string) error {
	if f.Format == "json" {
		return failWith(f, ErrCodeInvalid, ExitFailure,
			fmt.Sprintf("%d problem(s) found", len(problems)), problems)
	}

	errMark.Fprintf(f.Writer, "✗ %d problem(s) found\n", len(problems))
	for _, p := range problems {
		fmt.Fprintf(f.Writer, "  - %s\n", p)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%s: %d problem(s) found", ErrCodeInvalid, len(problems)))
}
