package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/search"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Limit int  // LIMIT for the assembled statement
	SQL   bool // print the assembled statement
}

// CompileOutput is the JSON payload of the compile command.
type CompileOutput struct {
	Entity string   `json:"entity"`
	Joins  []string `json:"joins"`
	Where  string   `json:"where"`
	Params []any    `json:"params"`
	SQL    string   `json:"sql"`
	Args   []any    `json:"args"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <kind> <criteria-file>",
		Short: "Translate a criteria file to SQL",
		Long: `Translate a criteria tree to joins, a WHERE clause and its parameters.

The criteria file is JSON (.json) or YAML (anything else); "-" reads stdin.
With --sql the full SELECT statement with $n placeholders is printed too.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], args[1], cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "LIMIT for the assembled statement (0 = none)")
	cmd.Flags().BoolVar(&opts.SQL, "sql", false, "print the assembled SELECT statement")

	return cmd
}

func runCompile(opts *CompileOptions, rawKind, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	env, err := opts.loadEnv(cmd, formatter)
	if err != nil {
		return err
	}
	kind, err := env.resolveKind(formatter, rawKind)
	if err != nil {
		return err
	}

	_, crit, err := readCriteria(cmd, path)
	if err != nil {
		return fail(formatter, err)
	}
	formatter.VerboseLog("Loaded criteria from %s", path)

	result, err := env.compiler(nil).Compile(kind, crit)
	if err != nil {
		return fail(formatter, err)
	}
	stmt := search.BuildSelect(result, opts.Limit)

	out := CompileOutput{
		Entity: string(kind),
		Joins:  make([]string, len(result.Joins)),
		Where:  result.Where,
		Params: result.Params,
		SQL:    stmt.SQL,
		Args:   stmt.Args,
	}
	for i, j := range result.Joins {
		out.Joins[i] = sqlfrag.RenderJoin(j)
	}
	if out.Params == nil {
		out.Params = []any{}
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}
	printCompile(formatter, out, opts.SQL)
	return nil
}

func printCompile(f *OutputFormatter, out CompileOutput, withSQL bool) {
	f.Done("Compiled %s criteria: %d join(s), %d param(s)", out.Entity, len(out.Joins), len(out.Params))
	fmt.Fprintln(f.Writer)

	if len(out.Joins) > 0 {
		f.Section("Joins")
		for _, j := range out.Joins {
			fmt.Fprintf(f.Writer, "  %s\n", j)
		}
		fmt.Fprintln(f.Writer)
	}

	f.Section("Where")
	fmt.Fprintf(f.Writer, "  %s\n", out.Where)

	if len(out.Params) > 0 {
		fmt.Fprintln(f.Writer)
		f.Section("Params")
		for i, p := range out.Params {
			keyword.Fprintf(f.Writer, "  %d. ", i+1)
			fmt.Fprintln(f.Writer, formatParam(p))
		}
	}

	if withSQL {
		fmt.Fprintln(f.Writer)
		f.Section("SQL")
		for _, line := range strings.Split(out.SQL, "\n") {
			fmt.Fprintf(f.Writer, "  %s\n", line)
		}
	}
}
