package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/search"
)

// SearchOptions holds flags for the search command.
type SearchOptions struct {
	*RootOptions
	DatabaseURL   string // overrides LABSEARCH_DATABASE_URL
	Limit         int
	CatalogFromDB bool // read property data types from the database
}

// SearchOutput is the JSON payload of the search commands.
type SearchOutput struct {
	Entity string  `json:"entity"`
	IDs    []int64 `json:"ids"`
	Count  int     `json:"count"`
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SearchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "search <kind> <criteria-file>",
		Short: "Run a criteria file against the database",
		Long: `Translate a criteria tree and execute it against PostgreSQL, printing
the ids of matching entities in ascending order.

The database comes from --db or LABSEARCH_DATABASE_URL. With
--catalog-from-db the property data types are read from the database before
translating, which narrows property comparisons to their declared type.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(opts, args[0], args[1], cmd)
		},
	}

	addSearchFlags(cmd, opts)
	cmd.Flags().BoolVar(&opts.CatalogFromDB, "catalog-from-db", false, "load property data types from the database")

	return cmd
}

func addSearchFlags(cmd *cobra.Command, opts *SearchOptions) {
	cmd.Flags().StringVar(&opts.DatabaseURL, "db", "", "PostgreSQL URL (overrides LABSEARCH_DATABASE_URL)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "maximum number of ids (0 = no limit)")
}

func runSearch(opts *SearchOptions, rawKind, path string, cmd *cobra.Command) error {
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
	return executeSearch(opts, env, kind, crit, cmd, formatter)
}

// executeSearch connects, optionally loads the catalog, and runs crit.
func executeSearch(opts *SearchOptions, env *environment, kind schema.Kind, crit criteria.Criterion, cmd *cobra.Command, f *OutputFormatter) error {
	url := opts.DatabaseURL
	if url == "" {
		url = env.cfg.DatabaseURL
	}
	if url == "" {
		return failWith(f, ErrCodeNoDatabase, ExitCommandError,
			"no database configured: set --db or LABSEARCH_DATABASE_URL", nil)
	}

	ctx := cmd.Context()
	pool, err := search.Open(ctx, url)
	if err != nil {
		return failWith(f, ErrCodeNoDatabase, ExitCommandError, err.Error(), nil)
	}
	defer pool.Close()

	var runnerOpts []search.RunnerOption
	if opts.CatalogFromDB {
		runnerOpts = append(runnerOpts, search.WithDatabaseCatalog())
	}
	runner := search.NewRunner(env.compiler(nil), pool, env.logger, runnerOpts...)
	if f.Verbose {
		if stmt, err := runner.Prepare(ctx, kind, crit, opts.Limit); err == nil {
			f.VerboseLog("%s", stmt.SQL)
		}
	}
	ids, err := runner.SearchIDs(ctx, kind, crit, opts.Limit)
	if err != nil {
		return fail(f, err)
	}
	return outputSearch(f, kind, ids)
}

func outputSearch(f *OutputFormatter, kind schema.Kind, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	if f.Format == "json" {
		return f.Success(SearchOutput{Entity: string(kind), IDs: ids, Count: len(ids)})
	}
	f.Done("%d %s match(es)", len(ids), kind)
	for _, id := range ids {
		fmt.Fprintln(f.Writer, id)
	}
	return nil
}
