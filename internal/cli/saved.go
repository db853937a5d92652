package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/store"
)

// SavedOptions holds flags shared by the saved subcommands.
type SavedOptions struct {
	*RootOptions
	StorePath string // overrides LABSEARCH_STORE_PATH
}

// NewSavedCommand creates the saved command and its subcommands.
func NewSavedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SavedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "saved",
		Short: "Manage saved searches",
		Long: `Save, list, show, delete and run named searches.

Saved searches live in a local SQLite database (--store or
LABSEARCH_STORE_PATH). A search is only saved when it translates for its
entity kind. Saving under an existing name replaces it.`,
	}
	cmd.PersistentFlags().StringVar(&opts.StorePath, "store", "", "saved search database (overrides LABSEARCH_STORE_PATH)")

	cmd.AddCommand(newSavedSaveCommand(opts))
	cmd.AddCommand(newSavedListCommand(opts))
	cmd.AddCommand(newSavedShowCommand(opts))
	cmd.AddCommand(newSavedDeleteCommand(opts))
	cmd.AddCommand(newSavedRunCommand(opts))

	return cmd
}

// openStore loads the environment and opens the saved search store.
func (o *SavedOptions) openStore(cmd *cobra.Command, f *OutputFormatter) (*environment, *store.Store, error) {
	env, err := o.loadEnv(cmd, f)
	if err != nil {
		return nil, nil, err
	}
	path := o.StorePath
	if path == "" {
		path = env.cfg.StorePath
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, failWith(f, ErrCodeGeneric, ExitCommandError, err.Error(), nil)
	}
	f.VerboseLog("Opened store %s", path)
	return env, st, nil
}

func newSavedSaveCommand(opts *SavedOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "save <name> <kind> <criteria-file>",
		Short:         "Save a criteria file under a name",
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			env, st, err := opts.openStore(cmd, f)
			if err != nil {
				return err
			}
			defer st.Close()

			kind, err := env.resolveKind(f, args[1])
			if err != nil {
				return err
			}
			node, crit, err := readCriteria(cmd, args[2])
			if err != nil {
				return fail(f, err)
			}
			if _, err := env.compiler(nil).Compile(kind, crit); err != nil {
				return fail(f, err)
			}

			ctx := cmd.Context()
			saved, err := st.SaveSearch(ctx, args[0], kind, node)
			if err != nil {
				return fail(f, err)
			}
			same, err := st.SearchesByHash(ctx, saved.CriteriaHash)
			if err != nil {
				return fail(f, err)
			}

			if f.Format == "json" {
				return f.Success(saved)
			}
			f.Done("Saved %q (%s)", saved.Name, saved.Entity)
			for _, o := range same {
				if o.Name != saved.Name {
					dimmed.Fprintf(f.Writer, "  same criteria as %q\n", o.Name)
				}
			}
			return nil
		},
	}
}

func newSavedListCommand(opts *SavedOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List saved searches",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			_, st, err := opts.openStore(cmd, f)
			if err != nil {
				return err
			}
			defer st.Close()

			searches, err := st.ListSearches(cmd.Context())
			if err != nil {
				return fail(f, err)
			}
			if f.Format == "json" {
				return f.Success(searches)
			}
			if len(searches) == 0 {
				fmt.Fprintln(f.Writer, "No saved searches")
				return nil
			}
			for _, s := range searches {
				keyword.Fprintf(f.Writer, "%-24s", s.Name)
				fmt.Fprintf(f.Writer, " %-10s %s\n", s.Entity, s.CriteriaHash[:12])
			}
			return nil
		},
	}
}

func newSavedShowCommand(opts *SavedOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <name>",
		Short:         "Show a saved search",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			_, st, err := opts.openStore(cmd, f)
			if err != nil {
				return err
			}
			defer st.Close()

			saved, err := st.GetSearch(cmd.Context(), args[0])
			if err != nil {
				return fail(f, err)
			}
			if f.Format == "json" {
				return f.Success(saved)
			}

			body, err := json.MarshalIndent(saved.Criteria, "  ", "  ")
			if err != nil {
				return fail(f, err)
			}
			heading.Fprintf(f.Writer, "%s", saved.Name)
			fmt.Fprintf(f.Writer, " (%s)\n", saved.Entity)
			fmt.Fprintf(f.Writer, "  id:   %s\n", saved.ID)
			fmt.Fprintf(f.Writer, "  hash: %s\n", saved.CriteriaHash)
			fmt.Fprintf(f.Writer, "  %s\n", body)
			return nil
		},
	}
}

func newSavedDeleteCommand(opts *SavedOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "delete <name>",
		Short:         "Delete a saved search",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			_, st, err := opts.openStore(cmd, f)
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteSearch(cmd.Context(), args[0]); err != nil {
				return fail(f, err)
			}
			if f.Format == "json" {
				return f.Success(map[string]string{"deleted": args[0]})
			}
			f.Done("Deleted %q", args[0])
			return nil
		},
	}
}

func newSavedRunCommand(opts *SavedOptions) *cobra.Command {
	searchOpts := &SearchOptions{RootOptions: opts.RootOptions}

	cmd := &cobra.Command{
		Use:           "run <name>",
		Short:         "Run a saved search against the database",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := opts.formatter(cmd)
			env, st, err := opts.openStore(cmd, f)
			if err != nil {
				return err
			}
			defer st.Close()

			saved, err := st.GetSearch(cmd.Context(), args[0])
			if err != nil {
				return fail(f, err)
			}
			crit, err := criteria.Decode(saved.Criteria)
			if err != nil {
				return fail(f, err)
			}
			return executeSearch(searchOpts, env, saved.Entity, crit, cmd, f)
		},
	}
	addSearchFlags(cmd, searchOpts)
	return cmd
}
