package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/labsearch/internal/httpapi"
	"github.com/roach88/labsearch/internal/search"
	"github.com/roach88/labsearch/internal/store"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Listen       string // overrides LABSEARCH_LISTEN_ADDR
	DatabaseURL  string // overrides LABSEARCH_DATABASE_URL
	StorePath    string // overrides LABSEARCH_STORE_PATH
	DefaultLimit int
	AccessLog    bool
}

const shutdownTimeout = 5 * time.Second

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve compilation, search and saved searches over HTTP.

Without a database URL the search routes answer 503; compilation and saved
searches still work. With one, search routes read each entity kind's
property data types from that database on first use. The server stops on
SIGINT or SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Listen, "listen", "", "listen address (overrides LABSEARCH_LISTEN_ADDR)")
	cmd.Flags().StringVar(&opts.DatabaseURL, "db", "", "PostgreSQL URL (overrides LABSEARCH_DATABASE_URL)")
	cmd.Flags().StringVar(&opts.StorePath, "store", "", "saved search database (overrides LABSEARCH_STORE_PATH)")
	cmd.Flags().IntVar(&opts.DefaultLimit, "limit", 1000, "default result limit for search routes (0 = none)")
	cmd.Flags().BoolVar(&opts.AccessLog, "access-log", true, "write combined access log lines to stderr")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	env, err := opts.loadEnv(cmd, formatter)
	if err != nil {
		return err
	}
	listen := firstNonEmpty(opts.Listen, env.cfg.ListenAddr)
	storePath := firstNonEmpty(opts.StorePath, env.cfg.StorePath)
	dbURL := firstNonEmpty(opts.DatabaseURL, env.cfg.DatabaseURL)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(storePath)
	if err != nil {
		return failWith(formatter, ErrCodeGeneric, ExitCommandError, err.Error(), nil)
	}
	defer st.Close()

	compiler := env.compiler(nil)
	routerOpts := httpapi.Options{
		Compiler:     compiler,
		Store:        st,
		DefaultLimit: opts.DefaultLimit,
		Logger:       env.logger,
	}
	if opts.AccessLog {
		routerOpts.AccessLog = cmd.ErrOrStderr()
	}
	if dbURL != "" {
		pool, err := search.Open(ctx, dbURL)
		if err != nil {
			return failWith(formatter, ErrCodeNoDatabase, ExitCommandError, err.Error(), nil)
		}
		defer pool.Close()
		// property data types come from the database being searched
		routerOpts.Searcher = search.NewRunner(compiler, pool, env.logger, search.WithDatabaseCatalog())
	} else {
		env.logger.Warn("no database configured, search routes disabled")
	}

	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return failWith(formatter, ErrCodeServe, ExitCommandError, err.Error(), nil)
	}
	srv := &http.Server{
		Handler:           httpapi.NewRouter(routerOpts),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()
	env.logger.Info("listening", "addr", ln.Addr().String(), "store", storePath)

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return failWith(formatter, ErrCodeServe, ExitCommandError, err.Error(), nil)
		}
		return nil
	case <-ctx.Done():
	}

	env.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return failWith(formatter, ErrCodeServe, ExitCommandError, err.Error(), nil)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
