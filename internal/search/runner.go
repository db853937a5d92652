package search

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/translate"
)

// Querier runs a query. *pgxpool.Pool and *pgx.Conn satisfy it.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Open connects a pgx pool to url and pings it.
func Open(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error pinging database: %w", err)
	}
	return pool, nil
}

// Runner compiles criteria and executes them against a database.
type Runner struct {
	compiler  *translate.Compiler
	db        Querier
	logger    *slog.Logger
	dbCatalog bool

	mu        sync.Mutex
	compilers map[schema.Kind]*translate.Compiler // per kind, with the loaded catalog
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithDatabaseCatalog makes the Runner load the property catalog of each
// entity kind from the database on first use and compile against it. The
// loaded catalog replaces the compiler's own.
func WithDatabaseCatalog() RunnerOption {
	return func(r *Runner) { r.dbCatalog = true }
}

// NewRunner creates a Runner. A nil logger discards output.
func NewRunner(compiler *translate.Compiler, db Querier, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	r := &Runner{
		compiler:  compiler,
		db:        db,
		logger:    logger,
		compilers: make(map[schema.Kind]*translate.Compiler),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// compilerFor returns the compiler for kind, loading its property catalog
// when the Runner reads catalogs from the database. A failed load is not
// cached.
func (r *Runner) compilerFor(ctx context.Context, kind schema.Kind) (*translate.Compiler, error) {
	if !r.dbCatalog {
		return r.compiler, nil
	}
	entity, err := r.compiler.Schemas().Lookup(kind)
	if err != nil {
		return nil, err
	}
	if !entity.HasProperties() {
		return r.compiler, nil
	}

	r.mu.Lock()
	c, ok := r.compilers[kind]
	r.mu.Unlock()
	if ok {
		return c, nil
	}

	cat, err := LoadPropertyCatalog(ctx, r.db, entity)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("property catalog loaded", "entity", kind, "properties", cat.Len())

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.compilers[kind]; ok {
		return c, nil
	}
	c = r.compiler.WithCatalog(cat)
	r.compilers[kind] = c
	return c, nil
}

// Prepare compiles crit for kind and assembles the statement without
// running it.
func (r *Runner) Prepare(ctx context.Context, kind schema.Kind, crit criteria.Criterion, limit int) (Statement, error) {
	compiler, err := r.compilerFor(ctx, kind)
	if err != nil {
		return Statement{}, err
	}
	result, err := compiler.Compile(kind, crit)
	if err != nil {
		return Statement{}, err
	}
	return BuildSelect(result, limit), nil
}

// SearchIDs returns the ids of the entities of kind matching crit, in
// ascending order. Cancellation is governed by ctx.
func (r *Runner) SearchIDs(ctx context.Context, kind schema.Kind, crit criteria.Criterion, limit int) ([]int64, error) {
	stmt, err := r.Prepare(ctx, kind, crit, limit)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, stmt.SQL, stmt.Args...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", kind, err)
	}

	r.logger.Debug("search executed",
		"entity", kind,
		"args", len(stmt.Args),
		"matches", len(ids))
	return ids, nil
}
