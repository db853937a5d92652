package translate

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/joins"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// Result is the output of one compilation.
type Result struct {
	Entity *schema.Entity
	Joins  []sqlfrag.JoinInformation
	Where  string
	Params []any
}

// Compiler turns criteria trees into Results.
type Compiler struct {
	registry *Registry
	schemas  *schema.Registry
	catalog  *schema.PropertyCatalog
	logger   *slog.Logger
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger used for per-compilation debug records.
func WithLogger(l *slog.Logger) Option {
	return func(c *Compiler) { c.logger = l }
}

// WithPropertyCatalog supplies known property data types. Without one,
// property criteria rely on SQL-side type guards only.
func WithPropertyCatalog(cat *schema.PropertyCatalog) Option {
	return func(c *Compiler) { c.catalog = cat }
}

// NewCompiler creates a Compiler. Both registries are shared read-only.
func NewCompiler(registry *Registry, schemas *schema.Registry, opts ...Option) *Compiler {
	c := &Compiler{
		registry: registry,
		schemas:  schemas,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Schemas returns the entity registry the compiler resolves kinds against.
func (c *Compiler) Schemas() *schema.Registry { return c.schemas }

// WithCatalog returns a copy of c that compiles against cat. c itself is
// unchanged.
func (c *Compiler) WithCatalog(cat *schema.PropertyCatalog) *Compiler {
	cp := *c
	cp.catalog = cat
	return &cp
}

// Compile translates crit for entities of kind. A nil criterion matches
// everything (WHERE TRUE).
func (c *Compiler) Compile(kind schema.Kind, crit criteria.Criterion) (*Result, error) {
	entity, err := c.schemas.Lookup(kind)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Entity:   entity,
		Catalog:  c.catalog,
		Plan:     joins.NewPlan(joins.NewAliasAllocator()),
		registry: c.registry,
	}

	where := sqlfrag.True()
	if criteria.Deref(crit) != nil {
		if err := ctx.PlanJoins(crit); err != nil {
			return nil, err
		}
		where, err = ctx.Translate(crit)
		if err != nil {
			return nil, err
		}
	}

	if n := sqlfrag.CountPlaceholders(where.SQL); n != len(where.Params) {
		return nil, fmt.Errorf("internal: %d placeholders but %d params in %q", n, len(where.Params), where.SQL)
	}

	result := &Result{
		Entity: entity,
		Joins:  ctx.Plan.Joins(),
		Where:  where.SQL,
		Params: where.Params,
	}
	c.logger.Debug("compiled criteria",
		"entity", kind,
		"joins", len(result.Joins),
		"params", len(result.Params))
	return result, nil
}

// Context is the per-compilation state handed to translators.
type Context struct {
	Entity  *schema.Entity
	Catalog *schema.PropertyCatalog
	Plan    *joins.Plan

	registry *Registry
}

// PlanJoins dispatches the planning pass for c.
func (ctx *Context) PlanJoins(c criteria.Criterion) error {
	c, t, err := ctx.lookup(c)
	if err != nil {
		return err
	}
	return t.PlanJoins(c, ctx)
}

// Translate dispatches the translation pass for c.
func (ctx *Context) Translate(c criteria.Criterion) (sqlfrag.Fragment, error) {
	c, t, err := ctx.lookup(c)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	return t.Translate(c, ctx)
}

func (ctx *Context) lookup(c criteria.Criterion) (criteria.Criterion, Translator, error) {
	c = criteria.Deref(c)
	if c == nil {
		return nil, nil, &IllegalCriterionError{Reason: "nil criterion"}
	}
	t, ok := ctx.registry.Lookup(c.Kind())
	if !ok {
		return nil, nil, &UnsupportedCriterionError{Kind: c.Kind(), Reason: "no translator registered"}
	}
	return c, t, nil
}

// main returns a column of the main entity row.
func (ctx *Context) main(column string) sqlfrag.Fragment {
	return sqlfrag.Column(joins.MainAlias, column)
}
