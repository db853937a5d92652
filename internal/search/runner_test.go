package search

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/translate"
)

// fakeRows serves fixed values through the pgx.Rows interface.
type fakeRows struct {
	values [][]any
	i      int
	closed bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.i < len(r.values) {
		r.i++
		return true
	}
	return false
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.values[r.i-1]
	for k, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(row[k]))
	}
	return nil
}

func (r *fakeRows) Values() ([]any, error) { return r.values[r.i-1], nil }

// fakeQuerier records the last query and answers with rows.
type fakeQuerier struct {
	sql  string
	args []any
	rows *fakeRows
	err  error
}

func (q *fakeQuerier) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	q.sql, q.args = sql, args
	if q.err != nil {
		return nil, q.err
	}
	return q.rows, nil
}

func newRunner(q Querier) *Runner {
	return NewRunner(translate.NewCompiler(translate.NewRegistry(), schema.NewRegistry()), q, nil)
}

func TestSearchIDs(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{values: [][]any{{int64(3)}, {int64(9)}}}}

	ids, err := newRunner(q).SearchIDs(context.Background(), schema.Sample,
		criteria.IdentifierEq("/LAB/S1"), 10)
	require.NoError(t, err)

	assert.Equal(t, []int64{3, 9}, ids)
	assert.True(t, q.rows.closed)
	assert.Contains(t, q.sql, "WHERE t0.space_id = (SELECT id FROM spaces WHERE code = $1) AND t0.code = $2")
	assert.Equal(t, []any{"LAB", "S1", int64(10)}, q.args)
}

func TestSearchIDs_CompileErrorSkipsQuery(t *testing.T) {
	q := &fakeQuerier{}

	_, err := newRunner(q).SearchIDs(context.Background(), schema.Space,
		criteria.Prop("X", criteria.EqualTo("y")), 0)
	require.Error(t, err)
	assert.True(t, translate.IsUnsupportedCriterion(err))
	assert.Empty(t, q.sql)
}

func TestSearchIDs_QueryError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection reset")}

	_, err := newRunner(q).SearchIDs(context.Background(), schema.Sample, nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	assert.False(t, translate.IsCriteriaError(err))
}

func TestLoadPropertyCatalog(t *testing.T) {
	q := &fakeQuerier{rows: &fakeRows{values: [][]any{
		{"BORN", false, "DATE"},
		{"NAME", true, "VARCHAR"},
	}}}

	cat, err := LoadPropertyCatalog(context.Background(), q, schema.NewRegistry().MustLookup(schema.Sample))
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT pt.code, pt.is_internal_namespace, dt.code FROM property_types pt JOIN data_types dt ON dt.id = pt.daty_id",
		q.sql)
	assert.Equal(t, 2, cat.Len())

	dt, ok := cat.DataType("BORN")
	assert.True(t, ok)
	assert.Equal(t, schema.DataDate, dt)

	_, ok = cat.DataType("NAME")
	assert.False(t, ok, "internal NAME is not external NAME")
	dt, ok = cat.DataType("$NAME")
	assert.True(t, ok)
	assert.Equal(t, schema.DataVarchar, dt)
}

func TestLoadPropertyCatalog_NoProperties(t *testing.T) {
	_, err := LoadPropertyCatalog(context.Background(), &fakeQuerier{}, schema.NewRegistry().MustLookup(schema.Space))
	assert.Error(t, err)
}

type scriptedAnswer struct {
	rows [][]any
	err  error
}

// scriptedQuerier answers successive queries from a script and records
// them.
type scriptedQuerier struct {
	mu      sync.Mutex
	script  []scriptedAnswer
	queries []string
}

func (q *scriptedQuerier) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queries = append(q.queries, sql)
	if len(q.script) == 0 {
		return &fakeRows{}, nil
	}
	next := q.script[0]
	q.script = q.script[1:]
	if next.err != nil {
		return nil, next.err
	}
	return &fakeRows{values: next.rows}, nil
}

func (q *scriptedQuerier) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.queries)
}

func newCatalogRunner(q Querier) *Runner {
	return NewRunner(translate.NewCompiler(translate.NewRegistry(), schema.NewRegistry()), q, nil,
		WithDatabaseCatalog())
}

var catalogQuery = "SELECT pt.code, pt.is_internal_namespace, dt.code FROM property_types pt JOIN data_types dt ON dt.id = pt.daty_id"

func TestSearchIDs_DatabaseCatalog(t *testing.T) {
	q := &scriptedQuerier{script: []scriptedAnswer{
		{rows: [][]any{{"BORN", false, "DATE"}, {"SEEN", false, "TIMESTAMP"}}},
		{rows: [][]any{{int64(4)}}},
		{rows: [][]any{{int64(5)}}},
	}}
	r := newCatalogRunner(q)
	ctx := context.Background()

	ids, err := r.SearchIDs(ctx, schema.Sample, criteria.Prop("BORN", criteria.DateEq("2024-03-01")), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids)
	require.Len(t, q.queries, 2)
	assert.Equal(t, catalogQuery, q.queries[0])
	assert.Contains(t, q.queries[1], "CASE WHEN t4.code = 'DATE'")

	// the catalog is loaded once per kind
	ids, err = r.SearchIDs(ctx, schema.Sample, criteria.Prop("SEEN", criteria.DateGE("2024-03-01")), 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, ids)
	require.Len(t, q.queries, 3)
	assert.Contains(t, q.queries[2], "CASE WHEN t4.code = 'TIMESTAMP'")

	// a DATE property rejects a time of day before anything runs
	_, err = r.SearchIDs(ctx, schema.Sample, criteria.Prop("BORN", criteria.DateEq("2024-03-01 10:00")), 0)
	require.Error(t, err)
	assert.True(t, translate.IsIllegalCriterion(err), err)
	assert.Len(t, q.queries, 3)
}

func TestSearchIDs_DatabaseCatalogPerKind(t *testing.T) {
	q := &scriptedQuerier{}
	r := newCatalogRunner(q)
	ctx := context.Background()

	_, err := r.SearchIDs(ctx, schema.Space, criteria.Attr("code", criteria.EqualTo("LAB")), 0)
	require.NoError(t, err)
	require.Len(t, q.queries, 1, "entities without properties load no catalog")
	assert.NotEqual(t, catalogQuery, q.queries[0])

	_, err = r.SearchIDs(ctx, schema.Sample, nil, 0)
	require.NoError(t, err)
	_, err = r.SearchIDs(ctx, schema.Experiment, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{catalogQuery, catalogQuery}, []string{q.queries[1], q.queries[3]})
	assert.Len(t, q.queries, 5)
}

func TestSearchIDs_DatabaseCatalogFailureIsRetried(t *testing.T) {
	q := &scriptedQuerier{script: []scriptedAnswer{
		{err: errors.New("relation \"property_types\" does not exist")},
		{rows: [][]any{{"BORN", false, "DATE"}}},
		{rows: [][]any{{int64(1)}}},
	}}
	r := newCatalogRunner(q)
	ctx := context.Background()

	_, err := r.SearchIDs(ctx, schema.Sample, nil, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load property catalog")
	assert.Equal(t, 1, q.count())

	ids, err := r.SearchIDs(ctx, schema.Sample, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
	assert.Equal(t, 3, q.count())
}

func TestSearchIDs_DatabaseCatalogConcurrent(t *testing.T) {
	q := &scriptedQuerier{}
	r := newCatalogRunner(q)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.SearchIDs(context.Background(), schema.Sample, nil, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	catalogLoads := 0
	for _, sql := range q.queries {
		if sql == catalogQuery {
			catalogLoads++
		}
	}
	assert.GreaterOrEqual(t, catalogLoads, 1)
	assert.Equal(t, 8, len(q.queries)-catalogLoads)
}
