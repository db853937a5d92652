package harness

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
	"github.com/roach88/labsearch/internal/translate"
)

// ErrCodeMalformed is reported for criteria trees that do not decode.
const ErrCodeMalformed = "E101"

// Harness translates scenarios against a fixed schema registry.
type Harness struct {
	registry *translate.Registry
	schemas  *schema.Registry
	logger   *slog.Logger
}

// New creates a harness over the built-in translators and schemas.
func New(schemas *schema.Registry) *Harness {
	if schemas == nil {
		schemas = schema.NewRegistry()
	}
	return &Harness{
		registry: translate.NewRegistry(),
		schemas:  schemas,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}
}

// Run executes a scenario against the built-in schemas.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(scenario)
}

// Run translates the scenario's criteria and checks its expectations.
// An error is returned only when the scenario itself cannot be set up
// (unknown entity kind, bad catalog).
func (h *Harness) Run(scenario *Scenario) (*Result, error) {
	kind, err := schema.ParseKind(scenario.Entity)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if _, err := h.schemas.Lookup(kind); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	opts := []translate.Option{translate.WithLogger(h.logger)}
	if len(scenario.Catalog) > 0 {
		cat, err := buildCatalog(scenario.Catalog)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
		}
		opts = append(opts, translate.WithPropertyCatalog(cat))
	}
	compiler := translate.NewCompiler(h.registry, h.schemas, opts...)

	result := NewResult(string(kind))
	translateInto(result, compiler, kind, scenario.Criteria)

	if scenario.Expect != nil {
		checkExpect(result, scenario.Expect)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func translateInto(result *Result, compiler *translate.Compiler, kind schema.Kind, node criteria.Node) {
	crit, err := criteria.Decode(node)
	if err != nil {
		result.ErrorCode, result.ErrorText = ErrCodeMalformed, err.Error()
		return
	}

	compiled, err := compiler.Compile(kind, crit)
	if err != nil {
		code := translate.ErrorCode(err)
		if code == "" {
			code = "E001"
		}
		result.ErrorCode, result.ErrorText = code, err.Error()
		return
	}

	for _, j := range compiled.Joins {
		result.Joins = append(result.Joins, sqlfrag.RenderJoin(j))
	}
	result.Where = compiled.Where
	result.Params = compiled.Params
}

func checkExpect(result *Result, expect *ExpectClause) {
	if expect.Error != "" {
		if result.ErrorCode != expect.Error {
			result.AddError(fmt.Sprintf("expect: error %s, got %s", expect.Error, describeOutcome(result)))
		}
		return
	}
	if result.Failed() {
		result.AddError(fmt.Sprintf("expect: success, got %s: %s", result.ErrorCode, result.ErrorText))
		return
	}
	if expect.Where != "" && expect.Where != result.Where {
		result.AddError(fmt.Sprintf("expect: where\n  want: %s\n  got:  %s", expect.Where, result.Where))
	}
	if expect.Params != nil {
		want := normalizeParams(expect.Params)
		got := normalizeParams(result.Params)
		if !reflect.DeepEqual(want, got) {
			result.AddError(fmt.Sprintf("expect: params\n  want: %v\n  got:  %v", want, got))
		}
	}
}

func describeOutcome(r *Result) string {
	if r.Failed() {
		return r.ErrorCode
	}
	return "success"
}

// normalizeParams maps parameters to comparable forms: integers to int64,
// times to RFC 3339 strings, typed arrays to []any.
func normalizeParams(params []any) []any {
	out := make([]any, len(params))
	for i, p := range params {
		out[i] = normalizeParam(p)
	}
	return out
}

func normalizeParam(p any) any {
	switch v := p.(type) {
	case int:
		return int64(v)
	case time.Time:
		return v.Format(time.RFC3339)
	case string, []byte:
		return p
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Slice {
		return p
	}
	arr := make([]any, rv.Len())
	for i := range arr {
		arr[i] = normalizeParam(rv.Index(i).Interface())
	}
	return arr
}

func buildCatalog(entries map[string]string) (*schema.PropertyCatalog, error) {
	types := make(map[string]schema.DataType, len(entries))
	var errs []error
	for name, code := range entries {
		dt := schema.DataType(strings.ToUpper(code))
		if !dt.Known() {
			errs = append(errs, fmt.Errorf("catalog: unknown data type %q for %s", code, name))
			continue
		}
		types[name] = dt
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return schema.NewPropertyCatalog(types), nil
}
