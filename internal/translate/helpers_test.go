package translate

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

func newTestCompiler(opts ...Option) *Compiler {
	return NewCompiler(NewRegistry(), schema.NewRegistry(), opts...)
}

func mustCompile(t *testing.T, kind schema.Kind, c criteria.Criterion, opts ...Option) *Result {
	t.Helper()
	r, err := newTestCompiler(opts...).Compile(kind, c)
	require.NoError(t, err)
	return r
}

// render prints a result in the layout of the golden files.
func render(r *Result) []byte {
	var b strings.Builder
	b.WriteString("JOINS\n")
	for _, j := range r.Joins {
		b.WriteString(sqlfrag.RenderJoin(j))
		b.WriteString("\n")
	}
	b.WriteString("WHERE\n")
	b.WriteString(r.Where)
	b.WriteString("\n")
	b.WriteString("PARAMS\n")
	for i, p := range r.Params {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatParam(p))
	}
	return []byte(b.String())
}

func formatParam(p any) string {
	if ts, ok := p.(time.Time); ok {
		return "time " + ts.Format(time.RFC3339)
	}
	return fmt.Sprintf("%T %v", p, p)
}
