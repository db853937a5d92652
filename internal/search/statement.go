package search

import (
	"strconv"
	"strings"

	"github.com/roach88/labsearch/internal/joins"
	"github.com/roach88/labsearch/internal/sqlfrag"
	"github.com/roach88/labsearch/internal/translate"
)

// Statement is a complete PostgreSQL query and its arguments.
type Statement struct {
	SQL  string
	Args []any
}

// BuildSelect wraps a compilation result into
//
//	SELECT DISTINCT t0.id FROM <table> t0 <joins> WHERE <clause> ORDER BY t0.id
//
// with `$n` placeholders. A positive limit adds a bound LIMIT.
func BuildSelect(r *translate.Result, limit int) Statement {
	e := r.Entity
	id := joins.MainAlias + "." + e.IDColumn

	var b strings.Builder
	b.WriteString("SELECT DISTINCT " + id + "\n")
	b.WriteString("FROM " + e.EntitiesTable + " " + joins.MainAlias + "\n")
	for _, j := range r.Joins {
		b.WriteString(sqlfrag.RenderJoin(j))
		b.WriteString("\n")
	}
	b.WriteString("WHERE " + r.Where + "\n")
	b.WriteString("ORDER BY " + id)

	args := append([]any(nil), r.Params...)
	if limit > 0 {
		b.WriteString("\nLIMIT ?")
		args = append(args, int64(limit))
	}
	return Statement{SQL: Rewrite(b.String()), Args: args}
}

// Rewrite numbers `?` placeholders as $1, $2, ... leaving `?` inside
// single-quoted literals alone.
func Rewrite(sql string) string {
	var b strings.Builder
	b.Grow(len(sql) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
