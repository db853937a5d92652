package sqlfrag

import (
	"fmt"
	"strings"
)

// Op is the top-level boolean connective of a fragment.
type Op int

const (
	// OpNone marks an atomic fragment: an expression or a single predicate.
	OpNone Op = iota
	OpAnd
	OpOr
)

func (o Op) String() string {
	switch o {
	case OpAnd:
		return "AND"
	case OpOr:
		return "OR"
	default:
		return ""
	}
}

// Fragment is an immutable piece of SQL with its positional parameters.
type Fragment struct {
	SQL    string
	Params []any
	Op     Op
}

// IsTrue reports whether f is the constant TRUE.
func (f Fragment) IsTrue() bool { return f.SQL == "TRUE" && len(f.Params) == 0 }

// IsFalse reports whether f is the constant FALSE.
func (f Fragment) IsFalse() bool { return f.SQL == "FALSE" && len(f.Params) == 0 }

// String renders the fragment for logs and test failures.
func (f Fragment) String() string {
	return fmt.Sprintf("%s %v", f.SQL, f.Params)
}

// Comparison is a binary comparison operator.
type Comparison int

const (
	Eq Comparison = iota
	Lt
	Le
	Gt
	Ge
)

func (c Comparison) String() string {
	switch c {
	case Eq:
		return "="
	case Lt:
		return "<"
	case Le:
		return "<="
	case Gt:
		return ">"
	case Ge:
		return ">="
	default:
		return fmt.Sprintf("comparison(%d)", int(c))
	}
}

// LikeKind selects where the `%` wildcard goes around the bound pattern.
type LikeKind int

const (
	LikeExact    LikeKind = iota // col LIKE ?
	LikePrefix                   // col LIKE ? || '%'
	LikeSuffix                   // col LIKE '%' || ?
	LikeContains                 // col LIKE '%' || ? || '%'
)

// True is the constant TRUE.
func True() Fragment { return Fragment{SQL: "TRUE"} }

// False is the constant FALSE.
func False() Fragment { return Fragment{SQL: "FALSE"} }

// Raw wraps constant SQL text. Never pass user input.
func Raw(sql string) Fragment { return Fragment{SQL: sql} }

// Literal renders a constant string literal. Never pass user input.
func Literal(s string) Fragment {
	return Fragment{SQL: "'" + strings.ReplaceAll(s, "'", "''") + "'"}
}

// Column references alias.column.
func Column(alias, column string) Fragment {
	if alias == "" {
		return Fragment{SQL: column}
	}
	return Fragment{SQL: alias + "." + column}
}

// Param is a single bound value.
func Param(v any) Fragment { return Fragment{SQL: "?", Params: []any{v}} }

// ParamCast is a bound value with a SQL cast: ?::typ.
func ParamCast(v any, typ string) Fragment {
	return Fragment{SQL: "?::" + typ, Params: []any{v}}
}

// Cast appends ::typ to an expression.
func Cast(expr Fragment, typ string) Fragment {
	return Fragment{SQL: expr.SQL + "::" + typ, Params: copyParams(expr.Params)}
}

// AtTimeZone shifts a timestamp expression by a bound interval offset
// such as "+02:00": (expr AT TIME ZONE ?::interval).
func AtTimeZone(expr Fragment, offset string) Fragment {
	return Fragment{
		SQL:    "(" + expr.SQL + " AT TIME ZONE ?::interval)",
		Params: concatParams(expr.Params, []any{offset}),
	}
}

// Concat joins expressions with the string concatenation operator.
func Concat(parts ...Fragment) Fragment {
	sqls := make([]string, len(parts))
	var params []any
	for i, p := range parts {
		sqls[i] = p.SQL
		params = concatParams(params, p.Params)
	}
	return Fragment{SQL: strings.Join(sqls, " || "), Params: params}
}

// Coalesce renders coalesce(first, rest...).
func Coalesce(first Fragment, rest ...Fragment) Fragment {
	sqls := []string{first.SQL}
	params := copyParams(first.Params)
	for _, f := range rest {
		sqls = append(sqls, f.SQL)
		params = concatParams(params, f.Params)
	}
	return Fragment{SQL: "coalesce(" + strings.Join(sqls, ", ") + ")", Params: params}
}

// Subquery renders (SELECT column FROM table WHERE where).
func Subquery(column, table string, where Fragment) Fragment {
	return Fragment{
		SQL:    "(SELECT " + column + " FROM " + table + " WHERE " + where.SQL + ")",
		Params: copyParams(where.Params),
	}
}

// Compare renders left op right.
func Compare(left Fragment, op Comparison, right Fragment) Fragment {
	return Fragment{
		SQL:    left.SQL + " " + op.String() + " " + right.SQL,
		Params: concatParams(left.Params, right.Params),
	}
}

// In renders left IN right, where right is a subquery.
func In(left, right Fragment) Fragment {
	return Fragment{
		SQL:    left.SQL + " IN " + right.SQL,
		Params: concatParams(left.Params, right.Params),
	}
}

// Like matches left against a bound pattern. The pattern is never
// concatenated into the text; only the `%` wildcards are.
func Like(left Fragment, kind LikeKind, pattern string) Fragment {
	var rhs string
	switch kind {
	case LikePrefix:
		rhs = "? || '%'"
	case LikeSuffix:
		rhs = "'%' || ?"
	case LikeContains:
		rhs = "'%' || ? || '%'"
	default:
		rhs = "?"
	}
	return Fragment{
		SQL:    left.SQL + " LIKE " + rhs,
		Params: concatParams(left.Params, []any{pattern}),
	}
}

// IsNull renders left IS NULL.
func IsNull(left Fragment) Fragment {
	return Fragment{SQL: left.SQL + " IS NULL", Params: copyParams(left.Params)}
}

// IsNotNull renders left IS NOT NULL.
func IsNotNull(left Fragment) Fragment {
	return Fragment{SQL: left.SQL + " IS NOT NULL", Params: copyParams(left.Params)}
}

// InUnnest tests membership in a bound array of elemType:
// left IN (SELECT unnest(?::elemType[])). The cast lets the server type the
// parameter.
func InUnnest(left Fragment, array any, elemType string) Fragment {
	return Fragment{
		SQL:    left.SQL + " IN (SELECT unnest(?::" + elemType + "[]))",
		Params: concatParams(left.Params, []any{array}),
	}
}

// InLiterals tests membership in a list of constant string literals.
// Never pass user input.
func InLiterals(left Fragment, values ...string) Fragment {
	if len(values) == 1 {
		return Compare(left, Eq, Literal(values[0]))
	}
	lits := make([]string, len(values))
	for i, v := range values {
		lits[i] = Literal(v).SQL
	}
	return Fragment{
		SQL:    left.SQL + " IN (" + strings.Join(lits, ", ") + ")",
		Params: copyParams(left.Params),
	}
}

// CaseWhen renders CASE WHEN guard THEN then ELSE false END. Rows failing
// the guard evaluate to false instead of reaching a cast that could error.
func CaseWhen(guard, then Fragment) Fragment {
	return Fragment{
		SQL:    "CASE WHEN " + guard.SQL + " THEN " + then.SQL + " ELSE false END",
		Params: concatParams(guard.Params, then.Params),
	}
}

// Group parenthesizes f and makes it atomic.
func Group(f Fragment) Fragment {
	if f.Op == OpNone {
		return f
	}
	return Fragment{SQL: "(" + f.SQL + ")", Params: copyParams(f.Params)}
}

// Join combines predicates with op. Children whose own connective differs
// from op are parenthesized; children sharing op are flattened. An empty
// AND is TRUE and an empty OR is FALSE.
func Join(op Op, frags ...Fragment) Fragment {
	switch len(frags) {
	case 0:
		if op == OpOr {
			return False()
		}
		return True()
	case 1:
		return frags[0]
	}

	sep := " " + op.String() + " "
	sqls := make([]string, len(frags))
	var params []any
	for i, f := range frags {
		if f.Op != OpNone && f.Op != op {
			f = Group(f)
		}
		sqls[i] = f.SQL
		params = concatParams(params, f.Params)
	}
	return Fragment{SQL: strings.Join(sqls, sep), Params: params, Op: op}
}

// And is Join(OpAnd, frags...).
func And(frags ...Fragment) Fragment { return Join(OpAnd, frags...) }

// Or is Join(OpOr, frags...).
func Or(frags ...Fragment) Fragment { return Join(OpOr, frags...) }

func copyParams(p []any) []any {
	if len(p) == 0 {
		return nil
	}
	return append([]any(nil), p...)
}

func concatParams(a, b []any) []any {
	if len(a)+len(b) == 0 {
		return nil
	}
	out := make([]any, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
