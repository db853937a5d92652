// Package sqlfrag builds parameterized SQL fragments.
//
// A Fragment is an immutable (SQL, Params) pair: the Nth `?` placeholder in
// SQL is bound to Params[N]. Every builder in this package preserves that
// alignment, and none of them ever writes a caller-supplied value into the
// SQL text. Values always travel in Params.
//
// Fragments compose bottom-up. Expression fragments (Column, Param, Cast, ...)
// are operands; predicate fragments (Compare, Like, CaseWhen, ...) are boolean
// and can be combined with Join, which adds parentheses only where operator
// precedence requires them:
//
//	a := sqlfrag.Compare(sqlfrag.Column("t0", "code"), sqlfrag.Eq, sqlfrag.Param("X"))
//	b := sqlfrag.IsNull(sqlfrag.Column("t0", "space_id"))
//	c := sqlfrag.IsNull(sqlfrag.Column("t0", "proj_id"))
//	sqlfrag.Join(sqlfrag.OpAnd, a, sqlfrag.Join(sqlfrag.OpOr, b, c))
//	// t0.code = ? AND (t0.space_id IS NULL OR t0.proj_id IS NULL)
//
// Raw and Literal exist for engine constants only (type codes, wildcard
// suffixes, separators); they must never receive user input.
package sqlfrag
