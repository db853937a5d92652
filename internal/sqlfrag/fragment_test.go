package sqlfrag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareBindsValue(t *testing.T) {
	f := Compare(Column("t0", "code"), Eq, Param("X'; DROP TABLE samples; --"))

	assert.Equal(t, "t0.code = ?", f.SQL)
	assert.Equal(t, []any{"X'; DROP TABLE samples; --"}, f.Params)
	assert.Equal(t, OpNone, f.Op)
}

func TestLikeKinds(t *testing.T) {
	col := Column("t0", "code")
	tests := []struct {
		kind LikeKind
		want string
	}{
		{LikeExact, "t0.code LIKE ?"},
		{LikePrefix, "t0.code LIKE ? || '%'"},
		{LikeSuffix, "t0.code LIKE '%' || ?"},
		{LikeContains, "t0.code LIKE '%' || ? || '%'"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			f := Like(col, tt.kind, "abc")
			assert.Equal(t, tt.want, f.SQL)
			assert.Equal(t, []any{"abc"}, f.Params)
			assert.Equal(t, 1, CountPlaceholders(f.SQL))
		})
	}
}

func TestCaseWhenParamOrder(t *testing.T) {
	guard := And(
		InLiterals(Column("t4", "code"), "INTEGER", "REAL"),
		Compare(Column("t3", "code"), Eq, Param("CONCENTRATION")),
		Compare(Column("t3", "is_internal_namespace"), Eq, Param(false)),
	)
	f := CaseWhen(guard, Compare(Cast(Column("t1", "value"), "numeric"), Gt, Param(int64(5))))

	assert.Equal(t,
		"CASE WHEN t4.code IN ('INTEGER', 'REAL') AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::numeric > ? ELSE false END",
		f.SQL)
	assert.Equal(t, []any{"CONCENTRATION", false, int64(5)}, f.Params)
	assert.Equal(t, OpNone, f.Op)
}

func TestJoinPrecedence(t *testing.T) {
	a := Compare(Column("t0", "a"), Eq, Param(1))
	b := Compare(Column("t0", "b"), Eq, Param(2))
	c := Compare(Column("t0", "c"), Eq, Param(3))

	f := And(a, Or(b, c))
	assert.Equal(t, "t0.a = ? AND (t0.b = ? OR t0.c = ?)", f.SQL)
	assert.Equal(t, []any{1, 2, 3}, f.Params)
	assert.Equal(t, OpAnd, f.Op)

	flat := And(a, And(b, c))
	assert.Equal(t, "t0.a = ? AND t0.b = ? AND t0.c = ?", flat.SQL)

	nested := Or(And(a, b), c)
	assert.Equal(t, "(t0.a = ? AND t0.b = ?) OR t0.c = ?", nested.SQL)
}

func TestJoinEmptyAndSingle(t *testing.T) {
	assert.True(t, And().IsTrue())
	assert.True(t, Or().IsFalse())

	a := Compare(Column("t0", "a"), Eq, Param(1))
	assert.Equal(t, a, Or(a))
}

func TestJoinDoesNotAliasChildParams(t *testing.T) {
	a := Compare(Column("t0", "a"), Eq, Param(1))
	b := Compare(Column("t0", "b"), Eq, Param(2))
	joined := And(a, b)
	joined.Params[0] = 99

	assert.Equal(t, []any{1}, a.Params)
}

func TestAtTimeZoneAndCast(t *testing.T) {
	f := Compare(Cast(AtTimeZone(Column("t0", "registration_timestamp"), "+02:00"), "date"), Le, ParamCast("2024-03-01", "date"))

	assert.Equal(t, "(t0.registration_timestamp AT TIME ZONE ?::interval)::date <= ?::date", f.SQL)
	assert.Equal(t, []any{"+02:00", "2024-03-01"}, f.Params)
}

func TestSubqueryAndConcat(t *testing.T) {
	sub := Subquery("id", "spaces", Compare(Column("", "code"), Eq, Param("LAB")))
	f := Compare(Column("t0", "space_id"), Eq, sub)
	assert.Equal(t, "t0.space_id = (SELECT id FROM spaces WHERE code = ?)", f.SQL)
	assert.Equal(t, []any{"LAB"}, f.Params)

	ident := Concat(Literal("/"), Coalesce(Concat(Column("t1", "code"), Literal("/")), Literal("")), Column("t0", "code"))
	assert.Equal(t, "'/' || coalesce(t1.code || '/', '') || t0.code", ident.SQL)
	assert.Empty(t, ident.Params)
}

func TestCoalesceMany(t *testing.T) {
	f := Coalesce(Column("t1", "value"), Column("t5", "code"), Param("x"), Column("t7", "code"))
	assert.Equal(t, "coalesce(t1.value, t5.code, ?, t7.code)", f.SQL)
	assert.Equal(t, []any{"x"}, f.Params)

	assert.Equal(t, "coalesce(t1.value)", Coalesce(Column("t1", "value")).SQL)
}

func TestLiteralEscapesQuotes(t *testing.T) {
	assert.Equal(t, "'it''s'", Literal("it's").SQL)
}

func TestInUnnestAndNulls(t *testing.T) {
	f := InUnnest(Column("t0", "code"), []string{"A", "B"}, "text")
	assert.Equal(t, "t0.code IN (SELECT unnest(?::text[]))", f.SQL)
	assert.Equal(t, []any{[]string{"A", "B"}}, f.Params)

	assert.Equal(t, "t0.space_id IS NULL", IsNull(Column("t0", "space_id")).SQL)
	assert.Equal(t, "t0.code IS NOT NULL", IsNotNull(Column("t0", "code")).SQL)
}
