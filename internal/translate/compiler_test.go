package translate

import (
	"bytes"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

func TestCompileNilMatchesEverything(t *testing.T) {
	r := mustCompile(t, schema.Sample, nil)
	assert.Equal(t, "TRUE", r.Where)
	assert.Empty(t, r.Params)
	assert.Empty(t, r.Joins)
}

func TestCompileUnknownEntity(t *testing.T) {
	_, err := newTestCompiler().Compile(schema.Kind("WIDGET"), criteria.Attr("code", criteria.EqualTo("X")))
	require.Error(t, err)
	assert.False(t, IsCriteriaError(err))
}

func TestStringOperatorRoundTrip(t *testing.T) {
	withWildcards := mustCompile(t, schema.Sample, criteria.AttributeString{Field: "code", Value: criteria.Contains("abc"), Wildcards: true})
	assert.Contains(t, withWildcards.Where, "LIKE")
	assert.Equal(t, []any{"abc"}, withWildcards.Params)

	without := mustCompile(t, schema.Sample, criteria.AttributeString{Field: "code", Value: criteria.Contains("abc")})
	assert.Equal(t, "t0.code = ?", without.Where)
	assert.Equal(t, []any{"abc"}, without.Params)
}

func TestStringOperators(t *testing.T) {
	tests := []struct {
		name      string
		value     criteria.StringValue
		wildcards bool
		where     string
		params    []any
	}{
		{"equal", criteria.EqualTo("A"), true, "t0.code = ?", []any{"A"}},
		{"equal with wildcard chars", criteria.EqualTo("A*_?"), true, "t0.code LIKE ?", []any{`A%\__`}},
		{"equal with wildcard chars disabled", criteria.EqualTo("A*"), false, "t0.code = ?", []any{"A*"}},
		{"starts with", criteria.StartsWith("A"), true, "t0.code LIKE ? || '%'", []any{"A"}},
		{"ends with", criteria.EndsWith("50%"), true, "t0.code LIKE '%' || ?", []any{`50\%`}},
		{"contains", criteria.Contains("x"), true, "t0.code LIKE '%' || ? || '%'", []any{"x"}},
		{"less than", criteria.StringValue{Op: criteria.StringLessThan, Text: "M"}, true, "t0.code < ?", []any{"M"}},
		{"greater or equal", criteria.StringValue{Op: criteria.StringGreaterOrEqual, Text: "M"}, false, "t0.code >= ?", []any{"M"}},
		{"any", criteria.AnyString(), true, "t0.code IS NOT NULL", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustCompile(t, schema.Sample, criteria.AttributeString{Field: "code", Value: tt.value, Wildcards: tt.wildcards})
			assert.Equal(t, tt.where, r.Where)
			assert.Equal(t, tt.params, r.Params)
		})
	}
}

func TestDateBareValueSemantics(t *testing.T) {
	bare := mustCompile(t, schema.Sample, criteria.AttrDate("registrationDate", criteria.DateLE("2024-03-01")))
	assert.Equal(t, "t0.registration_timestamp::date <= ?::date", bare.Where)
	require.Len(t, bare.Params, 1)

	timed := mustCompile(t, schema.Sample, criteria.AttrDate("registrationDate", criteria.DateLE("2024-03-01 10:00:00")))
	assert.Equal(t, "t0.registration_timestamp <= ?::timestamp", timed.Where)
	assert.NotContains(t, timed.Where, "::date")
}

func TestDateOperatorsAndTimeZone(t *testing.T) {
	tz := &criteria.TimeZone{HourOffset: -5}
	tests := []struct {
		name  string
		value criteria.DateValue
		tz    *criteria.TimeZone
		where string
	}{
		{"equal", criteria.DateEq("2024-03-01"), nil, "t0.modification_timestamp::date = ?::date"},
		{"later or equal minutes", criteria.DateGE("2024-03-01 10:15"), nil, "t0.modification_timestamp >= ?::timestamp"},
		{"earlier", criteria.DateLT("2024-03-01"), nil, "t0.modification_timestamp::date < ?::date"},
		{"later with zone", criteria.DateGT("2024-03-01 08:00:00"), tz, "(t0.modification_timestamp AT TIME ZONE ?::interval) > ?::timestamp"},
		{"bare with zone", criteria.DateEq("2024-03-01"), tz, "(t0.modification_timestamp AT TIME ZONE ?::interval)::date = ?::date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustCompile(t, schema.Sample, criteria.AttributeDate{Field: "modificationDate", Value: tt.value, TimeZone: tt.tz})
			assert.Equal(t, tt.where, r.Where)
			if tt.tz != nil {
				assert.Equal(t, "-05:00", r.Params[0])
			}
		})
	}
}

func TestDateZonedInstant(t *testing.T) {
	want := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	plus2 := time.FixedZone("", 2*3600)
	tests := []struct {
		name  string
		value criteria.DateValue
		tz    *criteria.TimeZone
	}{
		{"rfc3339 text", criteria.DateEq("2024-03-01T10:00:00+02:00"), nil},
		{"time value", criteria.DateValue{Op: criteria.DateEqualTo, Time: time.Date(2024, 3, 1, 10, 0, 0, 0, plus2)}, nil},
		{"zone does not shift an instant", criteria.DateEq("2024-03-01T10:00:00+02:00"), &criteria.TimeZone{HourOffset: -5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustCompile(t, schema.Sample, criteria.AttributeDate{Field: "registrationDate", Value: tt.value, TimeZone: tt.tz})
			assert.Equal(t, "t0.registration_timestamp = ?::timestamptz", r.Where)
			require.Len(t, r.Params, 1)
			ts, ok := r.Params[0].(time.Time)
			require.True(t, ok, "param is %T", r.Params[0])
			assert.True(t, want.Equal(ts), "bound %s", ts)
			assert.Equal(t, time.UTC, ts.Location())
		})
	}

	cat := schema.NewPropertyCatalog(map[string]schema.DataType{"SEEN": schema.DataTimestamp})
	r := mustCompile(t, schema.Sample, criteria.Prop("SEEN", criteria.DateGE("2024-03-01T10:00:00+02:00")), WithPropertyCatalog(cat))
	assert.Equal(t, "CASE WHEN t4.code = 'TIMESTAMP' AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::timestamptz >= ?::timestamptz ELSE false END", r.Where)
	assert.True(t, want.Equal(r.Params[2].(time.Time)))
}

func TestDateUnparseable(t *testing.T) {
	_, err := newTestCompiler().Compile(schema.Sample, criteria.AttrDate("registrationDate", criteria.DateEq("yesterday")))
	require.Error(t, err)
	assert.True(t, IsIllegalCriterion(err))
}

func TestIdentifierParsingClauses(t *testing.T) {
	r := mustCompile(t, schema.Sample, criteria.IdentifierEq("/SPACE_A/PROJECT_B/SAMPLE_C"))
	assert.Equal(t,
		"t0.space_id = (SELECT id FROM spaces WHERE code = ?) AND t0.proj_id IN (SELECT id FROM projects WHERE code = ?) AND t0.code = ?",
		r.Where)
	assert.Equal(t, []any{"SPACE_A", "PROJECT_B", "SAMPLE_C"}, r.Params)
	assert.Empty(t, r.Joins)

	single := mustCompile(t, schema.Sample, criteria.IdentifierEq("SAMPLE_C"))
	assert.Equal(t, "t0.code = ?", single.Where)
	assert.Equal(t, []any{"SAMPLE_C"}, single.Params)
}

func TestIdentifierShapes(t *testing.T) {
	tests := []struct {
		name   string
		kind   schema.Kind
		text   string
		where  string
		params []any
	}{
		{
			"contained sample", schema.Sample, "/LAB/PLATE:A01",
			"t0.space_id = (SELECT id FROM spaces WHERE code = ?) AND t0.samp_id_part_of IN (SELECT id FROM samples_all WHERE code = ?) AND t0.code = ?",
			[]any{"LAB", "PLATE", "A01"},
		},
		{
			"experiment reaches space through projects", schema.Experiment, "/LAB/P1/E1",
			"t0.proj_id IN (SELECT id FROM projects WHERE space_id = (SELECT id FROM spaces WHERE code = ?)) AND t0.proj_id IN (SELECT id FROM projects WHERE code = ?) AND t0.code = ?",
			[]any{"LAB", "P1", "E1"},
		},
		{
			"material", schema.Material, "GFP (GENE)",
			"t0.code = ? AND t0.maty_id = (SELECT id FROM material_types WHERE code = ?)",
			[]any{"GFP", "GENE"},
		},
		{
			"person", schema.Person, "jdoe",
			"t0.user_id = ?",
			[]any{"JDOE"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustCompile(t, tt.kind, criteria.IdentifierEq(tt.text))
			assert.Equal(t, tt.where, r.Where)
			assert.Equal(t, tt.params, r.Params)
		})
	}
}

func TestIdentifierInvalid(t *testing.T) {
	_, err := newTestCompiler().Compile(schema.Project, criteria.IdentifierEq("/LAB/P/X"))
	require.Error(t, err)
	assert.True(t, IsIllegalCriterion(err))

	_, err = newTestCompiler().Compile(schema.Sample, criteria.Identifier{Value: criteria.StringValue{Op: criteria.StringLessThan, Text: "X"}})
	require.Error(t, err)
	assert.True(t, IsUnsupportedCriterion(err))
}

func TestCompositePrecedence(t *testing.T) {
	leafA := criteria.Attr("code", criteria.EqualTo("A"))
	leafB := criteria.AttrNumber("techId", criteria.NumberEq(criteria.Int(1)))
	leafC := criteria.AttributeBoolean{Field: "frozen", Value: true}

	r := mustCompile(t, schema.Sample, criteria.And(leafA, criteria.Or(leafB, leafC)))
	assert.Equal(t, "t0.code = ? AND (t0.id = ? OR t0.frozen = ?)", r.Where)
	assert.Equal(t, []any{"A", int64(1), true}, r.Params)

	r = mustCompile(t, schema.Sample, criteria.Or(criteria.And(leafA, leafB), leafC))
	assert.Equal(t, "(t0.code = ? AND t0.id = ?) OR t0.frozen = ?", r.Where)

	r = mustCompile(t, schema.Sample, criteria.And(leafA, criteria.And(leafB, leafC)))
	assert.Equal(t, "t0.code = ? AND t0.id = ? AND t0.frozen = ?", r.Where)
}

func TestCompositeMultiClauseLeafIsGrouped(t *testing.T) {
	r := mustCompile(t, schema.Sample, criteria.Or(
		criteria.IdentifierEq("/LAB/S1"),
		criteria.Attr("code", criteria.EqualTo("S2")),
	))
	assert.Equal(t, "(t0.space_id = (SELECT id FROM spaces WHERE code = ?) AND t0.code = ?) OR t0.code = ?", r.Where)
}

func TestEmptyComposites(t *testing.T) {
	assert.Equal(t, "TRUE", mustCompile(t, schema.Sample, criteria.And()).Where)
	assert.Equal(t, "FALSE", mustCompile(t, schema.Sample, criteria.Or()).Where)
}

func TestJoinDeduplication(t *testing.T) {
	tree := criteria.And(
		criteria.Prop("CONCENTRATION", criteria.NumberGT(criteria.Float(0.5))),
		criteria.Or(
			criteria.Prop("$NAME", criteria.Contains("buffer")),
			criteria.AnyProperty{Value: criteria.EqualTo("true")},
		),
		criteria.Prop("FLAG", criteria.BooleanValue{Value: true}),
	)
	r := mustCompile(t, schema.Sample, tree)

	tables := map[string]int{}
	for _, j := range r.Joins {
		tables[j.SubTable]++
	}
	assert.Equal(t, map[string]int{
		"sample_properties":           1,
		"sample_type_property_types":  1,
		"property_types":              1,
		"data_types":                  1,
		"controlled_vocabulary_terms": 1,
		"materials":                   1,
		"samples_all":                 1,
	}, tables)

	// every alias referenced in the clause was planned
	for _, alias := range []string{"t1", "t3", "t4", "t5", "t6", "t7"} {
		assert.Contains(t, r.Where, alias+".")
	}
	assert.NotContains(t, r.Where, "t8.")
}

func TestAndAcrossPropertiesSharesOneValueRow(t *testing.T) {
	r := mustCompile(t, schema.Sample, criteria.And(
		criteria.Prop("NAME", criteria.EqualTo("x")),
		criteria.Prop("COLOUR", criteria.EqualTo("red")),
	))

	// both property codes are tested against the same t3 row
	assert.Equal(t, 2, strings.Count(r.Where, "t3.code = ?"))
	assert.NotContains(t, r.Where, "t8.")
	assert.Len(t, r.Joins, len(mustCompile(t, schema.Sample, criteria.Prop("NAME", criteria.EqualTo("x"))).Joins))
}

func TestPropertyTranslations(t *testing.T) {
	tests := []struct {
		name   string
		c      criteria.Property
		where  string
		params []any
		joins  int
	}{
		{
			"string exact",
			criteria.Property{Name: "NAME", Value: criteria.EqualTo("x")},
			"t3.code = ? AND t3.is_internal_namespace = ? AND coalesce(t1.value, t5.code, t6.code, t7.code) = ?",
			[]any{"NAME", false, "x"},
			7,
		},
		{
			"internal string any",
			criteria.Property{Name: "$name", Value: criteria.AnyString()},
			"t3.code = ? AND t3.is_internal_namespace = ? AND coalesce(t1.value, t5.code, t6.code, t7.code) IS NOT NULL",
			[]any{"NAME", true},
			7,
		},
		{
			"boolean",
			criteria.Property{Name: "FLAG", Value: criteria.BooleanValue{Value: true}},
			"CASE WHEN t4.code = 'BOOLEAN' AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::boolean = ? ELSE false END",
			[]any{"FLAG", false, true},
			4,
		},
		{
			"integer",
			criteria.Property{Name: "COUNT", Value: criteria.NumberLE(criteria.Int(3))},
			"CASE WHEN t4.code IN ('INTEGER', 'REAL') AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::numeric <= ? ELSE false END",
			[]any{"COUNT", false, int64(3)},
			4,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustCompile(t, schema.Sample, tt.c)
			assert.Equal(t, tt.where, r.Where)
			assert.Equal(t, tt.params, r.Params)
			assert.Len(t, r.Joins, tt.joins)
		})
	}
}

func TestPropertyReferenceValues(t *testing.T) {
	tests := []struct {
		name  string
		kind  schema.Kind
		c     criteria.Criterion
		where string
		joins []string
	}{
		{
			"vocabulary term on sample",
			schema.Sample,
			criteria.Prop("COLOUR", criteria.EqualTo("RED")),
			"t3.code = ? AND t3.is_internal_namespace = ? AND coalesce(t1.value, t5.code, t6.code, t7.code) = ?",
			[]string{
				"LEFT JOIN controlled_vocabulary_terms t5 ON t1.cvte_id = t5.id",
				"LEFT JOIN materials t6 ON t1.mate_prop_id = t6.id",
				"LEFT JOIN samples_all t7 ON t1.samp_prop_id = t7.id",
			},
		},
		{
			"material values cannot reference samples",
			schema.Material,
			criteria.Property{Name: "GENE", Value: criteria.StartsWith("BRCA"), Wildcards: true},
			"t3.code = ? AND t3.is_internal_namespace = ? AND coalesce(t1.value, t5.code, t6.code) LIKE ? || '%'",
			[]string{
				"LEFT JOIN controlled_vocabulary_terms t5 ON t1.cvte_id = t5.id",
				"LEFT JOIN materials t6 ON t1.mate_prop_id = t6.id",
			},
		},
		{
			"number planned first keeps the chain aliases",
			schema.Experiment,
			criteria.And(
				criteria.Prop("COUNT", criteria.NumberGT(criteria.Int(1))),
				criteria.Prop("OWNER", criteria.EqualTo("S1")),
			),
			"CASE WHEN t4.code IN ('INTEGER', 'REAL') AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::numeric > ? ELSE false END AND t3.code = ? AND t3.is_internal_namespace = ? AND coalesce(t1.value, t5.code, t6.code, t7.code) = ?",
			[]string{
				"LEFT JOIN controlled_vocabulary_terms t5 ON t1.cvte_id = t5.id",
				"LEFT JOIN materials t6 ON t1.mate_prop_id = t6.id",
				"LEFT JOIN samples_all t7 ON t1.samp_prop_id = t7.id",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := mustCompile(t, tt.kind, tt.c)
			assert.Equal(t, tt.where, r.Where)

			var refs []string
			for _, j := range r.Joins[4:] {
				refs = append(refs, sqlfrag.RenderJoin(j))
			}
			assert.Equal(t, tt.joins, refs)
		})
	}
}

func TestPropertyDateRules(t *testing.T) {
	catalog := schema.NewPropertyCatalog(map[string]schema.DataType{
		"BORN":    schema.DataDate,
		"SEEN":    schema.DataTimestamp,
		"NAME":    schema.DataVarchar,
		"$LOCKED": schema.DataDate,
	})
	opts := []Option{WithPropertyCatalog(catalog)}
	tz := &criteria.TimeZone{HourOffset: 1}

	r := mustCompile(t, schema.Sample, criteria.Property{Name: "BORN", Value: criteria.DateEq("2024-03-01")}, opts...)
	assert.Equal(t, "CASE WHEN t4.code = 'DATE' AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::date = ?::date ELSE false END", r.Where)

	r = mustCompile(t, schema.Sample, criteria.Property{Name: "SEEN", Value: criteria.DateGE("2024-03-01"), TimeZone: tz}, opts...)
	assert.Equal(t, "CASE WHEN t4.code = 'TIMESTAMP' AND t3.code = ? AND t3.is_internal_namespace = ? THEN (t1.value::timestamptz AT TIME ZONE ?::interval)::date >= ?::date ELSE false END", r.Where)
	assert.Equal(t, "+01:00", r.Params[2])

	r = mustCompile(t, schema.Sample, criteria.Property{Name: "UNKNOWN", Value: criteria.DateLT("2024-03-01 12:00")}, opts...)
	assert.Equal(t, "CASE WHEN t4.code IN ('DATE', 'TIMESTAMP') AND t3.code = ? AND t3.is_internal_namespace = ? THEN t1.value::timestamptz < ?::timestamp ELSE false END", r.Where)

	c := newTestCompiler(opts...)
	_, err := c.Compile(schema.Sample, criteria.Property{Name: "BORN", Value: criteria.DateEq("2024-03-01"), TimeZone: tz})
	assert.True(t, IsIllegalCriterion(err), "time zone on DATE property")

	_, err = c.Compile(schema.Sample, criteria.Property{Name: "BORN", Value: criteria.DateEq("2024-03-01 10:00")})
	assert.True(t, IsIllegalCriterion(err), "time of day on DATE property")

	_, err = c.Compile(schema.Sample, criteria.Property{Name: "$LOCKED", Value: criteria.DateEq("2024-03-01 10:00")})
	assert.True(t, IsIllegalCriterion(err), "internal namespace uses its own catalog entry")

	_, err = c.Compile(schema.Sample, criteria.Property{Name: "LOCKED", Value: criteria.DateEq("2024-03-01 10:00")})
	assert.NoError(t, err, "external LOCKED is unknown, not DATE")

	_, err = c.Compile(schema.Sample, criteria.Property{Name: "NAME", Value: criteria.DateEq("2024-03-01")})
	assert.True(t, IsIllegalCriterion(err), "date criterion on VARCHAR property")
}

func TestPropertyErrors(t *testing.T) {
	c := newTestCompiler()

	_, err := c.Compile(schema.Space, criteria.Prop("NAME", criteria.EqualTo("x")))
	assert.True(t, IsUnsupportedCriterion(err), "spaces have no properties")

	_, err = c.Compile(schema.Sample, criteria.Prop("$", criteria.EqualTo("x")))
	assert.True(t, IsIllegalCriterion(err))

	_, err = c.Compile(schema.Sample, criteria.Property{Name: "N", Value: criteria.EqualTo("x"), TimeZone: &criteria.TimeZone{}})
	assert.True(t, IsIllegalCriterion(err))
}

func TestAnyFieldNoCompatibleColumnIsFalse(t *testing.T) {
	tagsOnly := &schema.Entity{
		Kind:          schema.Kind("LABEL"),
		EntitiesTable: "labels",
		IDColumn:      "id",
		CodeColumn:    "name",
		Attributes: []schema.Attribute{
			{Name: "name", Column: "name", Type: schema.TypeVarchar},
			{Name: "visible", Column: "visible", Type: schema.TypeBoolean},
		},
	}
	c := NewCompiler(NewRegistry(), schema.NewRegistry().WithEntity(tagsOnly))

	r, err := c.Compile(tagsOnly.Kind, criteria.AnyField{Value: criteria.EqualTo("42")})
	require.NoError(t, err)
	assert.Equal(t, "FALSE", r.Where)
	assert.Empty(t, r.Params)

	r, err = c.Compile(tagsOnly.Kind, criteria.AnyField{Value: criteria.EqualTo("true")})
	require.NoError(t, err)
	assert.Equal(t, "t0.visible = ?", r.Where)
	assert.Equal(t, []any{true}, r.Params)

	r, err = c.Compile(tagsOnly.Kind, criteria.AnyField{Value: criteria.Contains("4"), Wildcards: true})
	require.NoError(t, err)
	assert.Equal(t, "t0.name LIKE '%' || ? || '%' OR t0.visible::text LIKE '%' || ? || '%'", r.Where)
	assert.Equal(t, []any{"4", "4"}, r.Params)
}

func TestAnyFieldTypeInference(t *testing.T) {
	space := &schema.Entity{
		Kind:          schema.Kind("ROOM"),
		EntitiesTable: "rooms",
		IDColumn:      "id",
		CodeColumn:    "code",
		Attributes: []schema.Attribute{
			{Name: "techId", Column: "id", Type: schema.TypeBigInt},
			{Name: "code", Column: "code", Type: schema.TypeVarchar},
			{Name: "area", Column: "area", Type: schema.TypeReal},
			{Name: "built", Column: "built", Type: schema.TypeTimestamp},
		},
	}
	c := NewCompiler(NewRegistry(), schema.NewRegistry().WithEntity(space))

	tests := []struct {
		text  string
		where string
	}{
		{"42", "t0.id = ? OR t0.area = ?"},
		{"4.5", "t0.area = ?"},
		{"2024-03-01", "t0.built::date = ?::date"},
		{"hello", "t0.code = ?"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r, err := c.Compile(space.Kind, criteria.AnyField{Value: criteria.EqualTo(tt.text)})
			require.NoError(t, err)
			assert.Equal(t, tt.where, r.Where)
			assert.Equal(t, sqlfrag.CountPlaceholders(r.Where), len(r.Params))
		})
	}
}

func TestAnyFieldIncludesProperties(t *testing.T) {
	r := mustCompile(t, schema.Space, criteria.AnyField{Value: criteria.AnyString()})
	assert.Equal(t, "TRUE", r.Where)

	r = mustCompile(t, schema.Sample, criteria.AnyField{Value: criteria.EqualTo("42")})
	assert.Len(t, r.Joins, 7)
	assert.True(t, strings.HasSuffix(r.Where,
		"CASE WHEN t4.code IN ('INTEGER', 'REAL') THEN t1.value::numeric = ? ELSE false END"), r.Where)
}

func TestAnyProperty(t *testing.T) {
	r := mustCompile(t, schema.DataSet, criteria.AnyProperty{Value: criteria.EqualTo("buffer")})
	assert.Equal(t,
		"CASE WHEN t4.code IN ('VARCHAR', 'MULTILINE_VARCHAR', 'CONTROLLEDVOCABULARY', 'HYPERLINK', 'XML', 'MATERIAL', 'SAMPLE') THEN coalesce(t1.value, t5.code, t6.code, t7.code) = ? ELSE false END",
		r.Where)

	r = mustCompile(t, schema.DataSet, criteria.AnyProperty{Value: criteria.StartsWith("buf"), Wildcards: true})
	assert.Equal(t, "coalesce(t1.value, t5.code, t6.code, t7.code) LIKE ? || '%'", r.Where)
}

func TestCollection(t *testing.T) {
	r := mustCompile(t, schema.Sample, criteria.AttributeCollection{Field: "code", Values: []any{"A", "B"}})
	assert.Equal(t, "t0.code IN (SELECT unnest(?::text[]))", r.Where)
	assert.Equal(t, []any{[]string{"A", "B"}}, r.Params)

	r = mustCompile(t, schema.Sample, criteria.AttributeCollection{Field: "techId", Values: []any{1, int64(2)}})
	assert.Equal(t, []any{[]int64{1, 2}}, r.Params)

	r = mustCompile(t, schema.Sample, criteria.AttributeCollection{Field: "code"})
	assert.Equal(t, "FALSE", r.Where)
	assert.Empty(t, r.Params)

	_, err := newTestCompiler().Compile(schema.Sample, criteria.AttributeCollection{Field: "code", Values: []any{"A", 1}})
	assert.True(t, IsIllegalCriterion(err))

	_, err = newTestCompiler().Compile(schema.Sample, criteria.AttributeCollection{Field: "code", Values: []any{1}})
	assert.True(t, IsUnsupportedCriterion(err))
}

func TestCollectionOnNumericColumns(t *testing.T) {
	room := &schema.Entity{
		Kind:          schema.Kind("ROOM"),
		EntitiesTable: "rooms",
		IDColumn:      "id",
		CodeColumn:    "code",
		Attributes: []schema.Attribute{
			{Name: "techId", Column: "id", Type: schema.TypeBigInt},
			{Name: "area", Column: "area", Type: schema.TypeReal},
		},
	}
	c := NewCompiler(NewRegistry(), schema.NewRegistry().WithEntity(room))

	r, err := c.Compile(room.Kind, criteria.AttributeCollection{Field: "area", Values: []any{int64(1), 2.5}})
	require.NoError(t, err)
	assert.Equal(t, "t0.area IN (SELECT unnest(?::float8[]))", r.Where)
	assert.Equal(t, []any{[]float64{1, 2.5}}, r.Params)

	// a float collection reloaded from canonical JSON ([2.0, 3.5] -> [2, 3.5])
	r, err = c.Compile(room.Kind, criteria.AttributeCollection{Field: "area", Values: []any{int64(2), 3.5}})
	require.NoError(t, err)
	assert.Equal(t, []any{[]float64{2, 3.5}}, r.Params)

	for _, field := range []string{"techId", "area"} {
		r, err = c.Compile(room.Kind, criteria.AttributeCollection{Field: field})
		require.NoError(t, err, field)
		assert.Equal(t, "FALSE", r.Where, field)
		assert.Empty(t, r.Params)
	}

	_, err = c.Compile(room.Kind, criteria.AttributeCollection{Field: "colour"})
	assert.True(t, IsUnsupportedCriterion(err), "empty collection on an unknown field")

	_, err = c.Compile(room.Kind, criteria.AttributeCollection{Field: "techId", Values: []any{int64(1), 2.5}})
	assert.True(t, IsUnsupportedCriterion(err), "fractional values on an integer column")
}

func TestAttributeErrors(t *testing.T) {
	c := newTestCompiler()

	_, err := c.Compile(schema.Sample, criteria.Attr("nope", criteria.EqualTo("x")))
	var uce *UnsupportedCriterionError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, "nope", uce.Field)
	assert.Equal(t, criteria.KindAttributeString, uce.Kind)

	_, err = c.Compile(schema.Sample, criteria.AttrNumber("code", criteria.NumberEq(criteria.Int(1))))
	assert.True(t, IsUnsupportedCriterion(err))
}

func TestEnumAndBoolean(t *testing.T) {
	r := mustCompile(t, schema.DataSet, criteria.AttributeEnum{Field: "kind", Value: "PHYSICAL"})
	assert.Equal(t, "t0.data_set_kind::text = ?", r.Where)

	r = mustCompile(t, schema.Person, criteria.AttributeBoolean{Field: "active", Value: false})
	assert.Equal(t, "t0.is_active = ?", r.Where)
	assert.Equal(t, []any{false}, r.Params)
}

func TestIDs(t *testing.T) {
	r := mustCompile(t, schema.Sample, criteria.ID{ID: criteria.TechID{ID: 7}})
	assert.Equal(t, "t0.id = ?", r.Where)

	r = mustCompile(t, schema.DataSet, criteria.ID{ID: &criteria.PermID{PermID: "20240101-1"}})
	assert.Equal(t, "t0.code = ?", r.Where)

	r = mustCompile(t, schema.Sample, criteria.IDs{IDs: []criteria.ObjectID{criteria.PermID{PermID: "A"}, criteria.PermID{PermID: "B"}}})
	assert.Equal(t, "t0.perm_id IN (SELECT unnest(?::text[]))", r.Where)
	assert.Equal(t, []any{[]string{"A", "B"}}, r.Params)

	r = mustCompile(t, schema.Sample, criteria.IDs{IDs: []criteria.ObjectID{
		criteria.IdentifierID{Identifier: "/LAB/S1"},
		criteria.IdentifierID{Identifier: "S2"},
	}})
	assert.Equal(t, "(t0.space_id = (SELECT id FROM spaces WHERE code = ?) AND t0.code = ?) OR t0.code = ?", r.Where)

	r = mustCompile(t, schema.Sample, criteria.IDs{})
	assert.Equal(t, "FALSE", r.Where)

	c := newTestCompiler()
	_, err := c.Compile(schema.Sample, criteria.IDs{IDs: []criteria.ObjectID{criteria.TechID{ID: 1}, criteria.PermID{PermID: "X"}}})
	assert.True(t, IsIllegalCriterion(err))

	_, err = c.Compile(schema.Sample, criteria.ID{})
	assert.True(t, IsUnsupportedIdentifier(err))

	_, err = c.Compile(schema.Sample, criteria.IDs{IDs: []criteria.ObjectID{nil}})
	assert.True(t, IsUnsupportedIdentifier(err))

	_, err = c.Compile(schema.Material, criteria.ID{ID: criteria.PermID{PermID: "X"}})
	assert.True(t, IsUnsupportedCriterion(err))
}

func TestAbsence(t *testing.T) {
	r := mustCompile(t, schema.Sample, criteria.Absence{Relation: criteria.RelationContainer})
	assert.Equal(t, "t0.samp_id_part_of IS NULL", r.Where)

	_, err := newTestCompiler().Compile(schema.Space, criteria.Absence{Relation: criteria.RelationProject})
	assert.True(t, IsUnsupportedCriterion(err))
}

func TestUnregisteredKind(t *testing.T) {
	c := NewCompiler(NewRegistry().Without(criteria.KindAnyField), schema.NewRegistry())
	_, err := c.Compile(schema.Sample, criteria.And(criteria.AnyField{Value: criteria.EqualTo("x")}))

	var uce *UnsupportedCriterionError
	require.ErrorAs(t, err, &uce)
	assert.Equal(t, criteria.KindAnyField, uce.Kind)
}

func TestNilChildIsIllegal(t *testing.T) {
	_, err := newTestCompiler().Compile(schema.Sample, criteria.And(criteria.Attr("code", criteria.EqualTo("X")), nil))
	require.Error(t, err)
	assert.True(t, IsIllegalCriterion(err))
	assert.Contains(t, err.Error(), "child 1")
}

func TestPointerCriteriaCompile(t *testing.T) {
	r := mustCompile(t, schema.Sample, &criteria.Composite{Children: []criteria.Criterion{
		&criteria.AttributeString{Field: "code", Value: criteria.EqualTo("X")},
	}})
	assert.Equal(t, "t0.code = ?", r.Where)
}

func TestCompileLogsDebugRecord(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	mustCompile(t, schema.Sample, criteria.Prop("X", criteria.EqualTo("y")), WithLogger(logger))
	assert.Contains(t, buf.String(), "compiled criteria")
	assert.Contains(t, buf.String(), "entity=SAMPLE")
	assert.Contains(t, buf.String(), "joins=4")
}

func TestParameterOrderFollowsTree(t *testing.T) {
	leaf := func(i int) criteria.Criterion {
		return criteria.Attr("code", criteria.EqualTo(fmt.Sprintf("v%d", i)))
	}
	tree := criteria.Or(
		criteria.And(leaf(1), criteria.Or(leaf(2), leaf(3))),
		leaf(4),
		criteria.And(criteria.Or(leaf(5), criteria.And(leaf(6), leaf(7))), leaf(8)),
	)
	r := mustCompile(t, schema.Sample, tree)
	assert.Equal(t, []any{"v1", "v2", "v3", "v4", "v5", "v6", "v7", "v8"}, r.Params)
}

// randomTree builds a random criteria tree over the sample schema.
func randomTree(rng *rand.Rand, depth int) criteria.Criterion {
	if depth == 0 || rng.Intn(3) == 0 {
		leaves := []func() criteria.Criterion{
			func() criteria.Criterion { return criteria.Attr("code", criteria.Contains("a")) },
			func() criteria.Criterion {
				return criteria.AttrNumber("techId", criteria.NumberGE(criteria.Int(rng.Int63n(100))))
			},
			func() criteria.Criterion {
				return criteria.AttributeDate{Field: "registrationDate", Value: criteria.DateLE("2024-01-01"), TimeZone: &criteria.TimeZone{HourOffset: 3}}
			},
			func() criteria.Criterion { return criteria.Prop("CONC", criteria.NumberLT(criteria.Float(1.5))) },
			func() criteria.Criterion { return criteria.Prop("$NAME", criteria.StartsWith("x?")) },
			func() criteria.Criterion { return criteria.AnyProperty{Value: criteria.EqualTo("2024-05-05 10:00")} },
			func() criteria.Criterion { return criteria.AnyField{Value: criteria.EqualTo("7")} },
			func() criteria.Criterion { return criteria.IdentifierEq("/LAB/P/PLATE:A1") },
			func() criteria.Criterion { return criteria.Identifier{Value: criteria.Contains("LAB")} },
			func() criteria.Criterion {
				return criteria.AttributeCollection{Field: "code", Values: []any{"A", "B"}}
			},
			func() criteria.Criterion { return criteria.Absence{Relation: criteria.RelationExperiment} },
		}
		return leaves[rng.Intn(len(leaves))]()
	}
	n := rng.Intn(4)
	children := make([]criteria.Criterion, n)
	for i := range children {
		children[i] = randomTree(rng, depth-1)
	}
	if rng.Intn(2) == 0 {
		return criteria.And(children...)
	}
	return criteria.Or(children...)
}

func TestParameterAlignmentRandomTrees(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	c := newTestCompiler()

	for i := 0; i < 500; i++ {
		tree := randomTree(rng, 4)
		r, err := c.Compile(schema.Sample, tree)
		require.NoError(t, err)
		require.Equal(t, sqlfrag.CountPlaceholders(r.Where), len(r.Params), "tree %d: %s", i, r.Where)

		seen := map[string]bool{}
		for _, j := range r.Joins {
			require.False(t, seen[j.Key], "duplicate join %s", j.Key)
			seen[j.Key] = true
		}
	}
}

func TestConcurrentCompilation(t *testing.T) {
	c := newTestCompiler()
	tree := criteria.And(
		criteria.Prop("CONC", criteria.NumberGT(criteria.Int(1))),
		criteria.Identifier{Value: criteria.StartsWith("/LAB")},
	)
	want, err := c.Compile(schema.Sample, tree)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Compile(schema.Sample, tree)
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}
