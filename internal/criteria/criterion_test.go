package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindsAreDistinctAndNamed(t *testing.T) {
	seen := map[string]bool{}
	for _, k := range Kinds() {
		name := k.String()
		assert.NotContains(t, name, "Kind(", "kind %d has no name", int(k))
		assert.False(t, seen[name], "duplicate kind name %s", name)
		seen[name] = true
	}
	assert.Len(t, seen, 14)
}

func TestCriterionKinds(t *testing.T) {
	tests := []struct {
		c    Criterion
		want Kind
	}{
		{Attr("code", EqualTo("X")), KindAttributeString},
		{AttrNumber("techId", NumberEq(Int(1))), KindAttributeNumber},
		{AttrDate("registrationDate", DateEq("2024-01-01")), KindAttributeDate},
		{AttributeBoolean{Field: "frozen"}, KindAttributeBoolean},
		{AttributeEnum{Field: "kind", Value: "PHYSICAL"}, KindAttributeEnum},
		{AttributeCollection{Field: "code"}, KindAttributeCollection},
		{Prop("NAME", EqualTo("x")), KindProperty},
		{AnyProperty{Value: EqualTo("x")}, KindAnyProperty},
		{AnyField{Value: EqualTo("x")}, KindAnyField},
		{IdentifierEq("/S/X"), KindIdentifier},
		{ID{ID: TechID{ID: 1}}, KindID},
		{IDs{}, KindIDs},
		{Absence{Relation: RelationSpace}, KindAbsence},
		{And(), KindComposite},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Kind())
		})
	}
}

func TestPointerCriteriaDeref(t *testing.T) {
	leaf := &AttributeString{Field: "code", Value: EqualTo("X")}
	assert.Equal(t, *leaf, Deref(leaf))

	var nilLeaf *AttributeString
	assert.Nil(t, Deref(nilLeaf))

	value := Attr("code", EqualTo("X"))
	assert.Equal(t, value, Deref(value))
}

func TestNumber(t *testing.T) {
	assert.Equal(t, int64(5), Int(5).Any())
	assert.Equal(t, 0.5, Float(0.5).Any())
	assert.True(t, Float(1).IsFloat())
	assert.Equal(t, "1e+21", Float(1e21).String())
	assert.Equal(t, "-3", Int(-3).String())
}

func TestTimeZoneOffset(t *testing.T) {
	assert.Equal(t, "+02:00", TimeZone{HourOffset: 2}.Offset())
	assert.Equal(t, "-11:00", TimeZone{HourOffset: -11}.Offset())
	assert.Equal(t, "+00:00", TimeZone{}.Offset())
}

func TestStringOpIsPattern(t *testing.T) {
	assert.True(t, StringContains.IsPattern())
	assert.True(t, StringStartsWith.IsPattern())
	assert.False(t, StringEqualTo.IsPattern())
	assert.False(t, StringAny.IsPattern())
}
