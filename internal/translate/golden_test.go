package translate

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
)

func TestGoldenCompilations(t *testing.T) {
	tests := []struct {
		name string
		kind schema.Kind
		c    criteria.Criterion
	}{
		{
			name: "sample_property_number",
			kind: schema.Sample,
			c:    criteria.Prop("CONCENTRATION", criteria.NumberGT(criteria.Float(0.5))),
		},
		{
			name: "sample_identifier_prefix",
			kind: schema.Sample,
			c:    criteria.Identifier{Value: criteria.StartsWith("/lab/")},
		},
		{
			name: "experiment_mixed_tree",
			kind: schema.Experiment,
			c: criteria.And(
				criteria.Attr("code", criteria.Contains("EXP")),
				criteria.Or(
					criteria.Prop("$NAME", criteria.EqualTo("x")),
					criteria.AttributeDate{
						Field:    "registrationDate",
						Value:    criteria.DateGE("2024-03-01"),
						TimeZone: &criteria.TimeZone{HourOffset: 2},
					},
				),
			),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustCompile(t, tt.kind, tt.c)

			g := goldie.New(t,
				goldie.WithFixtureDir("testdata/golden"),
				goldie.WithNameSuffix(".golden"),
			)
			g.Assert(t, tt.name, render(result))
		})
	}
}
