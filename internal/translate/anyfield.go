package translate

import (
	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

type anyFieldTranslator struct{}

func (anyFieldTranslator) PlanJoins(c criteria.Criterion, ctx *Context) error {
	if !ctx.Entity.HasProperties() {
		return nil
	}
	_, err := ctx.propertyChain(c.Kind(), true)
	return err
}

// Translate ORs a comparison per attribute column with the any-property
// match. For an exact value only columns whose type can hold the inferred
// value take part; when none can, the result is FALSE.
func (anyFieldTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AnyField)
	if crit.Value.Op == criteria.StringAny {
		return sqlfrag.True(), nil
	}

	var parts []sqlfrag.Fragment
	typed := isTypedEquality(crit.Value, crit.Wildcards)
	iv := inferValue(crit.Value.Text)

	for _, attr := range distinctColumns(ctx.Entity.Attributes) {
		if !typed {
			parts = append(parts, stringMatch(ctx.textColumn(attr), crit.Value, crit.Wildcards))
			continue
		}
		family := attr.Type.Family()
		if !iv.acceptsFamily(family) {
			continue
		}
		switch {
		case family == schema.FamilyTimestamp:
			if attr.Type == schema.TypeDate && !iv.date.bare {
				continue
			}
			parts = append(parts, dateCompare(ctx.main(attr.Column), sqlfrag.Eq, iv.date, nil))
		case family == schema.FamilyText:
			parts = append(parts, sqlfrag.Compare(ctx.textColumn(attr), sqlfrag.Eq, sqlfrag.Param(iv.param)))
		default:
			parts = append(parts, sqlfrag.Compare(ctx.main(attr.Column), sqlfrag.Eq, sqlfrag.Param(iv.param)))
		}
	}

	if ctx.Entity.HasProperties() {
		aliases, err := ctx.propertyChain(crit.Kind(), true)
		if err != nil {
			return sqlfrag.Fragment{}, err
		}
		parts = append(parts, anyPropertyMatch(ctx.propertyColumns(aliases), crit.Value, crit.Wildcards))
	}

	// Or of nothing is FALSE
	return sqlfrag.Or(parts...), nil
}

// distinctColumns drops attributes that alias an earlier attribute's column
// (e.g. person "code" and "userId").
func distinctColumns(attrs []schema.Attribute) []schema.Attribute {
	seen := make(map[string]bool, len(attrs))
	out := make([]schema.Attribute, 0, len(attrs))
	for _, a := range attrs {
		if seen[a.Column] {
			continue
		}
		seen[a.Column] = true
		out = append(out, a)
	}
	return out
}
