package translate

import (
	"fmt"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// attribute resolves field on the main entity and checks its family.
func (ctx *Context) attribute(kind criteria.Kind, field string, families ...schema.Family) (schema.Attribute, error) {
	attr, ok := ctx.Entity.Attribute(field)
	if !ok {
		return attr, &UnsupportedCriterionError{
			Kind:   kind,
			Field:  field,
			Reason: fmt.Sprintf("%s has no such attribute", ctx.Entity.Kind),
		}
	}
	for _, f := range families {
		if attr.Type.Family() == f {
			return attr, nil
		}
	}
	return attr, &UnsupportedCriterionError{
		Kind:   kind,
		Field:  field,
		Reason: fmt.Sprintf("attribute is %s", attr.Type),
	}
}

// textColumn returns the column as text; enum columns are cast.
func (ctx *Context) textColumn(attr schema.Attribute) sqlfrag.Fragment {
	col := ctx.main(attr.Column)
	if attr.Type.Family() != schema.FamilyText || attr.Type == schema.TypeEnum {
		return sqlfrag.Cast(col, "text")
	}
	return col
}

// noJoins is embedded by translators that only touch the main row.
type noJoins struct{}

func (noJoins) PlanJoins(criteria.Criterion, *Context) error { return nil }

type stringTranslator struct{ noJoins }

func (stringTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AttributeString)
	attr, err := ctx.attribute(crit.Kind(), crit.Field, schema.FamilyText)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	return stringMatch(ctx.textColumn(attr), crit.Value, crit.Wildcards), nil
}

type numberTranslator struct{ noJoins }

func (numberTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AttributeNumber)
	attr, err := ctx.attribute(crit.Kind(), crit.Field, schema.FamilyInteger, schema.FamilyReal)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	return sqlfrag.Compare(ctx.main(attr.Column), numberComparison(crit.Value.Op), sqlfrag.Param(crit.Value.Number.Any())), nil
}

type dateTranslator struct{ noJoins }

func (dateTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AttributeDate)
	attr, err := ctx.attribute(crit.Kind(), crit.Field, schema.FamilyTimestamp)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	d, err := parseDate(crit.Field, crit.Value)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	if attr.Type == schema.TypeDate {
		if err := checkPlainDate(crit.Field, d, crit.TimeZone); err != nil {
			return sqlfrag.Fragment{}, err
		}
	}
	return dateCompare(ctx.main(attr.Column), dateComparison(crit.Value.Op), d, crit.TimeZone), nil
}

// checkPlainDate rejects a time of day or a time zone on a DATE value.
func checkPlainDate(field string, d parsedDate, tz *criteria.TimeZone) error {
	if tz != nil {
		return &IllegalCriterionError{Field: field, Reason: "time zone not allowed on a DATE field"}
	}
	if !d.bare {
		return &IllegalCriterionError{Field: field, Reason: "time of day not allowed on a DATE field"}
	}
	return nil
}

type booleanTranslator struct{ noJoins }

func (booleanTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AttributeBoolean)
	attr, err := ctx.attribute(crit.Kind(), crit.Field, schema.FamilyBoolean)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	return sqlfrag.Compare(ctx.main(attr.Column), sqlfrag.Eq, sqlfrag.Param(crit.Value)), nil
}

type enumTranslator struct{ noJoins }

func (enumTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AttributeEnum)
	attr, err := ctx.attribute(crit.Kind(), crit.Field, schema.FamilyText)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	return sqlfrag.Compare(ctx.textColumn(attr), sqlfrag.Eq, sqlfrag.Param(crit.Value)), nil
}

type collectionTranslator struct{ noJoins }

func (collectionTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AttributeCollection)
	if len(crit.Values) == 0 {
		if _, ok := ctx.Entity.Attribute(crit.Field); !ok {
			return sqlfrag.Fragment{}, &UnsupportedCriterionError{
				Kind:   crit.Kind(),
				Field:  crit.Field,
				Reason: fmt.Sprintf("%s has no such attribute", ctx.Entity.Kind),
			}
		}
		return sqlfrag.False(), nil
	}

	et, err := criteria.CollectionElementType(crit.Values)
	if err != nil {
		return sqlfrag.Fragment{}, &IllegalCriterionError{Field: crit.Field, Reason: err.Error()}
	}

	var (
		attr     schema.Attribute
		array    any
		elemType string
	)
	switch et {
	case criteria.ElementString:
		attr, err = ctx.attribute(crit.Kind(), crit.Field, schema.FamilyText)
		array, elemType = stringArray(crit.Values), "text"
	case criteria.ElementInteger:
		attr, err = ctx.attribute(crit.Kind(), crit.Field, schema.FamilyInteger, schema.FamilyReal)
		array, elemType = int64Array(crit.Values), "bigint"
	case criteria.ElementFloat:
		attr, err = ctx.attribute(crit.Kind(), crit.Field, schema.FamilyReal)
		array, elemType = float64Array(crit.Values), "float8"
	}
	if err != nil {
		return sqlfrag.Fragment{}, err
	}

	col := ctx.main(attr.Column)
	if et == criteria.ElementString {
		col = ctx.textColumn(attr)
	}
	return sqlfrag.InUnnest(col, array, elemType), nil
}

func stringArray(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}

func int64Array(values []any) []int64 {
	out := make([]int64, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case int:
			out[i] = int64(x)
		case int32:
			out[i] = int64(x)
		case int64:
			out[i] = x
		}
	}
	return out
}

func float64Array(values []any) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		switch x := v.(type) {
		case int:
			out[i] = float64(x)
		case int32:
			out[i] = float64(x)
		case int64:
			out[i] = float64(x)
		case float32:
			out[i] = float64(x)
		case float64:
			out[i] = x
		}
	}
	return out
}
