package translate

import (
	"fmt"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/joins"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// propertyChain plans (or looks up) the property join chain of the entity.
// Text matches also need the reference joins, so that vocabulary, material
// and sample values compare by their code.
func (ctx *Context) propertyChain(kind criteria.Kind, text bool) (joins.PropertyAliases, error) {
	if !ctx.Entity.HasProperties() {
		return joins.PropertyAliases{}, &UnsupportedCriterionError{
			Kind:   kind,
			Reason: fmt.Sprintf("%s has no properties", ctx.Entity.Kind),
		}
	}
	aliases, err := joins.PlanProperty(ctx.Plan, ctx.Entity)
	if err != nil || !text {
		return aliases, err
	}
	return joins.PlanPropertyReferences(ctx.Plan, ctx.Entity, aliases), nil
}

// propertyColumns are the columns of a planned property chain.
type propertyColumns struct {
	value    sqlfrag.Fragment
	text     sqlfrag.Fragment // value, or the code of the referenced row
	dataType sqlfrag.Fragment
	code     sqlfrag.Fragment
	internal sqlfrag.Fragment
}

func (ctx *Context) propertyColumns(a joins.PropertyAliases) propertyColumns {
	e := ctx.Entity
	value := sqlfrag.Column(a.Values, e.ValuesValueColumn)
	text := value
	var refs []sqlfrag.Fragment
	for _, alias := range []string{a.VocabularyTerm, a.Material, a.Sample} {
		if alias != "" {
			refs = append(refs, sqlfrag.Column(alias, "code"))
		}
	}
	if len(refs) > 0 {
		text = sqlfrag.Coalesce(value, refs...)
	}
	return propertyColumns{
		value:    value,
		text:     text,
		dataType: sqlfrag.Column(a.DataType, e.DataTypesCodeColumn),
		code:     sqlfrag.Column(a.AttributeType, e.AttributeTypesCodeColumn),
		internal: sqlfrag.Column(a.AttributeType, e.InternalNamespaceColumn),
	}
}

type propertyTranslator struct{}

func (propertyTranslator) PlanJoins(c criteria.Criterion, ctx *Context) error {
	_, err := ctx.propertyChain(c.Kind(), isTextProperty(c.(criteria.Property)))
	return err
}

func isTextProperty(p criteria.Property) bool {
	_, ok := p.Value.(criteria.StringValue)
	return ok
}

func (propertyTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.Property)
	aliases, err := ctx.propertyChain(crit.Kind(), isTextProperty(crit))
	if err != nil {
		return sqlfrag.Fragment{}, err
	}

	key := schema.ParsePropertyName(crit.Name)
	if key.Code == "" {
		return sqlfrag.Fragment{}, &IllegalCriterionError{Field: crit.Name, Reason: "empty property code"}
	}
	if crit.Value == nil {
		return sqlfrag.Fragment{}, &IllegalCriterionError{Field: crit.Name, Reason: "property criterion has no value"}
	}
	if _, isDate := crit.Value.(criteria.DateValue); crit.TimeZone != nil && !isDate {
		return sqlfrag.Fragment{}, &IllegalCriterionError{Field: crit.Name, Reason: "time zone only applies to date values"}
	}

	cols := ctx.propertyColumns(aliases)
	// code and namespace always go together so internal and external
	// properties of the same code never match each other.
	name := []sqlfrag.Fragment{
		sqlfrag.Compare(cols.code, sqlfrag.Eq, sqlfrag.Param(key.Code)),
		sqlfrag.Compare(cols.internal, sqlfrag.Eq, sqlfrag.Param(key.Internal)),
	}
	guarded := func(dataTypes []string, then sqlfrag.Fragment) sqlfrag.Fragment {
		guard := append([]sqlfrag.Fragment{sqlfrag.InLiterals(cols.dataType, dataTypes...)}, name...)
		return sqlfrag.CaseWhen(sqlfrag.And(guard...), then)
	}

	switch v := crit.Value.(type) {
	case criteria.StringValue:
		// values are stored as text; no cast, no type guard
		return sqlfrag.And(append(name, stringMatch(cols.text, v, crit.Wildcards))...), nil

	case criteria.NumberValue:
		return guarded(
			[]string{string(schema.DataInteger), string(schema.DataReal)},
			sqlfrag.Compare(sqlfrag.Cast(cols.value, "numeric"), numberComparison(v.Op), sqlfrag.Param(v.Number.Any())),
		), nil

	case criteria.BooleanValue:
		return guarded(
			[]string{string(schema.DataBoolean)},
			sqlfrag.Compare(sqlfrag.Cast(cols.value, "boolean"), sqlfrag.Eq, sqlfrag.Param(v.Value)),
		), nil

	case criteria.DateValue:
		d, err := parseDate(crit.Name, v)
		if err != nil {
			return sqlfrag.Fragment{}, err
		}
		cmp := dateComparison(v.Op)

		known, ok := ctx.Catalog.DataType(crit.Name)
		switch {
		case ok && known == schema.DataDate:
			if err := checkPlainDate(crit.Name, d, crit.TimeZone); err != nil {
				return sqlfrag.Fragment{}, err
			}
			return guarded(
				[]string{string(schema.DataDate)},
				sqlfrag.Compare(sqlfrag.Cast(cols.value, "date"), cmp, sqlfrag.ParamCast(d.at, "date")),
			), nil
		case ok && known == schema.DataTimestamp:
			return guarded(
				[]string{string(schema.DataTimestamp)},
				dateCompare(sqlfrag.Cast(cols.value, "timestamptz"), cmp, d, crit.TimeZone),
			), nil
		case ok:
			return sqlfrag.Fragment{}, &IllegalCriterionError{
				Field:  crit.Name,
				Reason: fmt.Sprintf("property is %s, not DATE or TIMESTAMP", known),
			}
		default:
			return guarded(
				[]string{string(schema.DataDate), string(schema.DataTimestamp)},
				dateCompare(sqlfrag.Cast(cols.value, "timestamptz"), cmp, d, crit.TimeZone),
			), nil
		}
	}

	return sqlfrag.Fragment{}, &UnsupportedCriterionError{
		Kind:   crit.Kind(),
		Field:  crit.Name,
		Reason: fmt.Sprintf("unsupported value %T", crit.Value),
	}
}

type anyPropertyTranslator struct{}

func (anyPropertyTranslator) PlanJoins(c criteria.Criterion, ctx *Context) error {
	_, err := ctx.propertyChain(c.Kind(), true)
	return err
}

func (anyPropertyTranslator) Translate(c criteria.Criterion, ctx *Context) (sqlfrag.Fragment, error) {
	crit := c.(criteria.AnyProperty)
	aliases, err := ctx.propertyChain(crit.Kind(), true)
	if err != nil {
		return sqlfrag.Fragment{}, err
	}
	return anyPropertyMatch(ctx.propertyColumns(aliases), crit.Value, crit.Wildcards), nil
}

// anyPropertyMatch matches a value against whatever property a values row
// holds. Exact values are type-inferred and guarded by data type; anything
// else is a text match on the raw value.
func anyPropertyMatch(cols propertyColumns, v criteria.StringValue, wildcards bool) sqlfrag.Fragment {
	if !isTypedEquality(v, wildcards) {
		return stringMatch(cols.text, v, wildcards)
	}

	iv := inferValue(v.Text)
	var then sqlfrag.Fragment
	switch iv.typ {
	case inferredTimestamp:
		then = dateCompare(sqlfrag.Cast(cols.value, "timestamptz"), sqlfrag.Eq, iv.date, nil)
	case inferredBoolean:
		then = sqlfrag.Compare(sqlfrag.Cast(cols.value, "boolean"), sqlfrag.Eq, sqlfrag.Param(iv.param))
	case inferredInteger, inferredReal:
		then = sqlfrag.Compare(sqlfrag.Cast(cols.value, "numeric"), sqlfrag.Eq, sqlfrag.Param(iv.param))
	default:
		then = sqlfrag.Compare(cols.text, sqlfrag.Eq, sqlfrag.Param(iv.param))
	}
	return sqlfrag.CaseWhen(sqlfrag.InLiterals(cols.dataType, iv.dataTypes()...), then)
}

// isTypedEquality reports whether v is an exact comparison that should be
// type-inferred rather than matched as text.
func isTypedEquality(v criteria.StringValue, wildcards bool) bool {
	if v.Op == criteria.StringEqualTo {
		return !(wildcards && hasWildcards(v.Text))
	}
	return false
}
