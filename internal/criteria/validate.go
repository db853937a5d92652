package criteria

import (
	"fmt"
	"strings"
)

// ValidationResult lists structural problems found in a criteria tree.
type ValidationResult struct {
	// Valid is true when Problems is empty.
	Valid bool

	// Problems are human-readable, each prefixed with the node path
	// (e.g. "root.children[1]: empty field name").
	Problems []string
}

// Validate walks a tree and reports nil nodes, empty field names, unknown
// operators, mixed collection elements and mixed id types.
//
// Validate is a pure function with no side effects. Translation does not
// require a valid tree, but an invalid one always fails to translate.
func Validate(c Criterion) ValidationResult {
	v := &validator{problems: []string{}}
	v.validate("root", c)
	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

type validator struct {
	problems []string
}

func (v *validator) addProblem(path, format string, args ...any) {
	v.problems = append(v.problems, path+": "+fmt.Sprintf(format, args...))
}

func (v *validator) field(path, field string) {
	if strings.TrimSpace(field) == "" {
		v.addProblem(path, "empty field name")
	}
}

func (v *validator) validate(path string, c Criterion) {
	c = Deref(c)
	if c == nil {
		v.addProblem(path, "nil criterion")
		return
	}

	switch n := c.(type) {
	case AttributeString:
		v.field(path, n.Field)
	case AttributeNumber:
		v.field(path, n.Field)
	case AttributeDate:
		v.field(path, n.Field)
		v.date(path, n.Value)
	case AttributeBoolean:
		v.field(path, n.Field)
	case AttributeEnum:
		v.field(path, n.Field)
	case AttributeCollection:
		v.field(path, n.Field)
		if _, err := CollectionElementType(n.Values); err != nil {
			v.addProblem(path, "%v", err)
		}
	case Property:
		v.field(path, strings.TrimPrefix(n.Name, "$"))
		if n.Value == nil {
			v.addProblem(path, "property %q has no value", n.Name)
		}
		if d, ok := n.Value.(DateValue); ok {
			v.date(path, d)
		}
	case AnyProperty, AnyField, Identifier:
	case ID:
		if n.ID == nil {
			v.addProblem(path, "nil object id")
		}
	case IDs:
		if _, err := IDsType(n.IDs); err != nil {
			v.addProblem(path, "%v", err)
		}
	case Absence:
		switch n.Relation {
		case RelationSpace, RelationProject, RelationExperiment, RelationSample, RelationContainer:
		default:
			v.addProblem(path, "unknown relation %q", n.Relation)
		}
	case Composite:
		if n.Operator != OperatorAnd && n.Operator != OperatorOr {
			v.addProblem(path, "unknown operator %d", int(n.Operator))
		}
		for i, child := range n.Children {
			v.validate(fmt.Sprintf("%s.children[%d]", path, i), child)
		}
	}
}

func (v *validator) date(path string, d DateValue) {
	if d.Text == "" && d.Time.IsZero() {
		v.addProblem(path, "date value has neither text nor time")
	}
}

// Deref returns the value variant behind a pointer criterion, or c itself.
// A nil pointer yields nil.
func Deref(c Criterion) Criterion {
	switch p := c.(type) {
	case *AttributeString:
		return derefPtr(p)
	case *AttributeNumber:
		return derefPtr(p)
	case *AttributeDate:
		return derefPtr(p)
	case *AttributeBoolean:
		return derefPtr(p)
	case *AttributeEnum:
		return derefPtr(p)
	case *AttributeCollection:
		return derefPtr(p)
	case *Property:
		return derefPtr(p)
	case *AnyProperty:
		return derefPtr(p)
	case *AnyField:
		return derefPtr(p)
	case *Identifier:
		return derefPtr(p)
	case *ID:
		return derefPtr(p)
	case *IDs:
		return derefPtr(p)
	case *Absence:
		return derefPtr(p)
	case *Composite:
		return derefPtr(p)
	}
	return c
}

func derefPtr[T Criterion](p *T) Criterion {
	if p == nil {
		return nil
	}
	return *p
}

// ElementType classifies a collection element.
type ElementType string

const (
	ElementString  ElementType = "string"
	ElementInteger ElementType = "integer"
	ElementFloat   ElementType = "float"
)

// CollectionElementType returns the single element type of values.
// An empty collection is of type string. Integers mixed with floats make a
// float collection, since canonical JSON writes 2.0 as 2.
func CollectionElementType(values []any) (ElementType, error) {
	et := ElementString
	for i, raw := range values {
		got, ok := elementType(raw)
		if !ok {
			return "", fmt.Errorf("collection element %d: unsupported type %T", i, raw)
		}
		switch {
		case i == 0:
			et = got
		case got == et:
		case isNumeric(got) && isNumeric(et):
			et = ElementFloat
		default:
			return "", fmt.Errorf("collection mixes %s and %s elements", et, got)
		}
	}
	return et, nil
}

func isNumeric(et ElementType) bool {
	return et == ElementInteger || et == ElementFloat
}

func elementType(v any) (ElementType, bool) {
	switch v.(type) {
	case string:
		return ElementString, true
	case int, int32, int64:
		return ElementInteger, true
	case float32, float64:
		return ElementFloat, true
	}
	return "", false
}

// IDsType returns the single ObjectID type used in ids, as "techId",
// "permId" or "identifier".
func IDsType(ids []ObjectID) (string, error) {
	var typ string
	for i, id := range ids {
		var got string
		switch id.(type) {
		case TechID, *TechID:
			got = "techId"
		case PermID, *PermID:
			got = "permId"
		case IdentifierID, *IdentifierID:
			got = "identifier"
		case nil:
			return "", fmt.Errorf("id %d is nil", i)
		default:
			return "", fmt.Errorf("id %d: unsupported object id %T", i, id)
		}
		if typ != "" && got != typ {
			return "", fmt.Errorf("ids mix %s and %s", typ, got)
		}
		typ = got
	}
	return typ, nil
}
