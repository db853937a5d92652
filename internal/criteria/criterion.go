package criteria

import "fmt"

// Kind identifies the variant of a Criterion. It is the dispatch key of the
// translator registry.
type Kind int

const (
	KindAttributeString Kind = iota + 1
	KindAttributeNumber
	KindAttributeDate
	KindAttributeBoolean
	KindAttributeEnum
	KindAttributeCollection
	KindProperty
	KindAnyProperty
	KindAnyField
	KindIdentifier
	KindID
	KindIDs
	KindAbsence
	KindComposite
)

var kindNames = map[Kind]string{
	KindAttributeString:     "AttributeString",
	KindAttributeNumber:     "AttributeNumber",
	KindAttributeDate:       "AttributeDate",
	KindAttributeBoolean:    "AttributeBoolean",
	KindAttributeEnum:       "AttributeEnum",
	KindAttributeCollection: "AttributeCollection",
	KindProperty:            "Property",
	KindAnyProperty:         "AnyProperty",
	KindAnyField:            "AnyField",
	KindIdentifier:          "Identifier",
	KindID:                  "ID",
	KindIDs:                 "IDs",
	KindAbsence:             "Absence",
	KindComposite:           "Composite",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Kinds lists every criterion kind.
func Kinds() []Kind {
	out := make([]Kind, 0, len(kindNames))
	for k := KindAttributeString; k <= KindComposite; k++ {
		out = append(out, k)
	}
	return out
}

// Criterion is one node of a search tree.
//
// This is a sealed interface: only types in this package implement it.
type Criterion interface {
	criterion() // Marker method - seals interface to this package
	Kind() Kind
}

// AttributeString compares a string attribute column.
type AttributeString struct {
	Field     string
	Value     StringValue
	Wildcards bool
}

func (AttributeString) criterion() {}
func (AttributeString) Kind() Kind { return KindAttributeString }

// AttributeNumber compares a numeric attribute column.
type AttributeNumber struct {
	Field string
	Value NumberValue
}

func (AttributeNumber) criterion() {}
func (AttributeNumber) Kind() Kind { return KindAttributeNumber }

// AttributeDate compares a date or timestamp attribute column.
type AttributeDate struct {
	Field    string
	Value    DateValue
	TimeZone *TimeZone
}

func (AttributeDate) criterion() {}
func (AttributeDate) Kind() Kind { return KindAttributeDate }

// AttributeBoolean matches a boolean attribute column.
type AttributeBoolean struct {
	Field string
	Value bool
}

func (AttributeBoolean) criterion() {}
func (AttributeBoolean) Kind() Kind { return KindAttributeBoolean }

// AttributeEnum matches an enum attribute column by its label.
type AttributeEnum struct {
	Field string
	Value string
}

func (AttributeEnum) criterion() {}
func (AttributeEnum) Kind() Kind { return KindAttributeEnum }

// AttributeCollection matches a column against a set of values. Values must
// all be strings, all integers or all floats.
type AttributeCollection struct {
	Field  string
	Values []any
}

func (AttributeCollection) criterion() {}
func (AttributeCollection) Kind() Kind { return KindAttributeCollection }

// Property compares a dynamic property. A Name prefixed with "$" selects
// the internal namespace.
type Property struct {
	Name      string
	Value     PropertyValue
	Wildcards bool
	TimeZone  *TimeZone
}

func (Property) criterion() {}
func (Property) Kind() Kind { return KindProperty }

// AnyProperty matches a value against every property of the entity.
type AnyProperty struct {
	Value     StringValue
	Wildcards bool
}

func (AnyProperty) criterion() {}
func (AnyProperty) Kind() Kind { return KindAnyProperty }

// AnyField matches a value against every attribute and property.
type AnyField struct {
	Value     StringValue
	Wildcards bool
}

func (AnyField) criterion() {}
func (AnyField) Kind() Kind { return KindAnyField }

// Identifier matches the hierarchical identifier (/SPACE/PROJECT/CODE, ...).
type Identifier struct {
	Value StringValue
}

func (Identifier) criterion() {}
func (Identifier) Kind() Kind { return KindIdentifier }

// ID matches one object by technical id, perm id or identifier.
type ID struct {
	ID ObjectID
}

func (ID) criterion() {}
func (ID) Kind() Kind { return KindID }

// IDs matches any of several objects. All ids must be of one type.
type IDs struct {
	IDs []ObjectID
}

func (IDs) criterion() {}
func (IDs) Kind() Kind { return KindIDs }

// Relation names a hierarchy link of an entity.
type Relation string

const (
	RelationSpace      Relation = "space"
	RelationProject    Relation = "project"
	RelationExperiment Relation = "experiment"
	RelationSample     Relation = "sample"
	RelationContainer  Relation = "container"
)

// Absence matches entities that have no related entity of the given kind.
type Absence struct {
	Relation Relation
}

func (Absence) criterion() {}
func (Absence) Kind() Kind { return KindAbsence }

// Operator combines the children of a Composite.
type Operator int

const (
	OperatorAnd Operator = iota
	OperatorOr
)

func (o Operator) String() string {
	if o == OperatorOr {
		return "OR"
	}
	return "AND"
}

// Composite combines child criteria with AND or OR.
type Composite struct {
	Operator Operator
	Children []Criterion
}

func (Composite) criterion() {}
func (Composite) Kind() Kind { return KindComposite }

// ObjectID identifies one object. Sealed.
type ObjectID interface {
	objectID()
}

// TechID is a database id.
type TechID struct {
	ID int64
}

func (TechID) objectID() {}

// PermID is a permanent id (code for spaces and data sets).
type PermID struct {
	PermID string
}

func (PermID) objectID() {}

// IdentifierID is a hierarchical identifier.
type IdentifierID struct {
	Identifier string
}

func (IdentifierID) objectID() {}

// And combines children with AND.
func And(children ...Criterion) Composite {
	return Composite{Operator: OperatorAnd, Children: children}
}

// Or combines children with OR.
func Or(children ...Criterion) Composite {
	return Composite{Operator: OperatorOr, Children: children}
}

// Attr is a wildcard-enabled string attribute criterion.
func Attr(field string, v StringValue) AttributeString {
	return AttributeString{Field: field, Value: v, Wildcards: true}
}

// AttrNumber is a numeric attribute criterion.
func AttrNumber(field string, v NumberValue) AttributeNumber {
	return AttributeNumber{Field: field, Value: v}
}

// AttrDate is a date attribute criterion without time zone.
func AttrDate(field string, v DateValue) AttributeDate {
	return AttributeDate{Field: field, Value: v}
}

// Prop is a wildcard-enabled property criterion.
func Prop(name string, v PropertyValue) Property {
	return Property{Name: name, Value: v, Wildcards: true}
}

// IdentifierEq matches an identifier exactly.
func IdentifierEq(identifier string) Identifier {
	return Identifier{Value: EqualTo(identifier)}
}
