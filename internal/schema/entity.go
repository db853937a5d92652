package schema

// Attribute is a fixed, schema-defined column of an entity.
type Attribute struct {
	Name   string  // logical field name used in criteria (e.g. "registrationDate")
	Column string  // column on the entities table
	Type   SQLType // declared SQL type
}

// Entity is the immutable table/column descriptor for one entity kind.
//
// Empty strings mean "not applicable": an entity without ValuesTable has no
// properties, one without SpaceColumn cannot be located by space directly.
type Entity struct {
	Kind Kind

	EntitiesTable string
	IDColumn      string
	CodeColumn    string
	PermIDColumn  string

	// Property values chain.
	ValuesTable                    string // e.g. sample_properties
	ValuesEntityIDColumn           string // values -> entity
	ValuesTypeAttributeTypeColumn  string // values -> type/attribute-type link
	ValuesValueColumn              string
	TypeAttributeTypesTable        string // e.g. sample_type_property_types
	TypeAttributeTypesAttributeCol string // link -> attribute type
	AttributeTypesTable            string // property_types
	AttributeTypesDataTypeColumn   string // attribute type -> data type
	AttributeTypesCodeColumn       string
	InternalNamespaceColumn        string
	DataTypesTable                 string
	DataTypesCodeColumn            string

	// A values row may reference a vocabulary term, a material or a sample
	// instead of holding text. Empty means the values table has no such column.
	ValuesVocabularyTermColumn string // values -> controlled_vocabulary_terms
	ValuesMaterialColumn       string // values -> materials
	ValuesSampleColumn         string // values -> samples

	// Hierarchy foreign keys on the entities table.
	SpaceColumn      string
	ProjectColumn    string
	ExperimentColumn string
	SampleColumn     string
	ContainerColumn  string

	EntityTypesTable   string
	EntityTypeIDColumn string

	// Segments lists the identifier segments this kind accepts, in path order.
	Segments []Segment

	Attributes []Attribute
}

// HasProperties reports whether the kind carries dynamic properties.
func (e *Entity) HasProperties() bool {
	return e.ValuesTable != ""
}

// Attribute returns the attribute with the given logical name.
func (e *Entity) Attribute(name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// SupportsSegment reports whether identifiers of this kind may carry seg.
func (e *Entity) SupportsSegment(seg Segment) bool {
	for _, s := range e.Segments {
		if s == seg {
			return true
		}
	}
	return false
}

// clone returns a deep copy so overlays never alias the defaults.
func (e *Entity) clone() *Entity {
	c := *e
	c.Segments = append([]Segment(nil), e.Segments...)
	c.Attributes = append([]Attribute(nil), e.Attributes...)
	return &c
}

// withAttribute returns a copy with attr added, replacing any attribute of
// the same name in place.
func (e *Entity) withAttribute(attr Attribute) *Entity {
	c := e.clone()
	for i, a := range c.Attributes {
		if a.Name == attr.Name {
			c.Attributes[i] = attr
			return c
		}
	}
	c.Attributes = append(c.Attributes, attr)
	return c
}
