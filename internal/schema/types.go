package schema

import (
	"fmt"
	"strings"
)

// Kind identifies a searchable entity kind.
type Kind string

const (
	Sample     Kind = "SAMPLE"
	Experiment Kind = "EXPERIMENT"
	Project    Kind = "PROJECT"
	Space      Kind = "SPACE"
	DataSet    Kind = "DATA_SET"
	Material   Kind = "MATERIAL"
	Tag        Kind = "TAG"
	Person     Kind = "PERSON"
)

// ParseKind accepts the canonical upper-case name as well as common
// spellings used on the command line ("sample", "dataset", "data-set").
func ParseKind(s string) (Kind, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	if norm == "DATASET" {
		norm = string(DataSet)
	}
	if norm == "" {
		return "", fmt.Errorf("empty entity kind")
	}
	return Kind(norm), nil
}

// SQLType is the declared SQL type of an attribute column.
type SQLType string

const (
	TypeVarchar   SQLType = "VARCHAR"
	TypeText      SQLType = "TEXT"
	TypeEnum      SQLType = "ENUM"
	TypeSmallInt  SQLType = "SMALLINT"
	TypeInteger   SQLType = "INTEGER"
	TypeBigInt    SQLType = "BIGINT"
	TypeReal      SQLType = "REAL"
	TypeDouble    SQLType = "DOUBLE"
	TypeBoolean   SQLType = "BOOLEAN"
	TypeDate      SQLType = "DATE"
	TypeTimestamp SQLType = "TIMESTAMP"
)

// Family groups SQL types that accept the same kind of literal.
type Family int

const (
	FamilyText Family = iota
	FamilyInteger
	FamilyReal
	FamilyBoolean
	FamilyTimestamp
)

func (f Family) String() string {
	switch f {
	case FamilyText:
		return "text"
	case FamilyInteger:
		return "integer"
	case FamilyReal:
		return "real"
	case FamilyBoolean:
		return "boolean"
	case FamilyTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// Family returns the comparison family of the type.
// Unknown types fall back to text.
func (t SQLType) Family() Family {
	switch t {
	case TypeSmallInt, TypeInteger, TypeBigInt:
		return FamilyInteger
	case TypeReal, TypeDouble:
		return FamilyReal
	case TypeBoolean:
		return FamilyBoolean
	case TypeDate, TypeTimestamp:
		return FamilyTimestamp
	default:
		return FamilyText
	}
}

// Valid reports whether t is one of the declared SQL types.
func (t SQLType) Valid() bool {
	switch t {
	case TypeVarchar, TypeText, TypeEnum, TypeSmallInt, TypeInteger, TypeBigInt,
		TypeReal, TypeDouble, TypeBoolean, TypeDate, TypeTimestamp:
		return true
	}
	return false
}

// DataType is the code of a property data type (data_types.code).
type DataType string

const (
	DataVarchar              DataType = "VARCHAR"
	DataMultilineVarchar     DataType = "MULTILINE_VARCHAR"
	DataInteger              DataType = "INTEGER"
	DataReal                 DataType = "REAL"
	DataBoolean              DataType = "BOOLEAN"
	DataDate                 DataType = "DATE"
	DataTimestamp            DataType = "TIMESTAMP"
	DataControlledVocabulary DataType = "CONTROLLEDVOCABULARY"
	DataHyperlink            DataType = "HYPERLINK"
	DataXML                  DataType = "XML"
	DataMaterial             DataType = "MATERIAL"
	DataSample               DataType = "SAMPLE"
	DataJSON                 DataType = "JSON"
)

// Family returns the comparison family of the data type.
func (d DataType) Family() Family {
	switch d {
	case DataInteger:
		return FamilyInteger
	case DataReal:
		return FamilyReal
	case DataBoolean:
		return FamilyBoolean
	case DataDate, DataTimestamp:
		return FamilyTimestamp
	default:
		return FamilyText
	}
}

// TextDataTypes are the property data types whose values compare as text.
var TextDataTypes = []DataType{
	DataVarchar, DataMultilineVarchar, DataControlledVocabulary, DataHyperlink, DataXML,
	DataMaterial, DataSample,
}

// Segment is one level of a hierarchical identifier.
type Segment int

const (
	SegmentSpace Segment = iota
	SegmentProject
	SegmentContainer
	SegmentType
)

func (s Segment) String() string {
	switch s {
	case SegmentSpace:
		return "space"
	case SegmentProject:
		return "project"
	case SegmentContainer:
		return "container"
	case SegmentType:
		return "type"
	default:
		return fmt.Sprintf("segment(%d)", int(s))
	}
}

// Known reports whether d is one of the data type codes above.
func (d DataType) Known() bool {
	switch d {
	case DataVarchar, DataMultilineVarchar, DataInteger, DataReal, DataBoolean,
		DataDate, DataTimestamp, DataControlledVocabulary, DataHyperlink,
		DataXML, DataMaterial, DataSample, DataJSON:
		return true
	}
	return false
}
