package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// InternalPrefix marks a property code as belonging to the internal
// (system) namespace.
const InternalPrefix = "$"

// PropertyKey identifies a property type: its code plus namespace.
type PropertyKey struct {
	Code     string
	Internal bool
}

// ParsePropertyName splits a criterion property name into its key.
// "$NAME" is the internal property NAME; codes are upper-cased.
func ParsePropertyName(name string) PropertyKey {
	internal := strings.HasPrefix(name, InternalPrefix)
	code := strings.TrimPrefix(name, InternalPrefix)
	return PropertyKey{Code: strings.ToUpper(code), Internal: internal}
}

// String renders the key back in criterion notation.
func (k PropertyKey) String() string {
	if k.Internal {
		return InternalPrefix + k.Code
	}
	return k.Code
}

// PropertyCatalog maps property types to their data types. A missing entry
// means the data type is not known at compile time; translators then fall
// back to SQL-side type guards only.
type PropertyCatalog struct {
	types map[PropertyKey]DataType
}

// NewPropertyCatalog builds a catalog from property names in criterion
// notation ("NAME", "$NAME").
func NewPropertyCatalog(entries map[string]DataType) *PropertyCatalog {
	c := &PropertyCatalog{types: make(map[PropertyKey]DataType, len(entries))}
	for name, dt := range entries {
		c.types[ParsePropertyName(name)] = DataType(strings.ToUpper(string(dt)))
	}
	return c
}

// DataType returns the data type of the named property.
// A nil catalog knows nothing.
func (c *PropertyCatalog) DataType(name string) (DataType, bool) {
	if c == nil {
		return "", false
	}
	dt, ok := c.types[ParsePropertyName(name)]
	return dt, ok
}

// Len returns the number of known properties.
func (c *PropertyCatalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.types)
}

// Names returns the known property names in criterion notation, sorted.
func (c *PropertyCatalog) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, 0, len(c.types))
	for k := range c.types {
		names = append(names, k.String())
	}
	sort.Strings(names)
	return names
}

// catalogFile is the YAML layout of a property catalog file:
//
//	properties:
//	  CONCENTRATION: REAL
//	  $NAME: VARCHAR
type catalogFile struct {
	Properties map[string]string `yaml:"properties"`
}

// LoadPropertyCatalog reads a YAML catalog file. Unknown keys and unknown
// data type codes are rejected.
func LoadPropertyCatalog(path string) (*PropertyCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read property catalog: %w", err)
	}
	return ParsePropertyCatalog(data)
}

// ParsePropertyCatalog decodes a YAML catalog document.
func ParsePropertyCatalog(data []byte) (*PropertyCatalog, error) {
	var f catalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse property catalog: %w", err)
	}

	entries := make(map[string]DataType, len(f.Properties))
	for name, code := range f.Properties {
		dt := DataType(strings.ToUpper(code))
		if !dt.Known() {
			return nil, fmt.Errorf("property %s: unknown data type %q", name, code)
		}
		entries[name] = dt
	}
	return NewPropertyCatalog(entries), nil
}
