package criteria

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Node is the JSON/YAML wire form of a Criterion.
//
// Type selects the variant:
//
//	string, number, date, boolean, enum, collection   attribute leaves (field required)
//	property                                          field is the property name, value.kind required
//	anyProperty, anyField, identifier                 value is a string comparison
//	id, ids                                           object ids
//	absence                                           relation required
//	and, or                                           children
//
// Example (YAML):
//
//	type: and
//	children:
//	  - type: string
//	    field: code
//	    wildcards: true
//	    value: {op: startsWith, value: "PLATE*"}
//	  - type: property
//	    field: CONCENTRATION
//	    value: {kind: number, op: gt, value: 0.5}
type Node struct {
	Type      string     `json:"type" yaml:"type"`
	Field     string     `json:"field,omitempty" yaml:"field,omitempty"`
	Value     *ValueNode `json:"value,omitempty" yaml:"value,omitempty"`
	Values    []any      `json:"values,omitempty" yaml:"values,omitempty"`
	Wildcards bool       `json:"wildcards,omitempty" yaml:"wildcards,omitempty"`
	TimeZone  *int       `json:"timeZone,omitempty" yaml:"timeZone,omitempty"`
	ID        *IDNode    `json:"id,omitempty" yaml:"id,omitempty"`
	IDs       []IDNode   `json:"ids,omitempty" yaml:"ids,omitempty"`
	Relation  string     `json:"relation,omitempty" yaml:"relation,omitempty"`
	Children  []Node     `json:"children,omitempty" yaml:"children,omitempty"`
}

// ValueNode is the wire form of a comparison value. Kind is only needed
// where the node type does not imply it (property criteria).
type ValueNode struct {
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Op    string `json:"op,omitempty" yaml:"op,omitempty"`
	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
}

// IDNode is the wire form of an ObjectID; exactly one field is set.
type IDNode struct {
	TechID     *int64 `json:"techId,omitempty" yaml:"techId,omitempty"`
	PermID     string `json:"permId,omitempty" yaml:"permId,omitempty"`
	Identifier string `json:"identifier,omitempty" yaml:"identifier,omitempty"`
}

// DecodeError reports a malformed node with its path in the tree.
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Decode converts a wire node into a Criterion.
func Decode(n Node) (Criterion, error) {
	return decodeNode("root", n)
}

func decodeNode(path string, n Node) (Criterion, error) {
	fail := func(format string, args ...any) (Criterion, error) {
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf(format, args...)}
	}
	needField := func() error {
		if n.Field == "" {
			return &DecodeError{Path: path, Message: fmt.Sprintf("%s criterion requires field", n.Type)}
		}
		return nil
	}

	switch n.Type {
	case "and", "or":
		c := Composite{Operator: OperatorAnd}
		if n.Type == "or" {
			c.Operator = OperatorOr
		}
		for i, child := range n.Children {
			decoded, err := decodeNode(fmt.Sprintf("%s.children[%d]", path, i), child)
			if err != nil {
				return nil, err
			}
			c.Children = append(c.Children, decoded)
		}
		return c, nil

	case "string":
		if err := needField(); err != nil {
			return nil, err
		}
		v, err := decodeString(path, n.Value)
		if err != nil {
			return nil, err
		}
		return AttributeString{Field: n.Field, Value: v, Wildcards: n.Wildcards}, nil

	case "number":
		if err := needField(); err != nil {
			return nil, err
		}
		v, err := decodeNumber(path, n.Value)
		if err != nil {
			return nil, err
		}
		return AttributeNumber{Field: n.Field, Value: v}, nil

	case "date":
		if err := needField(); err != nil {
			return nil, err
		}
		v, err := decodeDate(path, n.Value)
		if err != nil {
			return nil, err
		}
		return AttributeDate{Field: n.Field, Value: v, TimeZone: decodeTimeZone(n.TimeZone)}, nil

	case "boolean":
		if err := needField(); err != nil {
			return nil, err
		}
		v, err := decodeBoolean(path, n.Value)
		if err != nil {
			return nil, err
		}
		return AttributeBoolean{Field: n.Field, Value: v.Value}, nil

	case "enum":
		if err := needField(); err != nil {
			return nil, err
		}
		if n.Value == nil {
			return fail("enum criterion requires value")
		}
		s, ok := n.Value.Value.(string)
		if !ok {
			return fail("enum value must be a string, got %T", n.Value.Value)
		}
		return AttributeEnum{Field: n.Field, Value: s}, nil

	case "collection":
		if err := needField(); err != nil {
			return nil, err
		}
		values := make([]any, len(n.Values))
		for i, raw := range n.Values {
			if overflowsInt64(raw) {
				return fail("collection element %d: %v overflows int64", i, raw)
			}
			values[i] = normalizeScalar(raw)
		}
		return AttributeCollection{Field: n.Field, Values: values}, nil

	case "property":
		if err := needField(); err != nil {
			return nil, err
		}
		if n.Value == nil {
			return fail("property criterion requires value")
		}
		var (
			v   PropertyValue
			err error
		)
		switch n.Value.Kind {
		case "string", "":
			v, err = decodeString(path, n.Value)
		case "number":
			v, err = decodeNumber(path, n.Value)
		case "date":
			v, err = decodeDate(path, n.Value)
		case "boolean":
			v, err = decodeBoolean(path, n.Value)
		default:
			return fail("unknown property value kind %q", n.Value.Kind)
		}
		if err != nil {
			return nil, err
		}
		return Property{Name: n.Field, Value: v, Wildcards: n.Wildcards, TimeZone: decodeTimeZone(n.TimeZone)}, nil

	case "anyProperty", "anyField", "identifier":
		v, err := decodeString(path, n.Value)
		if err != nil {
			return nil, err
		}
		switch n.Type {
		case "anyProperty":
			return AnyProperty{Value: v, Wildcards: n.Wildcards}, nil
		case "anyField":
			return AnyField{Value: v, Wildcards: n.Wildcards}, nil
		default:
			return Identifier{Value: v}, nil
		}

	case "id":
		if n.ID == nil {
			return fail("id criterion requires id")
		}
		id, err := decodeID(path, *n.ID)
		if err != nil {
			return nil, err
		}
		return ID{ID: id}, nil

	case "ids":
		ids := make([]ObjectID, 0, len(n.IDs))
		for i, raw := range n.IDs {
			id, err := decodeID(fmt.Sprintf("%s.ids[%d]", path, i), raw)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
		return IDs{IDs: ids}, nil

	case "absence":
		if n.Relation == "" {
			return fail("absence criterion requires relation")
		}
		return Absence{Relation: Relation(n.Relation)}, nil

	case "":
		return fail("missing type")
	default:
		return fail("unknown criterion type %q", n.Type)
	}
}

func decodeString(path string, v *ValueNode) (StringValue, error) {
	if v == nil {
		return StringValue{}, &DecodeError{Path: path, Message: "string criterion requires value"}
	}
	op := StringEqualTo
	if v.Op != "" {
		found := false
		for candidate, name := range stringOpNames {
			if name == v.Op {
				op, found = candidate, true
				break
			}
		}
		if !found {
			return StringValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("unknown string operator %q", v.Op)}
		}
	}
	if op == StringAny {
		return AnyString(), nil
	}
	text, ok := scalarText(v.Value)
	if !ok {
		return StringValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("string value must be a scalar, got %T", v.Value)}
	}
	return StringValue{Op: op, Text: text}, nil
}

func decodeNumber(path string, v *ValueNode) (NumberValue, error) {
	if v == nil {
		return NumberValue{}, &DecodeError{Path: path, Message: "number criterion requires value"}
	}
	op := NumberEqualTo
	if v.Op != "" {
		found := false
		for candidate, name := range numberOpNames {
			if name == v.Op {
				op, found = candidate, true
				break
			}
		}
		if !found {
			return NumberValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("unknown number operator %q", v.Op)}
		}
	}
	if overflowsInt64(v.Value) {
		return NumberValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("number value %v overflows int64", v.Value)}
	}
	n, ok := toNumber(v.Value)
	if !ok {
		return NumberValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("number value must be numeric, got %v", v.Value)}
	}
	return NumberValue{Op: op, Number: n}, nil
}

func decodeDate(path string, v *ValueNode) (DateValue, error) {
	if v == nil {
		return DateValue{}, &DecodeError{Path: path, Message: "date criterion requires value"}
	}
	op := DateEqualTo
	if v.Op != "" {
		found := false
		for candidate, name := range dateOpNames {
			if name == v.Op {
				op, found = candidate, true
				break
			}
		}
		if !found {
			return DateValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("unknown date operator %q", v.Op)}
		}
	}
	switch raw := v.Value.(type) {
	case string:
		if raw == "" {
			return DateValue{}, &DecodeError{Path: path, Message: "date value is empty"}
		}
		return DateValue{Op: op, Text: raw}, nil
	case time.Time:
		return DateValue{Op: op, Time: raw}, nil
	default:
		return DateValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("date value must be a string, got %T", v.Value)}
	}
}

func decodeBoolean(path string, v *ValueNode) (BooleanValue, error) {
	if v == nil {
		return BooleanValue{}, &DecodeError{Path: path, Message: "boolean criterion requires value"}
	}
	switch raw := v.Value.(type) {
	case bool:
		return BooleanValue{Value: raw}, nil
	case nil:
		// omitempty drops false on the way out
		return BooleanValue{Value: false}, nil
	default:
		return BooleanValue{}, &DecodeError{Path: path, Message: fmt.Sprintf("boolean value must be true or false, got %v", v.Value)}
	}
}

func decodeTimeZone(offset *int) *TimeZone {
	if offset == nil {
		return nil
	}
	return &TimeZone{HourOffset: *offset}
}

func decodeID(path string, n IDNode) (ObjectID, error) {
	set := 0
	var id ObjectID
	if n.TechID != nil {
		set++
		id = TechID{ID: *n.TechID}
	}
	if n.PermID != "" {
		set++
		id = PermID{PermID: n.PermID}
	}
	if n.Identifier != "" {
		set++
		id = IdentifierID{Identifier: n.Identifier}
	}
	if set != 1 {
		return nil, &DecodeError{Path: path, Message: "id requires exactly one of techId, permId, identifier"}
	}
	return id, nil
}

// normalizeScalar maps decoder-specific numeric types onto int64/float64.
func normalizeScalar(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, ok := toNumber(x); ok {
			return n.Any()
		}
		return x.String()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint64:
		if x > math.MaxInt64 {
			return v
		}
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

// overflowsInt64 reports an unsigned integer (YAML decodes integers above
// MaxInt64 as uint64) that does not fit an int64.
func overflowsInt64(v any) bool {
	x, ok := v.(uint64)
	return ok && x > math.MaxInt64
}

func toNumber(v any) (Number, bool) {
	switch x := v.(type) {
	case int:
		return Int(int64(x)), true
	case int32:
		return Int(int64(x)), true
	case int64:
		return Int(x), true
	case uint64:
		if x > math.MaxInt64 {
			return Number{}, false
		}
		return Int(int64(x)), true
	case float32:
		return Float(float64(x)), true
	case float64:
		return Float(x), true
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), true
		}
		if f, err := x.Float64(); err == nil {
			return Float(f), true
		}
	case string:
		if i, err := strconv.ParseInt(x, 10, 64); err == nil {
			return Int(i), true
		}
		if f, err := strconv.ParseFloat(x, 64); err == nil {
			return Float(f), true
		}
	}
	return Number{}, false
}

func scalarText(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case nil:
		return "", true
	case bool:
		return strconv.FormatBool(x), true
	case json.Number:
		return x.String(), true
	case int, int32, int64, uint64, float32, float64:
		n, _ := toNumber(x)
		return n.String(), true
	}
	return "", false
}

// Encode converts a Criterion into its wire node. Encode(Decode(n)) is
// equivalent to n up to defaults (e.g. an omitted op becomes "eq").
func Encode(c Criterion) (Node, error) {
	c = Deref(c)
	switch n := c.(type) {
	case nil:
		return Node{}, fmt.Errorf("cannot encode nil criterion")
	case Composite:
		node := Node{Type: "and"}
		if n.Operator == OperatorOr {
			node.Type = "or"
		}
		for _, child := range n.Children {
			encoded, err := Encode(child)
			if err != nil {
				return Node{}, err
			}
			node.Children = append(node.Children, encoded)
		}
		return node, nil
	case AttributeString:
		return Node{Type: "string", Field: n.Field, Value: encodeString(n.Value), Wildcards: n.Wildcards}, nil
	case AttributeNumber:
		return Node{Type: "number", Field: n.Field, Value: encodeNumber(n.Value)}, nil
	case AttributeDate:
		return Node{Type: "date", Field: n.Field, Value: encodeDate(n.Value), TimeZone: encodeTimeZone(n.TimeZone)}, nil
	case AttributeBoolean:
		return Node{Type: "boolean", Field: n.Field, Value: &ValueNode{Value: n.Value}}, nil
	case AttributeEnum:
		return Node{Type: "enum", Field: n.Field, Value: &ValueNode{Value: n.Value}}, nil
	case AttributeCollection:
		return Node{Type: "collection", Field: n.Field, Values: append([]any(nil), n.Values...)}, nil
	case Property:
		node := Node{Type: "property", Field: n.Name, Wildcards: n.Wildcards, TimeZone: encodeTimeZone(n.TimeZone)}
		switch v := n.Value.(type) {
		case StringValue:
			node.Value = encodeString(v)
			node.Value.Kind = "string"
		case NumberValue:
			node.Value = encodeNumber(v)
			node.Value.Kind = "number"
		case DateValue:
			node.Value = encodeDate(v)
			node.Value.Kind = "date"
		case BooleanValue:
			node.Value = &ValueNode{Kind: "boolean", Value: v.Value}
		default:
			return Node{}, fmt.Errorf("property %q: cannot encode value %T", n.Name, n.Value)
		}
		return node, nil
	case AnyProperty:
		return Node{Type: "anyProperty", Value: encodeString(n.Value), Wildcards: n.Wildcards}, nil
	case AnyField:
		return Node{Type: "anyField", Value: encodeString(n.Value), Wildcards: n.Wildcards}, nil
	case Identifier:
		return Node{Type: "identifier", Value: encodeString(n.Value)}, nil
	case ID:
		id, err := encodeID(n.ID)
		if err != nil {
			return Node{}, err
		}
		return Node{Type: "id", ID: &id}, nil
	case IDs:
		node := Node{Type: "ids"}
		for _, raw := range n.IDs {
			id, err := encodeID(raw)
			if err != nil {
				return Node{}, err
			}
			node.IDs = append(node.IDs, id)
		}
		return node, nil
	case Absence:
		return Node{Type: "absence", Relation: string(n.Relation)}, nil
	}
	return Node{}, fmt.Errorf("cannot encode criterion %T", c)
}

func encodeString(v StringValue) *ValueNode {
	if v.Op == StringAny {
		return &ValueNode{Op: v.Op.String()}
	}
	return &ValueNode{Op: v.Op.String(), Value: v.Text}
}

func encodeNumber(v NumberValue) *ValueNode {
	return &ValueNode{Op: v.Op.String(), Value: v.Number.Any()}
}

func encodeDate(v DateValue) *ValueNode {
	if v.Text == "" && !v.Time.IsZero() {
		return &ValueNode{Op: v.Op.String(), Value: v.Time.Format(time.RFC3339)}
	}
	return &ValueNode{Op: v.Op.String(), Value: v.Text}
}

func encodeTimeZone(tz *TimeZone) *int {
	if tz == nil {
		return nil
	}
	h := tz.HourOffset
	return &h
}

func encodeID(id ObjectID) (IDNode, error) {
	switch v := id.(type) {
	case TechID:
		n := v.ID
		return IDNode{TechID: &n}, nil
	case *TechID:
		n := v.ID
		return IDNode{TechID: &n}, nil
	case PermID:
		return IDNode{PermID: v.PermID}, nil
	case *PermID:
		return IDNode{PermID: v.PermID}, nil
	case IdentifierID:
		return IDNode{Identifier: v.Identifier}, nil
	case *IdentifierID:
		return IDNode{Identifier: v.Identifier}, nil
	}
	return IDNode{}, fmt.Errorf("cannot encode object id %T", id)
}

// ParseJSON decodes a JSON node, rejecting unknown fields. Numbers keep
// their integer/float distinction.
func ParseJSON(data []byte) (Node, error) {
	var n Node
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&n); err != nil {
		return Node{}, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return n, nil
}

// ParseYAML decodes a YAML node with strict field validation.
func ParseYAML(data []byte) (Node, error) {
	var n Node
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&n); err != nil {
		return Node{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return n, nil
}

// LoadNode reads a criteria file. Files ending in .json are JSON; anything
// else is YAML.
func LoadNode(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Node{}, fmt.Errorf("failed to read criteria file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return ParseYAML(data)
}

// LoadFile reads and decodes a criteria file.
func LoadFile(path string) (Criterion, error) {
	n, err := LoadNode(path)
	if err != nil {
		return nil, err
	}
	c, err := Decode(n)
	if err != nil {
		return nil, fmt.Errorf("invalid criteria in %s: %w", path, err)
	}
	return c, nil
}
