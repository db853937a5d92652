package criteria

import (
	"fmt"
	"strconv"
	"time"
)

// Value is a comparison value carried by a leaf criterion.
type Value interface {
	value()
}

// PropertyValue is the subset of values a Property criterion may carry.
type PropertyValue interface {
	Value
	propertyValue()
}

// StringOp is a string comparison operator.
type StringOp int

const (
	StringEqualTo StringOp = iota
	StringStartsWith
	StringEndsWith
	StringContains
	StringLessThan
	StringLessOrEqual
	StringGreaterThan
	StringGreaterOrEqual
	StringAny
)

var stringOpNames = map[StringOp]string{
	StringEqualTo:        "eq",
	StringStartsWith:     "startsWith",
	StringEndsWith:       "endsWith",
	StringContains:       "contains",
	StringLessThan:       "lt",
	StringLessOrEqual:    "le",
	StringGreaterThan:    "gt",
	StringGreaterOrEqual: "ge",
	StringAny:            "any",
}

func (o StringOp) String() string {
	if s, ok := stringOpNames[o]; ok {
		return s
	}
	return fmt.Sprintf("StringOp(%d)", int(o))
}

// IsPattern reports whether o matches by prefix, suffix or substring.
func (o StringOp) IsPattern() bool {
	return o == StringStartsWith || o == StringEndsWith || o == StringContains
}

// StringValue compares against Text. Text is ignored for StringAny.
type StringValue struct {
	Op   StringOp
	Text string
}

func (StringValue) value()         {}
func (StringValue) propertyValue() {}

// EqualTo matches text exactly.
func EqualTo(text string) StringValue { return StringValue{Op: StringEqualTo, Text: text} }

// StartsWith matches values beginning with text.
func StartsWith(text string) StringValue { return StringValue{Op: StringStartsWith, Text: text} }

// EndsWith matches values ending with text.
func EndsWith(text string) StringValue { return StringValue{Op: StringEndsWith, Text: text} }

// Contains matches values containing text.
func Contains(text string) StringValue { return StringValue{Op: StringContains, Text: text} }

// AnyString matches every non-null value.
func AnyString() StringValue { return StringValue{Op: StringAny} }

// Number is an integer or floating point scalar.
type Number struct {
	i       int64
	f       float64
	isFloat bool
}

// Int returns an integer Number.
func Int(i int64) Number { return Number{i: i} }

// Float returns a floating point Number.
func Float(f float64) Number { return Number{f: f, isFloat: true} }

// IsFloat reports whether n holds a float64.
func (n Number) IsFloat() bool { return n.isFloat }

// Any returns the scalar as int64 or float64, ready for binding.
func (n Number) Any() any {
	if n.isFloat {
		return n.f
	}
	return n.i
}

func (n Number) String() string {
	if n.isFloat {
		return strconv.FormatFloat(n.f, 'g', -1, 64)
	}
	return strconv.FormatInt(n.i, 10)
}

// NumberOp is a numeric comparison operator.
type NumberOp int

const (
	NumberEqualTo NumberOp = iota
	NumberLessThan
	NumberLessOrEqual
	NumberGreaterThan
	NumberGreaterOrEqual
)

var numberOpNames = map[NumberOp]string{
	NumberEqualTo:        "eq",
	NumberLessThan:       "lt",
	NumberLessOrEqual:    "le",
	NumberGreaterThan:    "gt",
	NumberGreaterOrEqual: "ge",
}

func (o NumberOp) String() string {
	if s, ok := numberOpNames[o]; ok {
		return s
	}
	return fmt.Sprintf("NumberOp(%d)", int(o))
}

// NumberValue compares against Number.
type NumberValue struct {
	Op     NumberOp
	Number Number
}

func (NumberValue) value()         {}
func (NumberValue) propertyValue() {}

func NumberEq(n Number) NumberValue { return NumberValue{Op: NumberEqualTo, Number: n} }
func NumberLT(n Number) NumberValue { return NumberValue{Op: NumberLessThan, Number: n} }
func NumberLE(n Number) NumberValue { return NumberValue{Op: NumberLessOrEqual, Number: n} }
func NumberGT(n Number) NumberValue { return NumberValue{Op: NumberGreaterThan, Number: n} }
func NumberGE(n Number) NumberValue { return NumberValue{Op: NumberGreaterOrEqual, Number: n} }

// DateOp is a date comparison operator.
type DateOp int

const (
	DateEqualTo DateOp = iota
	DateEarlierOrEqual
	DateLaterOrEqual
	DateEarlier
	DateLater
)

var dateOpNames = map[DateOp]string{
	DateEqualTo:        "eq",
	DateEarlierOrEqual: "le",
	DateLaterOrEqual:   "ge",
	DateEarlier:        "lt",
	DateLater:          "gt",
}

func (o DateOp) String() string {
	if s, ok := dateOpNames[o]; ok {
		return s
	}
	return fmt.Sprintf("DateOp(%d)", int(o))
}

// DateValue compares against a date. Either Text is set ("2024-03-01",
// "2024-03-01 10:00" or "2024-03-01 10:00:00") or Time is non-zero; Time
// always compares at full timestamp precision.
type DateValue struct {
	Op   DateOp
	Text string
	Time time.Time
}

func (DateValue) value()         {}
func (DateValue) propertyValue() {}

func DateEq(text string) DateValue { return DateValue{Op: DateEqualTo, Text: text} }
func DateLE(text string) DateValue { return DateValue{Op: DateEarlierOrEqual, Text: text} }
func DateGE(text string) DateValue { return DateValue{Op: DateLaterOrEqual, Text: text} }
func DateLT(text string) DateValue { return DateValue{Op: DateEarlier, Text: text} }
func DateGT(text string) DateValue { return DateValue{Op: DateLater, Text: text} }

// BooleanValue matches a boolean exactly.
type BooleanValue struct {
	Value bool
}

func (BooleanValue) value()         {}
func (BooleanValue) propertyValue() {}

// TimeZone is a fixed offset from UTC in whole hours.
type TimeZone struct {
	HourOffset int
}

// Offset renders the zone as an interval literal such as "+02:00".
func (z TimeZone) Offset() string {
	sign := '+'
	h := z.HourOffset
	if h < 0 {
		sign = '-'
		h = -h
	}
	return fmt.Sprintf("%c%02d:00", sign, h)
}
