package translate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/roach88/labsearch/internal/criteria"
	"github.com/roach88/labsearch/internal/schema"
	"github.com/roach88/labsearch/internal/sqlfrag"
)

// stringMatch compares col against a string value. With wildcards enabled,
// pattern operators become LIKE and `*`/`?` in the text become `%`/`_`;
// without them, pattern operators degrade to exact equality on the text as
// given.
func stringMatch(col sqlfrag.Fragment, v criteria.StringValue, wildcards bool) sqlfrag.Fragment {
	switch v.Op {
	case criteria.StringAny:
		return sqlfrag.IsNotNull(col)
	case criteria.StringEqualTo:
		if wildcards && hasWildcards(v.Text) {
			return sqlfrag.Like(col, sqlfrag.LikeExact, toLikePattern(v.Text))
		}
		return sqlfrag.Compare(col, sqlfrag.Eq, sqlfrag.Param(v.Text))
	case criteria.StringStartsWith, criteria.StringEndsWith, criteria.StringContains:
		if !wildcards {
			return sqlfrag.Compare(col, sqlfrag.Eq, sqlfrag.Param(v.Text))
		}
		return sqlfrag.Like(col, likeKind(v.Op), toLikePattern(v.Text))
	case criteria.StringLessThan:
		return sqlfrag.Compare(col, sqlfrag.Lt, sqlfrag.Param(v.Text))
	case criteria.StringLessOrEqual:
		return sqlfrag.Compare(col, sqlfrag.Le, sqlfrag.Param(v.Text))
	case criteria.StringGreaterThan:
		return sqlfrag.Compare(col, sqlfrag.Gt, sqlfrag.Param(v.Text))
	case criteria.StringGreaterOrEqual:
		return sqlfrag.Compare(col, sqlfrag.Ge, sqlfrag.Param(v.Text))
	}
	// Unknown operators cannot be built through this package's API.
	return sqlfrag.False()
}

func likeKind(op criteria.StringOp) sqlfrag.LikeKind {
	switch op {
	case criteria.StringStartsWith:
		return sqlfrag.LikePrefix
	case criteria.StringEndsWith:
		return sqlfrag.LikeSuffix
	case criteria.StringContains:
		return sqlfrag.LikeContains
	default:
		return sqlfrag.LikeExact
	}
}

func hasWildcards(s string) bool {
	return strings.ContainsAny(s, "*?")
}

// toLikePattern escapes LIKE metacharacters and maps user wildcards:
// `*` -> `%`, `?` -> `_`.
func toLikePattern(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\', '%', '_':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '*':
			b.WriteByte('%')
		case '?':
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func numberComparison(op criteria.NumberOp) sqlfrag.Comparison {
	switch op {
	case criteria.NumberLessThan:
		return sqlfrag.Lt
	case criteria.NumberLessOrEqual:
		return sqlfrag.Le
	case criteria.NumberGreaterThan:
		return sqlfrag.Gt
	case criteria.NumberGreaterOrEqual:
		return sqlfrag.Ge
	default:
		return sqlfrag.Eq
	}
}

func dateComparison(op criteria.DateOp) sqlfrag.Comparison {
	switch op {
	case criteria.DateEarlierOrEqual:
		return sqlfrag.Le
	case criteria.DateLaterOrEqual:
		return sqlfrag.Ge
	case criteria.DateEarlier:
		return sqlfrag.Lt
	case criteria.DateLater:
		return sqlfrag.Gt
	default:
		return sqlfrag.Eq
	}
}

// Date formats tried in order; only the last one is a bare date.
var dateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parsedDate is a date criterion value resolved to a point in time.
type parsedDate struct {
	at    time.Time
	bare  bool // no time-of-day given
	zoned bool // an instant with an explicit offset (RFC 3339 text or a time.Time)
}

func parseDateText(text string) (parsedDate, bool) {
	text = strings.TrimSpace(text)
	for i, layout := range dateFormats {
		if t, err := time.Parse(layout, text); err == nil {
			return parsedDate{at: t, bare: i == len(dateFormats)-1}, true
		}
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return parsedDate{at: t, zoned: true}, true
	}
	return parsedDate{}, false
}

func parseDate(field string, v criteria.DateValue) (parsedDate, error) {
	if v.Text == "" && !v.Time.IsZero() {
		return parsedDate{at: v.Time, zoned: true}, nil
	}
	p, ok := parseDateText(v.Text)
	if !ok {
		return parsedDate{}, &IllegalCriterionError{
			Field:  field,
			Reason: fmt.Sprintf("cannot parse date %q (want YYYY-MM-DD, YYYY-MM-DD HH:MM or YYYY-MM-DD HH:MM:SS)", v.Text),
		}
	}
	return p, nil
}

// dateCompare compares a timestamp expression against a parsed date. A
// bare date truncates the (zone-shifted) column to a date. A zoned value
// is an absolute instant: it is bound in UTC as timestamptz and compared
// with the unshifted column, so tz does not apply to it.
func dateCompare(col sqlfrag.Fragment, cmp sqlfrag.Comparison, d parsedDate, tz *criteria.TimeZone) sqlfrag.Fragment {
	if d.zoned {
		return sqlfrag.Compare(col, cmp, sqlfrag.ParamCast(d.at.UTC(), "timestamptz"))
	}
	left := col
	if tz != nil {
		left = sqlfrag.AtTimeZone(col, tz.Offset())
	}
	if d.bare {
		return sqlfrag.Compare(sqlfrag.Cast(left, "date"), cmp, sqlfrag.ParamCast(d.at, "date"))
	}
	return sqlfrag.Compare(left, cmp, sqlfrag.ParamCast(d.at, "timestamp"))
}

// inferredType is the type of a free-text value, as AnyField and
// AnyProperty see it.
type inferredType int

const (
	inferredTimestamp inferredType = iota
	inferredBoolean
	inferredInteger
	inferredReal
	inferredVarchar
)

// inferredValue is free text resolved to its most specific type. Inference
// tries TIMESTAMP, BOOLEAN, INTEGER, REAL, VARCHAR in that order.
type inferredValue struct {
	typ   inferredType
	date  parsedDate
	text  string
	param any // typed value to bind
}

func inferValue(text string) inferredValue {
	if d, ok := parseDateText(text); ok {
		return inferredValue{typ: inferredTimestamp, date: d, text: text, param: d.at}
	}
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true":
		return inferredValue{typ: inferredBoolean, text: text, param: true}
	case "false":
		return inferredValue{typ: inferredBoolean, text: text, param: false}
	}
	if i, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64); err == nil {
		return inferredValue{typ: inferredInteger, text: text, param: i}
	}
	if f, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return inferredValue{typ: inferredReal, text: text, param: f}
	}
	return inferredValue{typ: inferredVarchar, text: text, param: text}
}

// acceptsFamily reports whether a column of family f can hold v exactly.
// Integers compare against integer and real columns; reals only against
// real columns.
func (v inferredValue) acceptsFamily(f schema.Family) bool {
	switch v.typ {
	case inferredTimestamp:
		return f == schema.FamilyTimestamp
	case inferredBoolean:
		return f == schema.FamilyBoolean
	case inferredInteger:
		return f == schema.FamilyInteger || f == schema.FamilyReal
	case inferredReal:
		return f == schema.FamilyReal
	default:
		return f == schema.FamilyText
	}
}

// dataTypes returns the property data type codes that can hold v exactly.
func (v inferredValue) dataTypes() []string {
	switch v.typ {
	case inferredTimestamp:
		return []string{string(schema.DataDate), string(schema.DataTimestamp)}
	case inferredBoolean:
		return []string{string(schema.DataBoolean)}
	case inferredInteger:
		return []string{string(schema.DataInteger), string(schema.DataReal)}
	case inferredReal:
		return []string{string(schema.DataReal)}
	default:
		out := make([]string, len(schema.TextDataTypes))
		for i, dt := range schema.TextDataTypes {
			out[i] = string(dt)
		}
		return out
	}
}
