package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/labsearch/internal/sqlfrag"
)

// AssertionError is returned when an assertion fails.
// It includes the translation to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Where    string // WHERE clause for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)
	if e.Where != "" {
		fmt.Fprintf(&buf, "\nWHERE %s\n", e.Where)
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages. Assertions against a failed translation all fail.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluate(result, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluate(r *Result, a Assertion) error {
	if r.Failed() {
		return &AssertionError{
			Type:     a.Type,
			Expected: "successful translation",
			Actual:   fmt.Sprintf("%s: %s", r.ErrorCode, r.ErrorText),
		}
	}

	switch a.Type {
	case AssertWhereContains:
		if !strings.Contains(r.Where, a.Text) {
			return assertionError(r, a.Type, fmt.Sprintf("clause containing %q", a.Text), "not found")
		}
	case AssertWhereExcludes:
		if strings.Contains(r.Where, a.Text) {
			return assertionError(r, a.Type, fmt.Sprintf("clause without %q", a.Text), "found")
		}
	case AssertJoinCount:
		if len(r.Joins) != a.Count {
			return assertionError(r, a.Type, fmt.Sprintf("%d join(s)", a.Count), fmt.Sprintf("%d join(s): %v", len(r.Joins), r.Joins))
		}
	case AssertJoinTable:
		for _, j := range r.Joins {
			if joinTable(j) == a.Table {
				return nil
			}
		}
		return assertionError(r, a.Type, fmt.Sprintf("join to %s", a.Table), fmt.Sprintf("joins %v", r.Joins))
	case AssertParamCount:
		if len(r.Params) != a.Count {
			return assertionError(r, a.Type, fmt.Sprintf("%d param(s)", a.Count), fmt.Sprintf("%d param(s): %v", len(r.Params), r.Params))
		}
	case AssertParamsAligned:
		if n := sqlfrag.CountPlaceholders(r.Where); n != len(r.Params) {
			return assertionError(r, a.Type, fmt.Sprintf("%d placeholder(s)", len(r.Params)), fmt.Sprintf("%d placeholder(s)", n))
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertionError(r *Result, typ, expected, actual string) *AssertionError {
	return &AssertionError{Type: typ, Expected: expected, Actual: actual, Where: r.Where}
}

// joinTable extracts the table of a rendered join
// ("LEFT JOIN <table> <alias> ON ...").
func joinTable(rendered string) string {
	fields := strings.Fields(rendered)
	if len(fields) < 3 {
		return ""
	}
	return fields[2]
}
