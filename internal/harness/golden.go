package harness

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders a result in the golden file layout.
func Snapshot(name string, r *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "SCENARIO %s\n", name)
	fmt.Fprintf(&b, "ENTITY %s\n", r.Entity)
	if r.Failed() {
		fmt.Fprintf(&b, "ERROR %s\n%s\n", r.ErrorCode, r.ErrorText)
		return []byte(b.String())
	}

	b.WriteString("JOINS\n")
	for _, j := range r.Joins {
		b.WriteString(j)
		b.WriteString("\n")
	}
	b.WriteString("WHERE\n")
	b.WriteString(r.Where)
	b.WriteString("\n")
	b.WriteString("PARAMS\n")
	for i, p := range r.Params {
		fmt.Fprintf(&b, "%d. %s\n", i+1, formatParam(p))
	}
	return []byte(b.String())
}

func formatParam(p any) string {
	if ts, ok := p.(time.Time); ok {
		return "time " + ts.Format(time.RFC3339)
	}
	return fmt.Sprintf("%T %v", p, p)
}

// RunWithGolden executes a scenario, fails t if it does not pass, and
// compares its snapshot against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	for _, msg := range result.Errors {
		t.Errorf("scenario %s: %s", scenario.Name, msg)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, Snapshot(scenario.Name, result))
	return nil
}
