package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/labsearch/internal/criteria"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Entity is the kind searched for ("SAMPLE", "data-set", ...).
	Entity string `yaml:"entity"`

	// Catalog maps property names ("NAME", "$NAME") to data type codes.
	Catalog map[string]string `yaml:"catalog,omitempty"`

	// Criteria is the tree to translate.
	Criteria criteria.Node `yaml:"criteria"`

	// Expect fixes exact output. Optional when assertions are given.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions check partial properties of the output.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected translation.
type ExpectClause struct {
	// Error is the expected error code. When set, Where and Params must be
	// empty.
	Error string `yaml:"error,omitempty"`

	// Where is the exact expected clause.
	Where string `yaml:"where,omitempty"`

	// Params are the expected parameters in order. Times compare by their
	// RFC 3339 rendering, integers regardless of width.
	Params []any `yaml:"params,omitempty"`
}

// Assertion checks one property of the output.
type Assertion struct {
	// Type selects the check; see the package documentation.
	Type string `yaml:"type"`

	// Text is the substring for where_contains and where_excludes.
	Text string `yaml:"text,omitempty"`

	// Table is the joined table for join_table.
	Table string `yaml:"table,omitempty"`

	// Count is the expected number for join_count and param_count.
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertWhereContains = "where_contains"
	AssertWhereExcludes = "where_excludes"
	AssertJoinCount     = "join_count"
	AssertJoinTable     = "join_table"
	AssertParamCount    = "param_count"
	AssertParamsAligned = "params_aligned"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario document with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// LoadScenarios loads every *.yaml file of dir, ordered by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	seen := make(map[string]string, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(p), err)
		}
		if prev, dup := seen[s.Name]; dup {
			return nil, fmt.Errorf("%s: scenario name %q already used by %s", filepath.Base(p), s.Name, prev)
		}
		seen[s.Name] = filepath.Base(p)
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Entity == "" {
		return fmt.Errorf("entity is required")
	}
	if s.Criteria.Type == "" {
		return fmt.Errorf("criteria is required")
	}
	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}
	if s.Expect != nil && s.Expect.Error != "" && (s.Expect.Where != "" || len(s.Expect.Params) > 0) {
		return fmt.Errorf("expect: error excludes where and params")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertWhereContains, AssertWhereExcludes:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for %s", index, a.Type)
		}
	case AssertJoinTable:
		if a.Table == "" {
			return fmt.Errorf("assertions[%d]: table is required for join_table", index)
		}
	case AssertJoinCount, AssertParamCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertParamsAligned:
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
