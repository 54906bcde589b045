package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted workload run against a fresh Storage.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Schema lists CUE schema files or directories whose tables are
	// created before the first step. Paths are relative to the scenario.
	Schema []string `yaml:"schema,omitempty"`

	// Steps run in order; the dispatcher is drained after each one.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and table contents.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one storage operation.
//
// Which fields apply depends on Op:
//   - create_table: Table, Columns, Indices
//   - drop_table, stats: Table
//   - put: Table, Row, Save (name for the assigned GUID)
//   - get: Table, Query, Cursor (name to store the context under)
//   - get_next, remove: Cursor
//   - modify: Cursor, Row
//   - scan, remove_all: Table, Query
//   - watch: Trigger and either Table (+ Sticky) or Cursor
//   - unwatch: Trigger
type Step struct {
	Op      string              `yaml:"op"`
	Table   string              `yaml:"table,omitempty"`
	Columns map[string]string   `yaml:"columns,omitempty"`
	Indices map[string][]string `yaml:"indices,omitempty"`
	Row     map[string]any      `yaml:"row,omitempty"`
	Query   map[string]any      `yaml:"query,omitempty"`
	Cursor  string              `yaml:"cursor,omitempty"`
	Save    string              `yaml:"save,omitempty"`
	Trigger string              `yaml:"trigger,omitempty"`
	Sticky  bool                `yaml:"sticky,omitempty"`

	// Expect validates the step's outcome. If nil, nothing is checked.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect is the expected outcome of a step.
type Expect struct {
	// Code is the result code name, e.g. SUCCESS or NO_MORE_ROWS.
	Code string `yaml:"code"`

	// Row is a subset match against the returned row (get, get_next).
	Row map[string]any `yaml:"row,omitempty"`

	// Count is the expected number of rows (scan).
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the trace or the final table contents.
type Assertion struct {
	// Type is one of trace_contains, trace_order, trace_count, final_state.
	Type string `yaml:"type"`

	// Text is a substring of a trace line (trace_contains, trace_count).
	Text string `yaml:"text,omitempty"`

	// Lines are substrings that must match trace lines in order (trace_order).
	Lines []string `yaml:"lines,omitempty"`

	// Table is the table to inspect (final_state).
	Table string `yaml:"table,omitempty"`

	// Where selects rows by exact value of each field (final_state).
	Where map[string]any `yaml:"where,omitempty"`

	// Expect is a subset match against the single selected row (final_state).
	Expect map[string]any `yaml:"expect,omitempty"`

	// Count is the expected number of matching lines or rows.
	Count *int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertFinalState    = "final_state"
)

// Step operations.
const (
	OpCreateTable = "create_table"
	OpDropTable   = "drop_table"
	OpPut         = "put"
	OpGet         = "get"
	OpGetNext     = "get_next"
	OpModify      = "modify"
	OpRemove      = "remove"
	OpScan        = "scan"
	OpRemoveAll   = "remove_all"
	OpWatch       = "watch"
	OpUnwatch     = "unwatch"
	OpStats       = "stats"
)

// LoadScenario reads and parses a scenario YAML file. Schema paths are
// resolved relative to the file.
//
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	for i, p := range scenario.Schema {
		if !filepath.IsAbs(p) {
			scenario.Schema[i] = filepath.Join(base, p)
		}
	}
	for _, p := range scenario.Schema {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("invalid scenario: schema path: %w", err)
		}
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML with strict field checking.
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

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}
	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}
	return nil
}

func validateStep(step Step) error {
	need := func(field, value string) error {
		if value == "" {
			return fmt.Errorf("%s is required for %s", field, step.Op)
		}
		return nil
	}

	var err error
	switch step.Op {
	case "":
		return fmt.Errorf("op is required")
	case OpCreateTable, OpDropTable, OpStats, OpScan, OpRemoveAll:
		err = need("table", step.Table)
	case OpPut:
		if err = need("table", step.Table); err == nil && step.Row == nil {
			err = fmt.Errorf("row is required for put")
		}
	case OpGet:
		if err = need("table", step.Table); err == nil {
			err = need("cursor", step.Cursor)
		}
	case OpGetNext, OpRemove:
		err = need("cursor", step.Cursor)
	case OpModify:
		if err = need("cursor", step.Cursor); err == nil && step.Row == nil {
			err = fmt.Errorf("row is required for modify")
		}
	case OpWatch:
		if err = need("trigger", step.Trigger); err == nil && (step.Table == "") == (step.Cursor == "") {
			err = fmt.Errorf("watch needs exactly one of table or cursor")
		}
	case OpUnwatch:
		err = need("trigger", step.Trigger)
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
	if err != nil {
		return err
	}

	if step.Expect != nil && step.Expect.Code == "" {
		return fmt.Errorf("expect: code is required")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("type is required")
	case AssertTraceContains:
		if a.Text == "" {
			return fmt.Errorf("text is required for trace_contains")
		}
	case AssertTraceOrder:
		if len(a.Lines) == 0 {
			return fmt.Errorf("lines list is required for trace_order")
		}
	case AssertTraceCount:
		if a.Text == "" {
			return fmt.Errorf("text is required for trace_count")
		}
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("count must be set and non-negative for trace_count")
		}
	case AssertFinalState:
		if a.Table == "" {
			return fmt.Errorf("table is required for final_state")
		}
		if a.Count == nil && len(a.Expect) == 0 {
			return fmt.Errorf("count or expect is required for final_state")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
