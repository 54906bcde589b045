package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/ringkv/internal/kv"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Trace    []string // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, line := range e.Trace {
			fmt.Fprintf(&buf, "  %s\n", line)
		}
	}

	return buf.String()
}

// assertTraceContains checks that some trace line contains the text.
func assertTraceContains(trace []string, a Assertion) error {
	for _, line := range trace {
		if strings.Contains(line, a.Text) {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("a line containing %q", a.Text),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that the lines appear in the given order.
// Other lines may come between them.
func assertTraceOrder(trace []string, a Assertion) error {
	pos := 0
	for i, want := range a.Lines {
		found := false
		for pos < len(trace) {
			line := trace[pos]
			pos++
			if strings.Contains(line, want) {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("lines in order: %q", a.Lines),
				Actual:   fmt.Sprintf("line %d (%q) not found after the previous ones", i+1, want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that exactly Count lines contain the text.
func assertTraceCount(trace []string, a Assertion) error {
	count := 0
	for _, line := range trace {
		if strings.Contains(line, a.Text) {
			count++
		}
	}
	if count != *a.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d lines containing %q", *a.Count, a.Text),
			Actual:   fmt.Sprintf("%d lines", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertFinalState checks the final rows of a table. Rows are selected
// by where (all fields must match). Count, if set, bounds the number of
// selected rows; expect requires exactly one selected row and checks it
// with subset semantics.
func assertFinalState(result *Result, a Assertion, saved map[string]kv.GUID) error {
	rows, ok := result.Tables[a.Table]
	if !ok {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("table %s to exist", a.Table),
			Actual:   "table not found",
		}
	}
	columns := result.Schemas[a.Table]

	where, err := convertRow(a.Where, columns, saved)
	if err != nil {
		return fmt.Errorf("final_state where: %w", err)
	}
	var selected []kv.Row
	for _, row := range rows {
		if rowContains(row, where) {
			selected = append(selected, row)
		}
	}

	if a.Count != nil && len(selected) != *a.Count {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("%d rows in %s where %s", *a.Count, a.Table, kv.FormatRow(where)),
			Actual:   fmt.Sprintf("%d rows", len(selected)),
		}
	}
	if len(a.Expect) == 0 {
		return nil
	}

	if len(selected) != 1 {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("exactly one row in %s where %s", a.Table, kv.FormatRow(where)),
			Actual:   fmt.Sprintf("%d rows matched", len(selected)),
		}
	}
	want, err := convertRow(a.Expect, columns, saved)
	if err != nil {
		return fmt.Errorf("final_state expect: %w", err)
	}
	if !rowContains(selected[0], want) {
		return &AssertionError{
			Type:     AssertFinalState,
			Expected: fmt.Sprintf("row matching %s", kv.FormatRow(want)),
			Actual:   kv.FormatRow(selected[0]),
		}
	}
	return nil
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions. saved maps
// names to GUIDs for "$name" values.
func EvaluateAssertions(result *Result, assertions []Assertion, saved map[string]kv.GUID) []string {
	var errors []string

	for i, a := range assertions {
		var err error

		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a, saved)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, a.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
