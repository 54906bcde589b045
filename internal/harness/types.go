package harness

import "github.com/roach88/ringkv/internal/kv"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion held.
	Pass bool

	// RunID correlates the run's log lines. It is not part of the trace.
	RunID string

	// Trace holds one line per step, outcome and trigger firing, in
	// execution order. It is deterministic for a given scenario.
	Trace []string

	// Errors contains expectation and assertion failures.
	Errors []string

	// Tables holds the final rows of every table, in ring order.
	Tables map[string][]kv.Row

	// Schemas holds the final column set of every table.
	Schemas map[string]kv.Columns
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Trace:   []string{},
		Errors:  []string{},
		Tables:  make(map[string][]kv.Row),
		Schemas: make(map[string]kv.Columns),
	}
}

// AddError adds a failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addLine(line string) {
	r.Trace = append(r.Trace, line)
}
