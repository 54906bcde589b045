package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringkv/internal/kv"
)

func sampleResult() *Result {
	r := NewResult()
	r.Trace = []string{
		"[1] put T {k=1}",
		"  fire w INSERT {GUID=01000000, k=1}",
		"  => SUCCESS guid=01000000",
		"[2] put T {k=2}",
		"  fire w INSERT {GUID=02000000, k=2}",
		"  => SUCCESS guid=02000000",
	}
	r.Schemas["T"] = kv.Columns{kv.GUIDColumn: kv.GUID{}, "k": kv.Int(0)}
	r.Tables["T"] = []kv.Row{
		{kv.GUIDColumn: kv.GUIDFromInt(1), "k": kv.Int(1)},
		{kv.GUIDColumn: kv.GUIDFromInt(2), "k": kv.Int(2)},
	}
	return r
}

func TestEvaluateAssertions_Pass(t *testing.T) {
	saved := map[string]kv.GUID{"second": kv.GUIDFromInt(2)}
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertTraceContains, Text: "fire w INSERT"},
		{Type: AssertTraceOrder, Lines: []string{"[1] put", "fire w", "[2] put", "fire w"}},
		{Type: AssertTraceCount, Text: "fire w", Count: intPtr(2)},
		{Type: AssertFinalState, Table: "T", Count: intPtr(2)},
		{Type: AssertFinalState, Table: "T", Where: map[string]any{"GUID": "$second"}, Expect: map[string]any{"k": 2}},
	}, saved)
	assert.Empty(t, errs)
}

func TestEvaluateAssertions_Failures(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		want      string
	}{
		{
			name:      "trace_contains",
			assertion: Assertion{Type: AssertTraceContains, Text: "fire z"},
			want:      "not found in trace",
		},
		{
			name:      "trace_order",
			assertion: Assertion{Type: AssertTraceOrder, Lines: []string{"[2] put", "[1] put"}},
			want:      `line 2 ("[1] put") not found`,
		},
		{
			name:      "trace_count",
			assertion: Assertion{Type: AssertTraceCount, Text: "fire w", Count: intPtr(1)},
			want:      "Actual: 2 lines",
		},
		{
			name:      "final_state missing table",
			assertion: Assertion{Type: AssertFinalState, Table: "U", Count: intPtr(0)},
			want:      "table not found",
		},
		{
			name:      "final_state count",
			assertion: Assertion{Type: AssertFinalState, Table: "T", Where: map[string]any{"k": 1}, Count: intPtr(2)},
			want:      "Actual: 1 rows",
		},
		{
			name:      "final_state ambiguous",
			assertion: Assertion{Type: AssertFinalState, Table: "T", Expect: map[string]any{"k": 1}},
			want:      "2 rows matched",
		},
		{
			name:      "final_state value",
			assertion: Assertion{Type: AssertFinalState, Table: "T", Where: map[string]any{"k": 1}, Expect: map[string]any{"GUID": 2}},
			want:      "row matching {GUID=02000000}",
		},
		{
			name:      "unknown type",
			assertion: Assertion{Type: "bogus"},
			want:      `unknown assertion type "bogus"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion}, nil)
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.want)
		})
	}
}

func TestAssertionErrorIncludesTrace(t *testing.T) {
	err := assertTraceContains([]string{"[1] stats T"}, Assertion{Type: AssertTraceContains, Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Full trace:\n  [1] stats T\n")
}
