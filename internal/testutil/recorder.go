package testutil

import (
	"github.com/roach88/ringkv/internal/kv"
)

// Firing is one recorded trigger invocation.
type Firing struct {
	ID     kv.TriggerID
	Row    kv.Row
	Reason kv.TriggerReason
	Label  string
}

// TriggerRecorder collects trigger firings in the order they run.
// It is meant for single-goroutine tests driven by Dispatcher.Drain.
type TriggerRecorder struct {
	Firings []Firing
}

// Func returns a trigger function recording under label.
func (r *TriggerRecorder) Func(label string) kv.TriggerFunc {
	return func(id kv.TriggerID, row kv.Row, reason kv.TriggerReason) {
		r.Firings = append(r.Firings, Firing{ID: id, Row: row, Reason: reason, Label: label})
	}
}

// Labels returns the labels of all firings, in order.
func (r *TriggerRecorder) Labels() []string {
	out := make([]string, len(r.Firings))
	for i, f := range r.Firings {
		out[i] = f.Label
	}
	return out
}

// Reset forgets all firings.
func (r *TriggerRecorder) Reset() {
	r.Firings = nil
}
