package testutil

// FixedRunID returns the same run identifier every time.
//
// Scenario traces embed nothing time-dependent, but log lines carry the
// run ID; a fixed one keeps captured logs comparable.
//
// If id is empty, Generate() returns "test-run-default".
type FixedRunID struct {
	id string
}

// NewFixedRunID creates a fixed run ID generator.
func NewFixedRunID(id string) *FixedRunID {
	if id == "" {
		id = "test-run-default"
	}
	return &FixedRunID{id: id}
}

// Generate returns the fixed ID. Implements harness.RunIDGenerator.
func (g *FixedRunID) Generate() string {
	return g.id
}
