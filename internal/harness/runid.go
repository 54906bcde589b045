package harness

import "github.com/google/uuid"

// RunIDGenerator produces the identifier logged with every line of one
// scenario run.
type RunIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-ordered UUIDv7 run IDs.
type UUIDv7Generator struct{}

// Generate returns a new UUIDv7 string, falling back to a random UUIDv4
// if the clock source fails.
func (UUIDv7Generator) Generate() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
