package engine

import (
	"errors"
	"fmt"
)

// StepLimitError is returned by Drain when a single drain executes more
// tasks than the configured limit. It usually means triggers are
// re-registering and re-firing each other without end.
//
// Tasks left in the queue stay there; a later Drain resumes them.
type StepLimitError struct {
	Steps int // Tasks executed by the failing drain
	Limit int // Configured limit
}

func (e *StepLimitError) Error() string {
	return fmt.Sprintf("step limit exceeded: %d tasks executed, limit %d", e.Steps, e.Limit)
}

// IsStepLimitError checks if an error is a StepLimitError.
func IsStepLimitError(err error) bool {
	var sle *StepLimitError
	return errors.As(err, &sle)
}
