package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for resilience operations.
var (
	// ErrMaxRetriesExceeded is returned when max retry attempts are exhausted.
	ErrMaxRetriesExceeded = errors.New("resilience: max retries exceeded")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("resilience: operation timed out")
)

// TimeoutError reports an operation that outlived its budget.
// It matches ErrTimeout with errors.Is.
type TimeoutError struct {
	// Op names the timed out operation, typically the command.
	Op string

	// Budget is the timeout that elapsed.
	Budget time.Duration
}

func (e *TimeoutError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s after %s", ErrTimeout, e.Budget)
	}
	return fmt.Sprintf("resilience: %s timed out after %s", e.Op, e.Budget)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}
