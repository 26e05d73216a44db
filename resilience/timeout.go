package resilience

import (
	"context"
	"errors"
	"time"
)

// TimeoutConfig configures the timeout wrapper.
type TimeoutConfig struct {
	// Timeout is the maximum duration for the operation.
	// Default: 30 seconds
	Timeout time.Duration

	// Op labels the TimeoutError returned when the budget elapses.
	Op string
}

// Timeout races operations against a deadline.
//
// The context passed to the operation is cancelled when the deadline passes,
// so operations that honour it stop work. One that ignores it keeps running
// in its goroutine; its result is discarded.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a new timeout wrapper.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}

	return &Timeout{config: config}
}

// Execute runs the operation with a timeout.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	_, err := ExecuteValue(ctx, t, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

// ExecuteValue runs op under t and returns its value. When the budget
// elapses first it returns the zero value and a *TimeoutError. When the
// parent context ends first its error is returned unchanged.
func ExecuteValue[T any](ctx context.Context, t *Timeout, op func(context.Context) (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}

	opCtx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan result, 1)
	go func() {
		v, err := op(opCtx)
		done <- result{val: v, err: err}
	}()

	var zero T
	select {
	case r := <-done:
		// An op that honours opCtx may return its own deadline error first.
		if r.err != nil && opCtx.Err() != nil {
			return zero, t.deadlineErr(ctx, opCtx)
		}
		return r.val, r.err
	case <-opCtx.Done():
		return zero, t.deadlineErr(ctx, opCtx)
	}
}

func (t *Timeout) deadlineErr(parent, opCtx context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Op: t.config.Op, Budget: t.config.Timeout}
	}
	return opCtx.Err()
}

// Config returns the timeout configuration.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}

// ExecuteWithTimeout is a convenience function to run an operation with timeout.
func ExecuteWithTimeout(ctx context.Context, timeout time.Duration, op func(context.Context) error) error {
	t := NewTimeout(TimeoutConfig{Timeout: timeout})
	return t.Execute(ctx, op)
}
