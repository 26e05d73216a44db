// Package resilience bounds how long a command may run and, when a caller
// asks for it, how often it is retried.
//
// # Timeouts
//
// Every command belongs to a duration Class. A TimeoutPolicy maps classes to
// budgets (30s, 60s and 10m by default) and Timeout races an operation
// against its budget:
//
//	policy := resilience.DefaultTimeoutPolicy()
//	t := policy.Timeout(resilience.ClassLong)
//
//	out, err := resilience.ExecuteValue(ctx, t, func(ctx context.Context) ([]byte, error) {
//	    return transport.Call(ctx, "start_proxy", nil)
//	})
//	if errors.Is(err, resilience.ErrTimeout) {
//	    // budget elapsed; ctx handed to the transport was cancelled
//	}
//
// # Retry
//
// Retry is opt-in. The invocation layer never retries by itself; callers that
// want it wrap a call explicitly, usually with a predicate that only accepts
// transient failures.
package resilience
