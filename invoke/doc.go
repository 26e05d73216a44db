// Package invoke is the single entry point through which a webview
// frontend issues commands to its native backend.
//
// An Invoker combines the other packages:
//
//   - cache: results of commands listed as Cacheable are served from an
//     LRU cache with a short TTL. Concurrent identical misses share one
//     backend call.
//   - bridge: each call goes to the native bridge when it is available, to
//     the HTTP fallback otherwise, and fails with bridge.ErrNotConfigured
//     when neither exists.
//   - resilience: each call is bounded by the budget of its class (30s by
//     default, 60s for LongRunning, 10m for VeryLongRunning). The context
//     handed to the transport is cancelled at the deadline.
//   - errclass: every failure is classified once and returned as an
//     *errclass.Error whose message is safe to show to users.
//
// The Invoker never retries on its own. Callers that want retries use
// InvokeRetrying, which by default retries only errors classified as
// retryable.
//
// Commands that mutate state should be followed by ClearCache for the
// cacheable commands that read the same data:
//
//	if _, err := inv.Invoke(ctx, "save_api", args); err != nil {
//		return err
//	}
//	_ = inv.ClearCache(ctx, "list_apis")
package invoke
