// Package observe provides observability primitives for command invocation.
//
// It is a pure instrumentation library: no execution, no transport, no I/O
// beyond exporter setup. The invocation layer wraps every call with
// Middleware, which records a span named invoke.<command>, call/error
// counters and a duration histogram. Logger writes JSON lines and redacts
// sensitive keys.
package observe
