// Package cache provides the invocation cache for read-only commands.
//
// Entries are keyed by command name, or by command name plus the canonical
// JSON of its arguments. Each entry lives for a fixed TTL and the cache is
// bounded; inserting past the bound evicts the least recently accessed entry.
// Expired entries are dropped lazily on lookup.
//
// Writes are never inferred: callers that mutate backend state clear the
// affected read commands with ClearCommand (or everything with Clear).
package cache
