package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Entry is a cached command result with its access bookkeeping.
//
// Timestamp is set once when the entry is inserted. LastAccess and
// AccessCount move on every hit.
type Entry struct {
	Data        json.RawMessage
	Timestamp   time.Time
	AccessCount int
	LastAccess  time.Time
}

// Age returns how long ago the entry was inserted, relative to now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// Cache stores results of idempotent commands.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Ownership: Get returns a copy; callers may not mutate cached bytes.
// - Errors: Get never errors; it returns (Entry{}, false) on miss or expiry.
type Cache interface {
	// Get returns a live entry and records the access.
	Get(ctx context.Context, key string) (Entry, bool)

	// Set inserts or replaces the entry for key.
	Set(ctx context.Context, key string, data json.RawMessage) error

	// Delete removes a single key. Idempotent.
	Delete(ctx context.Context, key string) error

	// ClearCommand removes every key derived from command.
	ClearCommand(ctx context.Context, command string) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// Len reports the number of stored entries, expired or not.
	Len() int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// belongsTo reports whether key was derived from command.
func belongsTo(key, command string) bool {
	if key == command {
		return true
	}
	return strings.HasPrefix(key, command+KeySeparator)
}
