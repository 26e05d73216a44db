package cache

import (
	"bytes"
	"context"
	"encoding/json"

	"golang.org/x/sync/singleflight"
)

// ExecutorFunc is the function signature for command execution.
type ExecutorFunc func(ctx context.Context, command string, args map[string]any) (json.RawMessage, error)

// CacheablePredicate reports whether a command's results may be cached.
type CacheablePredicate func(command string) bool

// Outcome describes how the middleware served a call.
type Outcome int

const (
	// OutcomeBypass means the command is not cacheable and ran directly.
	OutcomeBypass Outcome = iota
	// OutcomeHit means the result came from the cache.
	OutcomeHit
	// OutcomeMiss means the command ran and its result was stored.
	OutcomeMiss
	// OutcomeShared means the result came from a concurrent identical call.
	OutcomeShared
)

// String returns the string representation of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeBypass:
		return "bypass"
	case OutcomeHit:
		return "hit"
	case OutcomeMiss:
		return "miss"
	case OutcomeShared:
		return "shared"
	default:
		return "unknown"
	}
}

// Middleware wraps command execution with caching.
type Middleware struct {
	cache     Cache
	keyer     Keyer
	cacheable CacheablePredicate
	group     singleflight.Group
}

// NewMiddleware creates a new cache middleware.
// If keyer is nil, DefaultKeyer is used. If cacheable is nil, nothing is cached.
func NewMiddleware(cache Cache, keyer Keyer, cacheable CacheablePredicate) *Middleware {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	if cacheable == nil {
		cacheable = func(string) bool { return false }
	}
	return &Middleware{
		cache:     cache,
		keyer:     keyer,
		cacheable: cacheable,
	}
}

// Cache returns the underlying cache.
func (m *Middleware) Cache() Cache {
	return m.cache
}

// Execute runs the command with caching.
//
// Non-cacheable commands bypass the cache entirely. For cacheable commands a
// live entry is returned without calling next; otherwise next runs once per
// key even when several callers miss at the same time. The shared call does
// not inherit any caller's cancellation; each caller stops waiting on its own
// context. Errors are NOT cached.
func (m *Middleware) Execute(
	ctx context.Context,
	command string,
	args map[string]any,
	next ExecutorFunc,
) (json.RawMessage, Outcome, error) {
	if m.cache == nil || !m.cacheable(command) {
		result, err := next(ctx, command, args)
		return result, OutcomeBypass, err
	}

	key, err := m.keyer.Key(command, args)
	if err != nil {
		result, err := next(ctx, command, args)
		return result, OutcomeBypass, err
	}

	if entry, ok := m.cache.Get(ctx, key); ok {
		return entry.Data, OutcomeHit, nil
	}

	shared := context.WithoutCancel(ctx)
	ch := m.group.DoChan(key, func() (any, error) {
		result, err := next(shared, command, args)
		if err != nil {
			return nil, err
		}
		_ = m.cache.Set(shared, key, result)
		return result, nil
	})

	select {
	case res := <-ch:
		outcome := OutcomeMiss
		if res.Shared {
			outcome = OutcomeShared
		}
		if res.Err != nil {
			return nil, outcome, res.Err
		}
		result := res.Val.(json.RawMessage)
		if res.Shared {
			result = bytes.Clone(result)
		}
		return result, outcome, nil
	case <-ctx.Done():
		return nil, OutcomeMiss, ctx.Err()
	}
}
