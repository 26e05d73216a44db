package cache

import "time"

// Policy configures the invocation cache.
type Policy struct {
	// TTL is how long an entry may be served after insertion.
	// If zero, nothing is cached.
	TTL time.Duration

	// MaxEntries bounds the number of stored entries.
	// If zero or negative, DefaultMaxEntries is used.
	MaxEntries int
}

// Defaults for DefaultPolicy.
const (
	DefaultTTL        = 5 * time.Second
	DefaultMaxEntries = 100
)

// DefaultPolicy returns the default caching policy.
// TTL: 5 seconds, MaxEntries: 100
func DefaultPolicy() Policy {
	return Policy{
		TTL:        DefaultTTL,
		MaxEntries: DefaultMaxEntries,
	}
}

// NoCachePolicy returns a policy that disables caching entirely.
func NoCachePolicy() Policy {
	return Policy{}
}

// ShouldCache returns true if caching is enabled by this policy.
func (p Policy) ShouldCache() bool {
	return p.TTL > 0
}

func (p Policy) maxEntries() int {
	if p.MaxEntries <= 0 {
		return DefaultMaxEntries
	}
	return p.MaxEntries
}
