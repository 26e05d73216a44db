package resilience

import (
	"fmt"
	"time"
)

// Default budgets per duration class.
const (
	DefaultTimeout  = 30 * time.Second
	LongTimeout     = 60 * time.Second
	VeryLongTimeout = 10 * time.Minute
)

// Class is the duration class of a command.
type Class int

const (
	// ClassDefault covers ordinary request/response commands.
	ClassDefault Class = iota
	// ClassLong covers commands that start services or touch the network.
	ClassLong
	// ClassVeryLong covers downloads and other bulk transfers.
	ClassVeryLong
)

func (c Class) String() string {
	switch c {
	case ClassDefault:
		return "default"
	case ClassLong:
		return "long"
	case ClassVeryLong:
		return "very_long"
	default:
		return fmt.Sprintf("class(%d)", int(c))
	}
}

// TimeoutPolicy maps duration classes to budgets.
// Zero fields fall back to the package defaults.
type TimeoutPolicy struct {
	Default  time.Duration
	Long     time.Duration
	VeryLong time.Duration
}

// DefaultTimeoutPolicy returns the 30s / 60s / 10m policy.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Default:  DefaultTimeout,
		Long:     LongTimeout,
		VeryLong: VeryLongTimeout,
	}
}

// Budget returns the timeout for class c. Unknown classes get the default.
func (p TimeoutPolicy) Budget(c Class) time.Duration {
	switch c {
	case ClassLong:
		return orDefault(p.Long, LongTimeout)
	case ClassVeryLong:
		return orDefault(p.VeryLong, VeryLongTimeout)
	default:
		return orDefault(p.Default, DefaultTimeout)
	}
}

// Timeout returns a Timeout wrapper sized for class c.
func (p TimeoutPolicy) Timeout(c Class) *Timeout {
	return NewTimeout(TimeoutConfig{Timeout: p.Budget(c)})
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
