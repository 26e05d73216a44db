package health

import "errors"

var (
	// ErrCheckTimeout indicates a health check did not finish in time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates a checker was not found.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoTransport indicates neither a native bridge nor a fallback is
	// configured.
	ErrNoTransport = errors.New("health: no native bridge and no fallback endpoint")
)
