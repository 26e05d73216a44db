package health

import (
	"context"

	"github.com/jonwraymond/cmdbridge/bridge"
)

// BridgeChecker reports which transport a call would use right now.
type BridgeChecker struct {
	selector *bridge.Selector
}

// NewBridgeChecker creates a checker over selector.
func NewBridgeChecker(selector *bridge.Selector) *BridgeChecker {
	return &BridgeChecker{selector: selector}
}

// Name returns "bridge".
func (c *BridgeChecker) Name() string {
	return "bridge"
}

// Check is healthy when the native bridge is available, degraded when only
// the fallback is, and unhealthy otherwise.
func (c *BridgeChecker) Check(ctx context.Context) Result {
	native := c.selector != nil && c.selector.NativeAvailable()
	fallback := c.selector != nil && c.selector.HasFallback()
	details := map[string]any{"native": native, "fallback": fallback}

	switch {
	case native:
		return Healthy("native bridge available").WithDetails(details)
	case fallback:
		return Degraded("native bridge unavailable; using HTTP fallback").WithDetails(details)
	default:
		return Unhealthy("no transport configured", ErrNoTransport).WithDetails(details)
	}
}

// FallbackChecker probes the fallback server.
type FallbackChecker struct {
	pinger Pinger
}

// NewFallbackChecker creates a checker that pings p.
func NewFallbackChecker(p Pinger) *FallbackChecker {
	return &FallbackChecker{pinger: p}
}

// Name returns "fallback".
func (c *FallbackChecker) Name() string {
	return "fallback"
}

// Check is healthy when the server answers and unhealthy otherwise.
func (c *FallbackChecker) Check(ctx context.Context) Result {
	if c.pinger == nil {
		return Unhealthy("fallback not configured", ErrNoTransport)
	}
	if err := c.pinger.Ping(ctx); err != nil {
		return Unhealthy("fallback server unreachable", err)
	}
	return Healthy("fallback server reachable")
}
