package bridge

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotConfigured is returned when neither the native bridge nor a
// fallback endpoint can carry a command. It is a configuration failure,
// not a classified runtime error.
var ErrNotConfigured = errors.New("bridge: no native bridge and no fallback endpoint configured")

// Transport carries one command to the backend.
type Transport interface {
	// Name identifies the transport in logs and spans.
	Name() string

	// Call sends command with args and returns the raw result.
	Call(ctx context.Context, command string, args map[string]any) (json.RawMessage, error)
}

// Native is the in-process bridge transport.
type Native struct {
	call CallFunc
	host Host
}

// NewNative wraps call. host decides availability.
func NewNative(call CallFunc, host Host) *Native {
	return &Native{call: call, host: host}
}

// Name returns "native".
func (n *Native) Name() string {
	return "native"
}

// Available reports whether the native bridge is usable.
func (n *Native) Available() bool {
	if n == nil {
		return false
	}
	return Available(n.call, n.host)
}

// Call invokes the native primitive.
func (n *Native) Call(ctx context.Context, command string, args map[string]any) (json.RawMessage, error) {
	if !n.Available() {
		return nil, ErrNotConfigured
	}
	return n.call(ctx, command, args)
}

// Selector chooses the transport for each call.
type Selector struct {
	native   *Native
	fallback Transport
}

// NewSelector creates a selector. Either argument may be nil.
func NewSelector(native *Native, fallback Transport) *Selector {
	return &Selector{native: native, fallback: fallback}
}

// Select returns the native transport when available, else the fallback,
// else ErrNotConfigured. Availability is checked on every call because the
// host can inject its bridge after startup.
func (s *Selector) Select() (Transport, error) {
	if s.native.Available() {
		return s.native, nil
	}
	if s.fallback != nil {
		return s.fallback, nil
	}
	return nil, ErrNotConfigured
}

// NativeAvailable reports whether the native bridge is usable right now.
func (s *Selector) NativeAvailable() bool {
	return s.native.Available()
}

// HasFallback reports whether a fallback transport is configured.
func (s *Selector) HasFallback() bool {
	return s.fallback != nil
}
