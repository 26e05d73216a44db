package bridge

import (
	"context"
	"encoding/json"
)

// Marker properties injected into the host object by the native runtime.
const (
	MarkerInternals = "__TAURI_INTERNALS__"
	MarkerGlobal    = "__TAURI__"
)

// CallFunc is the native invocation primitive.
type CallFunc func(ctx context.Context, command string, args map[string]any) (json.RawMessage, error)

// Host exposes the properties of the page's global object.
type Host interface {
	Lookup(name string) (any, bool)
}

// MapHost is a Host backed by a map.
type MapHost map[string]any

// Lookup returns the named property.
func (h MapHost) Lookup(name string) (any, bool) {
	v, ok := h[name]
	return v, ok
}

// Available reports whether the native bridge can be used. It requires a
// call primitive and a host exposing a non-nil marker property.
func Available(call CallFunc, host Host) bool {
	if call == nil || host == nil {
		return false
	}
	for _, marker := range []string{MarkerInternals, MarkerGlobal} {
		if v, ok := host.Lookup(marker); ok && v != nil {
			return true
		}
	}
	return false
}
