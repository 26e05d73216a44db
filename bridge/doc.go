// Package bridge detects the native host bridge and chooses how a command
// reaches the backend.
//
// A webview page can talk to its native backend in two ways: the in-process
// bridge injected by the host runtime, or an HTTP fallback endpoint. The
// native bridge counts as available only when a call primitive exists and
// the host object exposes one of the runtime marker properties. Merely
// having a call function (for example a test stub) is not enough.
//
// Selector picks a Transport per call: native when available, fallback when
// configured, and ErrNotConfigured otherwise.
package bridge
