// Package fallback implements the JSON-over-HTTP transport used when no
// native bridge is present.
//
// Wire protocol:
//
//	POST {base}/invoke
//	Content-Type: application/json
//
//	{"cmd": "<command>", "args": <object|null>}
//
// The response body carries either {"result": <any>} or
// {"error": {"message": "<string>", "code": "<string>"}}. The HTTP status of
// an error envelope may still be 200, so clients always inspect the body.
//
// Client implements bridge.Transport. Server is a reference http.Handler that
// speaks the same protocol and dispatches to registered handlers.
//
// Base URL resolution is handled by ResolveBaseURL: an explicit value wins,
// otherwise the page origin is combined with DefaultPort.
package fallback
