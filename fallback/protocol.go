package fallback

import (
	"encoding/json"
	"errors"
)

// InvokePath is the endpoint every command is posted to.
const InvokePath = "/invoke"

// RequestIDHeader carries a per-request identifier.
const RequestIDHeader = "X-Request-ID"

// CodeNotImplemented is the error code for unknown commands.
const CodeNotImplemented = "not_implemented"

var (
	// ErrMalformedResponse indicates a response that is neither a result
	// nor an error envelope.
	ErrMalformedResponse = errors.New("fallback: malformed fallback response")

	// ErrNoBaseURL indicates a client was built without a base URL.
	ErrNoBaseURL = errors.New("fallback: base URL is required")
)

// Request is the body of POST /invoke.
type Request struct {
	Cmd  string         `json:"cmd"`
	Args map[string]any `json:"args"`
}

// ErrorBody is the payload of an error envelope.
type ErrorBody struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Response is the body returned by POST /invoke. Exactly one of Result or
// Error is set.
type Response struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ErrorBody      `json:"error,omitempty"`
}

// RemoteError is a failure reported by the server in an error envelope.
// Its message is the server's message, unchanged.
type RemoteError struct {
	Message string
	Code    string
	Status  int
}

func (e *RemoteError) Error() string {
	return e.Message
}

// decodeEnvelope interprets a response body. It returns the raw result, a
// *RemoteError, or ErrMalformedResponse.
func decodeEnvelope(body []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, ErrMalformedResponse
	}

	if raw, ok := fields["error"]; ok && !isNull(raw) {
		var eb ErrorBody
		if err := json.Unmarshal(raw, &eb); err != nil {
			return nil, ErrMalformedResponse
		}
		return nil, &RemoteError{Message: eb.Message, Code: eb.Code}
	}

	if raw, ok := fields["result"]; ok {
		return raw, nil
	}
	return nil, ErrMalformedResponse
}

func isNull(raw json.RawMessage) bool {
	return string(raw) == "null"
}
