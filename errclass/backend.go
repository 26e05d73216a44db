package errclass

import (
	"encoding/json"
	"strings"
)

// Kind identifies a tagged backend error variant.
type Kind int

const (
	// KindUnknown is the catch-all for unrecognized tags.
	KindUnknown Kind = iota
	KindOllama
	KindAPI
	KindModel
	KindDatabase
	KindIO
	KindValidation
)

// tags maps the wire tag of each backend error variant to its Kind.
var tags = map[string]Kind{
	"OllamaError":     KindOllama,
	"ApiError":        KindAPI,
	"ModelError":      KindModel,
	"DatabaseError":   KindDatabase,
	"IoError":         KindIO,
	"ValidationError": KindValidation,
}

// Tag returns the wire tag for k.
func (k Kind) Tag() string {
	switch k {
	case KindOllama:
		return "OllamaError"
	case KindAPI:
		return "ApiError"
	case KindModel:
		return "ModelError"
	case KindDatabase:
		return "DatabaseError"
	case KindIO:
		return "IoError"
	case KindValidation:
		return "ValidationError"
	default:
		return "UnknownError"
	}
}

// BackendError is a structured error produced by the native backend.
//
// On the wire it is an object with a single tag key, either
// {"OllamaError": {"message": "...", "code": "..."}} or {"OllamaError": "..."}.
type BackendError struct {
	Kind    Kind
	Message string
	Code    string
}

func (e *BackendError) Error() string {
	return e.Message
}

// presetCategory returns the category a variant fixes regardless of its
// message, if any. Only validation failures carry one; every other variant
// goes through keyword classification.
func (e *BackendError) presetCategory() (Category, bool) {
	switch e.Kind {
	case KindValidation:
		return CategoryValidation, true
	case KindOllama, KindAPI, KindModel, KindDatabase, KindIO, KindUnknown:
		return "", false
	default:
		return "", false
	}
}

// ParseBackendError recognizes a tagged backend error in v. It accepts a
// decoded JSON object, raw JSON bytes or a JSON string.
func ParseBackendError(v any) (*BackendError, bool) {
	switch val := v.(type) {
	case map[string]any:
		return fromObject(val)
	case json.RawMessage:
		return fromJSON(val)
	case []byte:
		return fromJSON(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if !strings.HasPrefix(trimmed, "{") {
			return nil, false
		}
		return fromJSON([]byte(trimmed))
	default:
		return nil, false
	}
}

func fromJSON(data []byte) (*BackendError, bool) {
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, false
	}
	return fromObject(obj)
}

func fromObject(obj map[string]any) (*BackendError, bool) {
	if len(obj) != 1 {
		return nil, false
	}
	for tag, payload := range obj {
		kind, ok := tags[tag]
		if !ok {
			return nil, false
		}
		switch p := payload.(type) {
		case string:
			return &BackendError{Kind: kind, Message: p}, true
		case map[string]any:
			msg, _ := p["message"].(string)
			code, _ := p["code"].(string)
			return &BackendError{Kind: kind, Message: msg, Code: code}, true
		default:
			return nil, false
		}
	}
	return nil, false
}
