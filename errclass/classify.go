package errclass

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// UnexpectedMessage is shown when nothing usable can be extracted.
const UnexpectedMessage = "An unexpected error occurred."

// Info is the normalized description of one failed invocation.
// It is built once and never modified.
type Info struct {
	// Original is the raw failure as returned by the transport.
	Original any `json:"-"`

	// Message is the user-facing text.
	Message string `json:"message"`

	Category Category `json:"category"`

	// TechnicalDetails carries diagnostic text for logs, never for users.
	TechnicalDetails string `json:"technicalDetails,omitempty"`

	Suggestion string `json:"suggestion,omitempty"`

	Retryable bool `json:"retryable"`

	Timestamp time.Time `json:"timestamp"`
}

// Classifier turns raw failures into Info values.
type Classifier struct {
	now func() time.Time
}

// ClassifierOption configures a Classifier.
type ClassifierOption func(*Classifier)

// WithClock sets the time source used for Info.Timestamp.
func WithClock(now func() time.Time) ClassifierOption {
	return func(c *Classifier) {
		if now != nil {
			c.now = now
		}
	}
}

// NewClassifier creates a classifier.
func NewClassifier(opts ...ClassifierOption) *Classifier {
	c := &Classifier{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultClassifier = NewClassifier()

// Classify classifies raw with the default classifier.
func Classify(raw any) Info {
	return defaultClassifier.Classify(raw)
}

// ClassifyAs classifies raw with a caller-chosen category.
func ClassifyAs(raw any, category Category) Info {
	return defaultClassifier.ClassifyAs(raw, category)
}

// Classify produces an Info for any input. It never panics.
func (c *Classifier) Classify(raw any) Info {
	return c.build(raw, "")
}

// ClassifyAs is Classify with the category fixed by the caller. An invalid
// category is ignored.
func (c *Classifier) ClassifyAs(raw any, category Category) Info {
	if !category.Valid() {
		category = ""
	}
	return c.build(raw, category)
}

func (c *Classifier) build(raw any, category Category) (info Info) {
	info = Info{
		Original:  raw,
		Message:   UnexpectedMessage,
		Category:  CategoryGeneral,
		Timestamp: c.now().UTC(),
	}
	defer func() {
		// Classification must stay total even for hostile Error/MarshalJSON methods.
		if r := recover(); r != nil {
			info.Message = UnexpectedMessage
			info.Category = CategoryGeneral
			info.TechnicalDetails = fmt.Sprintf("panic during classification: %v", r)
			info.Suggestion = CategoryGeneral.Suggestion()
			info.Retryable = false
		}
	}()

	ex := extract(raw)
	info.TechnicalDetails = ex.details

	terminal := false
	switch {
	case category != "":
		info.Category = category
	case ex.preset != "":
		info.Category = ex.preset
	default:
		info.Category, terminal = categorize(ex.message)
	}

	if ex.message == "" {
		info.Message = UnexpectedMessage
	} else {
		info.Message = localize(info.Category, ex.message)
	}
	info.Retryable = !terminal && isRetryableMessage(ex.message)
	info.Suggestion = info.Category.Suggestion()
	return info
}

type extraction struct {
	message string
	details string
	preset  Category
}

// extract pulls a message out of raw. Order: tagged backend error, generic
// message property, error value, string, anything else.
func extract(raw any) extraction {
	if raw == nil {
		return extraction{details: "nil failure"}
	}

	if be := asBackendError(raw); be != nil {
		ex := extraction{
			message: be.Message,
			details: be.Kind.Tag(),
		}
		if be.Code != "" {
			ex.details += " (code " + be.Code + ")"
		}
		if cat, ok := be.presetCategory(); ok {
			ex.preset = cat
		}
		return ex
	}

	switch v := raw.(type) {
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return extraction{message: msg, details: marshalDetails(v)}
		}
	case json.RawMessage:
		return extractJSON(v)
	case []byte:
		return extractJSON(v)
	}

	if err, ok := raw.(error); ok {
		return extraction{message: err.Error(), details: describeChain(err)}
	}

	if s, ok := raw.(string); ok {
		return extraction{message: s}
	}

	return extraction{details: marshalDetails(raw)}
}

func extractJSON(data []byte) extraction {
	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return extraction{message: strings.TrimSpace(string(data))}
	}
	return extract(decoded)
}

func asBackendError(raw any) *BackendError {
	switch v := raw.(type) {
	case *BackendError:
		return v
	case BackendError:
		return &v
	case error:
		var be *BackendError
		if errors.As(v, &be) {
			return be
		}
		return nil
	}
	if be, ok := ParseBackendError(raw); ok {
		return be
	}
	return nil
}

// describeChain renders the error and every wrapped cause with its type.
func describeChain(err error) string {
	var b strings.Builder
	for i := 0; err != nil; i++ {
		if i > 0 {
			b.WriteString("\ncaused by: ")
		}
		fmt.Fprintf(&b, "%T: %s", err, err.Error())
		err = errors.Unwrap(err)
	}
	return b.String()
}

func marshalDetails(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%#v", v)
	}
	return string(data)
}
