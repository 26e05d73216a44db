package errclass

import "errors"

// Error is the failure returned to callers of a classified invocation.
// Its Error text is the user-facing message; the raw failure is reachable
// through Unwrap and Info.
type Error struct {
	Command string
	Info    Info
}

// NewError wraps info for command.
func NewError(command string, info Info) *Error {
	return &Error{Command: command, Info: info}
}

func (e *Error) Error() string {
	return e.Info.Message
}

// Unwrap returns the original failure when it was an error.
func (e *Error) Unwrap() error {
	if err, ok := e.Info.Original.(error); ok {
		return err
	}
	return nil
}

// IsRetryable reports whether err is worth retrying. Unclassified errors
// are classified on the fly.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Info.Retryable
	}
	return Classify(err).Retryable
}

// CategoryOf returns the category of err, classifying it if needed.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Info.Category
	}
	return Classify(err).Category
}

// InfoOf returns the Info carried by err, if it was classified.
func InfoOf(err error) (Info, bool) {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Info, true
	}
	return Info{}, false
}
