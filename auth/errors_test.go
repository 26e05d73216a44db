package auth

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrMissingCredentials", ErrMissingCredentials},
		{"ErrInvalidCredentials", ErrInvalidCredentials},
		{"ErrTokenExpired", ErrTokenExpired},
		{"ErrTokenMalformed", ErrTokenMalformed},
		{"ErrMissingSecret", ErrMissingSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("%s is nil", tt.name)
			}
			if tt.err.Error() == "" {
				t.Errorf("%s has empty message", tt.name)
			}
		})
	}
}

func TestErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("fallback: %w", ErrInvalidCredentials)

	if !errors.Is(wrapped, ErrInvalidCredentials) {
		t.Error("errors.Is should match through %w wrapping")
	}
	if errors.Is(ErrInvalidCredentials, ErrTokenExpired) {
		t.Error("errors.Is should not match different errors")
	}
}
