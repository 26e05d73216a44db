package auth

import (
	"fmt"
	"net/http"
)

// Transport is an http.RoundTripper that adds a bearer token to every
// request.
type Transport struct {
	// Source supplies the token.
	Source TokenSource

	// Base is the underlying transport. Default: http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip clones req and sets the Authorization header.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.Source.Token(req.Context())
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, fmt.Errorf("auth: token source: %w", err)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)

	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(clone)
}

// FailureFunc writes the response for a rejected request.
type FailureFunc func(w http.ResponseWriter, r *http.Request, err error)

// Middleware authenticates every request with a. Authenticated requests
// carry their Identity in the context; rejected ones are answered by
// onFailure, or a plain 401 when onFailure is nil.
func Middleware(a Authenticator, onFailure FailureFunc) func(http.Handler) http.Handler {
	if onFailure == nil {
		onFailure = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusUnauthorized)
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result, err := a.Authenticate(r.Context(), &AuthRequest{
				Headers:  r.Header,
				Resource: r.URL.Path,
			})
			if err != nil {
				onFailure(w, r, err)
				return
			}
			if !result.Authenticated {
				onFailure(w, r, result.Error)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), result.Identity)))
		})
	}
}

var _ http.RoundTripper = (*Transport)(nil)
