// Package auth secures the HTTP fallback channel with bearer tokens.
//
// The client side mints short-lived HS256 tokens with a JWTSigner and
// attaches them through Transport, an http.RoundTripper. The server side
// verifies them with a JWTAuthenticator, usually through Middleware, which
// stores the resulting Identity in the request context.
//
// A shared secret is the only key material: both ends of the fallback
// channel run on the same machine under the same configuration.
package auth
