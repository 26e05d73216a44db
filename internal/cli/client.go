package cli

import (
	"errors"
	"net/url"

	"github.com/jonwraymond/cmdbridge/auth"
	"github.com/jonwraymond/cmdbridge/fallback"
)

// localPage stands in for the webview page when nothing configures the
// fallback endpoint, so the derived base URL is the local dev server.
var localPage = &url.URL{Scheme: "http", Host: "localhost"}

// fallbackClient builds the HTTP fallback client. explicit overrides the
// configured base URL. Requests are signed when a token secret is set.
func (a *app) fallbackClient(explicit string) (*fallback.Client, error) {
	base, ok := fallback.ResolveBaseURL(explicit, nil)
	if !ok {
		base, ok = a.cfg.FallbackBaseURL()
	}
	if !ok {
		base, ok = fallback.ResolveBaseURL("", localPage)
	}
	if !ok {
		return nil, fallback.ErrNoBaseURL
	}

	opts := []fallback.Option{fallback.WithTracing()}
	if a.cfg.TokenSecret != "" {
		signer, err := auth.NewJWTSigner([]byte(a.cfg.TokenSecret), auth.SignerConfig{Issuer: ServiceName})
		if err != nil {
			return nil, err
		}
		opts = append(opts, fallback.WithTokenSource(signer))
	}
	return fallback.NewClient(base, opts...)
}

// authenticator returns the bearer verifier for served requests, or nil
// when no token secret is configured.
func (a *app) authenticator() auth.Authenticator {
	if a.cfg.TokenSecret == "" {
		return nil
	}
	return auth.NewJWTAuthenticator(
		auth.JWTConfig{Issuer: ServiceName},
		auth.NewStaticKeyProvider([]byte(a.cfg.TokenSecret)),
	)
}

var errUnhealthy = errors.New("cli: unhealthy")
