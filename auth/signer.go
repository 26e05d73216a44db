package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies bearer tokens for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource that always returns the same token.
type StaticToken string

// Token returns the static token.
func (s StaticToken) Token(context.Context) (string, error) {
	if s == "" {
		return "", ErrMissingCredentials
	}
	return string(s), nil
}

// SignerConfig configures a JWTSigner.
type SignerConfig struct {
	Issuer   string
	Audience string

	// Subject identifies the caller (sub claim).
	// Default: "cmdbridge"
	Subject string

	// TTL is the lifetime of each token.
	// Default: 5 minutes
	TTL time.Duration

	// Now is the clock used for iat/exp. Default: time.Now.
	Now func() time.Time
}

// JWTSigner mints HS256 tokens and reuses each one until it is close to
// expiry.
type JWTSigner struct {
	secret []byte
	config SignerConfig

	mu      sync.Mutex
	token   string
	renewAt time.Time
}

// NewJWTSigner creates a signer for secret.
func NewJWTSigner(secret []byte, config SignerConfig) (*JWTSigner, error) {
	if len(secret) == 0 {
		return nil, ErrMissingSecret
	}
	if config.Subject == "" {
		config.Subject = "cmdbridge"
	}
	if config.TTL <= 0 {
		config.TTL = 5 * time.Minute
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	return &JWTSigner{secret: secret, config: config}, nil
}

// Token returns a valid token, minting a new one after 80% of the TTL.
func (s *JWTSigner) Token(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.config.Now()
	if s.token != "" && now.Before(s.renewAt) {
		return s.token, nil
	}

	claims := jwt.RegisteredClaims{
		Subject:   s.config.Subject,
		Issuer:    s.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
	}
	if s.config.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.config.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}

	s.token = signed
	s.renewAt = now.Add(s.config.TTL * 4 / 5)
	return signed, nil
}

var (
	_ TokenSource = StaticToken("")
	_ TokenSource = (*JWTSigner)(nil)
)
