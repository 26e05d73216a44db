package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Secret resolution errors.
var (
	ErrUnknownProvider = errors.New("config: secret provider is not registered")
	ErrEmptySecret     = errors.New("config: secret resolved to an empty value")
	ErrSecretNotFound  = errors.New("config: secret not found")
)

const secretRefPrefix = "secretref:"

// SecretProvider resolves a secret by reference. Implementations must not
// log secret values.
type SecretProvider interface {
	Name() string
	Resolve(ctx context.Context, ref string) (string, error)
}

// EnvProvider resolves secretref:env:<VAR>.
type EnvProvider struct {
	Lookup LookupFunc
}

// Name returns "env".
func (p EnvProvider) Name() string { return "env" }

// Resolve returns the variable's value.
func (p EnvProvider) Resolve(_ context.Context, ref string) (string, error) {
	lookup := p.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	v, ok := lookup(ref)
	if !ok {
		return "", fmt.Errorf("%w: env %s", ErrSecretNotFound, ref)
	}
	return v, nil
}

// FileProvider resolves secretref:file:<path>. Trailing newlines are
// trimmed.
type FileProvider struct{}

// Name returns "file".
func (FileProvider) Name() string { return "file" }

// Resolve reads the file at ref.
func (FileProvider) Resolve(_ context.Context, ref string) (string, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: file %s", ErrSecretNotFound, ref)
		}
		return "", fmt.Errorf("config: read secret file: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// Resolver expands variables and resolves secret references.
type Resolver struct {
	lookup    LookupFunc
	providers map[string]SecretProvider
	strict    bool
}

// NewResolver creates a resolver. With strict set, a reference that
// resolves to the empty string is an error.
func NewResolver(lookup LookupFunc, strict bool, providers ...SecretProvider) *Resolver {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	r := &Resolver{
		lookup:    lookup,
		providers: make(map[string]SecretProvider),
		strict:    strict,
	}
	for _, p := range providers {
		if p != nil {
			r.providers[p.Name()] = p
		}
	}
	return r
}

// DefaultResolver resolves env and file references against lookup.
func DefaultResolver(lookup LookupFunc) *Resolver {
	return NewResolver(lookup, true, EnvProvider{Lookup: lookup}, FileProvider{})
}

// ResolveValue expands ${VAR} in value and then resolves it when the result
// is a secretref:<provider>:<ref>. Other values are returned as expanded.
func (r *Resolver) ResolveValue(ctx context.Context, value string) (string, error) {
	expanded, err := ExpandEnvStrict(value, r.lookup)
	if err != nil {
		return "", err
	}

	name, ref, ok := ParseSecretRef(expanded)
	if !ok {
		return expanded, nil
	}

	p, ok := r.providers[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
	resolved, err := p.Resolve(ctx, ref)
	if err != nil {
		return "", err
	}
	if r.strict && resolved == "" {
		return "", fmt.Errorf("%w: provider %q", ErrEmptySecret, name)
	}
	return resolved, nil
}

// ParseSecretRef splits secretref:<provider>:<ref>.
func ParseSecretRef(value string) (provider, ref string, ok bool) {
	if !strings.HasPrefix(value, secretRefPrefix) {
		return "", "", false
	}
	provider, ref, ok = strings.Cut(strings.TrimPrefix(value, secretRefPrefix), ":")
	if !ok || provider == "" || ref == "" {
		return "", "", false
	}
	return provider, ref, true
}
