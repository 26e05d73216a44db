package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// KeySeparator joins the command name and its serialized arguments.
const KeySeparator = ":"

// Keyer derives cache keys from a command invocation.
//
// Contract:
// - Determinism: same inputs must produce same key, regardless of map iteration order.
// - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Key(command string, args map[string]any) (string, error)
}

// DefaultKeyer keys by command alone when there are no arguments, and by
// command + ":" + canonical JSON of the arguments otherwise. Serializations
// that would overflow MaxKeyLength are replaced by a SHA-256 prefix.
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Key generates a deterministic cache key.
func (k *DefaultKeyer) Key(command string, args map[string]any) (string, error) {
	if command == "" {
		return "", ErrInvalidKey
	}
	if len(args) == 0 {
		return command, ValidateKey(command)
	}

	canonical, err := canonicalize(args)
	if err != nil {
		return "", fmt.Errorf("cache: failed to canonicalize args: %w", err)
	}

	key := command + KeySeparator + string(canonical)
	if len(key) > MaxKeyLength {
		hash := sha256.Sum256(canonical)
		key = command + KeySeparator + "sha256-" + hex.EncodeToString(hash[:8])
	}
	return key, ValidateKey(key)
}

// canonicalize produces a deterministic JSON representation of v.
func canonicalize(v any) ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}

	switch val := v.(type) {
	case map[string]any:
		return canonicalizeMap(val)
	case []any:
		return canonicalizeSlice(val)
	default:
		return json.Marshal(v)
	}
}

func canonicalizeMap(m map[string]any) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := []byte("{")
	for i, k := range keys {
		if i > 0 {
			result = append(result, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		result = append(result, keyBytes...)
		result = append(result, ':')

		valBytes, err := canonicalize(m[k])
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, '}'), nil
}

func canonicalizeSlice(s []any) ([]byte, error) {
	result := []byte("[")
	for i, v := range s {
		if i > 0 {
			result = append(result, ',')
		}
		valBytes, err := canonicalize(v)
		if err != nil {
			return nil, err
		}
		result = append(result, valBytes...)
	}
	return append(result, ']'), nil
}

var _ Keyer = (*DefaultKeyer)(nil)
