package config

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// ErrMissingEnv indicates ${VAR} referenced an unset variable.
var ErrMissingEnv = errors.New("config: missing required environment variables")

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnvStrict replaces ${VAR} with its value from lookup. Every missing
// variable is reported in a single error. $$ emits a literal $.
func ExpandEnvStrict(s string, lookup LookupFunc) (string, error) {
	const dollar = "\x00CMDBRIDGE_DOLLAR\x00"
	s = strings.ReplaceAll(s, "$$", dollar)

	var missing []string
	seen := make(map[string]bool)
	out := envVarPattern.ReplaceAllStringFunc(s, func(m string) string {
		key := m[2 : len(m)-1]
		v, ok := lookup(key)
		if !ok && !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
		return v
	})
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", fmt.Errorf("%w: %s", ErrMissingEnv, strings.Join(missing, ", "))
	}

	return strings.ReplaceAll(out, dollar, "$"), nil
}
