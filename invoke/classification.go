package invoke

import (
	"errors"
	"fmt"

	"github.com/jonwraymond/cmdbridge/resilience"
)

// ErrOverlappingClassification indicates a command listed in more than one
// set.
var ErrOverlappingClassification = errors.New("invoke: command listed in more than one classification set")

// Classification names the commands that get non-default behaviour.
// The three sets must be disjoint. A command in none of them is not cached
// and gets the default timeout.
type Classification struct {
	// Cacheable commands are read-only and may be served from the cache.
	Cacheable []string

	// LongRunning commands get the long timeout budget.
	LongRunning []string

	// VeryLongRunning commands get the very long timeout budget.
	VeryLongRunning []string
}

// Validate reports the first command that appears in two sets.
func (c Classification) Validate() error {
	seen := make(map[string]string)
	sets := []struct {
		name     string
		commands []string
	}{
		{"cacheable", c.Cacheable},
		{"long-running", c.LongRunning},
		{"very-long-running", c.VeryLongRunning},
	}
	for _, set := range sets {
		for _, cmd := range set.commands {
			if prev, ok := seen[cmd]; ok && prev != set.name {
				return fmt.Errorf("%w: %q is both %s and %s", ErrOverlappingClassification, cmd, prev, set.name)
			}
			seen[cmd] = set.name
		}
	}
	return nil
}

// classes is the lookup form of a Classification.
type classes struct {
	cacheable map[string]bool
	class     map[string]resilience.Class
}

func (c Classification) compile() classes {
	out := classes{
		cacheable: make(map[string]bool, len(c.Cacheable)),
		class:     make(map[string]resilience.Class, len(c.LongRunning)+len(c.VeryLongRunning)),
	}
	for _, cmd := range c.Cacheable {
		out.cacheable[cmd] = true
	}
	for _, cmd := range c.LongRunning {
		out.class[cmd] = resilience.ClassLong
	}
	for _, cmd := range c.VeryLongRunning {
		out.class[cmd] = resilience.ClassVeryLong
	}
	return out
}

func (c classes) isCacheable(command string) bool {
	return c.cacheable[command]
}

func (c classes) classOf(command string) resilience.Class {
	if cl, ok := c.class[command]; ok {
		return cl
	}
	return resilience.ClassDefault
}
