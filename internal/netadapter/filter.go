package netadapter

import (
	"slices"

	"github.com/gobwas/glob"
)

// NameFilter matches interface names against a list of shell-style
// patterns such as "eth*" or "enp[0-9]s0". The zero value and an empty list
// match every name.
type NameFilter struct {
	patterns []string
	globs    []glob.Glob
}

// NewNameFilter compiles patterns. A pattern that does not compile is
// matched literally.
func NewNameFilter(patterns []string) NameFilter {
	f := NameFilter{patterns: slices.Clone(patterns)}
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			g = literal(p)
		}
		f.globs = append(f.globs, g)
	}
	return f
}

// Match reports whether name passes the filter
func (f NameFilter) Match(name string) bool {
	if len(f.globs) == 0 {
		return true
	}
	for _, g := range f.globs {
		if g.Match(name) {
			return true
		}
	}
	return false
}

// Patterns returns the patterns the filter was built from
func (f NameFilter) Patterns() []string {
	return slices.Clone(f.patterns)
}

// MatchName is shorthand for NewNameFilter(patterns).Match(name)
func MatchName(patterns []string, name string) bool {
	return NewNameFilter(patterns).Match(name)
}

type literal string

func (l literal) Match(s string) bool { return string(l) == s }
