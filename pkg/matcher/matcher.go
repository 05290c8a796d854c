// Package matcher compiles dispatch path patterns into predicates over normalized paths.
//
// Three pattern shapes are supported:
//
//	*          matches every non-empty path
//	/api/*     matches /api and anything below /api/
//	/login     matches /login only
//
// Literal text is always matched literally; regular expression metacharacters in a
// pattern carry no special meaning. Patterns and paths are compared in a canonical form
// with a leading slash, and no pattern matches the empty path.
package matcher

import (
	"regexp"
	"strings"
)

// Kind identifies the shape of a compiled pattern.
type Kind int

const (
	// KindAll is the "*" pattern.
	KindAll Kind = iota
	// KindPrefix is a pattern ending in "/*".
	KindPrefix
	// KindExact is any other pattern.
	KindExact
)

// String returns the name of the kind.
func (k Kind) String() string {
	switch k {
	case KindAll:
		return "all"
	case KindPrefix:
		return "prefix"
	default:
		return "exact"
	}
}

// Matcher is a compiled path pattern. It is immutable and safe for concurrent use.
type Matcher struct {
	pattern string
	kind    Kind
	re      *regexp.Regexp
}

// Compile compiles pattern into a Matcher. Any string is a valid pattern.
func Compile(pattern string) *Matcher {
	if pattern == "*" {
		return &Matcher{pattern: pattern, kind: KindAll}
	}

	canonical := canonicalPattern(pattern)
	if strings.HasSuffix(canonical, "/*") {
		base := regexp.QuoteMeta(strings.TrimSuffix(canonical, "/*"))
		return &Matcher{
			pattern: pattern,
			kind:    KindPrefix,
			re:      regexp.MustCompile("^" + base + "(/.*)?$"),
		}
	}

	return &Matcher{
		pattern: pattern,
		kind:    KindExact,
		re:      regexp.MustCompile("^" + regexp.QuoteMeta(canonical) + "$"),
	}
}

// Match reports whether path is accepted by the pattern.
// path is expected in the canonical form produced by NormalizePath.
// The empty path never matches.
func (m *Matcher) Match(path string) bool {
	if path == "" {
		return false
	}
	if m.kind == KindAll {
		return true
	}
	return m.re.MatchString(path)
}

// Pattern returns the pattern the matcher was compiled from.
func (m *Matcher) Pattern() string {
	return m.pattern
}

// Kind returns the shape of the pattern.
func (m *Matcher) Kind() Kind {
	return m.kind
}

func canonicalPattern(pattern string) string {
	if strings.HasPrefix(pattern, "/") {
		return pattern
	}
	return "/" + pattern
}
