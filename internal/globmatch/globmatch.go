// Package globmatch compiles the include/exclude glob pair into a single
// predicate over root-relative file paths.
package globmatch

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

var ErrBadPattern = errors.New("invalid glob pattern")

// Matcher selects a path iff the include pattern matches it and the exclude
// pattern (when present) does not. Patterns use doublestar syntax: `*` and
// `?` within a segment, `**` across segments, `{a,b}` alternation.
type Matcher struct {
	include string
	exclude string
}

// Compile validates both patterns up front so malformed globs fail before any
// scanning starts. An empty exclude never excludes.
func Compile(include, exclude string) (*Matcher, error) {
	if !doublestar.ValidatePattern(include) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, include)
	}
	if exclude != "" && !doublestar.ValidatePattern(exclude) {
		return nil, fmt.Errorf("%w: %q", ErrBadPattern, exclude)
	}
	return &Matcher{include: include, exclude: exclude}, nil
}

// Match evaluates a path relative to its scan root. Separators are
// normalized to slashes before matching.
func (m *Matcher) Match(rel string) bool {
	rel = filepath.ToSlash(rel)

	ok, err := doublestar.Match(m.include, rel)
	if err != nil || !ok {
		return false
	}
	if m.exclude != "" {
		if excluded, err := doublestar.Match(m.exclude, rel); err == nil && excluded {
			return false
		}
	}
	return true
}
