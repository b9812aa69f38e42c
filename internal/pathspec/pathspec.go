// Package pathspec resolves raw CLI inputs into the set of scan roots.
//
// An input is either an existing directory (used directly) or an existing
// regular file holding a list of further paths, separated by commas,
// whitespace or newlines. List files may reference other list files;
// recursion depth is capped to keep pathological references bounded.
package pathspec

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// maxListDepth bounds list-file nesting. A list file that references itself
// burns a depth level per visit and degrades into a warning.
const maxListDepth = 8

var ErrNoValidPaths = errors.New("no valid paths provided")

// Result carries the resolved roots plus per-input warnings. Warnings are
// recoverable: an unresolvable entry is reported and skipped, never fatal on
// its own.
type Result struct {
	Roots    []string
	Warnings []string
}

type collector struct {
	roots    []string
	warnings []string
	seen     map[string]bool
}

// Collect resolves every input into zero or more absolute, deduplicated root
// directories, preserving first-appearance order. It fails only when no input
// yields a single valid root.
func Collect(inputs []string) (Result, error) {
	c := &collector{seen: make(map[string]bool)}

	for _, in := range inputs {
		c.resolve(in, 0)
	}

	res := Result{Roots: c.roots, Warnings: c.warnings}
	if len(c.roots) == 0 {
		return res, ErrNoValidPaths
	}
	return res, nil
}

func (c *collector) resolve(path string, depth int) {
	abs, err := filepath.Abs(path)
	if err != nil {
		c.warn("invalid path %q: %v", path, err)
		return
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		c.warn("path %q: %v", path, err)
		return
	}

	switch {
	case info.IsDir():
		if !c.seen[abs] {
			c.seen[abs] = true
			c.roots = append(c.roots, abs)
		}
	case info.Mode().IsRegular():
		if depth >= maxListDepth {
			c.warn("list file %q: nesting exceeds depth %d", path, maxListDepth)
			return
		}
		if c.seen[abs] {
			return // already expanded, cycle or duplicate reference
		}
		c.seen[abs] = true
		c.expandListFile(abs, depth)
	default:
		c.warn("path %q is neither a directory nor a list file", path)
	}
}

// expandListFile reads a list file and resolves each token independently.
func (c *collector) expandListFile(path string, depth int) {
	content, err := os.ReadFile(path)
	if err != nil {
		c.warn("read list file %q: %v", path, err)
		return
	}

	for _, token := range SplitTokens(string(content)) {
		c.resolve(token, depth+1)
	}
}

func (c *collector) warn(format string, args ...interface{}) {
	c.warnings = append(c.warnings, fmt.Sprintf(format, args...))
}

// SplitTokens splits list-file content on commas, whitespace and newlines,
// dropping empty tokens.
func SplitTokens(content string) []string {
	return strings.FieldsFunc(content, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}
