package safety

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrInvalidPath    = errors.New("invalid path")
	ErrProtectedPath  = errors.New("protected path")
	ErrOutsideAllowed = errors.New("outside scan roots")
)

// Validator enforces the safety contract for every mutating operation.
// Allowed roots are the resolved scan roots of the current run, so a delete
// can never touch a path the scan did not cover.
type Validator struct {
	AllowedRoots   []string
	ProtectedPaths []string
}

// NewValidator creates a validator scoped to the run's roots plus the
// baseline protected system paths.
func NewValidator(roots []string, extraProtected []string) *Validator {
	return &Validator{
		AllowedRoots:   normalizeRoots(roots),
		ProtectedPaths: defaultProtected(extraProtected),
	}
}

// ValidateTarget is the single authorization check before a path is removed
// or trashed. Returns a typed error on violation.
func (v *Validator) ValidateTarget(path string) error {
	p, err := NormalizePath(path)
	if err != nil {
		return err
	}

	if IsProtectedPath(p, v.ProtectedPaths) {
		return ErrProtectedPath
	}

	if !withinRoots(p, v.AllowedRoots) {
		return ErrOutsideAllowed
	}

	return nil
}

// NormalizePath converts path to absolute, cleaned form.
func NormalizePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", ErrInvalidPath
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", ErrInvalidPath
	}
	return filepath.Clean(abs), nil
}

// IsProtectedPath checks path against the protected system paths.
func IsProtectedPath(path string, protected []string) bool {
	p := filepath.Clean(path)

	// Hard block: "/" exact
	if p == string(os.PathSeparator) {
		return true
	}

	for _, prot := range protected {
		if hasPathPrefix(p, prot) {
			return true
		}
	}
	return false
}

func withinRoots(path string, roots []string) bool {
	for _, r := range roots {
		if hasPathPrefix(path, r) {
			return true
		}
	}
	return false
}

func hasPathPrefix(path, prefix string) bool {
	path = filepath.Clean(path)
	prefix = filepath.Clean(prefix)

	if prefix == string(os.PathSeparator) {
		return path == prefix
	}
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+string(os.PathSeparator))
}

func normalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if strings.TrimSpace(r) == "" {
			continue
		}
		abs, err := filepath.Abs(r)
		if err != nil {
			continue
		}
		out = append(out, filepath.Clean(abs))
	}
	return out
}

func defaultProtected(extra []string) []string {
	base := []string{
		"/etc",
		"/bin",
		"/usr",
		"/boot",
		"/lib",
		"/lib64",
		"/sbin",
	}
	return append(base, extra...)
}
