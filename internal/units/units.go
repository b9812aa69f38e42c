// Package units parses human-entered size strings into byte counts.
package units

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidSize = errors.New("invalid size")
	ErrOverflow    = errors.New("size overflow")
)

// ParseSize parses a size string with an optional unit suffix.
// Supported suffixes: B (default), K/KB, M/MB, G/GB, T/TB; case-insensitive,
// all 1024-based. An empty string parses as zero.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	numPart, unitPart := s[:i], s[i:]

	num, err := strconv.ParseUint(numPart, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad number %q", ErrInvalidSize, numPart)
	}

	var mult uint64
	switch strings.ToUpper(strings.TrimSpace(unitPart)) {
	case "", "B":
		mult = 1
	case "K", "KB":
		mult = 1 << 10
	case "M", "MB":
		mult = 1 << 20
	case "G", "GB":
		mult = 1 << 30
	case "T", "TB":
		mult = 1 << 40
	default:
		return 0, fmt.Errorf("%w: bad unit %q", ErrInvalidSize, unitPart)
	}

	if mult > 1 && num > math.MaxUint64/mult {
		return 0, ErrOverflow
	}
	return num * mult, nil
}
