// Package cliutil holds the small parsing helpers the CLI surface needs
// beyond what pflag does natively — chunksize suffix parsing grounded on
// the original's utils.c parse_numeric.
package cliutil

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSize parses a chunksize argument of the form accepted by -s:
// an integer optionally followed by a K/M/G suffix (case-insensitive),
// mirroring parse_numeric's strtoll-plus-multiplier-char behaviour.
// Overflow during the shift-by-multiplier step is reported as an error,
// matching parse_numeric's own overflow check.
func ParseSize(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("cliutil: empty size")
	}

	suffix := s[len(s)-1]
	var shift uint
	numPart := s
	switch suffix {
	case 'k', 'K':
		shift = 10
		numPart = s[:len(s)-1]
	case 'm', 'M':
		shift = 20
		numPart = s[:len(s)-1]
	case 'g', 'G':
		shift = 30
		numPart = s[:len(s)-1]
	}

	val, err := strconv.ParseUint(numPart, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("cliutil: invalid size %q: %w", s, err)
	}

	if shift == 0 {
		return val, nil
	}
	shifted := val << shift
	if shifted>>shift != val {
		return 0, fmt.Errorf("cliutil: size %q overflows 64 bits", s)
	}
	return shifted, nil
}
