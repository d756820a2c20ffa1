package util

import (
	"strconv"
	"strings"
)

// Binary units, largest first. "100MB" is 100 << 20.
var sizeUnits = []struct {
	suffix string
	shift  uint
}{
	{"GB", 30},
	{"MB", 20},
	{"KB", 10},
	{"B", 0},
}

// ParseSize reads "100MB", "512kb" or a bare byte count. Anything that
// does not parse to a non-negative number yields defaultBytes.
func ParseSize(s string, defaultBytes int64) int64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return defaultBytes
	}
	var shift uint
	for _, u := range sizeUnits {
		if num, ok := strings.CutSuffix(s, u.suffix); ok {
			s, shift = num, u.shift
			break
		}
	}
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return defaultBytes
	}
	return n << shift
}

// FormatSize renders n in the largest unit that divides it exactly, so the
// result parses back to n.
func FormatSize(n int64) string {
	for _, u := range sizeUnits {
		if unit := int64(1) << u.shift; n >= unit && n%unit == 0 {
			return strconv.FormatInt(n/unit, 10) + u.suffix
		}
	}
	return strconv.FormatInt(n, 10) + "B"
}

// MaskSecret keeps visiblePrefix characters of s for logs. Strings no
// longer than that are masked completely.
func MaskSecret(s string, visiblePrefix int) string {
	if len(s) <= visiblePrefix {
		return "***"
	}
	return s[:visiblePrefix] + "***"
}
