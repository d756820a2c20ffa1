package util

import (
	"path"
	"strings"
	"unicode"
)

// SanitizeFilename reduces a client-supplied upload name to a safe base
// name for storage keys. Directory parts, control characters and leading
// dots are dropped; any rune that is not a letter, digit or one of ".-_"
// becomes '_'. An empty result yields "file".
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), `\`, "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case unicode.IsControl(r):
		case r == '.' || r == '-' || r == '_', unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if cleaned := strings.TrimLeft(b.String(), "."); cleaned != "" {
		return cleaned
	}
	return "file"
}
