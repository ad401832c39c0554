package validation

import (
	"strings"
	"unicode"
)

// SanitizeText trims surrounding whitespace and drops non-printable
// characters from user-supplied free text (descriptions, category names).
func SanitizeText(s string) string {
	return strings.TrimSpace(StripUnprintable(s))
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// IsLikelyEmail applies the same shallow shape check the registration flow
// has always used; real address verification belongs to the identity provider.
func IsLikelyEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}
