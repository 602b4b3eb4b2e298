// Package sanitize normalizes raw untrusted strings before validation or storage.
// It is a defense-in-depth layer, not a substitute for parameterized queries.
package sanitize

import (
	"strings"
	"unicode"
)

// Email lowercases, trims, and restricts the input to the characters that can
// appear in an address we are willing to store.
func Email(raw string) string {
	cleaned := strings.ToLower(strings.TrimSpace(stripControl(raw)))
	return keepRunes(cleaned, func(r rune) bool {
		switch {
		case r >= 'a' && r <= 'z':
			return true
		case r >= '0' && r <= '9':
			return true
		case r == '+' || r == '-' || r == '.' || r == '_' || r == '@':
			return true
		}
		return false
	})
}

// Name keeps letters, digits, spaces, hyphens, and apostrophes and collapses
// runs of whitespace. Letters are unicode-aware so accented names survive.
func Name(raw string) string {
	cleaned := keepRunes(stripControl(raw), func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '\''
	})
	return collapseSpaces(cleaned)
}

// Address allows everything Name allows plus the punctuation street lines need.
func Address(raw string) string {
	cleaned := keepRunes(stripControl(raw), func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r) ||
			r == ' ' || r == '-' || r == '\'' || r == '.' || r == ',' || r == '#'
	})
	return collapseSpaces(cleaned)
}

// PostalCode uppercases and keeps alphanumerics and spaces.
func PostalCode(raw string) string {
	cleaned := keepRunes(strings.ToUpper(stripControl(raw)), func(r rune) bool {
		return (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == ' '
	})
	return collapseSpaces(cleaned)
}

// Phone keeps digits and common phone punctuation.
func Phone(raw string) string {
	cleaned := keepRunes(stripControl(raw), func(r rune) bool {
		switch {
		case r >= '0' && r <= '9':
			return true
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+' || r == '.':
			return true
		}
		return false
	})
	return strings.TrimSpace(cleaned)
}

// Token strips control characters only; token alphabets are validated downstream
// by hash comparison, so no further restriction applies here.
func Token(raw string) string {
	return stripControl(raw)
}

// Generic strips control characters and trims surrounding whitespace.
func Generic(raw string) string {
	return strings.TrimSpace(stripControl(raw))
}

// stripControl removes ASCII control characters (0-31 and DEL). Every sanitizer
// applies this first.
func stripControl(raw string) string {
	return keepRunes(raw, func(r rune) bool {
		return r >= 32 && r != 127
	})
}

func keepRunes(raw string, keep func(rune) bool) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if keep(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func collapseSpaces(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}
