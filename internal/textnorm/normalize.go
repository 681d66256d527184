// Package textnorm normalizes text for search and comparison: lowercase,
// punctuation stripped, hyphens treated as word separators, whitespace
// collapsed to single spaces.
package textnorm

import (
	"strings"
	"unicode"
)

// Normalize converts text to its canonical search form. Empty or
// whitespace-only input yields an empty string.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		switch {
		case r == '-':
			// Hyphens separate words: "multi-factor" -> "multi factor".
			b.WriteRune(' ')
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			// Dropped entirely.
		default:
			b.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Tokenize normalizes text and splits it into tokens.
func Tokenize(text string) []string {
	normalized := Normalize(text)
	if normalized == "" {
		return nil
	}
	return strings.Split(normalized, " ")
}
