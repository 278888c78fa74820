// Package normalize provides utilities for normalizing text before it is
// indexed or matched.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text returns s in Unicode NFC form so that visually identical titles
// ("é" precomposed vs. "e" + combining accent) index to the same terms.
func Text(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}

// Query normalizes a user search query: NFC, control characters dropped,
// runs of whitespace collapsed to a single space, ends trimmed.
func Query(s string) string {
	s = Text(s)

	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
			// dropped
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}
