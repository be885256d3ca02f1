package chat

import (
	"strings"
	"unicode"
)

// MaxInputLength is the longest message, in runes, that reaches the model.
const MaxInputLength = 500

// allowedPunct is the punctuation kept besides word characters and
// whitespace. The hyphen is not in it.
const allowedPunct = ",.?!@$%&*()+=:;'\"<>/\\"

// Sanitize drops every rune outside the allow-list, truncates to
// MaxInputLength runes and trims surrounding whitespace. It is total and
// idempotent.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	n := 0
	for _, r := range s {
		if n == MaxInputLength {
			break
		}
		if !allowed(r) {
			continue
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}

func allowed(r rune) bool {
	switch {
	case unicode.IsLetter(r), unicode.IsNumber(r), unicode.IsSpace(r):
		return true
	case r == '_':
		return true
	}
	return strings.ContainsRune(allowedPunct, r)
}
