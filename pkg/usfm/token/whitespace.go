package token

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	zwsp          = '\u200B'
	ideographicSp = '\u3000'
)

// isNonSemanticSpace reports whether r collapses during normalization.
// U+3000 and the zero-width joiners are content; ZWSP is not.
func isNonSemanticSpace(r rune) bool {
	return (unicode.IsSpace(r) && r != ideographicSp) || r == zwsp
}

// NormalizeWhitespace collapses runs of non-semantic whitespace to a single
// space. A ZWSP immediately followed by whitespace is dropped entirely.
// The function is idempotent.
func NormalizeWhitespace(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))
	wasSpace := false
	for i, r := range text {
		if r == zwsp {
			next, size := utf8.DecodeRuneInString(text[i+utf8.RuneLen(zwsp):])
			if size > 0 && isNonSemanticSpace(next) {
				continue
			}
		}
		if isNonSemanticSpace(r) {
			if !wasSpace {
				sb.WriteByte(' ')
			}
			wasSpace = true
			continue
		}
		wasSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}
