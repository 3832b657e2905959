package check

import (
	"strings"

	"github.com/arenzana/markercheck/pkg/usfm/style"
)

// scanMissingSpaces walks the raw source looking for block-level markers
// glued to the preceding text. The scan runs on the unnormalized text
// because tokenization repairs the very spacing this check reports. Only
// paragraph-style markers demand a separator: notes and character spans
// legitimately run straight off the preceding word, and so do \xx* and \*.
func (c *Checker) scanMissingSpaces(src string) {
	chapter, verse := 1, 0
	verseStart := 0
	i := 0
	for i < len(src) {
		if src[i] != '\\' {
			i++
			continue
		}
		pos := i
		i++
		start := i
		for i < len(src) {
			b := src[i]
			if b == '\\' || b == '|' || isRawSpace(b) {
				break
			}
			i++
			if b == '*' {
				break
			}
		}
		marker := src[start:i]

		if marker != "" && !strings.HasSuffix(marker, "*") &&
			pos > 0 && !isRawSpace(src[pos-1]) && c.blockMarker(marker) {
			c.add(Diagnostic{
				Book: c.opts.Book, Chapter: chapter, Verse: verse,
				Offset: pos - verseStart, IsMarker: true, Value: `\` + marker,
				Message: c.msg(MsgMissingSpaces), Severity: SeverityError,
			})
		}

		switch marker {
		case "c":
			if n, ok := rawNumber(src, i); ok {
				chapter, verse = n, 0
				verseStart = pos
			}
		case "v":
			if n, ok := rawNumber(src, i); ok {
				verse = n
				verseStart = pos
			}
		}
	}
}

// blockMarker reports whether marker opens a new block and therefore needs
// whitespace before it. Lookup is used instead of Get so the raw scan does
// not seed the catalog with unknown descriptors.
func (c *Checker) blockMarker(marker string) bool {
	desc := c.catalog.Lookup(strings.TrimPrefix(marker, "+"))
	return desc != nil && desc.StyleType == style.StyleParagraph
}

func isRawSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}

func rawNumber(src string, i int) (int, bool) {
	for i < len(src) && isRawSpace(src[i]) {
		i++
	}
	n, j := digits(src, i)
	return n, j > i
}
