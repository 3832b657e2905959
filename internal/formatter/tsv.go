package formatter

import (
	"fmt"
	"strings"

	"github.com/arenzana/markercheck/pkg/usfm/check"
)

// FormatTSV renders diagnostics as tab-separated values with a header row,
// suitable for spreadsheets.
func FormatTSV(diagnostics []check.Diagnostic) (string, error) {
	var result strings.Builder
	result.WriteString("book\tchapter\tverse\toffset\tseverity\tvalue\tmessage\n")
	for _, d := range diagnostics {
		verse := fmt.Sprintf("%d", d.Verse)
		if d.VerseEnd > d.Verse {
			verse = fmt.Sprintf("%d-%d", d.Verse, d.VerseEnd)
		}
		result.WriteString(fmt.Sprintf("%s\t%d\t%s\t%d\t%s\t%s\t%s\n",
			d.Book, d.Chapter, verse, d.Offset, d.Severity,
			escapeTSV(d.Value), escapeTSV(d.Message)))
	}
	return result.String(), nil
}

// escapeTSV keeps values single-line and tab-free.
func escapeTSV(s string) string {
	s = strings.ReplaceAll(s, "\t", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
