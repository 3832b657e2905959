package formatter

import (
	"strings"

	"github.com/arenzana/markercheck/pkg/usfm/check"
)

// FormatText renders diagnostics in the canonical single-line form, one
// diagnostic per line:
//
//	MarkerCheck: GEN:1:2 Offset: 5 Marker: \bd Message: #Character style not closed: \bd
//
// This is the default output format of the tool.
func FormatText(diagnostics []check.Diagnostic) (string, error) {
	var result strings.Builder
	for _, d := range diagnostics {
		result.WriteString(d.String())
		result.WriteString("\n")
	}
	return result.String(), nil
}
