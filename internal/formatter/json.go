// Package formatter provides output formatters for marker-check diagnostics.
// It supports the canonical text format plus JSON and TSV.
package formatter

import (
	"encoding/json"
	"fmt"

	"github.com/arenzana/markercheck/pkg/usfm/check"
)

// FormatJSON renders diagnostics as a pretty-printed JSON array for
// downstream tooling.
func FormatJSON(diagnostics []check.Diagnostic) (string, error) {
	if diagnostics == nil {
		diagnostics = []check.Diagnostic{}
	}
	data, err := json.MarshalIndent(diagnostics, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling diagnostics to JSON: %w", err)
	}
	return string(data) + "\n", nil
}
