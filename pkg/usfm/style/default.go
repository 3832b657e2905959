package style

import (
	_ "embed"
	"strings"
	"sync"
)

//go:embed usfm.sty
var defaultStylesheet string

var defaultOnce struct {
	sync.Once
	catalog *Catalog
}

// Default returns the catalog built from the embedded standard stylesheet.
// The catalog is built once and shared; callers must treat it as read-only.
func Default() *Catalog {
	defaultOnce.Do(func() {
		defaultOnce.catalog, _ = Load(strings.NewReader(defaultStylesheet), LoaderOptions{})
	})
	return defaultOnce.catalog
}

// DefaultStylesheet returns the embedded standard stylesheet text.
func DefaultStylesheet() string { return defaultStylesheet }
