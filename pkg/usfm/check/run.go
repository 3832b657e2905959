package check

import (
	"go.uber.org/zap"

	"github.com/arenzana/markercheck/pkg/usfm/parser"
	"github.com/arenzana/markercheck/pkg/usfm/style"
	"github.com/arenzana/markercheck/pkg/usfm/token"
)

// RunOptions configures a one-call validation.
type RunOptions struct {
	// Book is the code of the book being validated.
	Book string

	// Usfm2 disables USFM 3 features.
	Usfm2 bool

	// BookNumber is the book-code oracle; nil accepts any non-empty code.
	BookNumber func(code string) int

	// Translate localizes diagnostic messages; nil leaves them in English.
	Translate Translator

	// Log receives debug telemetry. May be nil.
	Log *zap.SugaredLogger
}

// Run validates one book of USFM source against the catalog and returns the
// diagnostics in position order.
func Run(catalog *style.Catalog, src string, opts RunOptions) []Diagnostic {
	// Unknown markers are synthesized into the catalog on lookup, so work on
	// a private copy and leave the caller's catalog untouched and shareable.
	catalog = catalog.Merge(nil)
	tokens := token.NewTokenizer(catalog, token.Options{}).Tokenize(src)
	checker := New(catalog, tokens, src, Options{
		Book:      opts.Book,
		Usfm2:     opts.Usfm2,
		Translate: opts.Translate,
		Log:       opts.Log,
	})
	p := parser.New(catalog, tokens, checker, parser.Options{
		InitialBook: opts.Book,
		BookNumber:  opts.BookNumber,
	})
	p.ProcessAll()
	p.CloseAll()
	checker.Finish()
	if log := opts.Log; log != nil {
		log.Debugw("book checked", "book", opts.Book,
			"tokens", len(tokens), "diagnostics", len(checker.Diagnostics()))
	}
	return checker.Diagnostics()
}
