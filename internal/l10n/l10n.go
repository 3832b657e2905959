// Package l10n provides the message translation hook for diagnostic output.
// Translations live in an x/text message catalog keyed by the English
// message; unknown keys fall back to themselves, so an incomplete catalog
// degrades to English rather than failing.
package l10n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Translator resolves a message key to the localized message.
type Translator struct {
	printer *message.Printer
}

// New builds a translator for the given language over a set of key/message
// pairs. Keys missing from the catalog translate to themselves.
func New(tag language.Tag, messages map[string]string) Translator {
	builder := catalog.NewBuilder(catalog.Fallback(tag))
	for key, msg := range messages {
		// Best effort: a malformed entry falls back to the key itself.
		_ = builder.SetString(tag, key, msg)
	}
	return Translator{printer: message.NewPrinter(tag, message.Catalog(builder))}
}

// English returns the identity translator: every key is already its own
// English message.
func English() Translator {
	return New(language.English, nil)
}

// Translate returns the localized message for key. Keys never contain
// formatting verbs, so the printer lookup degrades to the key itself when no
// translation is registered.
func (t Translator) Translate(key string) string {
	if t.printer == nil {
		return key
	}
	return t.printer.Sprintf(message.Key(key, key))
}
