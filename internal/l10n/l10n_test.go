package l10n

import (
	"testing"

	"golang.org/x/text/language"
)

func TestEnglishIsIdentity(t *testing.T) {
	tr := English()
	for _, key := range []string{
		"Missing spaces before markers",
		`Missing \id marker`,
		"Character style not closed",
	} {
		if got := tr.Translate(key); got != key {
			t.Errorf("Translate(%q) = %q, want the key itself", key, got)
		}
	}
}

func TestCatalogLookup(t *testing.T) {
	tr := New(language.German, map[string]string{
		"Unknown marker": "Unbekannte Markierung",
	})
	if got := tr.Translate("Unknown marker"); got != "Unbekannte Markierung" {
		t.Errorf("Translate = %q, want the German message", got)
	}
	if got := tr.Translate("Not in the catalog"); got != "Not in the catalog" {
		t.Errorf("missing keys must fall back to themselves, got %q", got)
	}
}

func TestZeroValueTranslator(t *testing.T) {
	var tr Translator
	if got := tr.Translate("key"); got != "key" {
		t.Errorf("zero-value translator should be the identity, got %q", got)
	}
}
