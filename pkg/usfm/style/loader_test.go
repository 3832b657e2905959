package style

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, src string) (*Catalog, []LoadError) {
	t.Helper()
	return Load(strings.NewReader(src), LoaderOptions{})
}

func TestLoadBasicMarker(t *testing.T) {
	catalog, errs := load(t, `
\Marker p
\Name p - Paragraph
\Description Paragraph text
\TextType VerseText
\TextProperties paragraph publishable vernacular
\StyleType Paragraph
\OccursUnder c id
\FontSize 12
\FirstLineIndent .125
\Justification Both
`)
	require.Empty(t, errs)

	p := catalog.Lookup("p")
	require.NotNil(t, p)
	assert.Equal(t, StyleParagraph, p.StyleType)
	assert.Equal(t, TextVerse, p.TextType)
	assert.Equal(t, 12, p.FontSize)
	assert.Equal(t, 125, p.FirstLineIndent)
	assert.Equal(t, JustifyBoth, p.Justification)
	assert.Equal(t, []string{"c", "id"}, p.OccursUnder)
	assert.True(t, p.TextProperties.Has(PropParagraph|PropPublishable|PropVernacular))
}

func TestCharacterDefaultEndMarker(t *testing.T) {
	catalog, errs := load(t, `
\Marker bd
\Name bd - Bold
\TextType VerseText
\StyleType Character
`)
	require.Empty(t, errs)

	bd := catalog.Lookup("bd")
	require.NotNil(t, bd)
	if bd.EndMarker != "bd*" {
		t.Errorf("Expected end marker 'bd*', got '%s'", bd.EndMarker)
	}

	end := catalog.Lookup("bd*")
	require.NotNil(t, end, "end descriptor should be synthesized")
	assert.Equal(t, StyleEnd, end.StyleType)
}

func TestMilestoneEndSynthesis(t *testing.T) {
	catalog, errs := load(t, `
\Marker qt-s
\Name qt-s - Quotation start
\StyleType Milestone
\Endmarker qt-e
\Attributes ?id ?who
`)
	require.Empty(t, errs)

	start := catalog.Lookup("qt-s")
	require.NotNil(t, start)
	assert.Equal(t, "qt-e", start.EndMarker)
	assert.Equal(t, "id", start.DefaultAttribute)

	end := catalog.Lookup("qt-e")
	require.NotNil(t, end)
	assert.Equal(t, StyleMilestoneEnd, end.StyleType)
	assert.Equal(t, start.Name, end.Name)
	require.Len(t, end.Attributes, 1)
	assert.Equal(t, Attribute{Name: "id", Required: false}, end.Attributes[0])
}

func TestMilestoneWithoutEndMarkerIsError(t *testing.T) {
	_, errs := load(t, `
\Marker qt-s
\Name qt-s - Quotation start
\StyleType Milestone
`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Endmarker")
	assert.Equal(t, 2, errs[0].Line)
}

func TestColorDecoding(t *testing.T) {
	catalog, errs := load(t, `
\Marker a
\Name a
\Color 255
\Marker b
\Name b
\Color x00FF00
\Marker c
\Name c
\Color -
`)
	require.Empty(t, errs)
	// Decimal colors are BGR: 255 is pure red once swapped.
	assert.Equal(t, 0xFF0000, catalog.Lookup("a").Color)
	assert.Equal(t, 0x00FF00, catalog.Lookup("b").Color)
	assert.Equal(t, 0, catalog.Lookup("c").Color)
}

func TestColorNameUsesThemeHook(t *testing.T) {
	src := `
\Marker a
\Name a
\ColorName crimson
`
	catalog, errs := Load(strings.NewReader(src), LoaderOptions{
		ThemeColor: func(name string) int {
			if name == "crimson" {
				return 0xDC143C
			}
			return 0
		},
	})
	require.Empty(t, errs)
	assert.Equal(t, 0xDC143C, catalog.Lookup("a").Color)

	// without a hook every theme color resolves to zero
	catalog, errs = load(t, src)
	require.Empty(t, errs)
	assert.Equal(t, 0, catalog.Lookup("a").Color)
}

func TestBooleanFields(t *testing.T) {
	catalog, errs := load(t, `
\Marker a
\Name a
\Bold
\Italic
\Superscript
\Regular
\Marker b
\Name b
\Bold -
\Underline
`)
	require.Empty(t, errs)

	a := catalog.Lookup("a")
	assert.False(t, a.Bold, "Regular resets Bold")
	assert.False(t, a.Italic, "Regular resets Italic")
	assert.False(t, a.Superscript, "Regular resets Superscript")
	assert.True(t, a.Regular)

	b := catalog.Lookup("b")
	assert.False(t, b.Bold)
	assert.True(t, b.Underline)
}

func TestNumericFieldErrors(t *testing.T) {
	_, errs := load(t, `
\Marker a
\Name a
\FontSize twelve
\Rank -3
`)
	require.Len(t, errs, 2)
	assert.Equal(t, 4, errs[0].Line)
	assert.Equal(t, 5, errs[1].Line)
}

func TestAttributeSpec(t *testing.T) {
	catalog, errs := load(t, `
\Marker fig
\Name fig
\StyleType Character
\Attributes src size ?alt ?loc
\Marker w
\Name w
\StyleType Character
\Attributes ?lemma ?strong
`)
	require.Empty(t, errs)

	fig := catalog.Lookup("fig")
	require.Len(t, fig.Attributes, 4)
	assert.True(t, fig.Attributes[0].Required)
	assert.True(t, fig.Attributes[1].Required)
	assert.False(t, fig.Attributes[2].Required)
	assert.Equal(t, "", fig.DefaultAttribute, "two required attributes leave no default")

	w := catalog.Lookup("w")
	assert.Equal(t, "lemma", w.DefaultAttribute)
}

func TestAttributeSpecErrors(t *testing.T) {
	_, errs := load(t, `
\Marker a
\Name a
\StyleType Character
\Attributes ?opt req
`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "attribute")
}

func TestDuplicateAndUnknownFields(t *testing.T) {
	_, errs := load(t, `
\Marker a
\Name a
\Name again
\Wibble 3
`)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Message, "duplicate")
	assert.Contains(t, errs[1].Message, "unknown field")
}

func TestMissingNameReported(t *testing.T) {
	_, errs := load(t, `
\Marker a
\StyleType Paragraph
`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Name")
}

func TestNoMarkerInFile(t *testing.T) {
	_, errs := load(t, "# just a comment\n")
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "Marker")
}

func TestMarkerRemovalLine(t *testing.T) {
	catalog, errs := load(t, `
\Marker w
\Name w
\StyleType Character
\Marker p
\Name p
\StyleType Paragraph
\Marker w -
`)
	require.Empty(t, errs)
	assert.Nil(t, catalog.Lookup("w"))
	assert.Nil(t, catalog.Lookup("w*"))
	require.NotNil(t, catalog.Lookup("p"))
}

func TestTextTypeInference(t *testing.T) {
	catalog, errs := load(t, `
\Marker v
\Name v
\StyleType Character
\TextType VerseNumber
\Marker c
\Name c
\StyleType Paragraph
\TextType ChapterNumber
\Marker add
\Name add
\StyleType Character
\TextType Other
`)
	require.Empty(t, errs)
	assert.True(t, catalog.Lookup("v").TextProperties.Has(PropVerse))
	assert.True(t, catalog.Lookup("c").TextProperties.Has(PropChapter))
	// other + character and no blocking property implies publishable
	assert.True(t, catalog.Lookup("add").TextProperties.Has(PropPublishable))
}

func TestNonpublishableSuppressesPublishable(t *testing.T) {
	catalog, errs := load(t, `
\Marker rem
\Name rem
\StyleType Paragraph
\TextType Other
\TextProperties paragraph nonpublishable publishable
`)
	require.Empty(t, errs)
	rem := catalog.Lookup("rem")
	assert.True(t, rem.TextProperties.Has(PropNonpublishable))
	assert.False(t, rem.TextProperties.Has(PropPublishable))
}

func TestCommentAndCompatibilityPrefix(t *testing.T) {
	catalog, errs := load(t, `
#!\Marker w
#!\Name w # trailing comment
#!\StyleType Character
`)
	require.Empty(t, errs)
	require.NotNil(t, catalog.Lookup("w"))
}

func TestDuplicateMarkerDefinition(t *testing.T) {
	_, errs := load(t, `
\Marker p
\Name p
\Marker p
\Name p again
`)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Message, "duplicate definition")
}

func TestDefaultCatalog(t *testing.T) {
	catalog, errs := Load(strings.NewReader(DefaultStylesheet()), LoaderOptions{})
	if len(errs) != 0 {
		t.Fatalf("embedded stylesheet should load cleanly, got %v", errs)
	}
	for _, marker := range []string{"id", "c", "v", "p", "w", "fig", "rb", "f", "x", "qt-s", "qt-e", "esb", "tr", "tc1"} {
		if catalog.Lookup(marker) == nil {
			t.Errorf("expected marker '%s' in default catalog", marker)
		}
	}
	if Default().Len() == 0 {
		t.Error("Default() should return a populated catalog")
	}
}
