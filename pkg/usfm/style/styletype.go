package style

// StyleType identifies the parse behavior of a marker. It is a string-backed
// value rather than an integer enum so that unrecognized values read from a
// stylesheet round-trip safely.
type StyleType string

// Known style types.
const (
	StyleUnknown      StyleType = "unknown"
	StyleCharacter    StyleType = "character"
	StyleParagraph    StyleType = "paragraph"
	StyleNote         StyleType = "note"
	StyleMilestone    StyleType = "milestone"
	StyleMilestoneEnd StyleType = "milestoneEnd"
	StyleEnd          StyleType = "end"
)

// TextType classifies the kind of text a marker introduces.
type TextType string

// Known text types.
const (
	TextUnspecified     TextType = ""
	TextTitle           TextType = "title"
	TextSection         TextType = "section"
	TextVerse           TextType = "verseText"
	TextNote            TextType = "noteText"
	TextOther           TextType = "other"
	TextBackTranslation TextType = "backTranslation"
	TextTranslationNote TextType = "translationNote"
)

// Justification is the paragraph justification declared by a stylesheet.
type Justification string

// Known justifications.
const (
	JustifyLeft   Justification = "left"
	JustifyCenter Justification = "center"
	JustifyRight  Justification = "right"
	JustifyBoth   Justification = "both"
)

// TextProperty is a bit set describing marker text behavior.
type TextProperty uint32

// Text property bits.
const (
	PropVerse TextProperty = 1 << iota
	PropChapter
	PropParagraph
	PropPublishable
	PropVernacular
	PropPoetic
	PropLevel1
	PropLevel2
	PropLevel3
	PropLevel4
	PropLevel5
	PropCrossReference
	PropNonpublishable
	PropNonvernacular
	PropBook
	PropNote
)

// Has reports whether all bits in p are set.
func (t TextProperty) Has(p TextProperty) bool { return t&p == p }

// With returns t with the bits in p set.
func (t TextProperty) With(p TextProperty) TextProperty { return t | p }

// Without returns t with the bits in p cleared.
func (t TextProperty) Without(p TextProperty) TextProperty { return t &^ p }

// textPropertyNames maps stylesheet TextProperties tokens to bits.
var textPropertyNames = map[string]TextProperty{
	"verse":          PropVerse,
	"chapter":        PropChapter,
	"paragraph":      PropParagraph,
	"publishable":    PropPublishable,
	"vernacular":     PropVernacular,
	"poetic":         PropPoetic,
	"level_1":        PropLevel1,
	"level_2":        PropLevel2,
	"level_3":        PropLevel3,
	"level_4":        PropLevel4,
	"level_5":        PropLevel5,
	"level1":         PropLevel1,
	"level2":         PropLevel2,
	"level3":         PropLevel3,
	"level4":         PropLevel4,
	"level5":         PropLevel5,
	"crossreference": PropCrossReference,
	"nonpublishable": PropNonpublishable,
	"nonvernacular":  PropNonvernacular,
	"book":           PropBook,
	"note":           PropNote,
}
