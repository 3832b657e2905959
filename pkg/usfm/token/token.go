// Package token defines the typed token stream produced from USFM text.
//
// The tokenizer turns raw USFM into a flat sequence of tokens that the parser
// consumes in order. Attribute syntax (the portion after "|" inside a
// character or milestone span) is resolved during tokenization and attached
// to the opening token.
package token

import (
	"strconv"
	"strings"
)

// Kind identifies the token type.
type Kind int

// Token kinds.
const (
	Book Kind = iota
	Chapter
	Verse
	Text
	Paragraph
	Character
	Note
	End
	Milestone
	MilestoneEnd
	Unknown
)

var kindNames = [...]string{
	Book:         "Book",
	Chapter:      "Chapter",
	Verse:        "Verse",
	Text:         "Text",
	Paragraph:    "Paragraph",
	Character:    "Character",
	Note:         "Note",
	End:          "End",
	Milestone:    "Milestone",
	MilestoneEnd: "MilestoneEnd",
	Unknown:      "Unknown",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Attr is a single parsed attribute. Offset is the byte offset of the value
// within the attribute text it was parsed from.
type Attr struct {
	Name   string
	Value  string
	Offset int
}

// Token is one element of the tokenized stream. Marker is present for every
// kind except Text; Text carries the text content instead. EndMarker is set
// when the token opens a span. Data carries small payloads in order: the book
// code for Book, the chapter number for Chapter, the verse number for Verse,
// the caller for Note.
//
// AttrText is the raw attribute portion exactly as it appeared after "|";
// it is kept so the stream can be re-joined losslessly. For character spans
// it lives on the Text token that carried the "|", for milestones on the
// milestone token itself.
type Token struct {
	Kind      Kind
	Marker    string
	Text      string
	EndMarker string
	Data      []string
	Attrs     []Attr
	AttrText  string
}

// Attribute returns the named attribute value and whether it was present.
func (t *Token) Attribute(name string) (string, bool) {
	for _, a := range t.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Length returns the display length of the token in bytes, matching the
// ToUSFM rendering. addSpaces accounts for the separator spaces that
// normalize-mode tokenization consumed.
func (t *Token) Length(addSpaces bool) int {
	space := 0
	if addSpaces {
		space = 1
	}
	switch t.Kind {
	case Text:
		n := len(t.Text)
		if t.AttrText != "" {
			n += 1 + len(t.AttrText)
		}
		return n
	case End:
		return 1 + len(t.Marker)
	case Milestone, MilestoneEnd:
		n := 1 + len(t.Marker) + 2
		if t.AttrText != "" {
			n += 1 + len(t.AttrText)
		}
		return n
	case Book, Chapter, Verse, Note:
		n := 1 + len(t.Marker) + space
		for _, d := range t.Data {
			if d != "" {
				n += len(d) + space
			}
		}
		return n
	default:
		return 1 + len(t.Marker) + space
	}
}

// usfm appends the canonical USFM rendering of the token.
func (t *Token) usfm(sb *strings.Builder) {
	switch t.Kind {
	case Text:
		sb.WriteString(t.Text)
		if t.AttrText != "" {
			sb.WriteByte('|')
			sb.WriteString(t.AttrText)
		}
	case End:
		sb.WriteByte('\\')
		sb.WriteString(t.Marker)
	case Milestone, MilestoneEnd:
		sb.WriteByte('\\')
		sb.WriteString(t.Marker)
		if t.AttrText != "" {
			sb.WriteByte('|')
			sb.WriteString(t.AttrText)
		}
		sb.WriteString("\\*")
	case Book, Chapter, Verse, Note:
		sb.WriteByte('\\')
		sb.WriteString(t.Marker)
		sb.WriteByte(' ')
		for _, d := range t.Data {
			if d != "" {
				sb.WriteString(d)
				sb.WriteByte(' ')
			}
		}
	default:
		sb.WriteByte('\\')
		sb.WriteString(t.Marker)
		sb.WriteByte(' ')
	}
}

// ToUSFM joins a token sequence back into USFM text. In normalize mode the
// result tokenizes to an equal token sequence.
func ToUSFM(tokens []Token) string {
	var sb strings.Builder
	for i := range tokens {
		tokens[i].usfm(&sb)
	}
	return sb.String()
}
