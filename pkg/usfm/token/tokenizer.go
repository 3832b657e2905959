package token

import (
	"strings"
	"unicode/utf8"

	"github.com/arenzana/markercheck/pkg/usfm/style"
)

// Options configures tokenization.
type Options struct {
	// PreserveWhitespace keeps all source whitespace in Text tokens instead
	// of applying the normalization rules.
	PreserveWhitespace bool
}

// Tokenizer converts USFM text into a token sequence using a marker catalog
// for classification.
type Tokenizer struct {
	catalog  *style.Catalog
	preserve bool
}

// NewTokenizer creates a tokenizer over the given catalog.
func NewTokenizer(catalog *style.Catalog, options Options) *Tokenizer {
	return &Tokenizer{catalog: catalog, preserve: options.PreserveWhitespace}
}

// Tokenize converts usfm into tokens.
func (t *Tokenizer) Tokenize(usfm string) []Token {
	var tokens []Token
	index := 0
	for index < len(usfm) {
		if usfm[index] != '\\' {
			index = t.scanText(usfm, index, &tokens)
			continue
		}
		index = t.scanMarker(usfm, index, &tokens)
	}
	if !t.preserve {
		forceTrailingSpaces(tokens)
	}
	return tokens
}

// scanText consumes the text run starting at index and appends a Text token,
// resolving attribute syntax against the open span.
func (t *Tokenizer) scanText(usfm string, index int, tokens *[]Token) int {
	next := strings.IndexByte(usfm[index:], '\\')
	var text string
	if next < 0 {
		text = usfm[index:]
		index = len(usfm)
	} else {
		text = usfm[index : index+next]
		index += next
	}
	if !t.preserve {
		text = NormalizeWhitespace(text)
	}
	text, attrText := t.handleAttributes(*tokens, text)
	if text != "" || attrText != "" {
		*tokens = append(*tokens, Token{Kind: Text, Text: text, AttrText: attrText})
	}
	return index
}

// scanMarker consumes the marker starting at the backslash at index and
// appends the token(s) it produces.
func (t *Tokenizer) scanMarker(usfm string, index int, tokens *[]Token) int {
	backslash := index
	index++ // past the backslash
	start := index
	for index < len(usfm) {
		r, w := utf8.DecodeRuneInString(usfm[index:])
		if r == '\\' || r == '|' || isNonSemanticSpace(r) {
			break
		}
		index += w
		if r == '*' {
			break
		}
	}
	marker := usfm[start:index]

	if !t.preserve && !strings.HasSuffix(marker, "*") {
		index = skipSpace(usfm, index)
	}

	// A bare * closes the most recent milestone; any space-only text tokens
	// between the milestone and the terminator are dropped.
	if marker == "*" {
		j := len(*tokens) - 1
		for j >= 0 && (*tokens)[j].Kind == Text && (*tokens)[j].AttrText == "" &&
			strings.TrimSpace((*tokens)[j].Text) == "" {
			j--
		}
		if j >= 0 && ((*tokens)[j].Kind == Milestone || (*tokens)[j].Kind == MilestoneEnd) {
			*tokens = (*tokens)[:j+1]
			return index
		}
	}

	bare := strings.TrimPrefix(marker, "+")
	desc := t.catalog.Get(bare)

	// A + prefix marks a nested character style; for any other style type
	// the prefix is dropped and the tagged descriptor applies.
	if strings.HasPrefix(marker, "+") &&
		desc.StyleType != style.StyleCharacter && desc.StyleType != style.StyleEnd {
		marker = bare
	}

	switch desc.StyleType {
	case style.StyleCharacter:
		if desc.TextProperties.Has(style.PropVerse) {
			number := t.nextWord(usfm, &index)
			*tokens = append(*tokens, Token{Kind: Verse, Marker: marker, Data: []string{number}})
		} else {
			*tokens = append(*tokens, Token{Kind: Character, Marker: marker, EndMarker: marker + "*"})
		}

	case style.StyleParagraph:
		switch {
		case desc.TextProperties.Has(style.PropChapter):
			number := t.nextWord(usfm, &index)
			*tokens = append(*tokens, Token{Kind: Chapter, Marker: marker, Data: []string{number}})
		case desc.TextProperties.Has(style.PropBook):
			code := t.nextWord(usfm, &index)
			*tokens = append(*tokens, Token{Kind: Book, Marker: marker, Data: []string{code}})
		default:
			*tokens = append(*tokens, Token{Kind: Paragraph, Marker: marker})
		}

	case style.StyleNote:
		caller := t.nextWord(usfm, &index)
		*tokens = append(*tokens, Token{Kind: Note, Marker: marker, Data: []string{caller}, EndMarker: marker + "*"})

	case style.StyleEnd:
		*tokens = append(*tokens, t.endToken(*tokens, marker))

	case style.StyleMilestone, style.StyleMilestoneEnd:
		if !milestoneEnded(usfm, index) {
			// A milestone without its \* terminator stays literal text so a
			// partially typed milestone remains editable.
			return t.literalText(usfm, backslash, index, tokens)
		}
		kind := Milestone
		if desc.StyleType == style.StyleMilestoneEnd {
			kind = MilestoneEnd
		}
		*tokens = append(*tokens, Token{Kind: kind, Marker: marker, EndMarker: desc.EndMarker})

	default: // unknown
		switch {
		case strings.HasSuffix(marker, "*"):
			*tokens = append(*tokens, t.endToken(*tokens, marker))
		case bare == "esb" || bare == "esbe":
			*tokens = append(*tokens, Token{Kind: Paragraph, Marker: bare})
		default:
			*tokens = append(*tokens, Token{Kind: Unknown, Marker: marker, EndMarker: marker + "*"})
		}
	}
	return index
}

// endToken builds an End token, adopting the attribute set of the most
// recent attribute-carrying token when its end marker matches.
func (t *Tokenizer) endToken(tokens []Token, marker string) Token {
	end := Token{Kind: End, Marker: marker}
	for j := len(tokens) - 1; j >= 0; j-- {
		if len(tokens[j].Attrs) == 0 {
			continue
		}
		if tokens[j].EndMarker == marker {
			end.Attrs = tokens[j].Attrs
		}
		break
	}
	return end
}

// literalText emits the slice from the marker's backslash up to the next
// backslash as a plain Text token.
func (t *Tokenizer) literalText(usfm string, backslash, index int, tokens *[]Token) int {
	next := strings.IndexByte(usfm[index:], '\\')
	var text string
	if next < 0 {
		text = usfm[backslash:]
		index = len(usfm)
	} else {
		text = usfm[backslash : index+next]
		index += next
	}
	if !t.preserve {
		text = NormalizeWhitespace(text)
	}
	*tokens = append(*tokens, Token{Kind: Text, Text: text})
	return index
}

// nextWord reads the whitespace-delimited word at index, consuming one
// trailing space in normalize mode.
func (t *Tokenizer) nextWord(usfm string, index *int) string {
	i := skipSpace(usfm, *index)
	start := i
	for i < len(usfm) {
		r, w := utf8.DecodeRuneInString(usfm[i:])
		if r == '\\' || isNonSemanticSpace(r) {
			break
		}
		i += w
	}
	word := usfm[start:i]
	if !t.preserve && i < len(usfm) && usfm[i] == ' ' {
		i++
	}
	*index = i
	return word
}

func skipSpace(usfm string, index int) int {
	for index < len(usfm) {
		r, w := utf8.DecodeRuneInString(usfm[index:])
		if !isNonSemanticSpace(r) {
			break
		}
		index += w
	}
	return index
}

// milestoneEnded reports whether the next backslash after index starts the
// \* milestone terminator.
func milestoneEnded(usfm string, index int) bool {
	j := strings.IndexByte(usfm[index:], '\\')
	if j < 0 {
		return false
	}
	k := index + j
	return k+1 < len(usfm) && usfm[k+1] == '*'
}

// forceTrailingSpaces guarantees a single separating space in the text token
// preceding a block-level token, so that re-joining round-trips.
func forceTrailingSpaces(tokens []Token) {
	for i := 1; i < len(tokens); i++ {
		prev := &tokens[i-1]
		if prev.Kind != Text {
			continue
		}
		need := false
		switch tokens[i].Kind {
		case Book, Chapter, Paragraph:
			need = true
		case Verse:
			need = !strings.HasSuffix(prev.Text, "(") && !strings.HasSuffix(prev.Text, "[")
		}
		if need && !strings.HasSuffix(prev.Text, " ") {
			prev.Text += " "
		}
	}
}
