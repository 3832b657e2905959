package token

import (
	"regexp"
	"strings"
)

var attrPairRegex = regexp.MustCompile(`([-\w]+)\s*=\s*"([^"]*)"\s*`)

// handleAttributes resolves a "|" inside a text run against the open span.
// On success the parsed attributes are attached to the opening token and the
// text is truncated at the bar; the raw attribute text is returned so the
// Text token can re-join losslessly (for milestones it is stored on the
// milestone token instead). When the specification cannot be consumed in
// full, the bar is left as literal text and nothing is attached.
func (t *Tokenizer) handleAttributes(tokens []Token, text string) (newText, attrText string) {
	bar := strings.IndexByte(text, '|')
	if bar < 0 {
		return text, ""
	}
	opener := findAttrTarget(tokens)
	if opener == nil {
		return text, ""
	}
	bare := strings.TrimPrefix(opener.Marker, "+")
	desc := t.catalog.Get(bare)

	spec := text[bar+1:]
	if bare == "fig" && strings.Count(spec, "|") == 5 {
		return foldLegacyFigure(opener, text[:bar], spec)
	}

	attrs, ok := parseAttributes(spec, desc.DefaultAttribute)
	if !ok {
		return text, ""
	}
	opener.Attrs = attrs
	if opener.Kind == Milestone || opener.Kind == MilestoneEnd {
		opener.AttrText = spec
		return text[:bar], ""
	}
	return text[:bar], spec
}

// findAttrTarget locates the opening token an attribute specification binds
// to: the most recent span opener that has not been closed. Attribute text
// never crosses a block boundary.
func findAttrTarget(tokens []Token) *Token {
	ends := make(map[string]int)
	for j := len(tokens) - 1; j >= 0; j-- {
		tk := &tokens[j]
		switch tk.Kind {
		case End:
			ends[tk.Marker]++
		case Character, Note, Unknown:
			if ends[tk.EndMarker] > 0 {
				ends[tk.EndMarker]--
				continue
			}
			return tk
		case Milestone, MilestoneEnd:
			return tk
		case Book, Chapter, Verse, Paragraph:
			return nil
		}
	}
	return nil
}

// parseAttributes parses an attribute specification: either one or more
// name="value" pairs, or a single bare value accepted when the marker
// declares a default attribute. Offsets are byte offsets of each value
// within spec.
func parseAttributes(spec, defaultAttribute string) ([]Attr, bool) {
	if !strings.Contains(spec, "=") {
		if defaultAttribute == "" {
			return nil, false
		}
		value := strings.TrimSpace(spec)
		if value == "" {
			return nil, false
		}
		return []Attr{{
			Name:   defaultAttribute,
			Value:  value,
			Offset: strings.Index(spec, value),
		}}, true
	}

	matches := attrPairRegex.FindAllStringSubmatchIndex(spec, -1)
	if len(matches) == 0 {
		return nil, false
	}
	// The pairs must consume the entire specification.
	pos := len(spec) - len(strings.TrimLeft(spec, " "))
	attrs := make([]Attr, 0, len(matches))
	for _, m := range matches {
		if m[0] != pos {
			return nil, false
		}
		pos = m[1]
		attrs = append(attrs, Attr{
			Name:   spec[m[2]:m[3]],
			Value:  spec[m[4]:m[5]],
			Offset: m[4],
		})
	}
	if pos != len(spec) {
		return nil, false
	}
	return attrs, true
}

// foldLegacyFigure converts the legacy figure form
// desc|src|size|loc|copy|caption|ref (six fields after the description)
// into attribute form. The description
// becomes the alt attribute, the caption becomes the token text, and the
// attribute text is rewritten canonically so the fold is stable under
// re-tokenization.
func foldLegacyFigure(opener *Token, desc, spec string) (newText, attrText string) {
	fields := strings.Split(spec, "|")
	values := []Attr{
		{Name: "alt", Value: strings.TrimSpace(desc)},
		{Name: "src", Value: strings.TrimSpace(fields[0])},
		{Name: "size", Value: strings.TrimSpace(fields[1])},
		{Name: "loc", Value: strings.TrimSpace(fields[2])},
		{Name: "copy", Value: strings.TrimSpace(fields[3])},
		{Name: "ref", Value: strings.TrimSpace(fields[5])},
	}
	var sb strings.Builder
	attrs := make([]Attr, 0, len(values))
	for i, a := range values {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(a.Name)
		sb.WriteString(`="`)
		a.Offset = sb.Len()
		sb.WriteString(a.Value)
		sb.WriteString(`"`)
		attrs = append(attrs, a)
	}
	opener.Attrs = attrs
	return strings.TrimSpace(fields[4]), sb.String()
}
