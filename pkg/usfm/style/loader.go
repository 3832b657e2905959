package style

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// LoadError is a stylesheet problem tied to a line number.
type LoadError struct {
	Line    int
	Message string
}

func (e LoadError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// LoaderOptions configures stylesheet loading.
type LoaderOptions struct {
	// ThemeColor resolves a ColorName value to an RGB color. When nil,
	// every theme color resolves to 0.
	ThemeColor func(name string) int

	// Log receives debug telemetry during loading. May be nil.
	Log *zap.SugaredLogger
}

var (
	errEmptyAttributes = errors.New("empty attribute specification")
	errAttributesOrder = errors.New("required attribute follows an optional attribute")
)

// entry is one pre-processed stylesheet line.
type entry struct {
	field string // lowercased field name, without backslash
	rest  string // remainder of the line, trimmed
	line  int
}

// Load parses a stylesheet into a catalog. Problems are accumulated as
// line-numbered errors; loading never aborts on a malformed line, so the
// returned catalog holds every descriptor that could be built.
func Load(r io.Reader, opts LoaderOptions) (*Catalog, []LoadError) {
	ld := &loader{catalog: NewCatalog(), opts: opts}
	ld.run(r)
	if log := opts.Log; log != nil {
		log.Debugw("stylesheet loaded", "markers", ld.catalog.Len(), "errors", len(ld.errs))
	}
	return ld.catalog, ld.errs
}

type loader struct {
	catalog *Catalog
	opts    LoaderOptions
	errs    []LoadError

	cur     *Marker
	curLine int
	seen    map[string]bool // fields seen for the current marker
}

func (ld *loader) errorf(line int, format string, args ...interface{}) {
	ld.errs = append(ld.errs, LoadError{Line: line, Message: fmt.Sprintf(format, args...)})
}

func (ld *loader) run(r io.Reader) {
	entries, scanErr := readEntries(r, ld)
	if scanErr != nil {
		ld.errorf(0, "read failed: %v", scanErr)
		if log := ld.opts.Log; log != nil {
			log.Errorw("stylesheet read failed", "error", scanErr)
		}
	}

	sawMarker := false
	for _, e := range entries {
		if e.field == "marker" {
			sawMarker = true
			ld.finish()
			ld.begin(e)
			continue
		}
		if ld.cur == nil {
			ld.errorf(e.line, "\\Marker expected before \\%s", e.field)
			continue
		}
		ld.decode(e)
	}
	ld.finish()
	if !sawMarker {
		ld.errorf(0, "no \\Marker line in stylesheet")
	}
}

// readEntries pre-processes lines: an optional leading "#!" compatibility
// prefix is stripped, everything from "#" onward is a comment, and the
// remainder is trimmed. Non-empty lines must begin with a backslash.
func readEntries(r io.Reader, ld *loader) ([]entry, error) {
	var entries []entry
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		text = strings.TrimPrefix(text, "#!")
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if !strings.HasPrefix(text, "\\") {
			ld.errorf(line, "line does not begin with a marker: %q", text)
			continue
		}
		field, rest, _ := strings.Cut(text[1:], " ")
		entries = append(entries, entry{
			field: strings.ToLower(field),
			rest:  strings.TrimSpace(rest),
			line:  line,
		})
	}
	return entries, sc.Err()
}

// begin starts assembling the marker named by a \Marker entry. The form
// "\Marker xy -" removes xy and xy* instead of defining anything.
func (ld *loader) begin(e entry) {
	fields := strings.Fields(e.rest)
	if len(fields) == 0 {
		ld.errorf(e.line, "\\Marker requires a tag")
		return
	}
	tag := strings.ToLower(fields[0])
	if len(fields) > 1 && fields[1] == "-" {
		ld.catalog.Remove(tag)
		return
	}
	if ld.catalog.Lookup(tag) != nil {
		ld.errorf(e.line, "duplicate definition of marker \\%s", tag)
	}
	ld.cur = newMarker(tag)
	ld.curLine = e.line
	ld.seen = make(map[string]bool)
}

// finish validates and inserts the marker under assembly.
func (ld *loader) finish() {
	m := ld.cur
	if m == nil {
		return
	}
	ld.cur = nil

	if m.Name == "" {
		ld.errorf(ld.curLine, "missing \\Name for marker \\%s", m.Marker)
	}

	switch m.StyleType {
	case StyleCharacter, StyleNote:
		if m.EndMarker == "" {
			m.EndMarker = m.Marker + "*"
		}
		ld.ensureEnd(m, StyleEnd)
	case StyleMilestone:
		if m.EndMarker == "" {
			ld.errorf(ld.curLine, "missing \\Endmarker for milestone \\%s", m.Marker)
		} else {
			ld.ensureEnd(m, StyleMilestoneEnd)
		}
	}

	if m.TextType == TextOther &&
		(m.StyleType == StyleCharacter || m.StyleType == StyleParagraph) &&
		!m.TextProperties.Has(PropNonpublishable) &&
		!m.TextProperties.Has(PropChapter) &&
		!m.TextProperties.Has(PropVerse) {
		m.TextProperties = m.TextProperties.With(PropPublishable)
	}

	ld.catalog.add(m)
}

// ensureEnd synthesizes the paired end descriptor when the stylesheet does
// not define one itself. Milestone ends carry an optional id attribute.
func (ld *loader) ensureEnd(start *Marker, styleType StyleType) {
	if ld.catalog.Lookup(start.EndMarker) != nil {
		return
	}
	end := newMarker(start.EndMarker)
	end.StyleType = styleType
	end.Name = start.Name
	end.OccursUnder = append([]string(nil), start.OccursUnder...)
	if styleType == StyleMilestoneEnd {
		end.Attributes = []Attribute{{Name: "id", Required: false}}
		end.DefaultAttribute = "id"
	}
	ld.catalog.add(end)
}

func (ld *loader) decode(e entry) {
	if ld.seen[e.field] {
		ld.errorf(e.line, "duplicate field \\%s for marker \\%s", e.field, ld.cur.Marker)
		return
	}
	ld.seen[e.field] = true
	m := ld.cur

	switch e.field {
	case "name":
		m.Name = e.rest
	case "description":
		m.Description = e.rest
	case "fontname":
		m.FontName = e.rest
	case "xmltag":
		m.XMLTag = e.rest
	case "encoding":
		m.Encoding = e.rest

	case "fontsize":
		ld.decodeInt(e, &m.FontSize)
	case "linespacing":
		ld.decodeInt(e, &m.LineSpacing)
	case "spacebefore":
		ld.decodeInt(e, &m.SpaceBefore)
	case "spaceafter":
		ld.decodeInt(e, &m.SpaceAfter)
	case "rank":
		ld.decodeInt(e, &m.Rank)

	case "leftmargin":
		ld.decodeMargin(e, &m.LeftMargin)
	case "rightmargin":
		ld.decodeMargin(e, &m.RightMargin)
	case "firstlineindent":
		ld.decodeMargin(e, &m.FirstLineIndent)

	case "bold":
		m.Bold = e.rest != "-"
	case "italic":
		m.Italic = e.rest != "-"
	case "smallcaps":
		m.SmallCaps = e.rest != "-"
	case "subscript":
		m.Subscript = e.rest != "-"
	case "superscript":
		m.Superscript = e.rest != "-"
	case "underline":
		m.Underline = e.rest != "-"
	case "notrepeatable":
		m.NotRepeatable = e.rest != "-"
	case "regular":
		m.Bold = false
		m.Italic = false
		m.Superscript = false
		m.Regular = true

	case "color":
		ld.decodeColor(e)
	case "colorname":
		if ld.opts.ThemeColor != nil {
			m.Color = ld.opts.ThemeColor(e.rest)
		} else {
			m.Color = 0
		}

	case "justification":
		switch strings.ToLower(e.rest) {
		case "left":
			m.Justification = JustifyLeft
		case "center":
			m.Justification = JustifyCenter
		case "right":
			m.Justification = JustifyRight
		case "both":
			m.Justification = JustifyBoth
		default:
			ld.errorf(e.line, "unknown justification %q", e.rest)
		}

	case "styletype":
		switch strings.ToLower(e.rest) {
		case "character":
			m.StyleType = StyleCharacter
		case "paragraph":
			m.StyleType = StyleParagraph
		case "note":
			m.StyleType = StyleNote
		case "milestone":
			m.StyleType = StyleMilestone
		default:
			ld.errorf(e.line, "unknown style type %q", e.rest)
		}

	case "texttype":
		ld.decodeTextType(e)

	case "textproperties":
		for _, name := range strings.Fields(strings.ToLower(e.rest)) {
			p, ok := textPropertyNames[name]
			if !ok {
				ld.errorf(e.line, "unknown text property %q", name)
				continue
			}
			m.TextProperties = m.TextProperties.With(p)
		}
		if m.TextProperties.Has(PropNonpublishable) {
			m.TextProperties = m.TextProperties.Without(PropPublishable)
		}

	case "attributes":
		if err := m.setAttributes(e.rest); err != nil {
			ld.errorf(e.line, "bad attribute specification for \\%s: %v", m.Marker, err)
		}

	case "occursunder":
		m.OccursUnder = strings.Fields(strings.ToLower(e.rest))

	case "endmarker":
		m.EndMarker = e.rest

	default:
		ld.errorf(e.line, "unknown field \\%s", e.field)
	}
}

func (ld *loader) decodeInt(e entry, dst *int) {
	if e.rest == "-" {
		*dst = 0
		return
	}
	v, err := strconv.Atoi(e.rest)
	if err != nil || v < 0 {
		ld.errorf(e.line, "\\%s requires a non-negative integer, got %q", e.field, e.rest)
		return
	}
	*dst = v
}

// decodeMargin stores a floating point measurement as thousandths.
func (ld *loader) decodeMargin(e entry, dst *int) {
	if e.rest == "-" {
		*dst = 0
		return
	}
	v, err := strconv.ParseFloat(e.rest, 64)
	if err != nil {
		ld.errorf(e.line, "\\%s requires a number, got %q", e.field, e.rest)
		return
	}
	*dst = int(math.Round(v * 1000))
}

// decodeColor accepts a decimal value in BGR order, or an x-prefixed
// hexadecimal value already in RGB order.
func (ld *loader) decodeColor(e entry) {
	m := ld.cur
	if e.rest == "-" {
		m.Color = 0
		return
	}
	if strings.HasPrefix(strings.ToLower(e.rest), "x") {
		v, err := strconv.ParseInt(e.rest[1:], 16, 32)
		if err != nil {
			ld.errorf(e.line, "bad color value %q", e.rest)
			return
		}
		m.Color = int(v)
		return
	}
	v, err := strconv.ParseInt(e.rest, 10, 32)
	if err != nil || v < 0 {
		ld.errorf(e.line, "bad color value %q", e.rest)
		return
	}
	// Stylesheet decimal colors are BGR; swap to RGB.
	m.Color = int((v&0xFF)<<16 | v&0xFF00 | (v>>16)&0xFF)
}

func (ld *loader) decodeTextType(e entry) {
	m := ld.cur
	switch strings.ToLower(e.rest) {
	case "title":
		m.TextType = TextTitle
	case "section":
		m.TextType = TextSection
	case "versetext":
		m.TextType = TextVerse
	case "notetext":
		m.TextType = TextNote
	case "other":
		m.TextType = TextOther
	case "backtranslation":
		m.TextType = TextBackTranslation
	case "translationnote":
		m.TextType = TextTranslationNote
	case "chapternumber":
		m.TextType = TextOther
		m.TextProperties = m.TextProperties.With(PropChapter)
	case "versenumber":
		m.TextType = TextOther
		m.TextProperties = m.TextProperties.With(PropVerse)
	default:
		ld.errorf(e.line, "unknown text type %q", e.rest)
	}
}
