package check

import (
	"strings"

	"go.uber.org/zap"

	"github.com/arenzana/markercheck/pkg/usfm/parser"
	"github.com/arenzana/markercheck/pkg/usfm/style"
	"github.com/arenzana/markercheck/pkg/usfm/token"
)

// Options configures a Checker.
type Options struct {
	// Book is the code of the book being validated, used for diagnostic
	// references until an \id marker establishes one.
	Book string

	// Usfm2 rejects USFM 3 features: ruby, milestones, and non-default
	// attributes.
	Usfm2 bool

	// Translate localizes message keys; nil leaves them in English.
	Translate Translator

	// Log receives debug telemetry. May be nil.
	Log *zap.SugaredLogger
}

// markers that may legitimately hold no text.
var emptyAllowed = map[string]bool{
	"b": true, "ib": true, "ie": true, "pb": true, "tc": true, "xt": true,
}

// character styles that warn when immediately reopened even under a
// stylesheet that does not mark them NotRepeatable.
var repeatable = map[string]bool{
	"qt": true, "wj": true, "no": true, "it": true, "bd": true,
	"bdit": true, "em": true, "sc": true, "add": true,
}

// attribute names always accepted on any marker.
var linkAttrs = map[string]bool{
	"link-href": true, "link-title": true, "link-name": true,
}

// names the legacy figure form provides; anything else on \fig is a
// USFM 3 feature.
var figureAttrs = map[string]bool{
	"alt": true, "src": true, "size": true, "loc": true, "copy": true, "ref": true,
}

type charSpan struct {
	marker string
	closed bool
	text   strings.Builder
}

type milestoneSpan struct {
	marker    string
	endMarker string
	id        string
}

type contentSpan struct {
	marker string
	has    bool
}

// Checker is the validating sink. Create one per book, feed it to a parser,
// then call Finish and collect Diagnostics.
type Checker struct {
	parser.BaseSink

	catalog *style.Catalog
	opts    Options

	diags    []Diagnostic
	hadError bool
	seq      int

	ctx        []string
	paras      paraStack
	paraTag    string
	chars      []*charSpan
	content    []*contentSpan
	milestones []milestoneSpan
	lastClosed string
	cellExpect int
	noParaIdx  int

	// last seen position, for diagnostics reported at end of input
	lastBook    string
	lastChapter int
	lastVerse   int
	lastOffset  int
}

// New creates a checker over the token stream about to be parsed. src is the
// raw source text, used for the raw-text spacing scan; it may be empty to
// skip that check. The missing \id check runs immediately.
func New(catalog *style.Catalog, tokens []token.Token, src string, opts Options) *Checker {
	c := &Checker{
		catalog:     catalog,
		opts:        opts,
		noParaIdx:   -1,
		lastBook:    opts.Book,
		lastChapter: 1,
	}
	if len(tokens) == 0 || tokens[0].Marker != "id" {
		c.add(Diagnostic{
			Book: opts.Book, Chapter: 1, Verse: 0,
			IsMarker: true, Value: `\id`,
			Message: c.msg(MsgMissingID), Severity: SeverityError,
		})
	}
	if src != "" {
		c.scanMissingSpaces(src)
	}
	return c
}

// Diagnostics returns every accumulated diagnostic in position order.
func (c *Checker) Diagnostics() []Diagnostic {
	out := append([]Diagnostic(nil), c.diags...)
	sortDiagnostics(out)
	return out
}

// HadError reports whether any error-severity diagnostic was recorded.
func (c *Checker) HadError() bool { return c.hadError }

// Finish reports anything still pending after the stream has been parsed and
// closed, such as unbalanced milestones.
func (c *Checker) Finish() {
	for _, m := range c.milestones {
		c.add(Diagnostic{
			Book: c.lastBook, Chapter: c.lastChapter, Verse: c.lastVerse,
			Offset: c.lastOffset, IsMarker: true, Value: `\` + m.marker,
			Message: c.msg(MsgMissingMilestoneEnd) + `: \` + m.marker, Severity: SeverityError,
		})
	}
	if log := c.opts.Log; log != nil {
		log.Debugw("check finished", "book", c.opts.Book, "diagnostics", len(c.diags))
	}
}

func (c *Checker) msg(key string) string {
	if c.opts.Translate == nil {
		return key
	}
	return c.opts.Translate(key)
}

func (c *Checker) add(d Diagnostic) {
	d.seq = c.seq
	c.seq++
	if d.Severity == SeverityError {
		c.hadError = true
	}
	c.diags = append(c.diags, d)
}

// diag records a diagnostic at the parser's current position.
func (c *Checker) diag(s *parser.State, sev Severity, isMarker bool, value, message string) {
	c.notePos(s)
	c.add(Diagnostic{
		Book: c.lastBook, Chapter: c.lastChapter, Verse: c.lastVerse,
		Offset: c.lastOffset, IsMarker: isMarker, Value: value,
		Message: message, Severity: sev,
	})
}

func (c *Checker) notePos(s *parser.State) {
	if s.VerseRef.Book != "" {
		c.lastBook = s.VerseRef.Book
	} else if c.lastBook == "" {
		c.lastBook = c.opts.Book
	}
	c.lastChapter = s.VerseRef.Chapter
	c.lastVerse = s.VerseRef.Verse
	c.lastOffset = s.VerseOffset
}

func (c *Checker) ctxPush(m string) { c.ctx = append(c.ctx, m) }

func (c *Checker) ctxPop(m string) {
	if n := len(c.ctx); n > 0 && c.ctx[n-1] == m {
		c.ctx = c.ctx[:n-1]
	}
}

func (c *Checker) ctxTop() string {
	if n := len(c.ctx); n > 0 {
		return c.ctx[n-1]
	}
	return ""
}

func (c *Checker) openContent(marker string) {
	c.content = append(c.content, &contentSpan{marker: marker})
}

func (c *Checker) markContent() {
	for _, sp := range c.content {
		sp.has = true
	}
}

func (c *Checker) closeContent(s *parser.State, marker string) {
	n := len(c.content)
	if n == 0 {
		return
	}
	sp := c.content[n-1]
	c.content = c.content[:n-1]
	if sp.has || emptyMarkerAllowed(marker) {
		return
	}
	c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgEmptyMarker)+`: \`+marker)
}

func emptyMarkerAllowed(marker string) bool {
	bare := strings.TrimPrefix(marker, "+")
	if emptyAllowed[bare] {
		return true
	}
	base := strings.TrimRight(bare, "0123456789-")
	base = strings.TrimSuffix(base, "r")
	base = strings.TrimSuffix(base, "c")
	return emptyAllowed[base]
}

// GotMarker runs the per-marker checks: unknown markers, USFM 2 gating, and
// placement.
func (c *Checker) GotMarker(s *parser.State, marker string) {
	c.notePos(s)
	tok := s.Token()
	bare := strings.TrimPrefix(marker, "+")
	desc := c.catalog.Get(bare)

	if desc.StyleType == style.StyleUnknown {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgUnknownMarker)+`: \`+marker)
		return
	}

	if c.opts.Usfm2 &&
		(bare == "rb" || tok.Kind == token.Milestone || tok.Kind == token.MilestoneEnd) {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgUnsupportedMarker)+`: \`+marker)
	}

	switch tok.Kind {
	case token.Chapter, token.Paragraph:
		if !c.paras.accept(desc) {
			c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgNotValidHere)+`: \`+marker)
		}
	case token.Character, token.Note, token.Verse:
		c.checkOccursUnder(s, marker, desc)
	}
}

// checkOccursUnder applies the plain placement rule for inline markers. A
// NEST entry in the constraint set marks a span-demanding style that may sit
// in any text context, so it waives the check; markers outside any paragraph
// are already reported as missing their paragraph.
func (c *Checker) checkOccursUnder(s *parser.State, marker string, desc *style.Marker) {
	if len(desc.OccursUnder) == 0 || desc.OccursUnderSet("nest") || c.paraTag == "" {
		return
	}
	ctx := c.ctxTop()
	if ctx == "" || desc.OccursUnderSet(ctx) {
		return
	}
	c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgNotValidHere)+`: \`+marker)
}

func (c *Checker) StartBook(s *parser.State, marker, code string) {
	c.notePos(s)
	idDesc := c.catalog.Get("id")
	c.ctx = append(c.ctx[:0], "id")
	c.paras.reset(paraElem{marker: "id", rank: idDesc.Rank})
	c.paraTag = ""
	c.lastClosed = ""
}

func (c *Checker) EndBook(s *parser.State, marker string) {
	c.ctxPop("id")
}

func (c *Checker) Chapter(s *parser.State, number, marker, altNumber, pubNumber string) {
	c.notePos(s)
	c.ctx = append(c.ctx[:0], "id", "c")
	c.paraTag = ""
	c.lastClosed = ""
	c.noParaIdx = -1
}

func (c *Checker) Verse(s *parser.State, number, marker, altNumber, pubNumber string) {
	c.notePos(s)
	c.markContent()
	c.lastClosed = ""
	if c.paraTag != "" {
		c.noParaIdx = -1
		return
	}
	verse := s.VerseRef.Verse
	if c.noParaIdx >= 0 {
		d := &c.diags[c.noParaIdx]
		last := d.VerseEnd
		if last == 0 {
			last = d.Verse
		}
		if d.Chapter == s.VerseRef.Chapter && last+1 == verse {
			d.VerseEnd = verse
			return
		}
	}
	c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgVerseNoPara))
	c.noParaIdx = len(c.diags) - 1
}

func (c *Checker) StartPara(s *parser.State, marker string) {
	c.notePos(s)
	c.paraTag = marker
	c.lastClosed = ""
	c.ctxPush(marker)
	c.openContent(marker)
}

func (c *Checker) EndPara(s *parser.State, marker string) {
	c.closeContent(s, marker)
	c.ctxPop(marker)
	c.paraTag = ""
}

func (c *Checker) StartChar(s *parser.State, marker string, closed bool) {
	c.notePos(s)
	bare := strings.TrimPrefix(marker, "+")
	desc := c.catalog.Get(bare)
	c.markContent()

	if marker == c.lastClosed && (desc.NotRepeatable || repeatable[bare]) {
		c.diag(s, SeverityWarning, true, `\`+marker, c.msg(MsgRepeatedMarker)+`: \`+marker)
	}
	c.lastClosed = ""

	if c.paraTag == "" {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgCharNoPara)+`: \`+marker)
	}
	if !closed && demandsClose(desc, bare) {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgCharNotClosed)+`: \`+marker)
	}

	c.ctxPush(marker)
	c.chars = append(c.chars, &charSpan{marker: marker, closed: closed})
	c.openContent(marker)
}

// demandsClose reports whether the style requires an explicit end marker.
func demandsClose(desc *style.Marker, bare string) bool {
	return bare == "fig" || desc.OccursUnderSet("nest")
}

func (c *Checker) EndChar(s *parser.State, marker string, attrs []parser.Attr) {
	c.notePos(s)
	var span *charSpan
	if n := len(c.chars); n > 0 {
		span = c.chars[n-1]
		c.chars = c.chars[:n-1]
	}
	c.closeContent(s, marker)
	c.ctxPop(marker)
	c.lastClosed = marker

	tok := s.Token()
	if tok == nil || tok.Kind != token.End {
		return // implicit close; the unclosed check already fired
	}

	bare := strings.TrimPrefix(marker, "+")
	desc := c.catalog.Get(bare)
	if bare == "rb" && span != nil {
		c.checkRuby(s, marker, span.text.String(), attrs)
	}
	if len(attrs) == 0 && desc.DefaultAttribute != "" && span != nil && span.text.Len() > 0 {
		// A bare span payload doubles as the default attribute value.
		attrs = []parser.Attr{{Name: desc.DefaultAttribute, Value: span.text.String()}}
	}
	c.checkAttributes(s, marker, desc, attrs, true)
}

// checkAttributes validates an attribute set against the descriptor:
// required names present, unknown names rejected, USFM 2 gating applied when
// gate2 is set.
func (c *Checker) checkAttributes(s *parser.State, marker string, desc *style.Marker, attrs []parser.Attr, gate2 bool) {
	has := func(name string) bool {
		for _, a := range attrs {
			if a.Name == name {
				return true
			}
		}
		return false
	}
	for _, decl := range desc.Attributes {
		if decl.Required && !has(decl.Name) {
			c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgMissingAttr)+": "+decl.Name)
		}
	}
	for _, a := range attrs {
		if desc.HasAttribute(a.Name) || linkAttrs[a.Name] || strings.HasPrefix(a.Name, "x-") {
			continue
		}
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgUnknownAttr)+": "+a.Name)
	}
	if !gate2 || !c.opts.Usfm2 || len(attrs) == 0 {
		return
	}
	bare := strings.TrimPrefix(marker, "+")
	for _, a := range attrs {
		bad := a.Name != desc.DefaultAttribute
		if bare == "fig" {
			bad = !figureAttrs[a.Name]
		}
		if bad {
			c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgUnsupportedAttr)+`: \`+marker)
			return
		}
	}
}

// checkRuby compares the grapheme count of the base text against the
// colon-separated gloss list.
func (c *Checker) checkRuby(s *parser.State, marker, base string, attrs []parser.Attr) {
	gloss := ""
	for _, a := range attrs {
		if a.Name == "gloss" {
			gloss = a.Value
			break
		}
	}
	if gloss == "" {
		return
	}
	glosses := len(strings.Split(gloss, ":"))
	graphemes := graphemeCount(base)
	switch {
	case glosses < graphemes:
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgFewerGlosses))
	case glosses > graphemes:
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgMoreGlosses))
	}
}

func (c *Checker) StartNote(s *parser.State, marker, caller, category string, closed bool) {
	c.notePos(s)
	c.markContent()
	c.lastClosed = ""
	if c.paraTag == "" {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgNoteNoPara)+`: \`+marker)
	}
	if !closed {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgNoteNotClosed)+`: \`+marker)
	}
	if strings.TrimSpace(caller) == "" {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgMissingCaller)+`: \`+marker)
	}
	c.ctxPush(marker)
	c.openContent(marker)
}

func (c *Checker) EndNote(s *parser.State, marker string) {
	c.closeContent(s, marker)
	c.ctxPop(marker)
	c.lastClosed = ""
}

func (c *Checker) StartRow(s *parser.State, marker string) {
	c.ctxPush("tr")
	c.cellExpect = 1
}

func (c *Checker) EndRow(s *parser.State, marker string) {
	c.ctxPop("tr")
}

func (c *Checker) StartCell(s *parser.State, marker string, align parser.Align) {
	c.notePos(s)
	c.markContent()
	n, span := cellNumbers(marker)
	if n != c.cellExpect {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgMissingCell)+`: \`+marker)
	}
	next := n + 1
	if span > n {
		next = span + 1
	}
	c.cellExpect = next
	c.ctxPush(marker)
}

func (c *Checker) EndCell(s *parser.State, marker string) {
	c.ctxPop(marker)
}

// cellNumbers extracts the column number, and the end column for spanning
// cells, from a th/tc marker.
func cellNumbers(marker string) (int, int) {
	i := 2
	if len(marker) > i && (marker[i] == 'r' || marker[i] == 'c') {
		i++
	}
	n, j := digits(marker, i)
	span := n
	if j < len(marker) && marker[j] == '-' {
		span, _ = digits(marker, j+1)
	}
	return n, span
}

func digits(s string, i int) (int, int) {
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		n = n*10 + int(s[i]-'0')
		i++
	}
	return n, i
}

func (c *Checker) Text(s *parser.State, text string) {
	c.notePos(s)
	if strings.TrimSpace(text) != "" {
		c.markContent()
		c.lastClosed = ""
	}
	for _, sp := range c.chars {
		sp.text.WriteString(text)
	}
	if strings.Contains(text, "|") {
		if n := len(c.chars); n > 0 && c.chars[n-1].closed {
			c.diag(s, SeverityError, false, text,
				c.msg(MsgInvalidAttr)+`: \`+c.chars[n-1].marker)
		}
	}
}

func (c *Checker) Unmatched(s *parser.State, marker string) {
	c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgUnmatched)+`: \`+marker)
}

func (c *Checker) Ref(s *parser.State, marker, display, target string) {
	c.notePos(s)
	c.markContent()
}

func (c *Checker) StartSidebar(s *parser.State, marker, category string, closed bool) {
	c.notePos(s)
	c.ctxPush("esb")
	c.paraTag = ""
	if !closed {
		c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgSidebarNotClosed)+`: \`+marker)
	}
}

func (c *Checker) EndSidebar(s *parser.State, marker string) {
	c.ctxPop("esb")
}

func (c *Checker) OptBreak(s *parser.State) {
	c.markContent()
}

func (c *Checker) Milestone(s *parser.State, marker string, start bool, endMarker string) {
	c.notePos(s)
	c.markContent()
	tok := s.Token()
	desc := c.catalog.Get(marker)
	c.checkAttributes(s, marker, desc, tok.Attrs, false)
	id, _ := tok.Attribute("id")

	if start {
		c.milestones = append(c.milestones, milestoneSpan{marker: marker, endMarker: endMarker, id: id})
		return
	}
	for j := len(c.milestones) - 1; j >= 0; j-- {
		if c.milestones[j].endMarker != marker {
			continue
		}
		if c.milestones[j].id != id {
			c.diag(s, SeverityError, true, `\`+marker, c.msg(MsgMilestoneIDMismatch))
		}
		c.milestones = append(c.milestones[:j], c.milestones[j+1:]...)
		return
	}
}
