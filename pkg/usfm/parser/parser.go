package parser

import (
	"strings"

	"github.com/arenzana/markercheck/pkg/usfm/style"
	"github.com/arenzana/markercheck/pkg/usfm/token"
)

// Options configures a parser.
type Options struct {
	// InitialBook seeds the verse reference, normally with the book code the
	// caller is validating. When empty, the reference book is taken from the
	// first \id marker whose code the oracle accepts.
	InitialBook string

	// PreserveWhitespace must match the mode the tokens were produced with;
	// it controls how token lengths contribute to verse offsets.
	PreserveWhitespace bool

	// BookNumber is the book-code oracle; values <= 0 mean unknown. When nil
	// any non-empty code is accepted.
	BookNumber func(code string) int
}

// Parser drives a token stream through the document state machine, firing
// events at its sink. One parser walks one token slice exactly once.
type Parser struct {
	catalog *style.Catalog
	sink    Sink
	state   State

	addSpaces  bool
	skip       int
	serial     uint64
	probe      bool
	bookNumber func(string) int
}

// New creates a parser over tokens. A nil sink discards all events.
func New(catalog *style.Catalog, tokens []token.Token, sink Sink, opts Options) *Parser {
	if sink == nil {
		sink = BaseSink{}
	}
	return &Parser{
		catalog:    catalog,
		sink:       sink,
		addSpaces:  !opts.PreserveWhitespace,
		bookNumber: opts.BookNumber,
		state: State{
			Tokens:   tokens,
			VerseRef: VerseRef{Book: opts.InitialBook, Chapter: 1, Verse: 0},
		},
	}
}

// State returns the live parser state.
func (p *Parser) State() *State { return &p.state }

// ProcessAll processes every remaining token.
func (p *Parser) ProcessAll() {
	for p.ProcessToken() {
	}
}

// ProcessToken advances one token, returning false past the end.
func (p *Parser) ProcessToken() bool {
	s := &p.state
	if s.Index >= len(s.Tokens) {
		return false
	}
	if s.Index > 0 {
		s.VerseOffset += s.Tokens[s.Index-1].Length(p.addSpaces)
	}
	if p.skip > 0 {
		p.skip--
		s.Special = true
		s.Index++
		return true
	}
	s.Special = false
	p.handle()
	s.Index++
	return true
}

// CloseAll pops the entire stack, firing end events.
func (p *Parser) CloseAll() {
	for len(p.state.Stack) > 0 {
		p.popElem(nil)
	}
}

func (p *Parser) handle() {
	s := &p.state
	tok := s.Token()
	kind := tok.Kind
	if kind == token.Unknown {
		// Unknown markers act as character styles inside a note and as
		// paragraphs elsewhere.
		if s.FindKind(ElemNote) >= 0 {
			kind = token.Character
		} else {
			kind = token.Paragraph
		}
	}
	switch kind {
	case token.Book:
		p.handleBook(tok)
	case token.Chapter:
		p.handleChapter(tok)
	case token.Verse:
		p.handleVerse(tok)
	case token.Paragraph:
		p.handlePara(tok)
	case token.Character:
		p.handleChar(tok)
	case token.Note:
		p.handleNote(tok)
	case token.End:
		p.handleEnd(tok)
	case token.Text:
		p.handleText(tok)
	case token.Milestone:
		p.sink.GotMarker(s, tok.Marker)
		p.sink.Milestone(s, tok.Marker, true, tok.EndMarker)
	case token.MilestoneEnd:
		p.sink.GotMarker(s, tok.Marker)
		p.sink.Milestone(s, tok.Marker, false, tok.EndMarker)
	}
}

func (p *Parser) handleBook(tok *token.Token) {
	s := &p.state
	p.CloseAll()
	p.sink.GotMarker(s, tok.Marker)
	code := tok.Data[0]
	if s.VerseRef.Book == "" && p.canonical(code) {
		s.VerseRef.Book = code
	}
	s.VerseRef.Chapter = 1
	s.VerseRef.Verse = 0
	p.push(Elem{Kind: ElemBook, Marker: tok.Marker})
	p.sink.StartBook(s, tok.Marker, code)
}

func (p *Parser) canonical(code string) bool {
	if p.bookNumber == nil {
		return code != ""
	}
	return p.bookNumber(code) > 0
}

func (p *Parser) handleChapter(tok *token.Token) {
	s := &p.state
	p.CloseAll()
	p.sink.GotMarker(s, tok.Marker)
	number := tok.Data[0]

	alt := ""
	i := s.Index
	if value, end, ok := p.trioAfter(i, "ca"); ok {
		alt = value
		p.skip = end - s.Index
		i = end
	}
	pub := ""
	if j := p.nextContent(i + 1); s.at(j) != nil &&
		s.at(j).Kind == token.Paragraph && s.at(j).Marker == "cp" {
		if t2 := s.at(j + 1); t2 != nil && t2.Kind == token.Text {
			pub = strings.TrimSpace(t2.Text)
			p.skip = j + 1 - s.Index
		}
	}

	entering := numberPrefix(number)
	s.VerseRef.Chapter = entering
	s.VerseRef.Verse = 0
	if entering != 1 {
		// Chapter 1 keeps accumulating from the book start so that intro
		// material stays accounted for.
		s.VerseOffset = 0
	}
	p.sink.Chapter(s, number, tok.Marker, alt, pub)
}

func (p *Parser) handleVerse(tok *token.Token) {
	s := &p.state
	p.closeNotes()
	p.sink.GotMarker(s, tok.Marker)
	number := tok.Data[0]

	alt := ""
	i := s.Index
	if value, end, ok := p.trioAfter(i, "va"); ok {
		alt = value
		p.skip = end - s.Index
		i = end
	}
	pub := ""
	if value, end, ok := p.trioAfter(i, "vp"); ok {
		pub = value
		p.skip = end - s.Index
	}

	s.VerseRef.Verse = numberPrefix(number)
	s.VerseOffset = 0
	p.sink.Verse(s, number, tok.Marker, alt, pub)
}

// trioAfter matches a Character marker, a Text payload, and the matching end
// marker at the first content token after i, skipping space-only text. It
// returns the trimmed payload and the index of the end token.
func (p *Parser) trioAfter(i int, marker string) (string, int, bool) {
	s := &p.state
	j := p.nextContent(i + 1)
	t1 := s.at(j)
	if t1 == nil || t1.Kind != token.Character || t1.Marker != marker {
		return "", 0, false
	}
	t2, t3 := s.at(j+1), s.at(j+2)
	if t2 == nil || t3 == nil || t2.Kind != token.Text ||
		t3.Kind != token.End || t3.Marker != marker+"*" {
		return "", 0, false
	}
	return strings.TrimSpace(t2.Text), j + 2, true
}

// nextContent returns the index of the first token at or after i that is not
// a space-only text token.
func (p *Parser) nextContent(i int) int {
	s := &p.state
	for {
		t := s.at(i)
		if t == nil {
			return i
		}
		if t.Kind == token.Text && t.AttrText == "" && strings.TrimSpace(t.Text) == "" {
			i++
			continue
		}
		return i
	}
}

func (p *Parser) handlePara(tok *token.Token) {
	s := &p.state
	switch tok.Marker {
	case "tr":
		p.popTo(ElemTable, ElemSidebar, ElemBook)
		p.sink.GotMarker(s, tok.Marker)
		if top := s.Top(); top == nil || top.Kind != ElemTable {
			p.push(Elem{Kind: ElemTable})
			p.sink.StartTable(s)
		}
		p.push(Elem{Kind: ElemRow, Marker: tok.Marker})
		p.sink.StartRow(s, tok.Marker)

	case "esb":
		p.CloseAll()
		p.sink.GotMarker(s, tok.Marker)
		closed := p.sidebarClosed()
		category := ""
		if value, end, ok := p.trioAfter(s.Index, "cat"); ok {
			category = value
			p.skip = end - s.Index
		}
		// The sidebar is pushed whether or not an esbe was found; its
		// closed state is still reported.
		p.push(Elem{Kind: ElemSidebar, Marker: tok.Marker, Closed: closed})
		p.sink.StartSidebar(s, tok.Marker, category, closed)

	case "esbe":
		p.sink.GotMarker(s, tok.Marker)
		if s.FindKind(ElemSidebar) >= 0 {
			p.CloseAll()
		} else {
			p.sink.Unmatched(s, tok.Marker)
		}

	default:
		p.popTo(ElemSidebar, ElemBook)
		p.sink.GotMarker(s, tok.Marker)
		p.push(Elem{Kind: ElemPara, Marker: tok.Marker})
		p.sink.StartPara(s, tok.Marker)
	}
}

// sidebarClosed looks ahead for an esbe before any new sidebar, book, or
// chapter.
func (p *Parser) sidebarClosed() bool {
	s := &p.state
	for i := s.Index + 1; i < len(s.Tokens); i++ {
		t := &s.Tokens[i]
		switch t.Kind {
		case token.Paragraph:
			if t.Marker == "esbe" {
				return true
			}
			if t.Marker == "esb" {
				return false
			}
		case token.Book, token.Chapter:
			return false
		}
	}
	return false
}

func (p *Parser) handleChar(tok *token.Token) {
	s := &p.state
	marker := tok.Marker

	// Table cells close back down to the row.
	if (strings.HasPrefix(marker, "th") || strings.HasPrefix(marker, "tc")) &&
		s.FindKind(ElemRow) >= 0 {
		p.popTo(ElemRow)
		p.sink.GotMarker(s, marker)
		align := AlignStart
		if len(marker) >= 3 {
			switch marker[2] {
			case 'c':
				align = AlignCenter
			case 'r':
				align = AlignEnd
			}
		}
		p.push(Elem{Kind: ElemCell, Marker: marker})
		p.sink.StartCell(s, marker, align)
		return
	}

	// A ref span is consumed as a link trio: the following text splits into
	// display|target and the pair of tokens is pre-consumed.
	if marker == "ref" {
		p.sink.GotMarker(s, marker)
		s.Special = true
		display, target := "", ""
		if next := s.at(s.Index + 1); next != nil && next.Kind == token.Text {
			display, target, _ = strings.Cut(next.Text, "|")
			p.skip++
			if end := s.at(s.Index + 2); end != nil && end.Kind == token.End && end.Marker == "ref*" {
				p.skip++
			}
		}
		p.sink.Ref(s, marker, display, target)
		return
	}

	nested := strings.HasPrefix(marker, "+")
	if !nested {
		p.popWhileChar()
	}
	p.sink.GotMarker(s, marker)

	elemMarker := marker
	if nested {
		if top := s.Top(); top != nil && top.Kind == ElemChar {
			elemMarker = marker[1:]
		}
	}
	closed := p.isClosed(elemMarker)
	p.push(Elem{Kind: ElemChar, Marker: elemMarker, Attrs: tok.Attrs, Closed: closed})
	p.sink.StartChar(s, elemMarker, closed)
}

func (p *Parser) handleNote(tok *token.Token) {
	s := &p.state
	p.closeNotes()
	p.sink.GotMarker(s, tok.Marker)
	caller := tok.Data[0]
	category := ""
	if value, end, ok := p.trioAfter(s.Index, "cat"); ok {
		category = value
		p.skip = end - s.Index
	}
	closed := p.isClosed(tok.Marker)
	p.push(Elem{Kind: ElemNote, Marker: tok.Marker, Closed: closed})
	p.sink.StartNote(s, tok.Marker, caller, category, closed)
}

func (p *Parser) handleEnd(tok *token.Token) {
	s := &p.state
	p.sink.GotMarker(s, tok.Marker)

	// A matching open note swallows everything above it.
	for j := len(s.Stack) - 1; j >= 0; j-- {
		if s.Stack[j].Kind == ElemNote && matchEnd(s.Stack[j].Marker, tok.Marker) {
			for len(s.Stack) > j {
				p.popElem(nil)
			}
			return
		}
	}

	// Otherwise the end must match one of the contiguous open character
	// styles at the top of the stack.
	match := -1
	for j := len(s.Stack) - 1; j >= 0 && s.Stack[j].Kind == ElemChar; j-- {
		if matchEnd(s.Stack[j].Marker, tok.Marker) {
			match = j
			break
		}
	}
	if match < 0 {
		p.sink.Unmatched(s, tok.Marker)
		return
	}
	for len(s.Stack) > match+1 {
		p.popElem(nil)
	}
	p.popElem(tok.Attrs)
}

// matchEnd reports whether endMarker closes an element opened as marker,
// accounting for the nesting prefix on either side.
func matchEnd(marker, endMarker string) bool {
	want := marker + "*"
	return endMarker == want || strings.TrimPrefix(endMarker, "+") == want
}

func (p *Parser) handleText(tok *token.Token) {
	s := &p.state
	text := strings.ReplaceAll(tok.Text, "~", "\u00A0")
	if next := s.at(s.Index + 1); next == nil ||
		next.Kind == token.Paragraph || next.Kind == token.Book || next.Kind == token.Chapter {
		text = strings.TrimSuffix(text, " ")
	}
	pieces := strings.Split(text, "//")
	for i, piece := range pieces {
		if i > 0 {
			p.sink.OptBreak(s)
		}
		if piece != "" {
			p.sink.Text(s, piece)
		}
	}
}

// popElem pops the top element and fires its end event. attrs is the
// adopted attribute set of an explicit end token, nil for implicit closes.
func (p *Parser) popElem(attrs []Attr) {
	s := &p.state
	e := s.Stack[len(s.Stack)-1]
	s.Stack = s.Stack[:len(s.Stack)-1]
	switch e.Kind {
	case ElemBook:
		p.sink.EndBook(s, e.Marker)
	case ElemPara:
		p.sink.EndPara(s, e.Marker)
	case ElemChar:
		p.sink.EndChar(s, e.Marker, attrs)
	case ElemTable:
		p.sink.EndTable(s)
	case ElemRow:
		p.sink.EndRow(s, e.Marker)
	case ElemCell:
		p.sink.EndCell(s, e.Marker)
	case ElemNote:
		p.sink.EndNote(s, e.Marker)
	case ElemSidebar:
		p.sink.EndSidebar(s, e.Marker)
	}
}

// popTo pops until the top element is one of the given kinds or the stack
// is empty.
func (p *Parser) popTo(kinds ...ElemKind) {
	s := &p.state
	for len(s.Stack) > 0 {
		top := s.Top().Kind
		for _, k := range kinds {
			if top == k {
				return
			}
		}
		p.popElem(nil)
	}
}

func (p *Parser) popWhileChar() {
	s := &p.state
	for top := s.Top(); top != nil && top.Kind == ElemChar; top = s.Top() {
		p.popElem(nil)
	}
}

// closeNotes pops every open note together with anything nested above it.
func (p *Parser) closeNotes() {
	s := &p.state
	for {
		j := s.FindKind(ElemNote)
		if j < 0 {
			return
		}
		for len(s.Stack) > j {
			p.popElem(nil)
		}
	}
}

func (p *Parser) push(e Elem) {
	e.serial = p.serial
	p.serial++
	p.state.Stack = append(p.state.Stack, e)
}

// isClosed probes forward with a silent clone of the parser to decide
// whether the span being opened at the current token is explicitly closed.
// The probe terminates on a matching end marker, on a reopening of the same
// marker, or when the element disappears from the clone's stack. The primary
// parser never observes the clone's state.
func (p *Parser) isClosed(marker string) bool {
	if p.probe {
		return false
	}
	clone := p.cloneForProbe()
	pos := len(p.state.Stack)
	if !clone.ProcessToken() {
		return false
	}
	if len(clone.state.Stack) <= pos {
		return false
	}
	serial := clone.state.Stack[pos].serial
	bare := strings.TrimPrefix(marker, "+")
	for {
		if len(clone.state.Stack) <= pos || clone.state.Stack[pos].serial != serial {
			return false
		}
		cur := clone.state.Token()
		if cur == nil {
			return false
		}
		if clone.skip == 0 {
			switch cur.Kind {
			case token.End:
				if matchEnd(marker, cur.Marker) {
					return true
				}
			case token.Character:
				if strings.TrimPrefix(cur.Marker, "+") == bare {
					return false
				}
			}
		}
		if !clone.ProcessToken() {
			return false
		}
	}
}

func (p *Parser) cloneForProbe() *Parser {
	clone := &Parser{
		catalog:    p.catalog,
		sink:       BaseSink{},
		addSpaces:  p.addSpaces,
		skip:       p.skip,
		serial:     p.serial,
		probe:      true,
		bookNumber: p.bookNumber,
	}
	clone.state = p.state
	clone.state.Stack = append([]Elem(nil), p.state.Stack...)
	return clone
}

// numberPrefix parses the leading digits of a chapter or verse payload.
func numberPrefix(s string) int {
	n := 0
	seen := false
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			break
		}
		n = n*10 + int(s[i]-'0')
		seen = true
	}
	if !seen {
		return 0
	}
	return n
}
