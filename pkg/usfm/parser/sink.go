package parser

// Align is the cell alignment derived from a table cell marker.
type Align int

// Cell alignments.
const (
	AlignStart Align = iota
	AlignCenter
	AlignEnd
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignEnd:
		return "end"
	default:
		return "start"
	}
}

// Sink receives the structured events the parser fires while walking the
// token stream. It is the sole interface between parsing and validation;
// every callback gets the live parser state, which must be treated as
// read-only.
type Sink interface {
	// GotMarker fires for every marker token after implicit closes have run
	// and before the token's own events.
	GotMarker(s *State, marker string)

	StartBook(s *State, marker, code string)
	EndBook(s *State, marker string)

	Chapter(s *State, number, marker, altNumber, pubNumber string)
	Verse(s *State, number, marker, altNumber, pubNumber string)

	StartPara(s *State, marker string)
	EndPara(s *State, marker string)

	// StartChar reports closed=false when lookahead finds no matching end
	// marker for the span.
	StartChar(s *State, marker string, closed bool)
	// EndChar carries the attribute set adopted by an explicit end token;
	// it is nil for implicit closes.
	EndChar(s *State, marker string, attrs []Attr)

	StartNote(s *State, marker, caller, category string, closed bool)
	EndNote(s *State, marker string)

	StartTable(s *State)
	EndTable(s *State)
	StartRow(s *State, marker string)
	EndRow(s *State, marker string)
	StartCell(s *State, marker string, align Align)
	EndCell(s *State, marker string)

	Text(s *State, text string)
	Unmatched(s *State, marker string)
	Ref(s *State, marker, display, target string)

	StartSidebar(s *State, marker, category string, closed bool)
	EndSidebar(s *State, marker string)

	OptBreak(s *State)
	Milestone(s *State, marker string, start bool, endMarker string)
}

// BaseSink is a no-op Sink for embedding, so implementations only override
// the callbacks they care about.
type BaseSink struct{}

func (BaseSink) GotMarker(*State, string)                          {}
func (BaseSink) StartBook(*State, string, string)                  {}
func (BaseSink) EndBook(*State, string)                            {}
func (BaseSink) Chapter(*State, string, string, string, string)    {}
func (BaseSink) Verse(*State, string, string, string, string)      {}
func (BaseSink) StartPara(*State, string)                          {}
func (BaseSink) EndPara(*State, string)                            {}
func (BaseSink) StartChar(*State, string, bool)                    {}
func (BaseSink) EndChar(*State, string, []Attr)                    {}
func (BaseSink) StartNote(*State, string, string, string, bool)    {}
func (BaseSink) EndNote(*State, string)                            {}
func (BaseSink) StartTable(*State)                                 {}
func (BaseSink) EndTable(*State)                                   {}
func (BaseSink) StartRow(*State, string)                           {}
func (BaseSink) EndRow(*State, string)                             {}
func (BaseSink) StartCell(*State, string, Align)                   {}
func (BaseSink) EndCell(*State, string)                            {}
func (BaseSink) Text(*State, string)                               {}
func (BaseSink) Unmatched(*State, string)                          {}
func (BaseSink) Ref(*State, string, string, string)                {}
func (BaseSink) StartSidebar(*State, string, string, bool)         {}
func (BaseSink) EndSidebar(*State, string)                         {}
func (BaseSink) OptBreak(*State)                                   {}
func (BaseSink) Milestone(*State, string, bool, string)            {}
