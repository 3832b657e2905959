// Package parser implements the single-pass pushdown parser over a USFM
// token stream. The parser maintains a stack of open elements and the
// current verse reference, and reports structure to a Sink; it never fails
// on malformed input.
package parser

import (
	"fmt"

	"github.com/arenzana/markercheck/pkg/usfm/token"
)

// Attr is re-exported for sink implementations.
type Attr = token.Attr

// ElemKind is the category of an open element on the parser stack.
type ElemKind int

// Element kinds.
const (
	ElemBook ElemKind = iota
	ElemPara
	ElemChar
	ElemTable
	ElemRow
	ElemCell
	ElemNote
	ElemSidebar
)

var elemNames = [...]string{"Book", "Para", "Char", "Table", "Row", "Cell", "Note", "Sidebar"}

func (k ElemKind) String() string {
	if k >= 0 && int(k) < len(elemNames) {
		return elemNames[k]
	}
	return fmt.Sprintf("ElemKind(%d)", int(k))
}

// Elem is one open element.
type Elem struct {
	Kind   ElemKind
	Marker string
	Attrs  []Attr
	Closed bool

	serial uint64 // identity across probe clones
}

// VerseRef is the current scripture position.
type VerseRef struct {
	Book    string
	Chapter int
	Verse   int
}

func (v VerseRef) String() string {
	return fmt.Sprintf("%s:%d:%d", v.Book, v.Chapter, v.Verse)
}

// State is the live parser state handed to sink callbacks. Sinks must treat
// it as read-only.
type State struct {
	Tokens []token.Token
	Index  int
	Stack  []Elem

	VerseRef    VerseRef
	VerseOffset int

	// Special is set while the parser is consuming tokens that belong to a
	// preceding construct (alternate numbers, categories, link trios).
	Special bool
}

// Token returns the token being processed, or nil past the end.
func (s *State) Token() *token.Token {
	return s.at(s.Index)
}

func (s *State) at(i int) *token.Token {
	if i < 0 || i >= len(s.Tokens) {
		return nil
	}
	return &s.Tokens[i]
}

// Top returns the innermost open element, or nil when the stack is empty.
func (s *State) Top() *Elem {
	if len(s.Stack) == 0 {
		return nil
	}
	return &s.Stack[len(s.Stack)-1]
}

// FindKind returns the index of the topmost element of the given kind,
// or -1 when none is open.
func (s *State) FindKind(kind ElemKind) int {
	for j := len(s.Stack) - 1; j >= 0; j-- {
		if s.Stack[j].Kind == kind {
			return j
		}
	}
	return -1
}
