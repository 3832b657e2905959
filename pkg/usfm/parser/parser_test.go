package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arenzana/markercheck/pkg/usfm/style"
	"github.com/arenzana/markercheck/pkg/usfm/token"
)

// recordingSink captures events as strings for easy comparison.
type recordingSink struct {
	BaseSink
	events []string
	starts int
	ends   int
}

func (r *recordingSink) add(format string, args ...interface{}) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recordingSink) StartBook(s *State, marker, code string) { r.starts++; r.add("book %s", code) }
func (r *recordingSink) EndBook(s *State, marker string)         { r.ends++; r.add("/book") }
func (r *recordingSink) Chapter(s *State, number, marker, alt, pub string) {
	r.add("chapter %s alt=%q pub=%q", number, alt, pub)
}
func (r *recordingSink) Verse(s *State, number, marker, alt, pub string) {
	r.add("verse %s alt=%q pub=%q", number, alt, pub)
}
func (r *recordingSink) StartPara(s *State, marker string) { r.starts++; r.add("para %s", marker) }
func (r *recordingSink) EndPara(s *State, marker string)   { r.ends++; r.add("/para %s", marker) }
func (r *recordingSink) StartChar(s *State, marker string, closed bool) {
	r.starts++
	r.add("char %s closed=%v", marker, closed)
}
func (r *recordingSink) EndChar(s *State, marker string, attrs []Attr) {
	r.ends++
	r.add("/char %s", marker)
}
func (r *recordingSink) StartNote(s *State, marker, caller, category string, closed bool) {
	r.starts++
	r.add("note %s caller=%q closed=%v", marker, caller, closed)
}
func (r *recordingSink) EndNote(s *State, marker string) { r.ends++; r.add("/note %s", marker) }
func (r *recordingSink) StartTable(s *State)             { r.starts++; r.add("table") }
func (r *recordingSink) EndTable(s *State)               { r.ends++; r.add("/table") }
func (r *recordingSink) StartRow(s *State, marker string) {
	r.starts++
	r.add("row")
}
func (r *recordingSink) EndRow(s *State, marker string) { r.ends++; r.add("/row") }
func (r *recordingSink) StartCell(s *State, marker string, align Align) {
	r.starts++
	r.add("cell %s %s", marker, align)
}
func (r *recordingSink) EndCell(s *State, marker string) { r.ends++; r.add("/cell") }
func (r *recordingSink) Text(s *State, text string)      { r.add("text %q", text) }
func (r *recordingSink) Unmatched(s *State, marker string) {
	r.add("unmatched %s", marker)
}
func (r *recordingSink) Ref(s *State, marker, display, target string) {
	r.add("ref %q -> %q", display, target)
}
func (r *recordingSink) StartSidebar(s *State, marker, category string, closed bool) {
	r.starts++
	r.add("sidebar cat=%q closed=%v", category, closed)
}
func (r *recordingSink) EndSidebar(s *State, marker string) { r.ends++; r.add("/sidebar") }
func (r *recordingSink) OptBreak(s *State)                  { r.add("optbreak") }
func (r *recordingSink) Milestone(s *State, marker string, start bool, endMarker string) {
	r.add("milestone %s start=%v", marker, start)
}

func parse(t *testing.T, src string) (*recordingSink, *Parser) {
	t.Helper()
	catalog := style.Default()
	tokens := token.NewTokenizer(catalog, token.Options{}).Tokenize(src)
	sink := &recordingSink{}
	p := New(catalog, tokens, sink, Options{InitialBook: "GEN"})
	p.ProcessAll()
	p.CloseAll()
	return sink, p
}

// TestParseBasicBook tests the event stream for a minimal book
func TestParseBasicBook(t *testing.T) {
	sink, p := parse(t, "\\id GEN\n\\p\n\\v 1 Hello\n")

	want := []string{
		"book GEN",
		"para p",
		`verse 1 alt="" pub=""`,
		`text "Hello"`,
		"/para p",
		"/book",
	}
	if diff := cmp.Diff(want, sink.events); diff != "" {
		t.Errorf("event mismatch (-want +got):\n%s", diff)
	}
	if len(p.State().Stack) != 0 {
		t.Errorf("Expected empty stack, got %d elements", len(p.State().Stack))
	}
}

// TestEventBalance checks that every start has exactly one end.
func TestEventBalance(t *testing.T) {
	sources := []string{
		"\\id GEN\n\\c 1\n\\p\n\\v 1 \\bd bold\\bd* more\n\\v 2 \\f + \\ft note\\f* tail\n",
		"\\id GEN\n\\c 1\n\\tr \\th1 A\\th2 B\n\\tr \\tc1 1\\tc2 2\n\\p\n\\v 1 x\n",
		"\\id GEN\n\\c 1\n\\esb\n\\p inside\n\\esbe\n\\p\n\\v 1 x\n",
		"\\id GEN\n\\p\n\\v 1 \\bd never closed\n",
		"\\id GEN\n\\c 1\n\\c 2\n\\p\n\\v 1 x\n",
	}
	for _, src := range sources {
		sink, p := parse(t, src)
		assert.Equal(t, sink.starts, sink.ends, "unbalanced events for %q: %v", src, sink.events)
		assert.Empty(t, p.State().Stack, "stack not empty for %q", src)
	}
}

func TestChapterAltAndPubNumbers(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\c 2 \\ca 3\\ca*\n\\cp II\n\\p\n\\v 1 x\n")
	var chapter string
	for _, e := range sink.events {
		if strings.HasPrefix(e, "chapter") {
			chapter = e
		}
	}
	assert.Equal(t, `chapter 2 alt="3" pub="II"`, chapter)
	// the consumed tokens must not fire paragraph events for \cp
	for _, e := range sink.events {
		assert.NotEqual(t, "para cp", e)
	}
}

func TestVerseAltAndPubNumbers(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\c 1\n\\p\n\\v 1 \\va 2\\va*\\vp 1b\\vp* In the beginning\n")
	var verse string
	for _, e := range sink.events {
		if strings.HasPrefix(e, "verse") {
			verse = e
		}
	}
	assert.Equal(t, `verse 1 alt="2" pub="1b"`, verse)
}

func TestRefLinkTrio(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 \\ref MAT 3:1|MAT 3:1-4\\ref* more\n")
	require.Contains(t, sink.events, `ref "MAT 3:1" -> "MAT 3:1-4"`)
	for _, e := range sink.events {
		assert.False(t, strings.HasPrefix(e, "char ref"), "ref must not open a char element")
		assert.NotEqual(t, `text "MAT 3:1|MAT 3:1-4"`, e, "link text must be consumed")
	}
}

func TestTableEvents(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\c 1\n\\tr \\th1 Day\\thr2 Act\n\\tr \\tc1 one\\tcr2 first\n\\p\n\\v 1 x\n")

	var cells []string
	for _, e := range sink.events {
		if strings.HasPrefix(e, "cell") {
			cells = append(cells, e)
		}
	}
	want := []string{
		"cell th1 start",
		"cell thr2 end",
		"cell tc1 start",
		"cell tcr2 end",
	}
	if diff := cmp.Diff(want, cells); diff != "" {
		t.Errorf("cell events (-want +got):\n%s", diff)
	}

	// One table, two rows.
	assert.Equal(t, 1, count(sink.events, "table"))
	assert.Equal(t, 2, count(sink.events, "row"))
	assert.Equal(t, 1, count(sink.events, "/table"))
}

func count(events []string, name string) int {
	n := 0
	for _, e := range events {
		if e == name {
			n++
		}
	}
	return n
}

func TestUnmatchedEndMarker(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 word\\bd*\n")
	assert.Contains(t, sink.events, "unmatched bd*")
}

func TestUnmatchedEsbe(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\c 1\n\\esbe\n\\p\n\\v 1 x\n")
	assert.Contains(t, sink.events, "unmatched esbe")
}

func TestSidebarPushedEvenWhenUnclosed(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\c 1\n\\esb\n\\p inside\n")
	assert.Contains(t, sink.events, `sidebar cat="" closed=false`)
	assert.Contains(t, sink.events, "/sidebar")
}

func TestSidebarCategory(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\c 1\n\\esb \\cat History\\cat*\n\\p inside\n\\esbe\n\\p\n\\v 1 x\n")
	assert.Contains(t, sink.events, `sidebar cat="History" closed=true`)
}

func TestCharClosedLookahead(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 \\bd closed\\bd* then \\it open\n")
	assert.Contains(t, sink.events, "char bd closed=true")
	assert.Contains(t, sink.events, "char it closed=false")
}

func TestNoteClosedLookahead(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 a\\f + \\ft fine\\f* b\\fe - \\ft never\n")
	assert.Contains(t, sink.events, `note f caller="+" closed=true`)
	assert.Contains(t, sink.events, `note fe caller="-" closed=false`)
}

func TestNewParagraphClosesCharacters(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 \\bd bold\n\\q1 poetry\n")
	// bd is implicitly closed before q1 opens
	idx := indexOf(sink.events, "/char bd")
	require.GreaterOrEqual(t, idx, 0)
	assert.Greater(t, indexOf(sink.events, "para q1"), idx)
}

func indexOf(events []string, name string) int {
	for i, e := range events {
		if e == name {
			return i
		}
	}
	return -1
}

func TestOptBreakAndNbsp(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 one//two and a~b\n")
	assert.Contains(t, sink.events, "optbreak")
	assert.Contains(t, sink.events, `text "one"`)
	assert.Contains(t, sink.events, "text \"two and a\u00a0b\"")
}

func TestMilestoneEvents(t *testing.T) {
	sink, _ := parse(t, "\\id GEN\n\\p\n\\v 1 \\qt-s|who=\"Pilate\"\\*said\\qt-e\\*\n")
	assert.Contains(t, sink.events, "milestone qt-s start=true")
	assert.Contains(t, sink.events, "milestone qt-e start=false")
}

func TestVerseReferenceTracking(t *testing.T) {
	catalog := style.Default()
	tokens := token.NewTokenizer(catalog, token.Options{}).Tokenize(
		"\\id GEN\n\\c 3\n\\p\n\\v 7 text\n")
	p := New(catalog, tokens, nil, Options{InitialBook: "GEN"})
	p.ProcessAll()
	ref := p.State().VerseRef
	assert.Equal(t, "GEN", ref.Book)
	assert.Equal(t, 3, ref.Chapter)
	assert.Equal(t, 7, ref.Verse)
}

func TestVerseOffsetsAdvance(t *testing.T) {
	catalog := style.Default()
	tokens := token.NewTokenizer(catalog, token.Options{}).Tokenize(
		"\\id GEN\n\\p\n\\v 1 four and more words\n")
	p := New(catalog, tokens, nil, Options{InitialBook: "GEN"})
	var offsets []int
	for p.ProcessToken() {
		offsets = append(offsets, p.State().VerseOffset)
	}
	// once the verse starts, offsets are monotonic non-decreasing
	last := -1
	for _, o := range offsets[3:] {
		if o < last {
			t.Fatalf("offsets decreased within a verse: %v", offsets)
		}
		last = o
	}
}

func TestInitialBookWins(t *testing.T) {
	catalog := style.Default()
	tokens := token.NewTokenizer(catalog, token.Options{}).Tokenize("\\id EXO\n\\p\n\\v 1 x\n")
	p := New(catalog, tokens, nil, Options{InitialBook: "GEN"})
	p.ProcessAll()
	assert.Equal(t, "GEN", p.State().VerseRef.Book, "a seeded book reference is never replaced")
}
