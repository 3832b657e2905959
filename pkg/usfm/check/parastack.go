package check

import "github.com/arenzana/markercheck/pkg/usfm/style"

// paraStack validates paragraph placement with rank awareness. Each entry is
// a block-level marker currently providing context (the book id, the chapter,
// then headings and paragraphs by rank).
type paraStack struct {
	elems []paraElem
}

type paraElem struct {
	marker string
	rank   int
}

func (ps *paraStack) reset(elems ...paraElem) {
	ps.elems = append(ps.elems[:0], elems...)
}

// accept applies the placement rule for desc: with no occurs-under
// constraint the marker stacks anywhere; otherwise the innermost stack
// element named in the constraint must either be on top, or the element
// directly above it must have a rank number no greater than the incoming
// marker's (rank 0 on either side waives the comparison). On success the stack is truncated to
// the constraint element and the marker pushed.
func (ps *paraStack) accept(desc *style.Marker) bool {
	incoming := paraElem{marker: desc.Marker, rank: desc.Rank}
	if len(desc.OccursUnder) == 0 {
		ps.elems = append(ps.elems, incoming)
		return true
	}
	for j := len(ps.elems) - 1; j >= 0; j-- {
		if !desc.OccursUnderSet(ps.elems[j].marker) {
			continue
		}
		if j < len(ps.elems)-1 {
			above := ps.elems[j+1]
			if above.rank != 0 && incoming.rank != 0 && above.rank > incoming.rank {
				ps.push(incoming)
				return false
			}
		}
		ps.elems = append(ps.elems[:j+1], incoming)
		return true
	}
	ps.push(incoming)
	return false
}

// push stacks the marker without truncation; used after a violation so one
// bad marker does not cascade into errors for everything below it.
func (ps *paraStack) push(e paraElem) {
	ps.elems = append(ps.elems, e)
}
