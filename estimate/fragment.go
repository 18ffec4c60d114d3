package estimate

import (
	"sort"

	"github.com/grailbio/hts/sam"
)

// fragment is the provisional span of one read pair, computed as if the two
// contigs were laid end to end with no gap or overlap.  end > start by
// construction.
type fragment struct {
	start, end int
}

func (f fragment) size() int { return f.end - f.start }

func leadingClip(c sam.Cigar) int {
	n := 0
	for _, op := range c {
		t := op.Type()
		if t != sam.CigarSoftClipped && t != sam.CigarHardClipped {
			break
		}
		n += op.Len()
	}
	return n
}

func trailingClip(c sam.Cigar) int {
	n := 0
	for i := len(c) - 1; i >= 0; i-- {
		t := c[i].Type()
		if t != sam.CigarSoftClipped && t != sam.CigarHardClipped {
			break
		}
		n += c[i].Len()
	}
	return n
}

// targetAtQueryStart extrapolates the position of the first base of the
// query on the target.  For a reverse alignment the query starts at the far
// end of the aligned span.
func targetAtQueryStart(r *sam.Record) int {
	if r.Flags&sam.Reverse != 0 {
		return r.End() + trailingClip(r.Cigar)
	}
	return r.Pos - leadingClip(r.Cigar)
}

// makeFragment converts one alignment record into its provisional fragment.
// a0 is the anchor-relative query-start coordinate and a1 the mate-relative
// one (carried in the TempLen field by the upstream fixmate convention).
func makeFragment(rec *sam.Record, len0, len1 int, rf bool) fragment {
	a0 := targetAtQueryStart(rec)
	a1 := rec.TempLen
	if rec.Flags&sam.Reverse != 0 {
		a0 = len0 - a0
	}
	if rec.Flags&sam.MateReverse == 0 {
		a1 = len1 - a1
	}
	if rf {
		return fragment{a1, len1 + a0}
	}
	return fragment{a0, len0 + a1}
}

// dedupFragments sorts frags and collapses exact duplicates in place.
// Duplicate observations would otherwise bias the likelihood.
func dedupFragments(frags []fragment) []fragment {
	sort.Slice(frags, func(i, j int) bool {
		if frags[i].start != frags[j].start {
			return frags[i].start < frags[j].start
		}
		return frags[i].end < frags[j].end
	})
	out := frags[:0]
	for _, f := range frags {
		if len(out) == 0 || f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}
