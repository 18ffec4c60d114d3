package estimate

import (
	"bytes"
	"sort"
	"strings"
	"testing"

	"github.com/grailbio/hts/sam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scafbio/distest/hist"
	"github.com/scafbio/distest/pdf"
)

func testPDF() *pdf.PDF {
	h := hist.New()
	h.Insert(400, 1)
	h.Insert(500, 2)
	h.Insert(600, 1)
	return pdf.New(h)
}

func testOpts() Opts {
	return Opts{
		K:        20,
		MinPairs: 2,
		SeedLen:  40,
		MinMapQ:  1,
		Threads:  1,
	}
}

func runPipeline(t *testing.T, opts Opts, recs []*sam.Record) (string, error) {
	var buf bytes.Buffer
	err := Run(opts, testTable(t), testPDF(), &sliceReader{recs: recs}, &buf)
	return buf.String(), err
}

// Three forward-sense pairs spanning from A to B, all with provisional span
// 480.  The 500 peak of the distribution is reached by a shift of +20.
func spanningPairs() []*sam.Record {
	return []*sam.Record{
		alignRecord(refA, 940, sam.Paired|sam.MateReverse, refB, 420, 60),
		alignRecord(refA, 950, sam.Paired|sam.MateReverse, refB, 430, 60),
		alignRecord(refA, 960, sam.Paired|sam.MateReverse, refB, 440, 60),
	}
}

func TestRunAdjacency(t *testing.T) {
	out, err := runPipeline(t, testOpts(), spanningPairs())
	require.NoError(t, err)
	assert.Equal(t, "A B+,20,3,47.14 ;\n", out)
}

func TestRunDot(t *testing.T) {
	opts := testOpts()
	opts.Format = FormatDot
	out, err := runPipeline(t, opts, spanningPairs())
	require.NoError(t, err)
	assert.Equal(t, "\"A+\" -> \"B+\" [d=20 e=47.14 n=3]\n", out)
}

func TestRunDotFlipsReverseAnchor(t *testing.T) {
	// Reverse-strand anchor alignments with same-strand mates: the link
	// lands in the reverse-sense section, and the dot edge is flipped so
	// that it reads in the canonical forward direction.
	recs := []*sam.Record{
		alignRecord(refA, 100, sam.Paired|sam.Reverse|sam.MateReverse, refB, 330, 60),
		alignRecord(refA, 110, sam.Paired|sam.Reverse|sam.MateReverse, refB, 320, 60),
		alignRecord(refA, 120, sam.Paired|sam.Reverse|sam.MateReverse, refB, 310, 60),
	}
	opts := testOpts()
	opts.Format = FormatDot
	out, err := runPipeline(t, opts, recs)
	require.NoError(t, err)
	assert.Equal(t, "\"A-\" -> \"B+\" [d=20 e=47.14 n=3]\n", out)
}

func TestRunRF(t *testing.T) {
	// An RF library swaps the two sense sections and the fragment branch.
	recs := []*sam.Record{
		alignRecord(refA, 30, sam.Paired|sam.MateReverse, refB, 550, 60),
		alignRecord(refA, 40, sam.Paired|sam.MateReverse, refB, 560, 60),
		alignRecord(refA, 50, sam.Paired|sam.MateReverse, refB, 570, 60),
	}
	opts := testOpts()
	opts.RF = true
	out, err := runPipeline(t, opts, recs)
	require.NoError(t, err)
	assert.Equal(t, "A ; B+,20,3,47.14\n", out)
}

func TestRunFilteredRecordProducesNoOutput(t *testing.T) {
	recs := []*sam.Record{
		alignRecord(refA, 940, sam.Paired|sam.MateReverse, refB, 420, 0), // below MinMapQ
	}
	out, err := runPipeline(t, testOpts(), recs)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRunTooFewPairs(t *testing.T) {
	recs := spanningPairs()[:1]
	out, err := runPipeline(t, testOpts(), recs)
	require.NoError(t, err)
	assert.Equal(t, "A ;\n", out)
}

func TestRunDuplicatesCollapse(t *testing.T) {
	recs := spanningPairs()
	recs[2] = alignRecord(refA, 940, sam.Paired|sam.MateReverse, refB, 420, 60)
	opts := testOpts()
	opts.MinPairs = 3
	// Three raw pairs, but only two distinct fragments: below threshold.
	out, err := runPipeline(t, opts, recs)
	require.NoError(t, err)
	assert.Equal(t, "A ;\n", out)
}

func TestRunSkipsShortAnchors(t *testing.T) {
	recs := []*sam.Record{
		alignRecord(refC, 10, sam.Paired|sam.MateReverse, refB, 420, 60),
		alignRecord(refC, 20, sam.Paired|sam.MateReverse, refB, 430, 60),
	}
	opts := testOpts()
	opts.SeedLen = 600 // refC is 500 long
	out, err := runPipeline(t, opts, recs)
	require.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRunUnsortedInputFails(t *testing.T) {
	recs := []*sam.Record{
		alignRecord(refA, 940, sam.Paired|sam.MateReverse, refB, 420, 60),
		alignRecord(refB, 940, sam.Paired|sam.MateReverse, refA, 420, 60),
		alignRecord(refA, 950, sam.Paired|sam.MateReverse, refB, 430, 60),
	}
	_, err := runPipeline(t, testOpts(), recs)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sorted")
}

func TestRunWorkerCountDoesNotChangeEstimates(t *testing.T) {
	makeRecs := func() []*sam.Record {
		var recs []*sam.Record
		recs = append(recs, spanningPairs()...)
		recs = append(recs,
			alignRecord(refB, 940, sam.Paired|sam.MateReverse, refA, 420, 60),
			alignRecord(refB, 950, sam.Paired|sam.MateReverse, refA, 430, 60),
			alignRecord(refB, 960, sam.Paired|sam.MateReverse, refA, 440, 60),
			alignRecord(refC, 10, sam.Paired|sam.MateReverse, refA, 420, 60),
			alignRecord(refC, 20, sam.Paired|sam.MateReverse, refA, 430, 60),
		)
		return recs
	}
	sortedLines := func(s string) []string {
		lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
		sort.Strings(lines)
		return lines
	}

	opts := testOpts()
	serial, err := runPipeline(t, opts, makeRecs())
	require.NoError(t, err)

	opts.Threads = 4
	for i := 0; i < 10; i++ {
		parallel, err := runPipeline(t, opts, makeRecs())
		require.NoError(t, err)
		assert.Equal(t, sortedLines(serial), sortedLines(parallel))
	}
}
