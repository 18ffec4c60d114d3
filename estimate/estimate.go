// Package estimate computes maximum-likelihood distance estimates between
// pairs of assembled contigs from paired-end alignments and an empirical
// fragment-size distribution.
package estimate

import (
	"fmt"

	"github.com/grailbio/hts/sam"

	"github.com/scafbio/distest/contig"
	"github.com/scafbio/distest/pdf"
)

// InvalidDistance marks an estimate whose evidence was insufficient to run
// or trust the likelihood search.
const InvalidDistance = pdf.MinDist

// Estimate is the distance estimate for one link out of an anchor contig.
type Estimate struct {
	// Contig is the linked contig, with its sense relative to the anchor.
	Contig contig.Node
	// Distance between the two contigs; negative values are overlaps.
	Distance int
	// NumPairs counts the distinct fragment observations that agree with
	// the expected distribution.
	NumPairs int
	// StdDev is the uncertainty of Distance given NumPairs observations.
	StdDev float64
}

func (e Estimate) adjString(t *contig.Table) string {
	return fmt.Sprintf("%s,%d,%d,%.4g", t.NodeString(e.Contig), e.Distance, e.NumPairs, e.StdDev)
}

func (e Estimate) dotString(t *contig.Table) string {
	return fmt.Sprintf("%q [d=%d e=%.4g n=%d]", t.NodeString(e.Contig), e.Distance, e.StdDev, e.NumPairs)
}

// estimateDistance converts a group of alignment records into distinct
// fragment observations and runs the likelihood search over candidate
// distances.  It returns the estimated distance and the number of agreeing
// pairs; when the distinct observation count is below opts.MinPairs the
// search is not invoked, the distance is InvalidDistance, and the distinct
// count is returned for diagnostics.
func estimateDistance(len0, len1 int, recs []*sam.Record, opts Opts, p *pdf.PDF) (int, int) {
	frags := make([]fragment, 0, len(recs))
	for _, rec := range recs {
		frags = append(frags, makeFragment(rec, len0, len1, opts.RF))
	}
	frags = dedupFragments(frags)
	if len(frags) < opts.MinPairs {
		return InvalidDistance, len(frags)
	}
	sizes := make([]int, len(frags))
	for i, f := range frags {
		sizes[i] = f.size()
	}
	return p.MaximumLikelihoodEstimate(-opts.K+1, p.MaxIdx(), sizes, len0, len1)
}
