// Package pdf provides the empirical probability model of a fragment-size
// distribution and the maximum-likelihood distance search built on it.
package pdf

import (
	"math"

	"github.com/scafbio/distest/hist"
)

// PDF is a normalized empirical distribution over integer fragment sizes.
// Bins outside the observed range, and observed-range bins with no mass,
// report a small floor probability so that log-likelihoods stay finite.
type PDF struct {
	dist   []float64
	maxIdx int
	minp   float64
	stdDev float64
}

// New builds a PDF from a histogram.  The histogram must be non-empty and
// contain no negative bins.
func New(h *hist.Histogram) *PDF {
	maxIdx := h.Maximum()
	total := h.Size()
	p := &PDF{
		dist:   make([]float64, maxIdx+1),
		maxIdx: maxIdx,
		minp:   1 / float64(total),
		stdDev: h.SD(),
	}
	for i := 0; i <= maxIdx; i++ {
		if n := h.CountAt(i); n > 0 {
			p.dist[i] = float64(n) / float64(total)
		} else {
			p.dist[i] = p.minp
		}
	}
	return p
}

// Prob returns the probability of fragment size x.
func (p *PDF) Prob(x int) float64 {
	if x < 0 || x > p.maxIdx {
		return p.minp
	}
	return p.dist[x]
}

// MinProb returns the floor probability.  A size whose probability exceeds
// this floor carries actual observed mass.
func (p *PDF) MinProb() float64 { return p.minp }

// MaxIdx returns the largest observed fragment size.
func (p *PDF) MaxIdx() int { return p.maxIdx }

// StdDev returns the standard deviation of the distribution.
func (p *PDF) StdDev() float64 { return p.stdDev }

// SampleStdDev returns the standard deviation of the mean of n samples drawn
// from this distribution.
func (p *PDF) SampleStdDev(n int) float64 {
	return p.stdDev / math.Sqrt(float64(n))
}
