package pdf

import (
	"math"
)

// MinDist is the sentinel distance returned when no candidate distance
// places any sample on observed probability mass.
const MinDist = math.MinInt32

// window weights a fragment size by the number of placements of a fragment
// of that size across the junction of two contigs of the given lengths,
// normalized by the shorter length.  The shape is a trapezoid: rising over
// [0, x1), flat over [x1, x2), falling over [x2, x3).
type window struct {
	x1, x2, x3 int
}

func newWindow(len0, len1 int) window {
	if len0 > len1 {
		len0, len1 = len1, len0
	}
	return window{x1: len0, x2: len1, x3: len0 + len1}
}

func (w window) at(x int) float64 {
	var v int
	switch {
	case x <= 0:
		v = 1
	case x < w.x1:
		v = x
	case x < w.x2:
		v = w.x1
	case x < w.x3:
		v = w.x3 - x
	default:
		v = 1
	}
	return float64(v) / float64(w.x1)
}

// computeLikelihood returns the log likelihood of observing the provisional
// spans shifted by theta, and the number of samples that land on bins with
// actual observed mass.
func computeLikelihood(theta int, samples []int, p *PDF) (float64, int) {
	logL := 0.0
	n := 0
	for _, x := range samples {
		px := p.Prob(x + theta)
		logL += math.Log(px)
		if px > p.MinProb() {
			n++
		}
	}
	return logL, n
}

// MaximumLikelihoodEstimate returns the distance in [first, last] that
// maximizes the likelihood of observing the given provisional spans under
// the distribution shifted by that distance, together with the number of
// samples agreeing with the distribution at the returned distance.  The
// likelihood is corrected for the number of possible placements of each
// fragment size given the two contig lengths.  If no candidate has any
// agreeing sample, it returns (MinDist, 0).
func (p *PDF) MaximumLikelihoodEstimate(first, last int, samples []int, len0, len1 int) (int, int) {
	bestDist, bestN := MinDist, 0
	bestLikelihood := math.Inf(-1)
	w := newWindow(len0, len1)
	for theta := first; theta <= last; theta++ {
		// Normalizing constant of the shifted, window-weighted PDF.
		pSum := 0.0
		for i := 0; i <= p.maxIdx; i++ {
			pSum += p.dist[i] * w.at(i-theta)
		}
		logL, n := computeLikelihood(theta, samples, p)
		logL -= float64(len(samples)) * math.Log(pSum)
		if n > 0 && logL > bestLikelihood {
			bestLikelihood = logL
			bestDist = theta
			bestN = n
		}
	}
	return bestDist, bestN
}
