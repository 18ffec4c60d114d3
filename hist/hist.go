// Package hist implements the sparse integer histogram used to describe an
// empirical fragment-size distribution.  Bin keys may be negative: by
// upstream convention the sign of a fragment size encodes whether the pair's
// orientation matched the assumed library orientation.
package hist

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
)

// Histogram is a map from an integer bin to its count.
type Histogram struct {
	bins map[int]uint64
}

// New returns an empty histogram.
func New() *Histogram {
	return &Histogram{bins: map[int]uint64{}}
}

// Insert adds n observations of value x.
func (h *Histogram) Insert(x int, n uint64) {
	h.bins[x] += n
}

// Parse reads a histogram with one "key count" pair per non-empty line.
func Parse(r io.Reader) (*Histogram, error) {
	h := New()
	scanner := bufio.NewScanner(r)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("hist: line %d: expected two fields, got %d", lineno, len(fields))
		}
		key, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("hist: line %d: bad bin %q", lineno, fields[0])
		}
		count, err := strconv.ParseUint(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("hist: line %d: bad count %q", lineno, fields[1])
		}
		h.Insert(key, count)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return h, nil
}

// Load reads a histogram from path, transparently decompressing it.
func Load(ctx context.Context, path string) (h *Histogram, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if e := in.Close(ctx); e != nil && err == nil {
			err = e
		}
	}()
	r, _ := compress.NewReader(in.Reader(ctx))
	defer func() {
		if e := r.Close(); e != nil && err == nil {
			err = e
		}
	}()
	if h, err = Parse(r); err != nil {
		return nil, errors.E(err, "reading histogram", path)
	}
	if h.Empty() {
		return nil, fmt.Errorf("hist: the histogram %q is empty", path)
	}
	return h, nil
}

// Empty reports whether the histogram has no observations.
func (h *Histogram) Empty() bool { return len(h.bins) == 0 }

// Size returns the total number of observations.
func (h *Histogram) Size() uint64 {
	var n uint64
	for _, c := range h.bins {
		n += c
	}
	return n
}

// Count returns the number of observations with values in [lo, hi].
func (h *Histogram) Count(lo, hi int) uint64 {
	var n uint64
	for k, c := range h.bins {
		if k >= lo && k <= hi {
			n += c
		}
	}
	return n
}

// CountAt returns the count of the single bin x.
func (h *Histogram) CountAt(x int) uint64 { return h.bins[x] }

// Minimum returns the smallest occupied bin, or 0 for an empty histogram.
func (h *Histogram) Minimum() int {
	min, set := 0, false
	for k := range h.bins {
		if !set || k < min {
			min, set = k, true
		}
	}
	return min
}

// Maximum returns the largest occupied bin, or 0 for an empty histogram.
func (h *Histogram) Maximum() int {
	max, set := 0, false
	for k := range h.bins {
		if !set || k > max {
			max, set = k, true
		}
	}
	return max
}

// Mean returns the arithmetic mean of the observations.
func (h *Histogram) Mean() float64 {
	var n uint64
	var sum float64
	for k, c := range h.bins {
		n += c
		sum += float64(k) * float64(c)
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}

// SD returns the sample standard deviation of the observations.
func (h *Histogram) SD() float64 {
	var n uint64
	var sum, sqsum float64
	for k, c := range h.bins {
		n += c
		sum += float64(k) * float64(c)
		sqsum += float64(k) * float64(k) * float64(c)
	}
	if n <= 1 {
		return math.NaN()
	}
	return math.Sqrt((sqsum - sum*sum/float64(n)) / float64(n-1))
}

// Median returns the median observation.
func (h *Histogram) Median() int {
	n := h.Size()
	if n == 0 {
		return 0
	}
	half := (n + 1) / 2
	var cum uint64
	for _, k := range h.sortedKeys() {
		cum += h.bins[k]
		if cum >= half {
			return k
		}
	}
	return 0
}

// RFOriented reports whether a raw fragment-size histogram describes a
// reverse-forward library: true when less mass sits on positive bins than on
// non-positive ones.
func (h *Histogram) RFOriented() bool {
	return h.Count(1, math.MaxInt32) < h.Count(math.MinInt32, 0)
}

// Negate returns a histogram with every bin key mapped to its negation.
func (h *Histogram) Negate() *Histogram {
	out := New()
	for k, c := range h.bins {
		out.bins[-k] += c
	}
	return out
}

// EraseNegative removes all bins with negative keys in place.
func (h *Histogram) EraseNegative() {
	for k := range h.bins {
		if k < 0 {
			delete(h.bins, k)
		}
	}
}

// TrimFraction returns a copy of the histogram with fraction/2 of the total
// mass removed from each tail.  Whole bins are removed; a bin straddling the
// cutoff is kept.
func (h *Histogram) TrimFraction(fraction float64) *Histogram {
	cutoff := uint64(fraction / 2 * float64(h.Size()))
	keys := h.sortedKeys()
	lo, hi := 0, len(keys)
	var cum uint64
	for ; lo < len(keys) && cum+h.bins[keys[lo]] <= cutoff; lo++ {
		cum += h.bins[keys[lo]]
	}
	cum = 0
	for ; hi > lo && cum+h.bins[keys[hi-1]] <= cutoff; hi-- {
		cum += h.bins[keys[hi-1]]
	}
	out := New()
	for _, k := range keys[lo:hi] {
		out.bins[k] = h.bins[k]
	}
	return out
}

func (h *Histogram) sortedKeys() []int {
	keys := make([]int, 0, len(h.bins))
	for k := range h.bins {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

var barGlyphs = []rune("▁▂▃▄▅▆▇█")

// Barplot renders the histogram as a single line of block characters, one
// column per group of adjacent bins, scaled to the fullest column.
func (h *Histogram) Barplot(width int) string {
	if h.Empty() || width <= 0 {
		return ""
	}
	min, max := h.Minimum(), h.Maximum()
	span := max - min + 1
	if span < width {
		width = span
	}
	cols := make([]uint64, width)
	for k, c := range h.bins {
		cols[(k-min)*width/span] += c
	}
	var peak uint64
	for _, c := range cols {
		if c > peak {
			peak = c
		}
	}
	var sb strings.Builder
	for _, c := range cols {
		if c == 0 {
			sb.WriteByte(' ')
			continue
		}
		i := int(c * uint64(len(barGlyphs)) / (peak + 1))
		sb.WriteRune(barGlyphs[i])
	}
	return sb.String()
}
