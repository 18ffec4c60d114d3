package hist

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromBins(bins map[int]uint64) *Histogram {
	h := New()
	for k, c := range bins {
		h.Insert(k, c)
	}
	return h
}

func TestParse(t *testing.T) {
	h, err := Parse(strings.NewReader("-5 2\n\n400 1\n500 3\n"))
	require.NoError(t, err)
	assert.Equal(t, uint64(6), h.Size())
	assert.Equal(t, uint64(2), h.CountAt(-5))
	assert.Equal(t, uint64(3), h.CountAt(500))

	_, err = Parse(strings.NewReader("1 2 3\n"))
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("x 2\n"))
	assert.Error(t, err)
	_, err = Parse(strings.NewReader("2 -1\n"))
	assert.Error(t, err)
}

func TestNegateIsInvolution(t *testing.T) {
	h := fromBins(map[int]uint64{-300: 4, -1: 1, 0: 2, 250: 7, 600: 1})
	assert.Equal(t, h.bins, h.Negate().Negate().bins)
	assert.Equal(t, uint64(4), h.Negate().CountAt(300))
}

func TestEraseNegative(t *testing.T) {
	h := fromBins(map[int]uint64{-10: 3, 0: 1, 10: 2})
	h.EraseNegative()
	assert.Equal(t, map[int]uint64{0: 1, 10: 2}, h.bins)
}

func TestCount(t *testing.T) {
	h := fromBins(map[int]uint64{-10: 3, 0: 1, 1: 2, 500: 4})
	assert.Equal(t, uint64(4), h.Count(math.MinInt32, 0))
	assert.Equal(t, uint64(6), h.Count(1, math.MaxInt32))
	assert.Equal(t, uint64(10), h.Count(math.MinInt32, math.MaxInt32))
}

func TestStats(t *testing.T) {
	h := fromBins(map[int]uint64{400: 1, 500: 2, 600: 1})
	assert.Equal(t, 400, h.Minimum())
	assert.Equal(t, 600, h.Maximum())
	assert.Equal(t, 500, h.Median())
	assert.InDelta(t, 500.0, h.Mean(), 1e-9)
	// Sample standard deviation of {400, 500, 500, 600}.
	assert.InDelta(t, math.Sqrt(20000.0/3), h.SD(), 1e-9)
}

func TestTrimFraction(t *testing.T) {
	h := fromBins(map[int]uint64{1: 1, 500: 10000, 501: 9999, 100000: 1})
	trimmed := h.TrimFraction(0.0002)
	assert.Equal(t, uint64(0), trimmed.CountAt(1))
	assert.Equal(t, uint64(0), trimmed.CountAt(100000))
	assert.Equal(t, uint64(19999), trimmed.Size())
	// The original histogram is left untouched.
	assert.Equal(t, uint64(1), h.CountAt(100000))

	// A tiny fraction of a small histogram trims nothing.
	h2 := fromBins(map[int]uint64{400: 1, 500: 2, 600: 1})
	assert.Equal(t, h2.bins, h2.TrimFraction(0.0001).bins)
}

func TestOrientationDetection(t *testing.T) {
	// More mass on non-positive bins than positive ones means the library
	// is reverse-forward: the histogram is negated and the negative tail
	// erased, leaving no negative keys.
	h := fromBins(map[int]uint64{-500: 5, -400: 3, 0: 1, 450: 2})
	assert.True(t, h.RFOriented())
	assert.False(t, h.Negate().RFOriented())
	h = h.Negate()
	h.EraseNegative()
	assert.Equal(t, map[int]uint64{0: 1, 400: 3, 500: 5}, h.bins)
}

func TestBarplot(t *testing.T) {
	h := fromBins(map[int]uint64{0: 1, 50: 8, 99: 2})
	plot := h.Barplot(10)
	assert.Equal(t, 10, len([]rune(plot)))
	assert.NotEqual(t, strings.Repeat(" ", 10), plot)
	assert.Equal(t, "", New().Barplot(10))
}
