package main

/*
dist-est estimates the distance between pairs of assembled contigs from the
paired-end alignments that straddle them.

	dist-est [OPTION]... HIST [PAIR]

HIST is the empirical fragment-size distribution of the library, one
"size count" pair per line.  PAIR is a stream of alignments between contigs
in tabular (SAM) format, sorted by anchor contig; "-" or no argument reads
standard input.  Both inputs may be compressed.
*/

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hts/sam"

	"github.com/scafbio/distest/contig"
	"github.com/scafbio/distest/estimate"
	"github.com/scafbio/distest/hist"
	"github.com/scafbio/distest/pdf"
)

// countFlag counts repeated occurrences of a boolean flag.
type countFlag int

func (c *countFlag) String() string { return strconv.Itoa(int(*c)) }

func (c *countFlag) Set(s string) error {
	if v, err := strconv.ParseBool(s); err == nil {
		if v {
			*c++
		}
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*c = countFlag(n)
	return nil
}

func (c *countFlag) IsBoolFlag() bool { return true }

var (
	kmerSize = flag.Int("k", 0, "k-mer size (required)")
	minPairs = flag.Int("n", 0, "minimum number of pairs (required)")
	seedLen  = flag.Int("s", 0, "minimum length of the seed contigs (required)")
	minMapQ  = flag.Int("q", estimate.DefaultOpts.MinMapQ, "ignore alignments with mapping quality less than this threshold")
	outPath  = flag.String("o", "", "write result to this path instead of standard output")
	dot      = flag.Bool("dot", false, "output overlaps in dot format")
	threads  = flag.Int("j", estimate.DefaultOpts.Threads, "use this many parallel threads")
	verbose  countFlag
)

func init() {
	flag.Var(&verbose, "v", "display verbose output (repeat to raise the level)")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]... HIST [PAIR]\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Estimate distances between contigs using paired-end alignments.\n")
	fmt.Fprintf(os.Stderr, "  HIST  distribution of fragment sizes\n")
	fmt.Fprintf(os.Stderr, "  PAIR  alignments between contigs (default standard input)\n\n")
	flag.PrintDefaults()
}

// openInput opens path for reading with transparent decompression, or
// returns standard input for "-".
func openInput(ctx context.Context, path string) (io.Reader, func(), error) {
	if path == "-" {
		return os.Stdin, func() {}, nil
	}
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	r, _ := compress.NewReader(in.Reader(ctx))
	cleanup := func() {
		r.Close()     // nolint: errcheck
		in.Close(ctx) // nolint: errcheck
	}
	return r, cleanup, nil
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	die := false
	if *kmerSize <= 0 {
		fmt.Fprintln(os.Stderr, "dist-est: missing -k option")
		die = true
	}
	if *seedLen <= 0 {
		fmt.Fprintln(os.Stderr, "dist-est: missing -s option")
		die = true
	}
	if *minPairs <= 0 {
		fmt.Fprintln(os.Stderr, "dist-est: missing -n option")
		die = true
	}
	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "dist-est: missing arguments")
		die = true
	} else if len(args) > 2 {
		fmt.Fprintln(os.Stderr, "dist-est: too many arguments")
		die = true
	}
	if die {
		fmt.Fprintf(os.Stderr, "Try '%s -help' for more information.\n", os.Args[0])
		os.Exit(1)
	}
	if *seedLen < 2**kmerSize {
		log.Printf("warning: the seed length should be at least twice k: k=%d, s=%d", *kmerSize, *seedLen)
	}

	ctx := vcontext.Background()
	histPath := args[0]
	pairPath := "-"
	if len(args) == 2 {
		pairPath = args[1]
	}

	pairIn, cleanup, err := openInput(ctx, pairPath)
	if err != nil {
		log.Fatalf("open %s: %v", pairPath, err)
	}
	defer cleanup()
	samr, err := sam.NewReader(bufio.NewReader(pairIn))
	if err != nil {
		log.Fatalf("read %s: %v", pairPath, err)
	}
	refs := samr.Header().Refs()
	if len(refs) == 0 {
		log.Fatalf("%s: no @SQ records in the header", pairPath)
	}
	builder := contig.NewBuilder()
	for _, ref := range refs {
		if _, err := builder.Add(ref.Name(), ref.Len()); err != nil {
			log.Fatalf("%s: %v", pairPath, err)
		}
	}
	tab := builder.Lock()

	h, err := hist.Load(ctx, histPath)
	if err != nil {
		log.Fatalf("%v", err)
	}
	numRF := h.Count(math.MinInt32, 0)
	numFR := h.Count(1, math.MaxInt32)
	numTotal := h.Size()
	if verbose > 0 {
		log.Printf("Mate orientation FR: %d (%.3g%%) RF: %d (%.3g%%)",
			numFR, 100*float64(numFR)/float64(numTotal),
			numRF, 100*float64(numRF)/float64(numTotal))
	}
	rf := false
	if h.RFOriented() {
		log.Printf("The mate pairs of this library are oriented reverse-forward (RF).")
		rf = true
		h = h.Negate()
	}
	h.EraseNegative()
	trimmed := h.TrimFraction(0.0001)
	if trimmed.Empty() {
		log.Fatalf("%s: no positive fragment sizes", histPath)
	}
	if verbose > 0 {
		log.Printf("Stats mean: %.4g median: %d sd: %.4g n: %d min: %d max: %d",
			trimmed.Mean(), trimmed.Median(), trimmed.SD(),
			trimmed.Size(), trimmed.Minimum(), trimmed.Maximum())
		log.Printf("%s", trimmed.Barplot(64))
	}
	p := pdf.New(trimmed)

	outW := io.Writer(os.Stdout)
	var outFile file.File
	if *outPath != "" {
		if outFile, err = file.Create(ctx, *outPath); err != nil {
			log.Fatalf("create %s: %v", *outPath, err)
		}
		outW = outFile.Writer(ctx)
	}
	w := bufio.NewWriter(outW)

	opts := estimate.Opts{
		K:        *kmerSize,
		MinPairs: *minPairs,
		SeedLen:  *seedLen,
		MinMapQ:  *minMapQ,
		RF:       rf,
		Threads:  *threads,
		Verbose:  int(verbose),
	}
	if *dot {
		opts.Format = estimate.FormatDot
		fmt.Fprintf(w, "digraph dist {\ngraph [k=%d s=%d n=%d]\n", *kmerSize, *seedLen, *minPairs)
	}
	if err := estimate.Run(opts, tab, p, samr, w); err != nil {
		log.Fatalf("%v", err)
	}
	if *dot {
		fmt.Fprintf(w, "}\n")
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("write: %v", err)
	}
	if outFile != nil {
		if err := outFile.Close(ctx); err != nil {
			log.Fatalf("close %s: %v", *outPath, err)
		}
	}
}
