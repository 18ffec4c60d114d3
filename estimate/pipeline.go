package estimate

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/hts/sam"

	"github.com/scafbio/distest/contig"
	"github.com/scafbio/distest/pdf"
)

// groupKey partitions the records of one anchor orientation by the mate
// contig and the relative sense of the two contigs.  sameStrand is true when
// the anchor and mate alignments are on the same strand, which means the
// mate contig is traversed in the opposite direction from the anchor.
type groupKey struct {
	mate       contig.ID
	sameStrand bool
}

type pipeline struct {
	opts  Opts
	tab   *contig.Table
	pdf   *pdf.PDF
	b     *batcher
	outMu sync.Mutex
	out   io.Writer
}

// Run consumes the sorted alignment stream and writes a distance estimate
// for every sufficiently linked contig pair.  Opts.Threads workers process
// independent anchor batches in parallel; each batch's output is flushed as
// one contiguous write, but batch-to-batch output order across workers is
// not preserved.
func Run(opts Opts, tab *contig.Table, p *pdf.PDF, in RecordReader, out io.Writer) error {
	pl := &pipeline{
		opts: opts,
		tab:  tab,
		pdf:  p,
		b:    newBatcher(in, tab, opts.MinMapQ),
		out:  out,
	}
	threads := opts.Threads
	if threads < 1 {
		threads = 1
	}
	return traverse.Each(threads, func(_ int) error {
		for {
			recs, err := pl.b.Next()
			if err != nil {
				return err
			}
			if recs == nil {
				return nil
			}
			if err := pl.processBatch(recs); err != nil {
				return err
			}
		}
	})
}

// processBatch estimates and writes all links out of one anchor contig.
func (pl *pipeline) processBatch(recs []*sam.Record) error {
	name := recs[0].Ref.Name()
	id0, ok := pl.tab.ID(name)
	if !ok {
		return fmt.Errorf("estimate: unknown contig %q", name)
	}
	len0 := pl.tab.Length(id0)
	if len0 < pl.opts.SeedLen {
		// Contigs shorter than the seed length cannot anchor reliable
		// estimates.
		return nil
	}

	var groups [2]map[groupKey][]*sam.Record
	groups[0] = make(map[groupKey][]*sam.Record)
	groups[1] = make(map[groupKey][]*sam.Record)
	for _, rec := range recs {
		rev := rec.Flags&sam.Reverse != 0
		mrev := rec.Flags&sam.MateReverse != 0
		mid, ok := pl.tab.ID(rec.MateRef.Name())
		if !ok {
			return fmt.Errorf("estimate: unknown contig %q", rec.MateRef.Name())
		}
		i := 0
		if rev {
			i = 1
		}
		key := groupKey{mate: mid, sameStrand: rev == mrev}
		groups[i][key] = append(groups[i][key], rec)
	}

	var buf bytes.Buffer
	if pl.opts.Format == FormatAdj {
		buf.WriteString(name)
	}
	for sense0 := 0; sense0 < 2; sense0++ {
		if pl.opts.Format == FormatAdj && sense0 == 1 {
			buf.WriteString(" ;")
		}
		i := sense0
		if pl.opts.RF {
			i = 1 - sense0
		}
		g := groups[i]
		keys := make([]groupKey, 0, len(g))
		for k := range g {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(a, b int) bool {
			if keys[a].mate != keys[b].mate {
				return keys[a].mate < keys[b].mate
			}
			return !keys[a].sameStrand && keys[b].sameStrand
		})
		anchor := contig.Node{ID: id0, Reverse: sense0 == 1}
		for _, k := range keys {
			mate := contig.Node{ID: k.mate, Reverse: k.sameStrand}
			pl.writeEstimate(&buf, anchor, mate, len0, pl.tab.Length(k.mate), g[k])
		}
	}
	if pl.opts.Format == FormatAdj {
		buf.WriteByte('\n')
	}
	if buf.Len() == 0 {
		return nil
	}
	pl.outMu.Lock()
	_, err := pl.out.Write(buf.Bytes())
	pl.outMu.Unlock()
	return err
}

// writeEstimate appends the estimate for one (anchor, mate) group to buf, or
// reports it as a warning when too few pairs agree with the distribution.
func (pl *pipeline) writeEstimate(buf *bytes.Buffer, id0, id1 contig.Node, len0, len1 int, recs []*sam.Record) {
	if len(recs) < pl.opts.MinPairs {
		return
	}
	dist, n := estimateDistance(len0, len1, recs, pl.opts, pl.pdf)
	est := Estimate{
		Contig:   id1,
		Distance: dist,
		NumPairs: n,
		StdDev:   pl.pdf.SampleStdDev(n),
	}
	if n < pl.opts.MinPairs {
		if pl.opts.Verbose > 1 {
			log.Printf("warning: %s,%s %d of %d pairs fit the expected distribution",
				pl.tab.NodeString(id0), pl.tab.NodeString(id1), n, len(recs))
		}
		return
	}
	if pl.opts.Format == FormatDot {
		if id0.Reverse {
			est.Contig = est.Contig.Flip()
		}
		fmt.Fprintf(buf, "%q -> %s\n", pl.tab.NodeString(id0), est.dotString(pl.tab))
	} else {
		buf.WriteByte(' ')
		buf.WriteString(est.adjString(pl.tab))
	}
}
