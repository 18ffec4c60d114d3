package estimate

import (
	"fmt"
	"io"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"

	"github.com/scafbio/distest/contig"
)

// RecordReader yields alignment records one at a time, returning io.EOF at
// the end of the stream.  *sam.Reader satisfies it.
type RecordReader interface {
	Read() (*sam.Record, error)
}

// batcher hands out complete anchor batches from a stream of alignment
// records sorted by anchor contig in first-seen order.  Next is safe for
// concurrent use; only one caller parses records at a time, so batches are
// handed out in stream order even though callers process them unordered.
type batcher struct {
	mu      sync.Mutex
	r       RecordReader
	tab     *contig.Table
	minMapQ int

	pending *sam.Record
	seen    []bool
	done    bool
	err     error
}

func newBatcher(r RecordReader, tab *contig.Table, minMapQ int) *batcher {
	return &batcher{
		r:       r,
		tab:     tab,
		minMapQ: minMapQ,
		seen:    make([]bool, tab.Len()),
	}
}

// skip reports whether rec carries no usable mate-pair evidence: unmapped at
// either end, unpaired, self-referential, or below the mapping-quality
// threshold.  Skipped records are dropped silently.
func (b *batcher) skip(rec *sam.Record) bool {
	const unusable = sam.Unmapped | sam.MateUnmapped
	if rec.Flags&unusable != 0 || rec.Flags&sam.Paired == 0 {
		return true
	}
	if rec.Ref == nil || rec.MateRef == nil || rec.Ref.Name() == rec.MateRef.Name() {
		return true
	}
	return int(rec.MapQ) < b.minMapQ
}

// open validates the anchor of a newly started batch against the seen
// registry.  Revisiting an anchor whose batch already closed means the input
// is not sorted, which is fatal.
func (b *batcher) open(rec *sam.Record) error {
	id, ok := b.tab.ID(rec.Ref.Name())
	if !ok {
		return fmt.Errorf("estimate: unknown contig %q in alignment stream", rec.Ref.Name())
	}
	if b.seen[id] {
		return fmt.Errorf("estimate: input must be sorted: %q", rec.Ref.Name())
	}
	return nil
}

// close marks the anchor of a finished batch as seen.
func (b *batcher) close(rec *sam.Record) {
	if id, ok := b.tab.ID(rec.Ref.Name()); ok {
		b.seen[id] = true
	}
}

// Next returns the next complete batch of records sharing an anchor contig,
// or (nil, nil) at end of stream.  Once an error is returned, all further
// calls return the same error.
func (b *batcher) Next() ([]*sam.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return nil, b.err
	}
	var recs []*sam.Record
	if b.pending != nil {
		if err := b.open(b.pending); err != nil {
			b.err = err
			return nil, err
		}
		recs = append(recs, b.pending)
		b.pending = nil
	}
	for !b.done {
		rec, err := b.r.Read()
		if err == io.EOF {
			b.done = true
			break
		}
		if err != nil {
			b.err = errors.E(err, "reading alignment records")
			return nil, b.err
		}
		if b.skip(rec) {
			continue
		}
		if len(recs) == 0 {
			if err := b.open(rec); err != nil {
				b.err = err
				return nil, err
			}
			recs = append(recs, rec)
			continue
		}
		if rec.Ref.Name() == recs[0].Ref.Name() {
			recs = append(recs, rec)
			continue
		}
		b.pending = rec
		break
	}
	if len(recs) == 0 {
		return nil, nil
	}
	b.close(recs[0])
	return recs, nil
}
