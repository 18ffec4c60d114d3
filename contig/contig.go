// Package contig assigns small integer identifiers to contig names and
// tracks their lengths.  Identifiers are handed out in first-seen order by a
// Builder; once the header legend has been fully read the builder is locked
// into an immutable Table, after which no further names may be registered.
package contig

import (
	"fmt"
)

// ID is a dense, zero-based contig identifier.
type ID int32

// Builder accumulates contig registrations.  It is not safe for concurrent
// use; registration happens while reading the header, before any workers
// start.
type Builder struct {
	names   []string
	lengths []int
	byName  map[string]ID
	locked  bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{byName: map[string]ID{}}
}

// Add registers a contig name with its length and returns the assigned ID.
// It returns an error for a duplicate name or a negative length.
func (b *Builder) Add(name string, length int) (ID, error) {
	if b.locked {
		panic("contig: Add called on a locked registry")
	}
	if _, ok := b.byName[name]; ok {
		return 0, fmt.Errorf("contig: duplicate contig name %q", name)
	}
	if length < 0 {
		return 0, fmt.Errorf("contig: negative length %d for contig %q", length, name)
	}
	id := ID(len(b.names))
	b.byName[name] = id
	b.names = append(b.names, name)
	b.lengths = append(b.lengths, length)
	return id, nil
}

// Lock freezes the identifier space and returns the immutable lookup table.
// The builder must not be used afterwards.
func (b *Builder) Lock() *Table {
	b.locked = true
	return &Table{names: b.names, lengths: b.lengths, byName: b.byName}
}

// Table is the locked contig registry.  It is immutable and safe for
// concurrent use.
type Table struct {
	names   []string
	lengths []int
	byName  map[string]ID
}

// ID returns the identifier for name.
func (t *Table) ID(name string) (ID, bool) {
	id, ok := t.byName[name]
	return id, ok
}

// Name returns the name of the contig with the given id.
func (t *Table) Name(id ID) string { return t.names[id] }

// Length returns the length of the contig with the given id.
func (t *Table) Length(id ID) int { return t.lengths[id] }

// Len returns the number of registered contigs.
func (t *Table) Len() int { return len(t.names) }

// NodeString renders a node as its contig name followed by a sense sign,
// e.g. "3+" or "scaffold12-".
func (t *Table) NodeString(n Node) string {
	if n.Reverse {
		return t.names[n.ID] + "-"
	}
	return t.names[n.ID] + "+"
}

// Node identifies one contig traversed in a particular direction.  Two nodes
// with the same ID and opposite sense are the same physical contig read in
// opposite directions.
type Node struct {
	ID      ID
	Reverse bool
}

// Flip returns the node traversed in the opposite direction.
func (n Node) Flip() Node { return Node{n.ID, !n.Reverse} }
