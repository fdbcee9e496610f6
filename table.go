package fks

import (
	"bufio"
	"fmt"
	"io"
	"iter"
)

// bucketKind tags the contents of a top-level slot.
type bucketKind uint8

const (
	bucketEmpty     bucketKind = 0
	bucketDirect    bucketKind = 1 // exactly one key, stored inline
	bucketSecondary bucketKind = 2 // two or more keys, resolved by a SecondaryTable
)

// bucket is one top-level slot. key is set only for bucketDirect and table
// only for bucketSecondary.
type bucket struct {
	kind  bucketKind
	key   string
	table *SecondaryTable
}

// Table is a static two-level (FKS) perfect hash table over a set of strings.
//
// A top-level hash function spreads the keys over roughly n buckets. A bucket
// with one key stores it directly; a bucket with more keys gets its own
// SecondaryTable, which is collision-free. Membership queries hash twice at
// most and compare one string.
//
// Thread Safety:
//   - A Table is immutable once New returns; Contains and the other read
//     methods are safe for concurrent use.
//   - There is no insert or delete. Build a new Table to change the key set.
type Table struct {
	hash    HashFunction
	buckets []bucket
	numKeys int
}

// New builds a perfect hash table over words.
//
// Returns ErrDuplicateKey if words repeat, ErrCapacityExceeded if a table
// would exceed the largest supported prime, and ErrConstructionFailed if any
// bucket's secondary table exhausted its attempts. On error no table is
// returned; retrying with a different seed may succeed.
func New(words []string, opts ...Option) (*Table, error) {
	cfg, err := newBuildConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := checkDistinct(words); err != nil {
		return nil, err
	}

	hint := len(words)
	if cfg.tableSize > 0 {
		hint = cfg.tableSize
	}
	h, err := newHashFunction(hint, cfg)
	if err != nil {
		return nil, err
	}

	// Bucket collisions are expected here and resolved below; the top-level
	// function is never rebooted.
	groups := make([][]string, h.tableSize)
	for _, w := range words {
		slot := h.Slot(w)
		groups[slot] = append(groups[slot], w)
	}

	t := &Table{
		hash:    h,
		buckets: make([]bucket, h.tableSize),
		numKeys: len(words),
	}
	for i, group := range groups {
		switch len(group) {
		case 0:
		case 1:
			t.buckets[i] = bucket{kind: bucketDirect, key: group[0]}
		default:
			st, err := newSecondaryTable(group, cfg)
			if err != nil {
				return nil, fmt.Errorf("build bucket %d: %w", i, err)
			}
			t.buckets[i] = bucket{kind: bucketSecondary, table: st}
		}
	}

	if cfg.logger.V(1).Enabled() {
		s := t.Stats()
		cfg.logger.V(1).Info("perfect table built",
			"keys", s.NumKeys,
			"tableSize", s.TableSize,
			"direct", s.DirectSlots,
			"secondary", s.SecondaryTables,
			"secondarySlots", s.SecondarySlots,
			"maxAttempts", s.MaxAttempts)
	}
	return t, nil
}

// Contains reports whether word was in the key set.
// It never reports true for a word outside the set.
func (t *Table) Contains(word string) bool {
	b := &t.buckets[t.hash.Slot(word)]
	switch b.kind {
	case bucketDirect:
		return b.key == word
	case bucketSecondary:
		return b.table.Contains(word)
	default:
		return false
	}
}

// Len returns the number of keys.
func (t *Table) Len() int {
	return t.numKeys
}

// TableSize returns the number of top-level slots.
func (t *Table) TableSize() int {
	return t.hash.TableSize()
}

// Hash returns a copy of the top-level hash function.
func (t *Table) Hash() HashFunction {
	return t.hash
}

// All yields every key, in top-level slot order.
func (t *Table) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range t.buckets {
			b := &t.buckets[i]
			switch b.kind {
			case bucketDirect:
				if !yield(b.key) {
					return
				}
			case bucketSecondary:
				for key := range b.table.All() {
					if !yield(key) {
						return
					}
				}
			}
		}
	}
}

// Dump writes a human-readable listing of every slot to w.
// The format is for debugging and may change.
func (t *Table) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "------------- PerfectHT::dump()  -------------\n")
	fmt.Fprintf(bw, "table size = %d\n\n", t.hash.tableSize)
	for i := range t.buckets {
		b := &t.buckets[i]
		fmt.Fprintf(bw, "[%d]:  ", i)
		switch b.kind {
		case bucketDirect:
			bw.WriteString(b.key)
		case bucketSecondary:
			bw.WriteByte('\n')
			b.table.dumpTo(bw)
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "----------------------------------------------\n")
	return bw.Flush()
}
