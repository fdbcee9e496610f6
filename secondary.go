package fks

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"math"

	"github.com/bits-and-blooms/bitset"
	"github.com/cockroachdb/swiss"
	fkserrors "github.com/tamirms/fks/errors"
)

// SecondaryTable is a collision-free hash table over a small, fixed key set.
// Its hash function is sized to the square of the key count and redrawn until
// no two keys share a slot.
//
// A SecondaryTable is immutable after construction and safe for concurrent
// queries.
type SecondaryTable struct {
	hash     HashFunction
	occupied *bitset.BitSet
	slots    []string
	numKeys  int
	attempts int
}

// NewSecondaryTable builds a collision-free table over keys.
//
// Returns ErrDuplicateKey if keys repeat, ErrCapacityExceeded if len(keys)^2
// is above the largest supported prime, and ErrConstructionFailed if no
// collision-free hash function was found within the attempt budget.
func NewSecondaryTable(keys []string, opts ...Option) (*SecondaryTable, error) {
	cfg, err := newBuildConfig(opts)
	if err != nil {
		return nil, err
	}
	if err := checkDistinct(keys); err != nil {
		return nil, err
	}
	return newSecondaryTable(keys, cfg)
}

// newSecondaryTable builds the table. keys must be distinct.
func newSecondaryTable(keys []string, cfg *buildConfig) (*SecondaryTable, error) {
	k := len(keys)
	if k > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d keys squared", fkserrors.ErrCapacityExceeded, k)
	}
	h, err := newHashFunction(k*k, cfg)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= cfg.maxAttempts; attempt++ {
		if attempt > 1 {
			h.Reboot()
		}
		marks := bitset.New(uint(h.tableSize))
		if !placeable(&h, keys, marks) {
			continue
		}

		slots := make([]string, h.tableSize)
		for _, key := range keys {
			slots[h.Slot(key)] = key
		}
		cfg.logger.V(2).Info("secondary table built",
			"keys", k,
			"tableSize", h.tableSize,
			"attempts", attempt)
		return &SecondaryTable{
			hash:     h,
			occupied: marks,
			slots:    slots,
			numKeys:  k,
			attempts: attempt,
		}, nil
	}

	return nil, fmt.Errorf("%w: %d keys after %d attempts",
		fkserrors.ErrConstructionFailed, k, cfg.maxAttempts)
}

// placeable marks the slot of every key and reports whether all slots were
// distinct. It stops at the first collision.
func placeable(h *HashFunction, keys []string, marks *bitset.BitSet) bool {
	for _, key := range keys {
		slot := uint(h.Slot(key))
		if marks.Test(slot) {
			return false
		}
		marks.Set(slot)
	}
	return true
}

// checkDistinct returns ErrDuplicateKey if any key repeats.
func checkDistinct(keys []string) error {
	seen := swiss.New[string, struct{}](len(keys))
	for _, key := range keys {
		if _, ok := seen.Get(key); ok {
			return fmt.Errorf("%w: %q", fkserrors.ErrDuplicateKey, key)
		}
		seen.Put(key, struct{}{})
	}
	return nil
}

// Contains reports whether word is one of the table's keys.
func (st *SecondaryTable) Contains(word string) bool {
	slot := st.hash.Slot(word)
	return st.occupied.Test(uint(slot)) && st.slots[slot] == word
}

// TableSize returns the number of slots.
func (st *SecondaryTable) TableSize() int {
	return st.hash.TableSize()
}

// Len returns the number of keys.
func (st *SecondaryTable) Len() int {
	return st.numKeys
}

// Attempts returns how many hash functions were drawn before one was
// collision-free.
func (st *SecondaryTable) Attempts() int {
	return st.attempts
}

// Hash returns a copy of the table's hash function.
func (st *SecondaryTable) Hash() HashFunction {
	return st.hash
}

// All yields every key in slot order.
func (st *SecondaryTable) All() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i, ok := st.occupied.NextSet(0); ok; i, ok = st.occupied.NextSet(i + 1) {
			if !yield(st.slots[i]) {
				return
			}
		}
	}
}

// Dump writes a human-readable listing of the table to w.
func (st *SecondaryTable) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)
	st.dumpTo(bw)
	return bw.Flush()
}

func (st *SecondaryTable) dumpTo(bw *bufio.Writer) {
	fmt.Fprintf(bw, "=== Secondary Hash Table Dump: ===\n")
	fmt.Fprintf(bw, "Table size = %d\n", st.hash.tableSize)
	fmt.Fprintf(bw, "# of items = %d\n", st.numKeys)
	fmt.Fprintf(bw, "# of attempts = %d\n", st.attempts)
	for i := range st.slots {
		fmt.Fprintf(bw, "T2[%d] = ", i)
		if st.occupied.Test(uint(i)) {
			bw.WriteString(st.slots[i])
		}
		bw.WriteByte('\n')
	}
	fmt.Fprintf(bw, "==================================\n")
}
