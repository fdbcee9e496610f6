// Package prime provides the ascending prime table used to size hash tables.
//
// The table holds every prime below limit. It is sieved once, on first use,
// and searched with a binary search afterwards.
package prime

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bits-and-blooms/bitset"
	fkserrors "github.com/tamirms/fks/errors"
)

// limit bounds the sieve. Every prime below it is in the table.
const limit = 1 << 22

var (
	once   sync.Once
	primes []uint64
)

func table() []uint64 {
	once.Do(func() {
		composite := bitset.New(limit)
		composite.Set(0).Set(1)
		for i := uint(2); i*i < limit; i++ {
			if composite.Test(i) {
				continue
			}
			for j := i * i; j < limit; j += i {
				composite.Set(j)
			}
		}
		primes = make([]uint64, 0, limit-composite.Count())
		for i, ok := composite.NextClear(0); ok && i < limit; i, ok = composite.NextClear(i + 1) {
			primes = append(primes, uint64(i))
		}
	})
	return primes
}

// Max returns the largest supported prime.
func Max() uint64 {
	p := table()
	return p[len(p)-1]
}

// SmallestAtLeast returns the smallest prime >= n.
// Returns ErrCapacityExceeded if n is larger than Max().
func SmallestAtLeast(n uint64) (uint64, error) {
	p := table()
	i := sort.Search(len(p), func(i int) bool { return p[i] >= n })
	if i == len(p) {
		return 0, fmt.Errorf("%w: %d > %d", fkserrors.ErrCapacityExceeded, n, p[len(p)-1])
	}
	return p[i], nil
}

// Next returns the smallest prime strictly greater than n.
// ok is false when no supported prime is larger.
func Next(n uint64) (uint64, bool) {
	p := table()
	i := sort.Search(len(p), func(i int) bool { return p[i] > n })
	if i == len(p) {
		return 0, false
	}
	return p[i], true
}

// IsPrime reports whether n is a prime in the supported range.
func IsPrime(n uint64) bool {
	p := table()
	i := sort.Search(len(p), func(i int) bool { return p[i] >= n })
	return i < len(p) && p[i] == n
}
