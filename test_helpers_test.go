package fks

import (
	"encoding/binary"
	"hash/fnv"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

// newTestRNG returns a generator seeded from the test name, so every test
// draws its own reproducible sequence.
func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

// randomWord returns a lowercase word of 3 to 12 letters.
func randomWord(rng *rand.Rand) string {
	b := make([]byte, 3+rng.IntN(10))
	for i := range b {
		b[i] = byte('a' + rng.IntN(26))
	}
	return string(b)
}

// generateWords creates n distinct pseudo-random words.
func generateWords(rng *rand.Rand, n int) []string {
	seen := make(map[string]struct{}, n)
	words := make([]string, 0, n)
	for len(words) < n {
		w := randomWord(rng)
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		words = append(words, w)
	}
	return words
}

// member is satisfied by Table and SecondaryTable.
type member interface {
	Contains(word string) bool
}

// requireExactMembership checks that m contains every key and rejects
// random non-members and near misses of the keys.
func requireExactMembership(t *testing.T, rng *rand.Rand, m member, keys []string) {
	t.Helper()
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
		require.True(t, m.Contains(k), "missing key %q", k)
	}

	probes := make([]string, 0, 3*len(keys)+1000)
	for _, k := range keys {
		probes = append(probes, k+"x", "x"+k)
		if len(k) > 0 {
			probes = append(probes, k[:len(k)-1])
		}
	}
	for range 1000 {
		probes = append(probes, randomWord(rng))
	}
	probes = append(probes, "")
	for _, p := range probes {
		_, want := set[p]
		require.Equal(t, want, m.Contains(p), "Contains(%q)", p)
	}
}

// requireCollisionFree checks that the keys of st occupy distinct slots,
// each at its own hash slot.
func requireCollisionFree(t *testing.T, st *SecondaryTable) {
	t.Helper()
	h := st.Hash()
	used := make(map[uint64]string, st.Len())
	n := 0
	for key := range st.All() {
		slot := h.Slot(key)
		prev, dup := used[slot]
		require.False(t, dup, "keys %q and %q share slot %d", prev, key, slot)
		used[slot] = key
		require.Equal(t, key, st.slots[slot])
		n++
	}
	require.Equal(t, st.Len(), n)
}

// scriptedRand replays a fixed sequence of draws, reduced modulo n.
type scriptedRand struct {
	vals []uint64
	next int
}

func (s *scriptedRand) Uint64N(n uint64) uint64 {
	v := s.vals[s.next]
	s.next++
	return v % n
}
