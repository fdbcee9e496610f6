package bits

import (
	"encoding/binary"
	"hash/fnv"
	"math"
	"math/big"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
)

// Named seeds for deterministic reproduction.
const (
	testSeed1 = 0x1234567890ABCDEF
	testSeed2 = 0xFEDCBA9876543210
)

func newTestRNG(t testing.TB) *rand.Rand {
	t.Helper()
	h := fnv.New128a()
	h.Write([]byte(t.Name()))
	sum := h.Sum(nil)
	s1 := binary.LittleEndian.Uint64(sum[:8])
	s2 := binary.LittleEndian.Uint64(sum[8:])
	return rand.New(rand.NewPCG(testSeed1^s1, testSeed2^s2))
}

func referenceMulAddMod(a, x, b, m uint64) uint64 {
	r := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(x))
	r.Add(r, new(big.Int).SetUint64(b))
	r.Mod(r, new(big.Int).SetUint64(m))
	return r.Uint64()
}

// TestMulAddModMatchesBigInt cross-checks against math/big over the full
// 64-bit input range, where a*x+b overflows a single word.
func TestMulAddModMatchesBigInt(t *testing.T) {
	rng := newTestRNG(t)
	const iterations = 10000

	for i := 0; i < iterations; i++ {
		a, x, b := rng.Uint64(), rng.Uint64(), rng.Uint64()
		m := rng.Uint64N(math.MaxUint64) + 1
		require.Equal(t, referenceMulAddMod(a, x, b, m), MulAddMod(a, x, b, m),
			"iter %d: a=%#x x=%#x b=%#x m=%#x", i, a, x, b, m)
	}
}

func TestMulAddModRange(t *testing.T) {
	rng := newTestRNG(t)

	for i := 0; i < 10000; i++ {
		m := rng.Uint64N(1<<22) + 1
		got := MulAddMod(rng.Uint64(), rng.Uint64(), rng.Uint64N(m), m)
		require.Less(t, got, m)
	}
}

func TestMulAddModEdgeCases(t *testing.T) {
	tests := []struct {
		name       string
		a, x, b, m uint64
		want       uint64
	}{
		{"zero factor", 0, 12345, 7, 11, 7},
		{"modulus one", 99, 99, 99, 1, 0},
		{"small", 3, 4, 5, 7, 3},
		{"max operands", math.MaxUint64, math.MaxUint64, math.MaxUint64, 4194301,
			referenceMulAddMod(math.MaxUint64, math.MaxUint64, math.MaxUint64, 4194301)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, MulAddMod(tc.a, tc.x, tc.b, tc.m))
		})
	}
}
