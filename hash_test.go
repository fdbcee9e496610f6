package fks

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
	fkserrors "github.com/tamirms/fks/errors"
	"github.com/tamirms/fks/internal/prime"
)

func TestNewHashFunction(t *testing.T) {
	h, err := NewHashFunction(100, WithSeed(1))
	require.NoError(t, err)

	require.Equal(t, 101, h.TableSize())
	require.Equal(t, uint64(33), h.Multiplier())
	require.Equal(t, 0, h.Reboots())
	require.Equal(t, FoldHorner, h.FoldAlgorithm())
	require.GreaterOrEqual(t, h.Factor(), uint64(1))
	require.Less(t, h.Factor(), uint64(101))
	require.Less(t, h.Shift(), uint64(101))
}

func TestNewHashFunctionSizeFloor(t *testing.T) {
	for _, capacity := range []int{-5, 0, 1, 2, 3} {
		h, err := NewHashFunction(capacity, WithSeed(1))
		require.NoError(t, err, "capacity %d", capacity)
		require.Equal(t, 3, h.TableSize(), "capacity %d", capacity)
	}
}

func TestNewHashFunctionCapacityExceeded(t *testing.T) {
	h, err := NewHashFunction(int(prime.Max()), WithSeed(1))
	require.NoError(t, err)
	require.Equal(t, int(prime.Max()), h.TableSize())

	_, err = NewHashFunction(int(prime.Max())+1, WithSeed(1))
	require.ErrorIs(t, err, fkserrors.ErrCapacityExceeded)
}

func TestNewHashFunctionInvalidOptions(t *testing.T) {
	_, err := NewHashFunction(10, WithMaxAttempts(0))
	require.ErrorIs(t, err, fkserrors.ErrInvalidMaxAttempts)

	_, err = NewHashFunction(10, WithFoldAlgorithm(FoldAlgorithm(9)))
	require.ErrorIs(t, err, fkserrors.ErrUnknownFold)
}

func TestHornerFold(t *testing.T) {
	h, err := NewHashFunction(10, WithSeed(1))
	require.NoError(t, err)

	require.Equal(t, uint64(0), h.Fold(""))
	require.Equal(t, uint64('a'), h.Fold("a"))
	require.Equal(t, uint64(97*33+98), h.Fold("ab"))
	require.Equal(t, uint64((97*33+98)*33+99), h.Fold("abc"))

	// Long inputs wrap rather than fail.
	long := make([]byte, 200)
	for i := range long {
		long[i] = 'z'
	}
	var want uint64
	for range long {
		want = want*33 + 'z'
	}
	require.Equal(t, want, h.Fold(string(long)))
}

// TestSlotMatchesDefinition cross-checks the MAD step against big.Int.
func TestSlotMatchesDefinition(t *testing.T) {
	rng := newTestRNG(t)
	for _, fold := range []FoldAlgorithm{FoldHorner, FoldMurmur3, FoldXXH3} {
		h, err := NewHashFunction(1_000_003, WithSeed(rng.Uint64()), WithFoldAlgorithm(fold))
		require.NoError(t, err)

		m := new(big.Int).SetUint64(h.Factor())
		b := new(big.Int).SetUint64(h.Shift())
		p := new(big.Int).SetUint64(uint64(h.TableSize()))
		for _, w := range generateWords(rng, 500) {
			want := new(big.Int).SetUint64(h.Fold(w))
			want.Mul(want, m).Add(want, b).Mod(want, p)
			require.Equal(t, want.Uint64(), h.Slot(w), "fold %v word %q", fold, w)
		}
	}
}

func TestSlotDeterministic(t *testing.T) {
	rng := newTestRNG(t)
	h, err := NewHashFunction(97, WithSeed(rng.Uint64()))
	require.NoError(t, err)

	for _, w := range generateWords(rng, 200) {
		s := h.Slot(w)
		require.Less(t, s, uint64(h.TableSize()))
		require.Equal(t, s, h.Slot(w))
	}
}

func TestRebootChangesFactorAndShift(t *testing.T) {
	// The smallest table gives a redraw the best odds of repeating.
	h, err := NewHashFunction(3, WithSeed(7))
	require.NoError(t, err)

	for range 500 {
		factor, shift := h.Factor(), h.Shift()
		h.Reboot()
		require.NotEqual(t, factor, h.Factor())
		require.NotEqual(t, shift, h.Shift())
		require.GreaterOrEqual(t, h.Factor(), uint64(1))
		require.Less(t, h.Factor(), uint64(h.TableSize()))
		require.Less(t, h.Shift(), uint64(h.TableSize()))
	}
}

func TestRebootCadence(t *testing.T) {
	h, err := NewHashFunction(10, WithSeed(3))
	require.NoError(t, err)
	require.Equal(t, 11, h.TableSize())

	wantSize := uint64(11)
	for r := 1; r <= 30; r++ {
		h.Reboot()
		if r%5 == 0 {
			next, ok := prime.Next(wantSize)
			require.True(t, ok)
			wantSize = next
		}
		require.Equal(t, r, h.Reboots())
		require.Equal(t, uint64(33+2*(r/3)), h.Multiplier(), "reboot %d", r)
		require.Equal(t, int(wantSize), h.TableSize(), "reboot %d", r)
	}
	// 11 -> 13 -> 17 -> 19 -> 23 -> 29 -> 31
	require.Equal(t, 31, h.TableSize())
}

func TestRebootAtLargestPrime(t *testing.T) {
	h, err := NewHashFunction(int(prime.Max()), WithSeed(5))
	require.NoError(t, err)

	for range 10 {
		h.Reboot()
	}
	require.Equal(t, int(prime.Max()), h.TableSize())
	require.Equal(t, 10, h.Reboots())
}

func TestRebootRejectionSampling(t *testing.T) {
	// Table size 5: factor = 1 + v%4, shift = v%5.
	script := &scriptedRand{vals: []uint64{
		0, 0, // initial factor 1, shift 0
		0, 0, 2, // factor redraws 1, 1, then 3
		0, 4, // shift redraws 0, then 4
	}}
	h, err := NewHashFunction(4, WithRand(script))
	require.NoError(t, err)
	require.Equal(t, 5, h.TableSize())
	require.Equal(t, uint64(1), h.Factor())
	require.Equal(t, uint64(0), h.Shift())

	h.Reboot()
	require.Equal(t, uint64(3), h.Factor())
	require.Equal(t, uint64(4), h.Shift())
	require.Equal(t, len(script.vals), script.next)
}

func TestHashFunctionReproducible(t *testing.T) {
	a, err := NewHashFunction(1000, WithSeed(42))
	require.NoError(t, err)
	b, err := NewHashFunction(1000, WithSeed(42))
	require.NoError(t, err)
	require.Equal(t, a.params(), b.params())

	// Each function owns its own seeded generator.
	for range 12 {
		a.Reboot()
		b.Reboot()
		require.Equal(t, a.params(), b.params())
	}
}

func TestTableSizeAlwaysPrime(t *testing.T) {
	rng := newTestRNG(t)
	for range 50 {
		capacity := rng.IntN(100_000)
		h, err := NewHashFunction(capacity, WithSeed(rng.Uint64()))
		require.NoError(t, err)
		require.GreaterOrEqual(t, h.TableSize(), capacity)

		for range 11 {
			require.True(t, prime.IsPrime(uint64(h.TableSize())), "size %d", h.TableSize())
			h.Reboot()
		}
	}
}
