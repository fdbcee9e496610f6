package fks

import (
	"github.com/go-logr/logr"
	intbits "github.com/tamirms/fks/internal/bits"
	"github.com/tamirms/fks/internal/prime"
)

const (
	// initialMultiplier is the Horner base every hash function starts with.
	initialMultiplier = 33

	// multiplierStep keeps the multiplier odd.
	multiplierStep = 2

	// multiplierCadence: the multiplier grows on every 3rd reboot.
	multiplierCadence = 3

	// growthCadence: the table grows to the next prime on every 5th reboot.
	growthCadence = 5

	// minTableSize is the prime floor. factor is drawn from [1, size-1],
	// which needs at least two values for a reboot to change it.
	minTableSize = 3
)

// HashFunction is a MAD hash over strings:
//
//	Slot(s) = (factor*Fold(s) + shift) mod TableSize()
//
// TableSize is a prime, factor is in [1, TableSize-1] and shift in
// [0, TableSize-1]. A HashFunction is a value; copies are independent except
// for the shared random source. Only Reboot mutates it.
type HashFunction struct {
	tableSize  uint64
	multiplier uint64
	factor     uint64
	shift      uint64
	reboots    int

	fold FoldAlgorithm
	rng  Rand
	log  logr.Logger
}

// NewHashFunction creates a hash function over the smallest prime table size
// >= capacity and draws its parameters at random.
// Returns ErrCapacityExceeded if capacity is above the largest supported prime.
func NewHashFunction(capacity int, opts ...Option) (HashFunction, error) {
	cfg, err := newBuildConfig(opts)
	if err != nil {
		return HashFunction{}, err
	}
	return newHashFunction(capacity, cfg)
}

func newHashFunction(capacity int, cfg *buildConfig) (HashFunction, error) {
	size, err := prime.SmallestAtLeast(uint64(max(capacity, minTableSize)))
	if err != nil {
		return HashFunction{}, err
	}
	h := HashFunction{
		tableSize:  size,
		multiplier: initialMultiplier,
		fold:       cfg.fold,
		rng:        cfg.rng,
		log:        cfg.logger,
	}
	h.factor = h.drawFactor()
	h.shift = h.drawShift()
	return h, nil
}

func (h *HashFunction) drawFactor() uint64 {
	return 1 + h.rng.Uint64N(h.tableSize-1)
}

func (h *HashFunction) drawShift() uint64 {
	return h.rng.Uint64N(h.tableSize)
}

// Fold reduces s to an unsigned integer. Overflow wraps.
func (h HashFunction) Fold(s string) uint64 {
	return h.fold.fold(s, h.multiplier)
}

// Slot returns the table slot of s, in [0, TableSize()).
func (h HashFunction) Slot(s string) uint64 {
	return intbits.MulAddMod(h.factor, h.Fold(s), h.shift, h.tableSize)
}

// Reboot redraws factor and shift, each guaranteed to differ from its
// previous value. Every 3rd reboot also bumps the multiplier by 2 and every
// 5th grows the table to the next prime; callers must re-slot all keys after
// a reboot. At the largest supported prime the table stops growing.
func (h *HashFunction) Reboot() {
	if h.rng == nil {
		h.rng = globalRand
	}
	h.reboots++

	oldFactor, oldShift := h.factor, h.shift
	for h.factor == oldFactor {
		h.factor = h.drawFactor()
	}
	for h.shift == oldShift {
		h.shift = h.drawShift()
	}

	if h.reboots%multiplierCadence == 0 {
		h.multiplier += multiplierStep
	}
	if h.reboots%growthCadence == 0 {
		if next, ok := prime.Next(h.tableSize); ok {
			h.tableSize = next
		}
	}

	h.log.V(2).Info("reboot",
		"reboots", h.reboots,
		"tableSize", h.tableSize,
		"multiplier", h.multiplier,
		"factor", h.factor,
		"shift", h.shift)
}

// TableSize returns the modulus.
func (h HashFunction) TableSize() int {
	return int(h.tableSize)
}

// Multiplier returns the fold multiplier.
func (h HashFunction) Multiplier() uint64 {
	return h.multiplier
}

// Factor returns the MAD factor.
func (h HashFunction) Factor() uint64 {
	return h.factor
}

// Shift returns the MAD shift.
func (h HashFunction) Shift() uint64 {
	return h.shift
}

// Reboots returns how many times Reboot has been called.
func (h HashFunction) Reboots() int {
	return h.reboots
}

// FoldAlgorithm returns the fold in use.
func (h HashFunction) FoldAlgorithm() FoldAlgorithm {
	return h.fold
}
