package fks

import (
	"math/rand/v2"
	"sync"
)

// pcgStream is xored into the seed to derive the second PCG word.
const pcgStream = 0x9E3779B97F4A7C15

// Rand is the source of randomness for hash parameters.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	// Uint64N returns a uniform value in [0, n). n is never 0.
	Uint64N(n uint64) uint64
}

// lockedRand is the process-wide generator. It is safe for concurrent use.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

func (l *lockedRand) Uint64N(n uint64) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Uint64N(n)
}

func (l *lockedRand) seed(seed uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.r = newSeededRand(seed)
}

var globalRand = &lockedRand{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}

// SetSeed reseeds the process-wide generator used by constructions that
// are not given WithRand or WithSeed. Call it once, before any construction,
// for reproducible runs.
func SetSeed(seed uint64) {
	globalRand.seed(seed)
}

func newSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^pcgStream))
}
