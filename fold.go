package fks

import (
	"fmt"

	"github.com/spaolacci/murmur3"
	fkserrors "github.com/tamirms/fks/errors"
	"github.com/zeebo/xxh3"
)

// FoldAlgorithm identifies how a string is reduced to a 64-bit integer
// before the MAD step. It is stored in the file header.
type FoldAlgorithm uint8

const (
	// FoldHorner accumulates bytes with code = code*multiplier + byte,
	// wrapping at 64 bits.
	FoldHorner FoldAlgorithm = 0

	// FoldMurmur3 uses MurmurHash3 seeded with the multiplier.
	FoldMurmur3 FoldAlgorithm = 1

	// FoldXXH3 uses xxHash3 seeded with the multiplier.
	FoldXXH3 FoldAlgorithm = 2
)

// String returns the fold name.
func (a FoldAlgorithm) String() string {
	switch a {
	case FoldHorner:
		return "horner"
	case FoldMurmur3:
		return "murmur3"
	case FoldXXH3:
		return "xxh3"
	default:
		return "unknown"
	}
}

func (a FoldAlgorithm) valid() bool {
	return a <= FoldXXH3
}

// ParseFoldAlgorithm returns the fold named s.
func ParseFoldAlgorithm(s string) (FoldAlgorithm, error) {
	for _, a := range []FoldAlgorithm{FoldHorner, FoldMurmur3, FoldXXH3} {
		if a.String() == s {
			return a, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", fkserrors.ErrUnknownFold, s)
}

// fold reduces s to an integer. The multiplier is the Horner base, or the
// seed for the hashed folds, so reboots that bump it also reseed them.
func (a FoldAlgorithm) fold(s string, multiplier uint64) uint64 {
	switch a {
	case FoldMurmur3:
		return murmur3.Sum64WithSeed([]byte(s), uint32(multiplier))
	case FoldXXH3:
		return xxh3.HashSeed([]byte(s), multiplier)
	default:
		return foldHorner(s, multiplier)
	}
}

func foldHorner(s string, multiplier uint64) uint64 {
	var code uint64
	for i := 0; i < len(s); i++ {
		code = code*multiplier + uint64(s[i])
	}
	return code
}
