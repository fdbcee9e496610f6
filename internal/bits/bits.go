// Package bits provides low-level arithmetic primitives.
package bits

import "math/bits"

// MulAddMod returns (a*x + b) mod m, computed exactly over the 128-bit
// intermediate so that no high bits of the product are lost.
// m must be non-zero.
func MulAddMod(a, x, b, m uint64) uint64 {
	hi, lo := bits.Mul64(a, x)
	lo, carry := bits.Add64(lo, b, 0)
	hi += carry
	return bits.Rem64(hi, lo, m)
}
