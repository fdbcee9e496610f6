//go:build !linux && !darwin

package fks

// madviseSequential is a no-op on platforms without madvise.
func madviseSequential(data []byte) {
	// No-op
}
