//go:build linux || darwin

package fks

import "golang.org/x/sys/unix"

// madviseSequential asks the kernel to read ahead aggressively on a mapped
// region that is about to be scanned once.
// Best-effort: errors are silently ignored.
func madviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
