//go:build darwin

package fks

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for file with F_PREALLOCATE and sets its
// length. Preallocation failure is tolerated; truncation is not.
func fallocateFile(file *os.File, size int64) error {
	_ = unix.FcntlFstore(file.Fd(), unix.F_PREALLOCATE, &unix.Fstore_t{
		Flags:   unix.F_ALLOCATEALL,
		Posmode: unix.F_PEOFPOSMODE,
		Length:  size,
	})
	return unix.Ftruncate(int(file.Fd()), size)
}
