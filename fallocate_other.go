//go:build !linux && !darwin

package fks

import "os"

// fallocateFile sets the file length. Blocks may be allocated lazily on
// these platforms.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
