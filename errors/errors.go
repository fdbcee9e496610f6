// Package errors defines all exported error sentinels for the fks library.
//
// This is the single source of truth for error values. Both the top-level
// fks package and internal packages import from here, ensuring errors.Is
// checks work across package boundaries.
package errors

import "errors"

// Build errors
var (
	ErrCapacityExceeded   = errors.New("fks: requested capacity exceeds largest supported prime")
	ErrConstructionFailed = errors.New("fks: perfect hash construction failed - retry with a different seed")
	ErrDuplicateKey       = errors.New("fks: duplicate key detected")
	ErrInvalidMaxAttempts = errors.New("fks: max attempts must be at least 1")
	ErrUnknownFold        = errors.New("fks: unknown fold algorithm")
)

// Persistence errors
var (
	ErrInvalidMagic   = errors.New("fks: invalid magic number")
	ErrInvalidVersion = errors.New("fks: unsupported version")
	ErrChecksumFailed = errors.New("fks: file checksum verification failed")
	ErrTruncatedFile  = errors.New("fks: table file is truncated")
	ErrCorruptedIndex = errors.New("fks: table data is corrupted")
)
