package fks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
)

// MarshalBinary encodes the table in the file format described on header.
// The encoding carries the drawn hash parameters, so decoding it needs no
// randomness and reproduces the same slots.
func (t *Table) MarshalBinary() ([]byte, error) {
	buf := make([]byte, headerSize, headerSize+len(t.buckets)+footerSize)
	hdr := header{
		Magic:   magic,
		Version: version,
		Fold:    t.hash.fold,
		NumKeys: uint64(t.numKeys),
		Hash:    t.hash.params(),
	}
	hdr.encodeTo(buf)

	for i := range t.buckets {
		b := &t.buckets[i]
		buf = append(buf, byte(b.kind))
		switch b.kind {
		case bucketDirect:
			buf = appendString(buf, b.key)
		case bucketSecondary:
			buf = b.table.appendTo(buf)
		}
	}

	return binary.LittleEndian.AppendUint64(buf, xxhash.Sum64(buf)), nil
}

// appendTo appends the secondary table's params, attempts, key count and
// (slot, key) pairs in slot order.
func (st *SecondaryTable) appendTo(buf []byte) []byte {
	buf = appendParams(buf, st.hash.params())
	buf = binary.AppendUvarint(buf, uint64(st.attempts))
	buf = binary.AppendUvarint(buf, uint64(st.numKeys))
	for i, ok := st.occupied.NextSet(0); ok; i, ok = st.occupied.NextSet(i + 1) {
		buf = binary.AppendUvarint(buf, uint64(i))
		buf = appendString(buf, st.slots[i])
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

// WriteFile writes the encoded table to path, replacing any existing file.
// The file is pre-allocated and written through a memory map.
// On error the partial file is removed.
func (t *Table) WriteFile(path string) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create table file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(len(data))); err != nil {
		primaryErr := fmt.Errorf("allocate disk space: %w", err)
		return errors.Join(primaryErr, file.Close(), os.Remove(path))
	}

	mm, err := mmap.MapRegion(file, len(data), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("mmap table file: %w", err)
		return errors.Join(primaryErr, file.Close(), os.Remove(path))
	}

	copy(mm, data)
	if err := mm.Flush(); err != nil {
		primaryErr := fmt.Errorf("flush table file: %w", err)
		return errors.Join(primaryErr, mm.Unmap(), file.Close(), os.Remove(path))
	}
	if err := mm.Unmap(); err != nil {
		primaryErr := fmt.Errorf("unmap table file: %w", err)
		return errors.Join(primaryErr, file.Close(), os.Remove(path))
	}
	return file.Close()
}
