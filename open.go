package fks

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/bits-and-blooms/bitset"
	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	fkserrors "github.com/tamirms/fks/errors"
)

// minFileSize is the size of a file with an empty slot region.
const minFileSize = headerSize + footerSize

// Open reads a table written by WriteFile.
// The file is memory-mapped while it is decoded and unmapped before Open
// returns; the returned Table holds no file resources.
func Open(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat table file: %w", err)
	}
	if stat.Size() < minFileSize {
		return nil, fkserrors.ErrTruncatedFile
	}

	// Decoding reads the file front to back exactly once.
	fadviseSequential(int(file.Fd()), 0, stat.Size())

	mm, err := mmap.Map(file, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap table file: %w", err)
	}
	madviseSequential(mm)

	t, err := OpenBytes(mm)
	if err != nil {
		return nil, errors.Join(err, mm.Unmap())
	}
	if err := mm.Unmap(); err != nil {
		return nil, fmt.Errorf("unmap table file: %w", err)
	}
	return t, nil
}

// OpenBytes decodes a table from data produced by MarshalBinary.
// Keys are copied; data may be reused once OpenBytes returns.
func OpenBytes(data []byte) (*Table, error) {
	if len(data) < minFileSize {
		return nil, fkserrors.ErrTruncatedFile
	}

	body := data[:len(data)-footerSize]
	if xxhash.Sum64(body) != binary.LittleEndian.Uint64(data[len(body):]) {
		return nil, fkserrors.ErrChecksumFailed
	}

	hdr, err := decodeHeader(body)
	if err != nil {
		return nil, err
	}
	h, err := hashFromParams(hdr.Hash, hdr.Fold)
	if err != nil {
		return nil, err
	}
	// Every slot takes at least its tag byte.
	if h.tableSize > uint64(len(body)-headerSize) {
		return nil, fmt.Errorf("%w: table size %d exceeds slot region", fkserrors.ErrCorruptedIndex, h.tableSize)
	}

	d := &decoder{buf: body, off: headerSize}
	t := &Table{
		hash:    h,
		buckets: make([]bucket, h.tableSize),
	}
	for i := range t.buckets {
		kind, err := d.byte()
		if err != nil {
			return nil, err
		}
		switch bucketKind(kind) {
		case bucketEmpty:
		case bucketDirect:
			key, err := d.string()
			if err != nil {
				return nil, err
			}
			if h.Slot(key) != uint64(i) {
				return nil, fmt.Errorf("%w: key %q stored at slot %d", fkserrors.ErrCorruptedIndex, key, i)
			}
			t.buckets[i] = bucket{kind: bucketDirect, key: key}
			t.numKeys++
		case bucketSecondary:
			st, err := d.secondary(hdr.Fold)
			if err != nil {
				return nil, err
			}
			for key := range st.All() {
				if h.Slot(key) != uint64(i) {
					return nil, fmt.Errorf("%w: key %q stored in bucket %d", fkserrors.ErrCorruptedIndex, key, i)
				}
			}
			t.buckets[i] = bucket{kind: bucketSecondary, table: st}
			t.numKeys += st.numKeys
		default:
			return nil, fmt.Errorf("%w: slot %d has tag %d", fkserrors.ErrCorruptedIndex, i, kind)
		}
	}

	if d.off != len(body) {
		return nil, fmt.Errorf("%w: %d trailing bytes", fkserrors.ErrCorruptedIndex, len(body)-d.off)
	}
	if uint64(t.numKeys) != hdr.NumKeys {
		return nil, fmt.Errorf("%w: header says %d keys, found %d", fkserrors.ErrCorruptedIndex, hdr.NumKeys, t.numKeys)
	}
	return t, nil
}

// UnmarshalBinary replaces t with the table decoded from data.
func (t *Table) UnmarshalBinary(data []byte) error {
	decoded, err := OpenBytes(data)
	if err != nil {
		return err
	}
	*t = *decoded
	return nil
}

// decoder reads the uvarint-framed slot region.
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) byte() (byte, error) {
	if d.off >= len(d.buf) {
		return 0, fkserrors.ErrTruncatedFile
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) uvarint() (uint64, error) {
	v, n := binary.Uvarint(d.buf[d.off:])
	if n == 0 {
		return 0, fkserrors.ErrTruncatedFile
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: uvarint overflow at offset %d", fkserrors.ErrCorruptedIndex, d.off)
	}
	d.off += n
	return v, nil
}

// string returns a copy of the next length-prefixed string.
func (d *decoder) string() (string, error) {
	n, err := d.uvarint()
	if err != nil {
		return "", err
	}
	if n > uint64(len(d.buf)-d.off) {
		return "", fkserrors.ErrTruncatedFile
	}
	s := string(d.buf[d.off : d.off+int(n)])
	d.off += int(n)
	return s, nil
}

func (d *decoder) params() (hashParams, error) {
	var p hashParams
	var err error
	if p.TableSize, err = d.uvarint(); err != nil {
		return p, err
	}
	if p.Multiplier, err = d.uvarint(); err != nil {
		return p, err
	}
	if p.Factor, err = d.uvarint(); err != nil {
		return p, err
	}
	if p.Shift, err = d.uvarint(); err != nil {
		return p, err
	}
	reboots, err := d.uvarint()
	if err != nil {
		return p, err
	}
	p.Reboots = uint32(reboots)
	return p, nil
}

// secondary decodes one secondary table, checking that every key sits at
// its own slot and that no slot is used twice.
func (d *decoder) secondary(fold FoldAlgorithm) (*SecondaryTable, error) {
	p, err := d.params()
	if err != nil {
		return nil, err
	}
	h, err := hashFromParams(p, fold)
	if err != nil {
		return nil, err
	}
	attempts, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	count, err := d.uvarint()
	if err != nil {
		return nil, err
	}
	if attempts < 1 || count < 2 || count > h.tableSize || count > uint64(len(d.buf)-d.off) {
		return nil, fmt.Errorf("%w: secondary table with %d keys, %d attempts", fkserrors.ErrCorruptedIndex, count, attempts)
	}

	st := &SecondaryTable{
		hash:     h,
		occupied: bitset.New(uint(h.tableSize)),
		slots:    make([]string, h.tableSize),
		numKeys:  int(count),
		attempts: int(attempts),
	}
	for range count {
		slot, err := d.uvarint()
		if err != nil {
			return nil, err
		}
		key, err := d.string()
		if err != nil {
			return nil, err
		}
		if slot >= h.tableSize || st.occupied.Test(uint(slot)) || h.Slot(key) != slot {
			return nil, fmt.Errorf("%w: key %q at secondary slot %d", fkserrors.ErrCorruptedIndex, key, slot)
		}
		st.occupied.Set(uint(slot))
		st.slots[slot] = key
	}
	return st, nil
}
