package fks

import (
	"encoding/binary"
	"fmt"

	"github.com/go-logr/logr"
	fkserrors "github.com/tamirms/fks/errors"
	"github.com/tamirms/fks/internal/prime"
)

const (
	// magic number for fks table files
	// "FKSH" in little-endian
	magic = uint32(0x48534B46)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (8 bytes)
	footerSize = 8
)

// header is the 64-byte file header.
//
// Layout:
//
//	Offset  Size  Field            Type
//	0       4     Magic            0x48534B46 ("FKSH")
//	4       2     Version          0x0001
//	6       1     Fold             uint8 (0=Horner, 1=Murmur3, 2=XXH3)
//	7       1     Reserved         zero
//	8       8     NumKeys          uint64_le
//	16      8     TableSize        uint64_le (top-level)
//	24      8     Multiplier       uint64_le
//	32      8     Factor           uint64_le
//	40      8     Shift            uint64_le
//	48      4     Reboots          uint32_le
//	52      12    Reserved         [12]byte (zero)
//
// The slot region follows the header: one tag byte per top-level slot
// (0=empty, 1=direct, 2=secondary), then for direct slots a uvarint-framed
// key, and for secondary slots the hash params (uvarints), attempts, key
// count and (slot, key) pairs in slot order. The footer is the xxHash64 of
// everything before it.
type header struct {
	Magic   uint32
	Version uint16
	Fold    FoldAlgorithm
	NumKeys uint64
	Hash    hashParams
}

// hashParams are the persisted fields of a HashFunction.
type hashParams struct {
	TableSize  uint64
	Multiplier uint64
	Factor     uint64
	Shift      uint64
	Reboots    uint32
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.Fold)
	buf[7] = 0
	binary.LittleEndian.PutUint64(buf[8:16], h.NumKeys)
	binary.LittleEndian.PutUint64(buf[16:24], h.Hash.TableSize)
	binary.LittleEndian.PutUint64(buf[24:32], h.Hash.Multiplier)
	binary.LittleEndian.PutUint64(buf[32:40], h.Hash.Factor)
	binary.LittleEndian.PutUint64(buf[40:48], h.Hash.Shift)
	binary.LittleEndian.PutUint32(buf[48:52], h.Hash.Reboots)
	clear(buf[52:64])
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, fkserrors.ErrTruncatedFile
	}

	h := &header{
		Magic:   binary.LittleEndian.Uint32(buf[0:4]),
		Version: binary.LittleEndian.Uint16(buf[4:6]),
		Fold:    FoldAlgorithm(buf[6]),
		NumKeys: binary.LittleEndian.Uint64(buf[8:16]),
		Hash: hashParams{
			TableSize:  binary.LittleEndian.Uint64(buf[16:24]),
			Multiplier: binary.LittleEndian.Uint64(buf[24:32]),
			Factor:     binary.LittleEndian.Uint64(buf[32:40]),
			Shift:      binary.LittleEndian.Uint64(buf[40:48]),
			Reboots:    binary.LittleEndian.Uint32(buf[48:52]),
		},
	}

	if h.Magic != magic {
		return nil, fkserrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, fkserrors.ErrInvalidVersion
	}
	if !h.Fold.valid() {
		return nil, fmt.Errorf("%w: %w: %d", fkserrors.ErrCorruptedIndex, fkserrors.ErrUnknownFold, h.Fold)
	}

	return h, nil
}

// params captures the persisted fields of h.
func (h HashFunction) params() hashParams {
	return hashParams{
		TableSize:  h.tableSize,
		Multiplier: h.multiplier,
		Factor:     h.factor,
		Shift:      h.shift,
		Reboots:    uint32(h.reboots),
	}
}

// appendParams appends p as uvarints.
func appendParams(buf []byte, p hashParams) []byte {
	buf = binary.AppendUvarint(buf, p.TableSize)
	buf = binary.AppendUvarint(buf, p.Multiplier)
	buf = binary.AppendUvarint(buf, p.Factor)
	buf = binary.AppendUvarint(buf, p.Shift)
	return binary.AppendUvarint(buf, uint64(p.Reboots))
}

// hashFromParams restores a hash function, rejecting parameters that no
// construction could have produced.
func hashFromParams(p hashParams, fold FoldAlgorithm) (HashFunction, error) {
	switch {
	case p.TableSize < minTableSize || !prime.IsPrime(p.TableSize):
		return HashFunction{}, fmt.Errorf("%w: table size %d", fkserrors.ErrCorruptedIndex, p.TableSize)
	case p.Factor < 1 || p.Factor >= p.TableSize:
		return HashFunction{}, fmt.Errorf("%w: factor %d", fkserrors.ErrCorruptedIndex, p.Factor)
	case p.Shift >= p.TableSize:
		return HashFunction{}, fmt.Errorf("%w: shift %d", fkserrors.ErrCorruptedIndex, p.Shift)
	case p.Multiplier < initialMultiplier || p.Multiplier%2 == 0:
		return HashFunction{}, fmt.Errorf("%w: multiplier %d", fkserrors.ErrCorruptedIndex, p.Multiplier)
	}
	return HashFunction{
		tableSize:  p.TableSize,
		multiplier: p.Multiplier,
		factor:     p.Factor,
		shift:      p.Shift,
		reboots:    int(p.Reboots),
		fold:       fold,
		rng:        globalRand,
		log:        logr.Discard(),
	}, nil
}
