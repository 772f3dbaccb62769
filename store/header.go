package store

import (
	"encoding/binary"
	"fmt"

	"github.com/moonstripe/indra-go/errs"
	"github.com/moonstripe/indra-go/hash"
)

const (
	magic         = "INDRA_DB"
	formatVersion = uint32(1)

	headerSize       = 64
	maxHeadNameBytes = headerSize - 50 // bytes [50:64)

	indexEntrySize = hash.Size + 8 + 4 // hash || offset u64 || size u32
)

// header mirrors the 64-byte on-disk header described in spec.md §4.1.
type header struct {
	version     uint32
	flags       uint32
	objectCount uint64
	indexOffset uint64
	refsOffset  uint64
	refsCount   uint64
	headName    string
}

func newHeader() header {
	return header{
		version:  formatVersion,
		headName: defaultBranch,
	}
}

func (h header) encode() ([headerSize]byte, error) {
	var buf [headerSize]byte
	copy(buf[0:8], magic)
	binary.LittleEndian.PutUint32(buf[8:12], h.version)
	binary.LittleEndian.PutUint32(buf[12:16], h.flags)
	binary.LittleEndian.PutUint64(buf[16:24], h.objectCount)
	binary.LittleEndian.PutUint64(buf[24:32], h.indexOffset)
	binary.LittleEndian.PutUint64(buf[32:40], h.refsOffset)
	binary.LittleEndian.PutUint64(buf[40:48], h.refsCount)

	nameBytes := []byte(h.headName)
	if len(nameBytes) > maxHeadNameBytes {
		return buf, fmt.Errorf("store: head ref name %q exceeds %d bytes", h.headName, maxHeadNameBytes)
	}
	binary.LittleEndian.PutUint16(buf[48:50], uint16(len(nameBytes)))
	copy(buf[50:50+len(nameBytes)], nameBytes)
	return buf, nil
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, errs.Corruptionf("header too short: %d bytes", len(buf))
	}
	if string(buf[0:8]) != magic {
		return header{}, fmt.Errorf("%w: bad magic", errs.ErrInvalidFile)
	}

	var h header
	h.version = binary.LittleEndian.Uint32(buf[8:12])
	if h.version != formatVersion {
		return header{}, errs.VersionMismatch(formatVersion, h.version)
	}
	h.flags = binary.LittleEndian.Uint32(buf[12:16])
	h.objectCount = binary.LittleEndian.Uint64(buf[16:24])
	h.indexOffset = binary.LittleEndian.Uint64(buf[24:32])
	h.refsOffset = binary.LittleEndian.Uint64(buf[32:40])
	h.refsCount = binary.LittleEndian.Uint64(buf[40:48])

	nameLen := binary.LittleEndian.Uint16(buf[48:50])
	if int(nameLen) > maxHeadNameBytes {
		return header{}, errs.Corruptionf("head ref name length %d exceeds %d", nameLen, maxHeadNameBytes)
	}
	h.headName = string(buf[50 : 50+int(nameLen)])
	if h.headName == "" {
		h.headName = defaultBranch
	}
	return h, nil
}

// indexEntry is the 44-byte on-disk index record for one stored blob.
type indexEntry struct {
	offset uint64
	size   uint32
}

func encodeIndexEntry(h hash.Hash, e indexEntry) [indexEntrySize]byte {
	var buf [indexEntrySize]byte
	copy(buf[0:hash.Size], h.Bytes())
	binary.LittleEndian.PutUint64(buf[hash.Size:hash.Size+8], e.offset)
	binary.LittleEndian.PutUint32(buf[hash.Size+8:hash.Size+12], e.size)
	return buf
}

func decodeIndexEntry(buf []byte) (hash.Hash, indexEntry, error) {
	if len(buf) < indexEntrySize {
		return hash.Zero, indexEntry{}, errs.Corruptionf("index entry too short")
	}
	h, err := hash.FromBytes(buf[0:hash.Size])
	if err != nil {
		return hash.Zero, indexEntry{}, err
	}
	e := indexEntry{
		offset: binary.LittleEndian.Uint64(buf[hash.Size : hash.Size+8]),
		size:   binary.LittleEndian.Uint32(buf[hash.Size+8 : hash.Size+12]),
	}
	return h, e, nil
}
