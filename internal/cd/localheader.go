package cd

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/nguyengg/zipkit/internal/extra"
	"github.com/nguyengg/zipkit/internal/model"
	"github.com/nguyengg/zipkit/internal/source"
)

type fixedLocalFileHeader struct {
	Sig                uint32
	VersionNeeded      uint16
	GeneralPurposeFlag uint16
	Method             uint16
	ModTime            uint16
	ModDate            uint16
	CRC32              uint32
	CompressedSize     uint32
	UncompressedSize   uint32
	NameLen            uint16
	ExtraLen           uint16
}

const fixedLocalFileHeaderLen = 30

// LocalHeader is the reconciled view of an entry's local file header plus its offset to the start of payload
// data within the archive.
type LocalHeader struct {
	CompressedSize   uint64
	UncompressedSize uint64
	CRC32            uint32

	// PayloadOffset is the absolute file offset (prefixLength already added by ReadLocalHeader) at which the
	// compressed payload begins, i.e. immediately after this LFH's fixed fields, name, and extra.
	PayloadOffset int64
}

// ReadLocalHeader reads and reconciles the local file header at entry.LocalHeaderOffset+prefixLength against the
// already-parsed central directory entry, per spec §4.10 steps 1-2.
func ReadLocalHeader(a source.Archive, entry *model.Entry, prefixLength int64) (*LocalHeader, error) {
	off := int64(entry.LocalHeaderOffset) + prefixLength

	buf := make([]byte, fixedLocalFileHeaderLen)
	if _, err := a.ReadAt(buf, off); err != nil {
		return nil, fmt.Errorf("%w: read local file header: %v", errCorruptLocalHeader, err)
	}

	var lfh fixedLocalFileHeader
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &lfh); err != nil {
		return nil, fmt.Errorf("%w: parse local file header: %v", errCorruptLocalHeader, err)
	}
	if lfh.Sig != SigLocalFileHdr {
		return nil, fmt.Errorf("%w: expected local file header signature at offset %d, got %#x", errCorruptLocalHeader, off, lfh.Sig)
	}

	varLen := int(lfh.NameLen) + int(lfh.ExtraLen)
	varBuf := make([]byte, varLen)
	if varLen > 0 {
		if _, err := a.ReadAt(varBuf, off+fixedLocalFileHeaderLen); err != nil {
			return nil, fmt.Errorf("%w: read local file header variable fields: %v", errCorruptLocalHeader, err)
		}
	}
	extraBytes := varBuf[lfh.NameLen:]

	lh := &LocalHeader{
		CompressedSize:   uint64(lfh.CompressedSize),
		UncompressedSize: uint64(lfh.UncompressedSize),
		CRC32:            lfh.CRC32,
		PayloadOffset:    off + fixedLocalFileHeaderLen + int64(varLen),
	}

	sentinels := extra.Sentinels{
		UncompressedSize: lfh.UncompressedSize == sentinel32,
		CompressedSize:   lfh.CompressedSize == sentinel32,
	}
	parsed := extra.Parse(extraBytes, sentinels)
	if sentinels.UncompressedSize && parsed.Zip64.UncompressedSize != nil {
		lh.UncompressedSize = *parsed.Zip64.UncompressedSize
	}
	if sentinels.CompressedSize && parsed.Zip64.CompressedSize != nil {
		lh.CompressedSize = *parsed.Zip64.CompressedSize
	}

	// Bit 3 set: LFH crc/sizes are zero/unreliable; the CDE is authoritative (spec §4.10 step 2).
	bit3 := lfh.GeneralPurposeFlag&0x8 != 0
	if bit3 {
		lh.CRC32 = entry.CRC32
		lh.CompressedSize = entry.CompressedSize
		lh.UncompressedSize = entry.UncompressedSize
		return lh, nil
	}

	// Open Question 1 (spec §9): when sizes disagree and bit 3 is clear, warn and prefer the CDE's values.
	if lh.CRC32 != entry.CRC32 || lh.CompressedSize != entry.CompressedSize || lh.UncompressedSize != entry.UncompressedSize {
		lh.CRC32 = entry.CRC32
		lh.CompressedSize = entry.CompressedSize
		lh.UncompressedSize = entry.UncompressedSize
		return lh, errLocalHeaderDisagreement
	}

	return lh, nil
}
