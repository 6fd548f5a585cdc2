// Package cd implements the SignatureLocator and DirectoryIterator
// components (spec §4.2, §4.3): backward EOCD discovery (classic and
// Zip64), forward central-directory iteration, and local-header parsing.
//
// The backward scan is grounded on the teacher's most mature generation,
// zip/scan/eocd.go's findEOCD. Here it reads the whole trailing search
// window (clamped to the file size) in one ReadAt and takes the last
// occurrence of the EOCD signature in it. It is generalized with Zip64
// EOCD locator/record detection, which no teacher generation implemented.
package cd

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/nguyengg/zipkit/internal/source"
)

const (
	SigEOCD          uint32 = 0x06054b50
	SigZip64Locator  uint32 = 0x07064b50
	SigZip64Record   uint32 = 0x06064b50
	SigCDFileHeader  uint32 = 0x02014b50
	SigLocalFileHdr  uint32 = 0x04034b50
	SigDataDescriptor uint32 = 0x08074b50 // little-endian form of the 50 4B 07 08 byte sequence.
)

// sentinel16/sentinel32 mark a classic field as "see the Zip64 extra instead".
const (
	sentinel16 = 0xFFFF
	sentinel32 = 0xFFFFFFFF
)

// maxCommentLen bounds the EOCD search window: a 65,535-byte comment plus the 22-byte fixed EOCD record, plus
// slack for tooling that pads beyond spec (spec §4.2 step 1).
const maxCommentLen = 65535
const eocdFixedLen = 22
const searchWindow = eocdFixedLen + maxCommentLen + 256

// EOCD is the reconciled end-of-central-directory record: classic fields merged with any Zip64 override.
type EOCD struct {
	DiskNumber      uint32
	StartDiskOfCD   uint32
	EntriesThisDisk uint64
	TotalEntries    uint64
	CDSize          uint64
	CDOffset        uint64
	Comment         []byte

	IsZip64 bool

	// RealEOCDOffset is the absolute file offset at which the classic EOCD signature was found.
	RealEOCDOffset int64

	// PrefixLength is N from spec §4.2 step 6: the number of SFX/garbage bytes before the first zip signature.
	// All offsets read out of headers must be interpreted as (logical + PrefixLength) when seeking.
	PrefixLength int64
}

type fixedEOCD struct {
	Sig             uint32
	DiskNumber      uint16
	StartDiskOfCD   uint16
	EntriesThisDisk uint16
	TotalEntries    uint16
	CDSize          uint32
	CDOffset        uint32
	CommentLen      uint16
}

type fixedZip64Locator struct {
	Sig                   uint32
	DiskWithZip64EOCD     uint32
	Zip64EOCDOffset       uint64
	TotalDisks            uint32
}

type fixedZip64Record struct {
	Sig              uint32
	RecordSize       uint64
	VersionMadeBy    uint16
	VersionNeeded    uint16
	DiskNumber       uint32
	StartDiskOfCD    uint32
	EntriesThisDisk  uint64
	TotalEntries     uint64
	CDSize           uint64
	CDOffset         uint64
}

// FindEOCD performs the full SignatureLocator algorithm of spec §4.2: backward scan for the classic EOCD, Zip64
// locator/record detection and merge, and prefix-length computation.
func FindEOCD(a source.Archive) (*EOCD, error) {
	size := a.Size()

	window := int64(searchWindow)
	if window > size {
		window = size
	}

	buf := make([]byte, window)
	if _, err := a.ReadAt(buf, size-window); err != nil {
		return nil, fmt.Errorf("read EOCD search window error: %w", err)
	}

	sigBytes := []byte{0x50, 0x4b, 0x05, 0x06}
	idx := bytes.LastIndex(buf, sigBytes)
	if idx < 0 {
		return nil, errNotAZipfile
	}

	realOffset := size - window + int64(idx)

	var fe fixedEOCD
	if err := binary.Read(bytes.NewReader(buf[idx:]), binary.LittleEndian, &fe); err != nil {
		return nil, fmt.Errorf("parse EOCD error: %w", err)
	}

	commentStart := idx + eocdFixedLen
	comment := []byte{}
	if commentStart <= len(buf) {
		end := commentStart + int(fe.CommentLen)
		if end > len(buf) {
			end = len(buf)
		}
		comment = append(comment, buf[commentStart:end]...)
	}

	eocd := &EOCD{
		DiskNumber:      uint32(fe.DiskNumber),
		StartDiskOfCD:   uint32(fe.StartDiskOfCD),
		EntriesThisDisk: uint64(fe.EntriesThisDisk),
		TotalEntries:    uint64(fe.TotalEntries),
		CDSize:          uint64(fe.CDSize),
		CDOffset:        uint64(fe.CDOffset),
		Comment:         comment,
		RealEOCDOffset:  realOffset,
	}

	// Zip64 detection: any sentinel-valued field signals a Zip64 pair must precede the classic EOCD.
	needsZip64 := fe.TotalEntries == sentinel16 || fe.EntriesThisDisk == sentinel16 ||
		fe.CDSize == sentinel32 || fe.CDOffset == sentinel32

	if needsZip64 || realOffset >= 20 {
		if z, err := tryLoadZip64(a, realOffset); err == nil && z != nil {
			eocd.IsZip64 = true
			eocd.DiskNumber = z.DiskNumber
			eocd.StartDiskOfCD = z.StartDiskOfCD
			eocd.EntriesThisDisk = z.EntriesThisDisk
			eocd.TotalEntries = z.TotalEntries
			eocd.CDSize = z.CDSize
			eocd.CDOffset = z.CDOffset
		} else if needsZip64 {
			return nil, fmt.Errorf("%w: EOCD has sentinel fields but no valid Zip64 EOCD pair found", errCorruptDirectory)
		}
	}

	n, err := computePrefix(eocd)
	if err != nil {
		return nil, err
	}
	eocd.PrefixLength = n

	return eocd, nil
}

// tryLoadZip64 looks for the Zip64 Locator at realEOCDOffset-20, per spec §4.2 step 5, trying the
// prefix-compensated offset (-20-56) as a fallback when the first attempt's signature doesn't match.
func tryLoadZip64(a source.Archive, realEOCDOffset int64) (*fixedZip64Record, error) {
	for _, locatorOffset := range []int64{realEOCDOffset - 20, realEOCDOffset - 20 - 56} {
		if locatorOffset < 0 {
			continue
		}

		buf := make([]byte, 20)
		if _, err := a.ReadAt(buf, locatorOffset); err != nil {
			continue
		}

		var loc fixedZip64Locator
		if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &loc); err != nil {
			continue
		}
		if loc.Sig != SigZip64Locator {
			continue
		}

		recBuf := make([]byte, 56)
		if _, err := a.ReadAt(recBuf, int64(loc.Zip64EOCDOffset)); err != nil {
			continue
		}

		var rec fixedZip64Record
		if err := binary.Read(bytes.NewReader(recBuf), binary.LittleEndian, &rec); err != nil {
			continue
		}
		if rec.Sig != SigZip64Record {
			continue
		}

		return &rec, nil
	}

	return nil, fmt.Errorf("no valid zip64 EOCD pair found")
}

// computePrefix implements spec §4.2 steps 6-7.
func computePrefix(e *EOCD) (int64, error) {
	cdOffset, cdSize := e.CDOffset, e.CDSize

	// known bug compensation: cd-offset = 0 but cd-size > 0.
	if cdOffset == 0 && cdSize > 0 {
		n := e.RealEOCDOffset - int64(cdSize)
		if n >= 0 {
			return n, nil
		}
	}

	expected := int64(cdOffset) + int64(cdSize)
	n := e.RealEOCDOffset - expected

	if n < 0 {
		return 0, fmt.Errorf("%w: computed prefix length %d is negative (EOCD offset %d, expected cd end %d)",
			errCorruptDirectory, n, e.RealEOCDOffset, expected)
	}

	return n, nil
}

// IsEmpty reports whether this is the degenerate zero-entry archive of spec §8 scenario 1.
func (e *EOCD) IsEmpty() bool {
	return e.TotalEntries == 0
}
