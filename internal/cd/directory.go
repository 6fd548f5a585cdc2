package cd

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/nguyengg/zipkit/internal/extra"
	"github.com/nguyengg/zipkit/internal/model"
	"github.com/nguyengg/zipkit/internal/source"
	"github.com/valyala/bytebufferpool"
	"golang.org/x/text/encoding/charmap"
)

type fixedCDFileHeader struct {
	Sig                uint32
	VersionMadeBy      uint16
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
	CommentLen         uint16
	DiskNumberStart    uint16
	InternalAttr       uint16
	ExternalAttr       uint32
	LocalHeaderOffset  uint32
}

const fixedCDFileHeaderLen = 46

// Options configures DirectoryIterator.
type Options struct {
	// UnicodePolicy controls the fallback behaviour when a Unicode path extra is present but its CRC check fails.
	UnicodePolicy model.UnicodePolicy

	// KeepComment, when true, copies each entry's comment field into the yielded model.Entry.
	KeepComment bool
}

// DirectoryIterator walks the central directory named by an *EOCD, yielding reconciled model.Entry values.
//
// Grounded on zip/scan/scan.go's CentralDirectory/CentralDirectoryWithReaderAt (forward CD iteration via
// bytebufferpool-backed reads), generalized here to actually decode extra fields and resolve names, which the
// teacher's version left as a "TODO support fh.Open and fh.WriteTo" stub.
type DirectoryIterator struct {
	a       source.Archive
	eocd    *EOCD
	opts    Options
	off     int64
	end     int64
	emitted uint64

	warnings []error
}

// NewDirectoryIterator returns an iterator starting at eocd.CDOffset+eocd.PrefixLength.
func NewDirectoryIterator(a source.Archive, eocd *EOCD, opts Options) *DirectoryIterator {
	start := int64(eocd.CDOffset) + eocd.PrefixLength
	return &DirectoryIterator{
		a:    a,
		eocd: eocd,
		opts: opts,
		off:  start,
		end:  eocd.RealEOCDOffset,
	}
}

// Warnings returns the non-fatal anomalies observed (KindWarning), e.g. a Unicode-CRC mismatch handled per
// UnicodeWarnFallback.
func (it *DirectoryIterator) Warnings() []error { return it.warnings }

// Next returns the next entry, the end-of-directory signal (see IsDone) once the count matches EOCD.TotalEntries,
// or a corrupt-directory error (see IsCorruptDirectory) if the signature is missing before the expected count is
// reached. If the very first record is not a CDE signature and a non-zero prefix length was computed, Next retries
// once at EOCD.CDOffset with the prefix length reset to zero.
func (it *DirectoryIterator) Next() (*model.Entry, error) {
	if it.emitted >= it.eocd.TotalEntries {
		return nil, errDirectoryDone
	}
	if it.off >= it.end {
		return nil, fmt.Errorf("%w: directory ended after %d of %d expected entries", errCorruptDirectory, it.emitted, it.eocd.TotalEntries)
	}

	bb := bytebufferpool.Get()
	defer bytebufferpool.Put(bb)

	bb.Reset()
	if _, err := bb.Write(make([]byte, fixedCDFileHeaderLen)); err != nil {
		return nil, err
	}
	if _, err := it.a.ReadAt(bb.B, it.off); err != nil {
		return nil, fmt.Errorf("read central directory entry error: %w", err)
	}

	var fh fixedCDFileHeader
	if err := binary.Read(bufio.NewReader(bytes.NewReader(bb.B)), binary.LittleEndian, &fh); err != nil {
		return nil, fmt.Errorf("parse central directory entry error: %w", err)
	}
	if fh.Sig != SigCDFileHeader {
		if it.emitted == 0 && it.eocd.PrefixLength != 0 && it.off == int64(it.eocd.CDOffset)+it.eocd.PrefixLength {
			// Open Question 2: retry once assuming no prefix; local header reads share eocd and see the reset too.
			it.eocd.PrefixLength = 0
			it.off = int64(it.eocd.CDOffset)
			return it.Next()
		}
		return nil, fmt.Errorf("%w: expected central directory signature at offset %d, got %#x", errCorruptDirectory, it.off, fh.Sig)
	}

	varLen := int(fh.NameLen) + int(fh.ExtraLen) + int(fh.CommentLen)
	varBuf := make([]byte, varLen)
	if varLen > 0 {
		if _, err := it.a.ReadAt(varBuf, it.off+fixedCDFileHeaderLen); err != nil {
			return nil, fmt.Errorf("read central directory entry variable fields error: %w", err)
		}
	}

	name := varBuf[:fh.NameLen]
	extraBytes := varBuf[fh.NameLen : int(fh.NameLen)+int(fh.ExtraLen)]
	comment := varBuf[int(fh.NameLen)+int(fh.ExtraLen):]

	entry := it.build(fh, name, extraBytes, comment)

	it.off += fixedCDFileHeaderLen + int64(varLen)
	it.emitted++

	return entry, nil
}

// All returns an iterator-free slice convenience for callers that want every entry up front (e.g. Listing, or
// root-directory detection before extraction).
func (it *DirectoryIterator) All() ([]*model.Entry, error) {
	var out []*model.Entry
	for {
		e, err := it.Next()
		if err == errDirectoryDone {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, e)
	}
}

func (it *DirectoryIterator) build(fh fixedCDFileHeader, name, extraBytes, comment []byte) *model.Entry {
	sentinels := extra.Sentinels{
		UncompressedSize:  fh.UncompressedSize == sentinel32,
		CompressedSize:    fh.CompressedSize == sentinel32,
		LocalHeaderOffset: fh.LocalHeaderOffset == sentinel32,
		DiskStart:         fh.DiskNumberStart == sentinel16,
	}
	parsed := extra.Parse(extraBytes, sentinels)

	e := &model.Entry{
		StoredName:            append([]byte(nil), name...),
		Method:                model.Method(fh.Method),
		HostOS:                model.HostOS(fh.VersionMadeBy >> 8),
		GeneralPurposeBitFlag: fh.GeneralPurposeFlag,
		CRC32:                 fh.CRC32,
		CompressedSize:        uint64(fh.CompressedSize),
		UncompressedSize:      uint64(fh.UncompressedSize),
		LocalHeaderOffset:     uint64(fh.LocalHeaderOffset),
		DiskNumberStart:       uint32(fh.DiskNumberStart),
		InternalAttr:          fh.InternalAttr,
		ExternalAttr:          fh.ExternalAttr,
		Modified:              dosDateTimeToTime(fh.ModDate, fh.ModTime),
		IsEncrypted:           fh.GeneralPurposeFlag&0x1 != 0,
	}

	if it.opts.KeepComment {
		e.Comment = string(comment)
	}

	if sentinels.UncompressedSize && parsed.Zip64.UncompressedSize != nil {
		e.UncompressedSize = *parsed.Zip64.UncompressedSize
		e.IsZip64 = true
	}
	if sentinels.CompressedSize && parsed.Zip64.CompressedSize != nil {
		e.CompressedSize = *parsed.Zip64.CompressedSize
		e.IsZip64 = true
	}
	if sentinels.LocalHeaderOffset && parsed.Zip64.LocalHeaderOffset != nil {
		e.LocalHeaderOffset = *parsed.Zip64.LocalHeaderOffset
		e.IsZip64 = true
	}
	if sentinels.DiskStart && parsed.Zip64.DiskStart != nil {
		e.DiskNumberStart = *parsed.Zip64.DiskStart
		e.IsZip64 = true
	}

	if parsed.UnixTime.HasModified {
		e.Modified = parsed.UnixTime.Modified
	}
	if parsed.UnixTime.HasAccessed {
		e.Accessed = parsed.UnixTime.Accessed
	}
	if parsed.UnixTime.HasCreated {
		e.Created = parsed.UnixTime.Created
	}

	if parsed.UnixOwner.Present {
		e.HasUnixOwner = true
		e.UID, e.GID = parsed.UnixOwner.UID, parsed.UnixOwner.GID
	}

	efs := fh.GeneralPurposeFlag&0x800 != 0
	e.Name, e.UnicodeMismatch = it.resolveName(parsed.UnicodePath, e.StoredName, e.HostOS, efs)

	e.IsDir = len(e.Name) > 0 && e.Name[len(e.Name)-1] == '/'
	if e.HostOS == model.HostUnix {
		// Unix external attrs store st_mode in the high 16 bits; S_IFLNK = 0xA000.
		mode := e.ExternalAttr >> 16
		e.IsSymlink = mode&0xA000 == 0xA000
	}

	return e
}

// resolveName implements spec §4.10 step 3: prefer the Unicode path extra when present and its CRC check
// passes; otherwise decode the stored name via decodeStoredName (UTF-8 passthrough when efs, the general-purpose
// EFS bit passed in by build, is set; CP-437 otherwise). host is not consulted.
func (it *DirectoryIterator) resolveName(u extra.UnicodeName, stored []byte, host model.HostOS, efs bool) (string, bool) {
	if u.Present {
		if extra.Verify(u, stored) {
			return u.Value, false
		}

		switch it.opts.UnicodePolicy {
		case model.UnicodeIgnore:
			// fall through to stored-name decode without recording a warning.
		case model.UnicodeStrict:
			// the driver turns UnicodeMismatch into a per-entry KindCorruptLocalHeader instead; recording
			// a warning here too would double-report the same condition.
		default:
			it.warnings = append(it.warnings, fmt.Errorf("%w: unicode path CRC mismatch for %q, falling back to stored name", errUnicodeMismatch, string(stored)))
		}
		return decodeStoredName(stored, efs), true
	}

	return decodeStoredName(stored, efs), false
}

// decodeStoredName decodes name bytes per host-indicated character set (spec §4.10 step 3): UTF-8 passthrough
// when general-purpose bit 11 (the "language encoding flag", EFS) is set, CP-437 (the classic MS-DOS/OEM
// default) otherwise.
func decodeStoredName(stored []byte, efs bool) string {
	if efs {
		return string(stored)
	}

	decoded, err := charmap.CodePage437.NewDecoder().Bytes(stored)
	if err != nil {
		return string(stored)
	}
	return string(decoded)
}

func dosDateTimeToTime(date, t uint16) time.Time {
	year := int(date>>9) + 1980
	month := int((date >> 5) & 0xF)
	day := int(date & 0x1F)
	hour := int(t >> 11)
	minute := int((t >> 5) & 0x3F)
	second := int(t&0x1F) * 2

	if month == 0 {
		month = 1
	}
	if day == 0 {
		day = 1
	}

	return time.Date(year, time.Month(month), day, hour, minute, second, 0, time.UTC)
}
