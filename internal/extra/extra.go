// Package extra implements the ExtraFieldParser component (spec §4.4): a
// walk over a header's tagged (tag, len, payload) extra-field blob that
// resolves Zip64 sentinel fields, Unix timestamps/UID/GID, and the
// Unicode path/comment fields.
//
// No teacher generation parses extra fields at all (zipper/headers.go's
// findCDFH reads past name/extra/comment without interpreting content);
// this package is built fresh from spec §4.4's tag table, cross-checked
// against original_source/fileio.c's extra-field switch for interpretation
// details the spec leaves silent on.
package extra

import (
	"encoding/binary"
	"hash/crc32"
	"time"
)

// Tags recognised by spec §3's extra field table.
const (
	TagZip64        uint16 = 0x0001
	TagUnixTime     uint16 = 0x5455
	TagUnixUIDGID   uint16 = 0x7875
	TagUnicodePath  uint16 = 0x7075
	TagUnicodeComment uint16 = 0x6375
)

// Zip64Fields carries the 64-bit replacements for whichever classic fields were sentinel-valued, in the fixed
// order spec §4.4 mandates: uncompressed-size, compressed-size, local-header-offset, disk-start.
type Zip64Fields struct {
	UncompressedSize  *uint64
	CompressedSize    *uint64
	LocalHeaderOffset *uint64
	DiskStart         *uint32
}

// UnixTime carries the optional decoded 0x5455 extra field.
type UnixTime struct {
	HasModified bool
	Modified    time.Time
	HasAccessed bool
	Accessed    time.Time
	HasCreated  bool
	Created     time.Time
}

// UnixOwner carries the optional decoded 0x7875 extra field.
type UnixOwner struct {
	Present bool
	UID     uint32
	GID     uint32
}

// UnicodeName carries the optional decoded 0x7075/0x6375 extra field.
type UnicodeName struct {
	Present   bool
	CRCOfStored uint32
	Value     string
}

// Parsed is the result of walking one header's extra-field blob.
type Parsed struct {
	Zip64         Zip64Fields
	UnixTime      UnixTime
	UnixOwner     UnixOwner
	UnicodePath   UnicodeName
	UnicodeComment UnicodeName
}

// Sentinels describes which classic fields of the containing header were sentinel-valued (0xFFFFFFFF or 0xFFFF),
// so Parse knows how many 8-byte (or 4-byte, for disk-start) Zip64 replacement values to expect and in what order.
type Sentinels struct {
	UncompressedSize  bool
	CompressedSize    bool
	LocalHeaderOffset bool
	DiskStart         bool
}

// Parse walks the (tag, len, payload) sequence in data. Malformed sub-records (a length that overruns the
// remaining bytes) stop parsing at that point; sub-records already parsed remain valid (spec §4.4 "Malformed
// extra field").
func Parse(data []byte, sentinels Sentinels) Parsed {
	var p Parsed

	for len(data) >= 4 {
		tag := binary.LittleEndian.Uint16(data[0:2])
		length := binary.LittleEndian.Uint16(data[2:4])
		if int(length) > len(data)-4 {
			break
		}
		payload := data[4 : 4+int(length)]
		data = data[4+int(length):]

		switch tag {
		case TagZip64:
			parseZip64(payload, sentinels, &p.Zip64)
		case TagUnixTime:
			parseUnixTime(payload, &p.UnixTime)
		case TagUnixUIDGID:
			parseUnixOwner(payload, &p.UnixOwner)
		case TagUnicodePath:
			parseUnicodeName(payload, &p.UnicodePath)
		case TagUnicodeComment:
			parseUnicodeName(payload, &p.UnicodeComment)
		}
	}

	return p
}

func parseZip64(b []byte, s Sentinels, out *Zip64Fields) {
	take8 := func() (uint64, bool) {
		if len(b) < 8 {
			return 0, false
		}
		v := binary.LittleEndian.Uint64(b[:8])
		b = b[8:]
		return v, true
	}
	take4 := func() (uint32, bool) {
		if len(b) < 4 {
			return 0, false
		}
		v := binary.LittleEndian.Uint32(b[:4])
		b = b[4:]
		return v, true
	}

	if s.UncompressedSize {
		if v, ok := take8(); ok {
			out.UncompressedSize = &v
		}
	}
	if s.CompressedSize {
		if v, ok := take8(); ok {
			out.CompressedSize = &v
		}
	}
	if s.LocalHeaderOffset {
		if v, ok := take8(); ok {
			out.LocalHeaderOffset = &v
		}
	}
	if s.DiskStart {
		if v, ok := take4(); ok {
			out.DiskStart = &v
		}
	}
}

// parseUnixTime decodes the 0x5455 extra field: a flags byte followed by whichever of mtime/atime/ctime are
// present, each a 32-bit Unix timestamp. The central-directory variant carries at most mtime; the local variant
// may carry atime and ctime too (spec §4.4).
func parseUnixTime(b []byte, out *UnixTime) {
	if len(b) < 1 {
		return
	}
	flags := b[0]
	b = b[1:]

	read := func(has bool) (time.Time, bool) {
		if !has || len(b) < 4 {
			return time.Time{}, false
		}
		t := time.Unix(int64(int32(binary.LittleEndian.Uint32(b[:4]))), 0).UTC()
		b = b[4:]
		return t, true
	}

	if t, ok := read(flags&0x1 != 0); ok {
		out.HasModified, out.Modified = true, t
	}
	if t, ok := read(flags&0x2 != 0); ok {
		out.HasAccessed, out.Accessed = true, t
	}
	if t, ok := read(flags&0x4 != 0); ok {
		out.HasCreated, out.Created = true, t
	}
}

// parseUnixOwner decodes the 0x7875 "UID/GID v3" extra field: version byte, uid-size, uid-bytes, gid-size,
// gid-bytes. Populates uid/gid only if the field widths fit uint32 (spec §4.4 "otherwise flags cannot restore").
func parseUnixOwner(b []byte, out *UnixOwner) {
	if len(b) < 1 || b[0] != 1 {
		return
	}
	b = b[1:]

	readVar := func() (uint32, bool) {
		if len(b) < 1 {
			return 0, false
		}
		size := int(b[0])
		b = b[1:]
		if len(b) < size || size > 4 || size == 0 {
			return 0, false
		}
		var v uint32
		for i := 0; i < size; i++ {
			v |= uint32(b[i]) << (8 * i)
		}
		b = b[size:]
		return v, true
	}

	uid, ok1 := readVar()
	gid, ok2 := readVar()
	if ok1 && ok2 {
		out.Present = true
		out.UID, out.GID = uid, gid
	}
}

// parseUnicodeName decodes a 0x7075/0x6375 extra field: version (must be 1), CRC-32 of the stored name/comment,
// then the UTF-8 value. The caller is responsible for comparing CRCOfStored against crc32.ChecksumIEEE of the
// stored bytes to decide whether Value should be trusted (spec §4.4, §4.10 step 3).
func parseUnicodeName(b []byte, out *UnicodeName) {
	if len(b) < 5 || b[0] != 1 {
		return
	}
	out.Present = true
	out.CRCOfStored = binary.LittleEndian.Uint32(b[1:5])
	out.Value = string(b[5:])
}

// Verify reports whether the given Unicode name's embedded CRC matches the stored (non-Unicode) name bytes.
func Verify(u UnicodeName, storedName []byte) bool {
	return u.Present && u.CRCOfStored == crc32.ChecksumIEEE(storedName)
}
