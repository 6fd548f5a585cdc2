// Package model holds the data model (HostOS, Method, Entry, the Unicode and
// overwrite policies) and the error taxonomy shared by zipkit's internal
// packages. The root zipkit package re-exports these types by alias.
package model

import "time"

// HostOS is the high byte of an entry's version-made-by field, identifying the system that produced the archive.
//
// internal/cd uses it only to read Unix mode bits (symlink detection) from the external attributes; names are
// not case-folded or decoded by host.
type HostOS uint8

// Host systems recognized by the APPNOTE version-made-by table.
const (
	HostMSDOS          HostOS = 0
	HostAmiga          HostOS = 1
	HostOpenVMS        HostOS = 2
	HostUnix           HostOS = 3
	HostVMCMS          HostOS = 4
	HostAtariST        HostOS = 5
	HostOS2HPFS        HostOS = 6
	HostMacintosh      HostOS = 7
	HostZSystem        HostOS = 8
	HostCPM            HostOS = 9
	HostWindowsNTFS    HostOS = 10
	HostMVS            HostOS = 11
	HostVSE            HostOS = 12
	HostAcornRISCOS    HostOS = 13
	HostVFAT           HostOS = 14
	HostAlternateMVS   HostOS = 15
	HostBeOS           HostOS = 16
	HostTandem         HostOS = 17
	HostOS400          HostOS = 18
	HostOSXDarwin      HostOS = 19
)

// Method is the compression method code stored in a local/central header.
type Method uint16

// Method codes recognized by the APPNOTE table (spec §4.7).
const (
	MethodStored   Method = 0
	MethodShrink   Method = 1
	MethodReduce1  Method = 2
	MethodReduce2  Method = 3
	MethodReduce3  Method = 4
	MethodReduce4  Method = 5
	MethodImplode  Method = 6
	MethodDeflate  Method = 8
	MethodDeflate64 Method = 9
	MethodBZip2    Method = 12
	MethodLZMA     Method = 14
)

// String returns the human name of a method code, for messages and listing output.
func (m Method) String() string {
	switch m {
	case MethodStored:
		return "Stored"
	case MethodShrink:
		return "Shrunk"
	case MethodReduce1, MethodReduce2, MethodReduce3, MethodReduce4:
		return "Reduced"
	case MethodImplode:
		return "Imploded"
	case MethodDeflate:
		return "Deflated"
	case MethodDeflate64:
		return "Deflated64"
	case MethodBZip2:
		return "BZip2"
	case MethodLZMA:
		return "LZMA"
	default:
		return "Unknown"
	}
}

// UnicodePolicy controls what happens when a Unicode path extra field's embedded CRC does not match the
// stored (non-Unicode) filename (spec §9 Open Question 3).
type UnicodePolicy int

const (
	// UnicodeWarnFallback emits a Warning and falls back to the stored name. This is the default.
	UnicodeWarnFallback UnicodePolicy = iota
	// UnicodeIgnore silently falls back to the stored name.
	UnicodeIgnore
	// UnicodeStrict treats the mismatch as a per-entry error (CorruptLocalHeader).
	UnicodeStrict
)

// OverwritePolicy controls how the Sink behaves when the destination already exists (spec §4.11).
type OverwritePolicy int

const (
	// OverwriteNever fails the entry (UnsafePath-adjacent per-entry error) rather than clobber an existing file.
	OverwriteNever OverwritePolicy = iota
	// OverwriteAlways always truncates and rewrites the destination.
	OverwriteAlways
	// OverwriteFreshen writes only if the destination exists and the archive's entry is newer than it; otherwise
	// the entry fails with the same per-entry error as OverwriteNever.
	OverwriteFreshen
	// OverwriteUpdate is OverwriteFreshen, plus writes when the destination does not exist at all.
	OverwriteUpdate
	// OverwritePrompt defers the decision to the driver's Prompt callback.
	OverwritePrompt
)

// Entry is the reconciled, logical view of one archive member presented to the extraction driver: all sentinel
// fields resolved against Zip64 extras, and all recognised extra fields decoded (spec §3 "Entry (logical)").
type Entry struct {
	// Name is the resolved output name: the Unicode path extra when present and its CRC check passed, otherwise
	// the stored name decoded as UTF-8 when general-purpose bit 11 (EFS) is set and as CP-437 otherwise.
	Name string

	// StoredName is the raw, un-decoded name bytes as recorded in the central directory, kept for diagnostics.
	StoredName []byte

	Comment string

	Method  Method
	HostOS  HostOS

	GeneralPurposeBitFlag uint16

	CRC32              uint32
	CompressedSize     uint64
	UncompressedSize   uint64
	LocalHeaderOffset  uint64
	DiskNumberStart    uint32

	Modified time.Time
	Accessed time.Time
	Created  time.Time

	UID, GID uint32
	HasUnixOwner bool

	InternalAttr uint16
	ExternalAttr uint32

	IsZip64     bool
	IsDir       bool
	IsSymlink   bool
	IsEncrypted bool

	// UnicodeMismatch is true when a Unicode path extra field was present but its embedded CRC did not match
	// StoredName, in which case Name holds the decoded stored name. It is set under every UnicodePolicy; under
	// UnicodeStrict the driver then fails the entry.
	UnicodeMismatch bool
}
