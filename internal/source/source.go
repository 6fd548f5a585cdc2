// Package source implements the ByteSource capability (spec §4.1): a
// buffered, seekable read over an archive with a block-aligned cache, so
// repeated scans of the same region (the EOCD search window, the central
// directory, a local header revisited after the CDE) do not re-issue I/O.
//
// Two concrete backings are provided: Local, for an *os.File, and S3, for
// an object addressed by ranged GetObject/HeadObject calls (grounded on
// s3readseeker.ReadSeeker and s3reader.ReadSeeker). Both implement Archive,
// so internal/cd and internal/driver never need to know which one they hold.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrShortRead is returned when the requested bytes exceed what remains in the archive.
var ErrShortRead = errors.New("short read")

// Archive is the ByteSource contract: a seekable, block-cached view over archive bytes, addressed by absolute
// logical offset (the caller is responsible for adding any SFX/garbage prefix length N, see internal/cd).
type Archive interface {
	io.ReaderAt

	// Size returns the total number of bytes in the archive.
	Size() int64

	// ReadAt reads len(p) bytes starting at off. Returns ErrShortRead (wrapped) if off+len(p) exceeds Size.
	// Embedded via io.ReaderAt; repeated here only in doc form.
}

// DefaultBlockSize is the block alignment used by BlockSource's cache, matching the teacher's s3readseeker
// DefaultBufferSize.
const DefaultBlockSize = 64 * 1024

// PeekSignature reads the 4-byte little-endian signature at off without any other side effect.
func PeekSignature(a Archive, off int64) (uint32, error) {
	var buf [4]byte
	if _, err := a.ReadAt(buf[:], off); err != nil {
		return 0, err
	}
	return uint32(buf[0]) | uint32(buf[1])<<8 | uint32(buf[2])<<16 | uint32(buf[3])<<24, nil
}

// Local wraps an io.ReaderAt (typically *os.File) with a known size.
type Local struct {
	ReaderAt io.ReaderAt
	size     int64
}

// NewLocal wraps r, which must support reads up to size bytes.
func NewLocal(r io.ReaderAt, size int64) *Local {
	return &Local{ReaderAt: r, size: size}
}

func (l *Local) Size() int64 { return l.size }

func (l *Local) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > l.size {
		return 0, fmt.Errorf("%w: offset %d length %d exceeds size %d", ErrShortRead, off, len(p), l.size)
	}
	return l.ReaderAt.ReadAt(p, off)
}

// Ctx carries the context.Context a ranged-read-backed Archive (such as S3) should use for each request. Local
// archives ignore it since os.File reads are not individually cancellable per-call.
type Ctx struct {
	context.Context
}
