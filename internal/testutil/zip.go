// Package testutil builds small golden ZIP archives in memory for the
// engine's test suite. It is the one place the teacher's write-side
// archive/zip code still runs, since writing archives is out of scope for
// the engine itself (see spec.md Non-goals) but the test suite still needs
// fixtures to extract.
package testutil

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"io"
	"time"
)

// Entry describes one file to add to a fixture archive.
type Entry struct {
	Name     string
	Contents []byte
	Method   uint16 // zip.Store or zip.Deflate; zero defaults to zip.Store.
	Modified time.Time

	// Extra carries raw extra-field bytes (e.g. a hand-built Info-ZIP Unicode Path field), for tests that need
	// to exercise extra-field decoding the filesystem-walking Zipper this package is grounded on never produces.
	Extra []byte
}

// Builder accumulates Entry values and produces a golden *.zip in memory, in the spirit of the teacher's
// Zipper.CompressDir but trimmed to what fixture construction needs: no filesystem walk, no progress reporting.
type Builder struct {
	entries []Entry
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Add queues an entry for the next Build call.
func (b *Builder) Add(e Entry) *Builder {
	if e.Modified.IsZero() {
		e.Modified = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	b.entries = append(b.entries, e)
	return b
}

// Build writes every queued entry to a new in-memory ZIP and returns its bytes.
func (b *Builder) Build() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, e := range b.entries {
		fh := &zip.FileHeader{
			Name:     e.Name,
			Method:   e.Method,
			Modified: e.Modified,
			Extra:    e.Extra,
		}
		w, err := zw.CreateHeader(fh)
		if err != nil {
			return nil, err
		}
		if _, err = w.Write(e.Contents); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
