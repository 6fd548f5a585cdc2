// Package sink implements the Sink component (spec §4.11): the
// extraction destination for one entry's decompressed bytes, plus the
// path-safety and overwrite-policy checks that gate where and whether
// a file actually gets written.
//
// The path-traversal defenses (rejecting "..", absolute paths, Windows
// drive prefixes, NUL bytes, and a final containment check against the
// resolved destination root) are grounded on haapjari-btidy's
// pkg/unzipper.validateArchiveEntryPath/resolveArchiveEntryPath, the
// only teacher-or-pack code that extracts a zip archive to disk at all.
package sink

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/nguyengg/zipkit/internal/fsutil"
	"github.com/nguyengg/zipkit/internal/model"
)

// ErrPathTraversal is returned when an entry name would resolve outside of the destination root.
var ErrPathTraversal = errors.New("sink: entry path escapes destination directory")

// ErrInvalidPath is returned for malformed entry names (empty, NUL bytes, degenerate segments).
var ErrInvalidPath = errors.New("sink: invalid entry path")

// ErrExists is returned by OpenFile when the overwrite policy forbids writing the destination (spec §4.11's
// OverwriteNever, OverwritePrompt's caller declining, or OverwriteFreshen/OverwriteUpdate finding the entry
// not newer, or OverwriteFreshen finding no existing file).
var ErrExists = errors.New("sink: destination already exists")

// ResolvePath validates name (an entry's logical path, forward-slash separated per the APPNOTE convention) and
// joins it under root, refusing to resolve outside of root. It implements spec §4.11's unsafe-path rejection
// (KindUnsafePath).
func ResolvePath(root, name string) (string, error) {
	normalized := strings.ReplaceAll(filepath.ToSlash(name), `\\`, "/")
	if normalized == "" {
		return "", ErrInvalidPath
	}
	if strings.HasPrefix(normalized, "/") || fsutil.HasWindowsVolumePrefix(normalized) {
		return "", ErrPathTraversal
	}
	if strings.ContainsRune(normalized, '\x00') {
		return "", ErrInvalidPath
	}

	trimmed := strings.TrimRight(normalized, "/")
	if trimmed == "" {
		return "", ErrInvalidPath
	}

	for _, part := range strings.Split(trimmed, "/") {
		switch part {
		case "..":
			return "", ErrPathTraversal
		case "", ".":
			return "", ErrInvalidPath
		}
	}

	cleaned := path.Clean(trimmed)
	if cleaned == "." || strings.HasPrefix(cleaned, "/") || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", ErrPathTraversal
	}

	target := filepath.Join(root, filepath.FromSlash(cleaned))

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("sink: resolve destination root: %w", err)
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", fmt.Errorf("sink: resolve destination path: %w", err)
	}
	if targetAbs != rootAbs && !strings.HasPrefix(targetAbs, rootAbs+string(filepath.Separator)) {
		return "", ErrPathTraversal
	}

	return target, nil
}

// CreateDir resolves name under root and ensures it exists as a directory. Directory members (name ending in
// "/") carry no payload and must never be routed through OpenFile: ResolvePath trims the trailing slash, so
// OpenFile would create an empty file where a later nested entry expects a directory.
func CreateDir(root, name string, dirMode os.FileMode) (string, error) {
	target, err := ResolvePath(root, name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(target, dirMode); err != nil {
		return "", fmt.Errorf("sink: create directory: %w", err)
	}

	return target, nil
}

// Writer is what an entry's decompressed payload is written to. Implementations: File (writes to disk),
// Discard (verifies without writing, for Test mode), Buffer (collects bytes in memory, for programmatic use).
type Writer interface {
	io.Writer
	// Abort is called instead of Close when extraction of this entry failed partway through; implementations
	// should remove any partial output rather than leave a truncated file behind.
	Abort() error
	io.Closer
}

// File writes an entry's payload to a real file on disk, honoring an OverwritePolicy and preserving the
// entry's modification time once writing completes successfully.
type File struct {
	f    *os.File
	path string
}

// OpenFile resolves name under root and opens it for writing per policy. dirMode/fileMode are applied to
// created directories/files. entryModified is the entry's recorded modification time, consulted by
// OverwriteFreshen and OverwriteUpdate. prompt, when non-nil, is invoked for OverwritePrompt and should return
// true to proceed with overwriting.
func OpenFile(root, name string, policy model.OverwritePolicy, entryModified time.Time, dirMode, fileMode os.FileMode, prompt func(path string) bool) (*File, error) {
	target, err := ResolvePath(root, name)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return nil, fmt.Errorf("sink: create parent directories: %w", err)
	}

	info, statErr := os.Stat(target)
	exists := statErr == nil

	switch policy {
	case model.OverwriteNever:
		if exists {
			return nil, fmt.Errorf("%w: %s", ErrExists, target)
		}
	case model.OverwritePrompt:
		if exists && (prompt == nil || !prompt(target)) {
			return nil, fmt.Errorf("%w: %s", ErrExists, target)
		}
	case model.OverwriteFreshen:
		if !exists {
			return nil, fmt.Errorf("%w: freshen only replaces existing files: %s", ErrExists, target)
		}
		if !entryModified.After(info.ModTime()) {
			return nil, fmt.Errorf("%w: destination is not older than the entry: %s", ErrExists, target)
		}
	case model.OverwriteUpdate:
		if exists && !entryModified.After(info.ModTime()) {
			return nil, fmt.Errorf("%w: destination is not older than the entry: %s", ErrExists, target)
		}
	case model.OverwriteAlways:
		// always proceed.
	}

	f, err := fsutil.CreateOrTruncate(target, fileMode)
	if err != nil {
		return nil, fmt.Errorf("sink: open destination: %w", err)
	}

	return &File{f: f, path: target}, nil
}

func (s *File) Write(p []byte) (int, error) { return s.f.Write(p) }

func (s *File) Abort() error {
	_ = s.f.Close()
	return os.Remove(s.path)
}

func (s *File) Close() error { return s.f.Close() }

// Path returns the resolved destination path, so the driver can apply the entry's recorded modification time
// via os.Chtimes after Close.
func (s *File) Path() string { return s.path }

// Discard verifies an entry's payload (CRC, decompression) without writing anything to disk, used by Test
// mode (spec §4.11.3).
type Discard struct{}

// NewDiscard returns a Writer that discards all written bytes.
func NewDiscard() *Discard { return &Discard{} }

func (Discard) Write(p []byte) (int, error) { return len(p), nil }
func (Discard) Abort() error                { return nil }
func (Discard) Close() error                { return nil }

// Buffer collects an entry's decompressed payload in memory, for programmatic callers that want bytes rather
// than files on disk.
type Buffer struct {
	buf []byte
}

// NewBuffer returns a Writer that accumulates bytes in memory.
func NewBuffer() *Buffer { return &Buffer{} }

func (b *Buffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

func (b *Buffer) Abort() error { b.buf = nil; return nil }
func (b *Buffer) Close() error { return nil }

// Bytes returns the accumulated payload.
func (b *Buffer) Bytes() []byte { return b.buf }
