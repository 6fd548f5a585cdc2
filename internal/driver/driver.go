// Package driver implements the ExtractionDriver component (spec §4.10):
// the per-entry pipeline that turns a central-directory Entry into
// verified, written-out bytes (or, in list/test modes, just a
// verification pass).
//
// Grounded on the teacher's now-retired z/ and zipper/cd/ scanning
// generations for the overall "locate directory, iterate entries,
// build a pipeline per entry" shape, and on internal/log.go's
// per-entry logging idiom for the Message callback's prefixing.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-multierror"

	"github.com/nguyengg/zipkit/internal"
	"github.com/nguyengg/zipkit/internal/cd"
	"github.com/nguyengg/zipkit/internal/crc32stream"
	"github.com/nguyengg/zipkit/internal/decomp"
	"github.com/nguyengg/zipkit/internal/model"
	"github.com/nguyengg/zipkit/internal/selector"
	"github.com/nguyengg/zipkit/internal/sink"
	"github.com/nguyengg/zipkit/internal/source"
	"github.com/nguyengg/zipkit/internal/textconv"
	"github.com/nguyengg/zipkit/internal/zipcrypto"
)

// Mode selects what the driver does with each selected entry's bytes.
type Mode int

const (
	// ModeExtract writes entries to files under Options.Dest.
	ModeExtract Mode = iota
	// ModeTest decompresses and verifies CRC without writing anything to disk.
	ModeTest
	// ModeList only iterates the central directory; no entry payload is read.
	ModeList
)

// Options configures a Driver run (spec §4.10, §5, §6).
type Options struct {
	Mode Mode

	// Dest is the extraction root for ModeExtract. Ignored otherwise.
	Dest string

	Selector        *selector.Selector
	UnicodePolicy   model.UnicodePolicy
	OverwritePolicy model.OverwritePolicy

	// Text, when true, applies TextTransform (spec §4.9) to extracted payloads.
	Text bool
	EOL  textconv.EOL

	// Password supplies a password for an encrypted entry; called at most once per entry. A nil Password
	// means encrypted entries are reported as BadPassword without prompting.
	Password func(entry string) (string, bool)

	// PasswordLimiter paces repeated password attempts (spec §4.6); may be nil to disable pacing.
	PasswordLimiter *zipcrypto.PasswordLimiter

	// Prompt is consulted by OverwritePrompt before clobbering an existing file.
	Prompt func(path string) bool

	// Message reports a per-entry or per-archive event; may be nil.
	Message func(kind model.Kind, entry string, err error)

	// Cancel is polled at chunk boundaries (spec §5); a nil Cancel means never cancel.
	Cancel func() bool

	// StripCommonRoot removes the single top-level directory shared by every selected entry's name before
	// writing, the way many extractors let a caller "flatten" an archive that wraps its contents in one
	// directory. Grounded on internal.FindZipRootDir; no-op for ModeList.
	StripCommonRoot bool

	DirMode  os.FileMode
	FileMode os.FileMode
}

func (o *Options) withDefaults() {
	if o.DirMode == 0 {
		o.DirMode = 0o755
	}
	if o.FileMode == 0 {
		o.FileMode = 0o644
	}
	if o.EOL == "" {
		o.EOL = textconv.EOLUnix
	}
}

// Result aggregates the outcome of one archive walk (spec §4.10, §7).
type Result struct {
	Extracted int
	Skipped   int
	Warnings  []error

	// Worst is the most severe Kind observed across the walk. Only meaningful when HasWorst is true -- Kind's
	// own zero value is KindIoError, so an unset Worst must not be mistaken for an actual I/O failure.
	Worst    model.Kind
	HasWorst bool

	// EntryErrors accumulates non-fatal per-entry errors (spec §7's "accumulated, continue" kinds).
	EntryErrors *multierror.Error
}

// raiseWorst updates res.Worst if kind outranks whatever was previously recorded (or nothing was recorded yet).
func (res *Result) raiseWorst(kind model.Kind) {
	if !res.HasWorst || severity(kind) > severity(res.Worst) {
		res.Worst = kind
		res.HasWorst = true
	}
}

// Driver orchestrates one archive's extraction/listing/testing walk.
type Driver struct {
	archive source.Archive
	eocd    *cd.EOCD
	opts    Options
}

// Open locates the central directory in archive and returns a Driver ready to Run.
func Open(archive source.Archive, opts Options) (*Driver, error) {
	opts.withDefaults()

	eocd, err := cd.FindEOCD(archive)
	if err != nil {
		if cd.IsNotAZipfile(err) {
			return nil, model.NewError(model.KindNotAZipfile, err)
		}
		return nil, model.NewError(model.KindIoError, err)
	}

	return &Driver{archive: archive, eocd: eocd, opts: opts}, nil
}

// Run walks the central directory in order, applying the selector and running each selected entry through the
// pipeline described by spec §4.10 step 5.
func (d *Driver) Run(ctx context.Context) (*Result, error) {
	res := &Result{}

	if d.eocd.IsEmpty() {
		res.Warnings = append(res.Warnings, errors.New("zipfile is empty"))
		res.raiseWorst(model.KindWarning)
		return res, nil
	}

	var rootDir internal.RootDir
	if d.opts.StripCommonRoot && d.opts.Mode != ModeList {
		names, err := d.namesForRoot()
		if err != nil {
			return res, err
		}
		rootDir = internal.FindZipRootDir(names)
	}

	it := cd.NewDirectoryIterator(d.archive, d.eocd, cd.Options{UnicodePolicy: d.opts.UnicodePolicy})

	for {
		if d.opts.Cancel != nil && d.opts.Cancel() {
			res.raiseWorst(model.KindCancelled)
			return res, nil
		}

		entry, err := it.Next()
		if err != nil {
			if cd.IsDone(err) {
				break
			}
			if cd.IsCorruptDirectory(err) {
				d.report(res, model.KindCorruptDirectory, "", err)
				return res, model.NewError(model.KindCorruptDirectory, err)
			}
			return res, err
		}

		if d.opts.Selector != nil && !d.opts.Selector.Accept(entry.Name) {
			res.Skipped++
			continue
		}

		if d.opts.Mode == ModeList {
			res.Extracted++
			continue
		}

		if rootDir != "" {
			entry.Name = rootDir.TrimFrom(entry.Name)
		}

		if entry.IsDir {
			if d.opts.Mode == ModeExtract {
				if _, err := sink.CreateDir(d.opts.Dest, entry.Name, d.opts.DirMode); err != nil {
					kind := model.KindIoError
					if errors.Is(err, sink.ErrPathTraversal) || errors.Is(err, sink.ErrInvalidPath) {
						kind = model.KindUnsafePath
					}
					d.report(res, kind, entry.Name, err)
					res.EntryErrors = multierror.Append(res.EntryErrors, model.NewEntryError(kind, entry.Name, err))
					res.raiseWorst(kind)
					continue
				}
			}

			res.Extracted++
			if d.opts.Message != nil {
				d.opts.Message(model.KindOK, entry.Name, nil)
			}
			continue
		}

		if err := d.processEntry(ctx, entry); err != nil {
			var merr *model.Error
			if errors.As(err, &merr) {
				d.report(res, merr.Kind, entry.Name, merr.Err)
				res.EntryErrors = multierror.Append(res.EntryErrors, merr)
				res.raiseWorst(merr.Kind)
				continue
			}
			d.report(res, model.KindIoError, entry.Name, err)
			res.EntryErrors = multierror.Append(res.EntryErrors, err)
			res.raiseWorst(model.KindIoError)
			continue
		}

		res.Extracted++
		if d.opts.Message != nil {
			d.opts.Message(model.KindOK, entry.Name, nil)
		}
	}

	for _, w := range it.Warnings() {
		res.Warnings = append(res.Warnings, w)
		res.raiseWorst(model.KindWarning)
	}

	return res, nil
}

// namesForRoot scans the central directory once for every selected entry's name, without reading any payload
// bytes, so StripCommonRoot can compute the shared top-level directory before the real pass runs.
func (d *Driver) namesForRoot() ([]string, error) {
	it := cd.NewDirectoryIterator(d.archive, d.eocd, cd.Options{UnicodePolicy: d.opts.UnicodePolicy})

	var names []string
	for {
		entry, err := it.Next()
		if err != nil {
			if cd.IsDone(err) {
				break
			}
			if cd.IsCorruptDirectory(err) {
				return nil, model.NewError(model.KindCorruptDirectory, err)
			}
			return nil, err
		}

		if d.opts.Selector != nil && !d.opts.Selector.Accept(entry.Name) {
			continue
		}

		names = append(names, entry.Name)
	}

	return names, nil
}

func (d *Driver) report(res *Result, kind model.Kind, entry string, err error) {
	if d.opts.Message != nil {
		d.opts.Message(kind, entry, err)
	}
	_ = res
}

// processEntry implements spec §4.10 steps 1-7 for one selected entry.
func (d *Driver) processEntry(ctx context.Context, entry *model.Entry) error {
	if entry.UnicodeMismatch && d.opts.UnicodePolicy == model.UnicodeStrict {
		return model.NewEntryError(model.KindCorruptLocalHeader, entry.Name, errUnicodeStrictMismatch)
	}

	lh, err := cd.ReadLocalHeader(d.archive, entry, d.eocd.PrefixLength)
	disagreement := cd.IsLocalHeaderDisagreement(err)
	if err != nil && !disagreement {
		return model.NewEntryError(model.KindCorruptLocalHeader, entry.Name, err)
	}
	if disagreement && d.opts.Message != nil {
		d.opts.Message(model.KindWarning, entry.Name, err)
	}

	payloadReader := io.NewSectionReader(toReaderAt(d.archive), lh.PayloadOffset, int64(lh.CompressedSize))

	var body io.Reader = payloadReader
	compressedSize := lh.CompressedSize

	if entry.IsEncrypted {
		if compressedSize < uint64(zipcrypto.HeaderLen) {
			return model.NewEntryError(model.KindCorruptLocalHeader, entry.Name, errors.New("driver: encrypted entry shorter than header"))
		}

		var header [zipcrypto.HeaderLen]byte
		if _, err := io.ReadFull(body, header[:]); err != nil {
			return model.NewEntryError(model.KindIoError, entry.Name, err)
		}

		if d.opts.PasswordLimiter != nil {
			if err := d.opts.PasswordLimiter.Wait(ctx); err != nil {
				return model.NewEntryError(model.KindCancelled, entry.Name, err)
			}
		}

		if d.opts.Password == nil {
			return model.NewEntryError(model.KindBadPassword, entry.Name, errors.New("driver: no password supplied for encrypted entry"))
		}
		password, ok := d.opts.Password(entry.Name)
		if !ok {
			return model.NewEntryError(model.KindBadPassword, entry.Name, errors.New("driver: password prompt declined"))
		}

		bit3 := entry.GeneralPurposeBitFlag&0x0008 != 0
		modTimeHigh := byte(0)
		if bit3 {
			dostime := uint16(entry.Modified.Hour())<<11 | uint16(entry.Modified.Minute())<<5 | uint16(entry.Modified.Second()/2)
			modTimeHigh = byte(dostime >> 8)
		}

		dec, err := zipcrypto.NewReader(password, header, entry.CRC32, bit3, modTimeHigh)
		if err != nil {
			return model.NewEntryError(model.KindBadPassword, entry.Name, err)
		}

		body = &decryptingReader{r: body, dec: dec}
		compressedSize -= uint64(zipcrypto.HeaderLen)
	}

	registry := decomp.NewRegistry()
	decoder, err := registry.Open(entry.Method, body, compressedSize, entry.UncompressedSize)
	if err != nil {
		if errors.Is(err, decomp.ErrUnsupportedMethod) {
			return model.NewEntryError(model.KindUnsupportedMethod, entry.Name, err)
		}
		return model.NewEntryError(model.KindCorruptLocalHeader, entry.Name, err)
	}
	defer decoder.Close()

	verifier := crc32stream.NewVerifier(decoder)

	var writer sink.Writer
	switch d.opts.Mode {
	case ModeTest:
		writer = sink.NewDiscard()
	default:
		writer, err = sink.OpenFile(d.opts.Dest, entry.Name, d.opts.OverwritePolicy, entry.Modified, d.opts.DirMode, d.opts.FileMode, d.opts.Prompt)
		if err != nil {
			if errors.Is(err, sink.ErrPathTraversal) {
				return model.NewEntryError(model.KindUnsafePath, entry.Name, err)
			}
			return model.NewEntryError(model.KindIoError, entry.Name, err)
		}
	}

	written, err := d.copy(ctx, writer, verifier)
	if err != nil {
		_ = writer.Abort()
		if errors.Is(err, errCancelled) {
			return model.NewEntryError(model.KindCancelled, entry.Name, err)
		}
		return model.NewEntryError(model.KindIoError, entry.Name, err)
	}

	if written != entry.UncompressedSize {
		_ = writer.Abort()
		return model.NewEntryError(model.KindTruncatedEntry, entry.Name,
			fmt.Errorf("driver: wrote %d bytes, expected %d", written, entry.UncompressedSize))
	}

	if err := writer.Close(); err != nil {
		return model.NewEntryError(model.KindIoError, entry.Name, err)
	}

	if err := verifier.Verify(entry.CRC32); err != nil {
		return model.NewEntryError(model.KindCrcError, entry.Name, err)
	}

	if f, ok := writer.(*sink.File); ok && !entry.Modified.IsZero() {
		_ = os.Chtimes(f.Path(), entry.Modified, entry.Modified)
	}

	return nil
}

var errCancelled = errors.New("driver: cancelled")

// errUnicodeStrictMismatch reports a Unicode path extra whose embedded CRC disagreed with the stored name under
// model.UnicodeStrict, where spec's "warn and fall back" behaviour is instead a fatal-for-the-entry condition.
var errUnicodeStrictMismatch = errors.New("driver: unicode path CRC mismatch under strict policy")

// copy drains r into w in 32KiB chunks (spec §5's cancellation-polling granularity), applying TextTransform
// when configured, and returns the number of decompressed (pre-text-transform) bytes consumed.
func (d *Driver) copy(ctx context.Context, w io.Writer, r io.Reader) (uint64, error) {
	var transform *textconv.Transform
	if d.opts.Text {
		transform = textconv.New(d.opts.EOL)
	}

	buf := make([]byte, 32*1024)
	var total uint64

	for {
		if d.opts.Cancel != nil && d.opts.Cancel() {
			return total, errCancelled
		}
		select {
		case <-ctx.Done():
			return total, ctx.Err()
		default:
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			total += uint64(n)
			chunk := buf[:n]
			if transform != nil {
				chunk = transform.Apply(chunk)
			}
			if _, werr := w.Write(chunk); werr != nil {
				return total, werr
			}
		}
		if rerr == io.EOF {
			return total, nil
		}
		if rerr != nil {
			return total, rerr
		}
	}
}

// decryptingReader decrypts ZipCrypto ciphertext as it is read.
type decryptingReader struct {
	r   io.Reader
	dec *zipcrypto.Reader
}

func (dr *decryptingReader) Read(p []byte) (int, error) {
	n, err := dr.r.Read(p)
	if n > 0 {
		dr.dec.Decrypt(p[:n])
	}
	return n, err
}

// toReaderAt adapts source.Archive (io.ReaderAt) to io.ReaderAt for io.NewSectionReader.
func toReaderAt(a source.Archive) io.ReaderAt { return a }

// severity ranks a Kind for Result.Worst bookkeeping: fatal kinds outrank all per-entry kinds, which in turn
// outrank a plain Warning. Kind's own iota order does not reflect this (Warning is declared after the per-entry
// kinds, and OK after Warning), so Worst tracking needs its own ranking rather than comparing Kind values directly.
func severity(k model.Kind) int {
	switch {
	case k.Fatal():
		return 3
	case k == model.KindWarning:
		return 1
	default:
		return 2
	}
}
