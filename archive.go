package zipkit

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"

	"github.com/nguyengg/zipkit/internal"
	"github.com/nguyengg/zipkit/internal/cd"
	"github.com/nguyengg/zipkit/internal/driver"
	"github.com/nguyengg/zipkit/internal/model"
	"github.com/nguyengg/zipkit/internal/selector"
	"github.com/nguyengg/zipkit/internal/source"
	"github.com/nguyengg/zipkit/internal/textconv"
	"github.com/nguyengg/zipkit/internal/zipcrypto"
)

type (
	// Result is the outcome of one archive walk: how many entries were extracted/skipped, any accumulated
	// warnings, and the worst Kind observed (spec §7).
	Result = driver.Result
	// EOL selects the line terminator TextMode rewrites CR/LF/CR-LF sequences to (spec §4.9).
	EOL = textconv.EOL
)

const (
	EOLUnix    = textconv.EOLUnix
	EOLWindows = textconv.EOLWindows
)

// Archive is an opened ZIP file ready for listing, extraction, or testing.
type Archive struct {
	src   source.Archive
	close func() error
}

// Options configures a List/Extract/Test call.
type Options struct {
	// Include/Exclude are glob patterns applied to entry names (spec §4.5). An empty Include matches
	// everything.
	Include, Exclude []string
	CaseSensitive     bool

	// CrossDirectory, when true, lets a bare "*" in an Include/Exclude pattern cross "/" the same way "**"
	// already does (spec §4.5's directory_stop=false). Defaults to false (directory_stop=true).
	CrossDirectory bool

	UnicodePolicy   UnicodePolicy
	OverwritePolicy OverwritePolicy

	// TextMode, when true, rewrites line endings per EOLTarget (spec §4.9).
	TextMode bool
	EOLTarget EOL

	// Password supplies a password for an encrypted entry; called at most once per entry.
	Password func(entry string) (string, bool)

	// PasswordRetriesPerSecond paces repeated password attempts; 0 uses the default.
	PasswordRetriesPerSecond float64

	// Prompt is consulted before clobbering an existing file under OverwritePrompt.
	Prompt func(path string) bool

	// Message reports a per-entry or per-archive event; may be nil.
	Message func(kind Kind, entry string, err error)

	// Cancel is polled at chunk boundaries; a nil Cancel means never cancel.
	Cancel func() bool

	// StripCommonRoot removes the single top-level directory shared by every selected entry before
	// extracting or listing, flattening an archive that wraps its contents in one directory.
	StripCommonRoot bool

	DirMode, FileMode os.FileMode
}

func (o Options) toDriverOptions(mode driver.Mode, dest string) driver.Options {
	sel := selector.New(o.Include, o.Exclude, selector.Options{CaseSensitive: o.CaseSensitive, CrossDirectory: o.CrossDirectory})

	var limiter *zipcrypto.PasswordLimiter
	if o.Password != nil {
		limiter = zipcrypto.NewPasswordLimiter(o.PasswordRetriesPerSecond)
	}

	eol := o.EOLTarget
	if eol == "" {
		eol = textconv.EOLUnix
	}

	return driver.Options{
		Mode:            mode,
		Dest:            dest,
		Selector:        sel,
		UnicodePolicy:   o.UnicodePolicy,
		OverwritePolicy: o.OverwritePolicy,
		Text:            o.TextMode,
		EOL:             eol,
		Password:        o.Password,
		PasswordLimiter: limiter,
		Prompt:          o.Prompt,
		Message: func(kind model.Kind, entry string, err error) {
			if o.Message != nil {
				o.Message(kind, entry, err)
			}
		},
		Cancel:          o.Cancel,
		StripCommonRoot: o.StripCommonRoot,
		DirMode:         o.DirMode,
		FileMode:        o.FileMode,
	}
}

// Open opens the local file at path as a seekable ZIP archive (spec §4.1 ByteSource, local variant).
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("zipkit: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("zipkit: stat %s: %w", path, err)
	}

	return &Archive{src: source.NewLocal(f, info.Size()), close: f.Close}, nil
}

// OpenS3 opens the S3 object at bucket/key as a seekable ZIP archive, servicing reads with ranged GetObject calls
// instead of downloading the object first (spec §4.1 ByteSource, remote variant). Prefer OpenS3WithPrefetch when
// the caller expects to revisit most of the archive's bytes (see source.Prefetch's doc).
func OpenS3(ctx context.Context, client source.S3Client, bucket, key string, optFns ...func(*source.S3Options)) (*Archive, error) {
	s3src, err := source.NewS3(ctx, client, bucket, key, optFns...)
	if err != nil {
		return nil, fmt.Errorf("zipkit: open s3://%s/%s: %w", bucket, key, err)
	}

	cached, err := source.NewBlockSource(s3src, source.DefaultBlockSize, 0)
	if err != nil {
		return nil, fmt.Errorf("zipkit: open s3://%s/%s: %w", bucket, key, err)
	}

	return &Archive{src: cached, close: func() error { return nil }}, nil
}

// OpenS3WithPrefetch downloads the S3 object at bucket/key into a local temp file before opening it, trading an
// up-front full download for cheap repeated local reads during Extract/Test of a large fraction of the archive.
// The temp file is removed on Close.
func OpenS3WithPrefetch(ctx context.Context, client manager.DownloadAPIClient, bucket, key string, optFns ...func(*source.PrefetchOptions)) (*Archive, error) {
	local, cleanup, err := source.Prefetch(ctx, client, bucket, key, optFns...)
	if err != nil {
		return nil, fmt.Errorf("zipkit: prefetch s3://%s/%s: %w", bucket, key, err)
	}

	return &Archive{src: local, close: cleanup}, nil
}

// Close releases the archive's underlying file handle, removing any prefetched temp file.
func (a *Archive) Close() error {
	return a.close()
}

// List iterates the central directory and returns every selected entry's metadata without reading any
// payload bytes (spec §4.10's ModeList path). Unlike Extract/Test, List is implemented directly against
// internal/cd rather than internal/driver, since driver.Run's ModeList intentionally discards the per-entry
// *model.Entry values once counted and List needs to return them to the caller.
func (a *Archive) List(opts Options) ([]*Entry, *Result, error) {
	eocd, err := cd.FindEOCD(a.src)
	if err != nil {
		if cd.IsNotAZipfile(err) {
			return nil, nil, model.NewError(model.KindNotAZipfile, err)
		}
		return nil, nil, model.NewError(model.KindIoError, err)
	}

	res := &Result{}
	if eocd.IsEmpty() {
		res.Warnings = append(res.Warnings, errors.New("zipfile is empty"))
		return nil, res, nil
	}

	sel := selector.New(opts.Include, opts.Exclude, selector.Options{CaseSensitive: opts.CaseSensitive, CrossDirectory: opts.CrossDirectory})
	it := cd.NewDirectoryIterator(a.src, eocd, cd.Options{UnicodePolicy: opts.UnicodePolicy})

	var entries []*Entry
	for {
		entry, err := it.Next()
		if err != nil {
			if cd.IsDone(err) {
				break
			}
			if cd.IsCorruptDirectory(err) {
				return entries, res, model.NewError(model.KindCorruptDirectory, err)
			}
			return entries, res, err
		}

		if !sel.Accept(entry.Name) {
			res.Skipped++
			continue
		}

		entries = append(entries, entry)
		res.Extracted++
	}

	for _, w := range it.Warnings() {
		res.Warnings = append(res.Warnings, w)
	}

	if opts.StripCommonRoot && len(entries) > 0 {
		names := make([]string, len(entries))
		for i, e := range entries {
			names[i] = e.Name
		}
		if root := internal.FindZipRootDir(names); root != "" {
			for _, e := range entries {
				e.Name = root.TrimFrom(e.Name)
			}
		}
	}

	return entries, res, nil
}

// Extract writes every selected entry to dest on disk (spec §4.10's ModeExtract path).
func (a *Archive) Extract(ctx context.Context, dest string, opts Options) (*Result, error) {
	d, err := driver.Open(a.src, opts.toDriverOptions(driver.ModeExtract, dest))
	if err != nil {
		return nil, err
	}
	return d.Run(ctx)
}

// Test decompresses and verifies every selected entry's CRC without writing anything to disk (spec §4.10's
// ModeTest path).
func (a *Archive) Test(ctx context.Context, opts Options) (*Result, error) {
	d, err := driver.Open(a.src, opts.toDriverOptions(driver.ModeTest, ""))
	if err != nil {
		return nil, err
	}
	return d.Run(ctx)
}
