package cd

import "errors"

// Sentinel errors this package returns; internal/driver wraps them into the public *zipkit.Error taxonomy so this
// package does not need to import the root package (which imports this one).
var (
	errNotAZipfile      = errors.New("no end-of-central-directory signature found")
	errCorruptDirectory = errors.New("corrupt central directory")
	errUnicodeMismatch  = errors.New("unicode mismatch")
	errCorruptLocalHeader = errors.New("corrupt local file header")

	// errLocalHeaderDisagreement is returned alongside a non-nil *LocalHeader (already reconciled to prefer the
	// CDE) so the driver can surface a Warning without treating this as fatal. See IsLocalHeaderDisagreement.
	errLocalHeaderDisagreement = errors.New("local file header disagrees with central directory entry")

	// errDirectoryDone is DirectoryIterator.Next's clean end-of-stream signal (spec §4.3 "the stream ends
	// cleanly" once the emitted count matches EOCD.TotalEntries). Exported as io.EOF-equivalent via IsDone.
	errDirectoryDone = errors.New("directory iteration complete")
)

// IsDone reports whether err is the clean end-of-directory signal from DirectoryIterator.Next.
func IsDone(err error) bool {
	return errors.Is(err, errDirectoryDone)
}

// IsCorruptLocalHeader reports whether err is (or wraps) a corrupt local file header condition.
func IsCorruptLocalHeader(err error) bool {
	return errors.Is(err, errCorruptLocalHeader)
}

// IsLocalHeaderDisagreement reports whether err is the non-fatal LFH/CDE size-disagreement warning from
// ReadLocalHeader (spec §9 Open Question 1).
func IsLocalHeaderDisagreement(err error) bool {
	return errors.Is(err, errLocalHeaderDisagreement)
}

// IsNotAZipfile reports whether err is (or wraps) the "no EOCD signature found" condition.
func IsNotAZipfile(err error) bool {
	return errors.Is(err, errNotAZipfile)
}

// IsCorruptDirectory reports whether err is (or wraps) a corrupt central directory condition.
func IsCorruptDirectory(err error) bool {
	return errors.Is(err, errCorruptDirectory)
}
