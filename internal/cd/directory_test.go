package cd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nguyengg/zipkit/internal/extra"
	"github.com/nguyengg/zipkit/internal/model"
)

func mismatchedUnicodeName() extra.UnicodeName {
	// CRCOfStored deliberately doesn't match crc32.ChecksumIEEE([]byte("stored.txt")).
	return extra.UnicodeName{Present: true, CRCOfStored: 0, Value: "héllo.txt"}
}

func TestResolveName_WarnFallbackRecordsWarning(t *testing.T) {
	it := &DirectoryIterator{opts: Options{UnicodePolicy: model.UnicodeWarnFallback}}

	name, mismatch := it.resolveName(mismatchedUnicodeName(), []byte("stored.txt"), model.HostUnix, true)

	assert.True(t, mismatch)
	assert.Equal(t, "stored.txt", name)
	assert.Len(t, it.Warnings(), 1)
}

func TestResolveName_IgnoreFallsBackSilently(t *testing.T) {
	it := &DirectoryIterator{opts: Options{UnicodePolicy: model.UnicodeIgnore}}

	name, mismatch := it.resolveName(mismatchedUnicodeName(), []byte("stored.txt"), model.HostUnix, true)

	assert.True(t, mismatch)
	assert.Equal(t, "stored.txt", name)
	assert.Empty(t, it.Warnings())
}

// TestResolveName_StrictAlsoFallsBackWithoutWarning documents that UnicodeStrict still resolves a usable name
// here (the fallback itself isn't an error) and, unlike UnicodeWarnFallback, doesn't duplicate the condition
// into Warnings -- the driver turns UnicodeMismatch into a fatal-for-the-entry KindCorruptLocalHeader instead.
func TestResolveName_StrictAlsoFallsBackWithoutWarning(t *testing.T) {
	it := &DirectoryIterator{opts: Options{UnicodePolicy: model.UnicodeStrict}}

	name, mismatch := it.resolveName(mismatchedUnicodeName(), []byte("stored.txt"), model.HostUnix, true)

	assert.True(t, mismatch)
	assert.Equal(t, "stored.txt", name)
	assert.Empty(t, it.Warnings())
}

func TestResolveName_NoUnicodeExtraIsNotAMismatch(t *testing.T) {
	it := &DirectoryIterator{opts: Options{UnicodePolicy: model.UnicodeStrict}}

	name, mismatch := it.resolveName(extra.UnicodeName{}, []byte("plain.txt"), model.HostUnix, true)

	assert.False(t, mismatch)
	assert.Equal(t, "plain.txt", name)
}
