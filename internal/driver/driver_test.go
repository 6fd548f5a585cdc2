package driver

import (
	"bytes"
	"context"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/zipkit/internal/model"
	"github.com/nguyengg/zipkit/internal/selector"
	"github.com/nguyengg/zipkit/internal/source"
	"github.com/nguyengg/zipkit/internal/testutil"
)

func buildArchive(t *testing.T, entries ...testutil.Entry) *source.Local {
	t.Helper()
	b := testutil.NewBuilder()
	for _, e := range entries {
		b.Add(e)
	}
	data, err := b.Build()
	require.NoError(t, err)
	return source.NewLocal(bytes.NewReader(data), int64(len(data)))
}

func TestDriver_Extract(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "hello.txt", Contents: []byte("hello world")},
		testutil.Entry{Name: "dir/nested.txt", Contents: bytes.Repeat([]byte("x"), 5000), Method: 8},
	)

	dest := t.TempDir()
	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
	assert.False(t, res.HasWorst)

	got, err := os.ReadFile(filepath.Join(dest, "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	got2, err := os.ReadFile(filepath.Join(dest, "dir", "nested.txt"))
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("x"), 5000), got2)
}

func TestDriver_Test(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "a.txt", Contents: []byte("aaa")},
		testutil.Entry{Name: "b.txt", Contents: []byte("bbb"), Method: 8},
	)

	d, err := Open(archive, Options{Mode: ModeTest})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
}

func TestDriver_List(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "a.txt", Contents: []byte("aaa")},
		testutil.Entry{Name: "b.txt", Contents: []byte("bbb")},
	)

	d, err := Open(archive, Options{Mode: ModeList})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
}

func TestDriver_Selector(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "keep.txt", Contents: []byte("k")},
		testutil.Entry{Name: "skip.txt", Contents: []byte("s")},
	)

	sel := selector.New([]string{"keep*"}, nil, selector.Options{CaseSensitive: true})

	d, err := Open(archive, Options{Mode: ModeList, Selector: sel})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Extracted)
	assert.Equal(t, 1, res.Skipped)
}

func TestDriver_EmptyArchive(t *testing.T) {
	archive := buildArchive(t)

	d, err := Open(archive, Options{Mode: ModeList})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.HasWorst)
	assert.Equal(t, model.KindWarning, res.Worst)
}

func TestDriver_OverwriteNeverReportsEntryError(t *testing.T) {
	archive := buildArchive(t, testutil.Entry{Name: "f.txt", Contents: []byte("new")})

	dest := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dest, "f.txt"), []byte("old"), 0o644))

	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest, OverwritePolicy: model.OverwriteNever})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Extracted)
	assert.True(t, res.HasWorst)

	got, err := os.ReadFile(filepath.Join(dest, "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
}

func TestDriver_StripCommonRoot(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "top/a.txt", Contents: []byte("a")},
		testutil.Entry{Name: "top/sub/b.txt", Contents: []byte("b")},
	)

	dest := t.TempDir()
	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest, StripCommonRoot: true})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)

	_, err = os.Stat(filepath.Join(dest, "a.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "sub", "b.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "top"))
	assert.True(t, os.IsNotExist(err))
}

func TestDriver_StripCommonRoot_NoSharedRootLeavesNamesAlone(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "a.txt", Contents: []byte("a")},
		testutil.Entry{Name: "other/b.txt", Contents: []byte("b")},
	)

	dest := t.TempDir()
	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest, StripCommonRoot: true})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)

	_, err = os.Stat(filepath.Join(dest, "a.txt"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dest, "other", "b.txt"))
	assert.NoError(t, err)
}

func TestDriver_MessageCallbackReceivesEachEntry(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "a.txt", Contents: []byte("a")},
		testutil.Entry{Name: "b.txt", Contents: []byte("b")},
	)

	var seen []string
	d, err := Open(archive, Options{
		Mode: ModeTest,
		Message: func(kind model.Kind, entry string, err error) {
			if kind != model.KindWarning {
				seen = append(seen, entry)
			}
		},
	})
	require.NoError(t, err)

	_, err = d.Run(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, seen)
}

// TestDriver_ExtractCreatesDirectoryEntries covers a directory member that appears in the central directory
// ahead of a nested file member, the way most archivers order entries: the driver must create the directory
// itself rather than let the nested file's sink.OpenFile parent-MkdirAll implicitly stand in for it.
func TestDriver_ExtractCreatesDirectoryEntries(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "dir/"},
		testutil.Entry{Name: "dir/nested.txt", Contents: []byte("hi")},
	)

	dest := t.TempDir()
	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
	assert.False(t, res.HasWorst)

	info, err := os.Stat(filepath.Join(dest, "dir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	got, err := os.ReadFile(filepath.Join(dest, "dir", "nested.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(got))
}

// TestDriver_TestModeSkipsDirectoryEntriesWithoutError confirms ModeTest counts a directory member alongside its
// nested file without reporting any error for it.
func TestDriver_TestModeSkipsDirectoryEntriesWithoutError(t *testing.T) {
	archive := buildArchive(t,
		testutil.Entry{Name: "dir/"},
		testutil.Entry{Name: "dir/nested.txt", Contents: []byte("hi")},
	)

	d, err := Open(archive, Options{Mode: ModeTest})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Extracted)
	assert.False(t, res.HasWorst)
}

// unicodePathExtra hand-builds an Info-ZIP Unicode Path extra field (tag 0x7075) whose embedded CRC32 of the
// stored name deliberately does not match, the way testutil.Builder's archive/zip-based writer never produces
// on its own.
func unicodePathExtra(crc uint32, value string) []byte {
	payload := make([]byte, 5+len(value))
	payload[0] = 1
	binary.LittleEndian.PutUint32(payload[1:5], crc)
	copy(payload[5:], value)

	field := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint16(field[0:2], 0x7075)
	binary.LittleEndian.PutUint16(field[2:4], uint16(len(payload)))
	copy(field[4:], payload)
	return field
}

func TestDriver_UnicodeWarnFallbackExtractsUnderStoredName(t *testing.T) {
	archive := buildArchive(t, testutil.Entry{
		Name:     "stored.txt",
		Contents: []byte("payload"),
		Extra:    unicodePathExtra(0xdeadbeef, "héllo.txt"),
	})

	dest := t.TempDir()
	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest, UnicodePolicy: model.UnicodeWarnFallback})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Extracted)
	assert.Equal(t, model.KindWarning, res.Worst)

	got, err := os.ReadFile(filepath.Join(dest, "stored.txt"))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
}

// TestDriver_UnicodeStrictReportsCorruptLocalHeader locks in the fix to UnicodeStrict actually enforcing the
// behaviour its godoc promises: previously a Unicode CRC mismatch under UnicodeStrict extracted the entry under
// its stored name exactly like UnicodeWarnFallback.
func TestDriver_UnicodeStrictReportsCorruptLocalHeader(t *testing.T) {
	archive := buildArchive(t, testutil.Entry{
		Name:     "stored.txt",
		Contents: []byte("payload"),
		Extra:    unicodePathExtra(0xdeadbeef, "héllo.txt"),
	})

	dest := t.TempDir()
	d, err := Open(archive, Options{Mode: ModeExtract, Dest: dest, UnicodePolicy: model.UnicodeStrict})
	require.NoError(t, err)

	res, err := d.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Extracted)
	assert.True(t, res.HasWorst)
	assert.Equal(t, model.KindCorruptLocalHeader, res.Worst)

	_, statErr := os.Stat(filepath.Join(dest, "stored.txt"))
	assert.True(t, os.IsNotExist(statErr))
}
