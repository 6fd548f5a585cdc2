package sink

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/zipkit/internal/model"
)

func TestResolvePath_Valid(t *testing.T) {
	root := t.TempDir()
	got, err := ResolvePath(root, "a/b/c.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "a", "b", "c.txt"), got)
}

func TestResolvePath_RejectsTraversal(t *testing.T) {
	root := t.TempDir()

	cases := []string{
		"../escape.txt",
		"a/../../escape.txt",
		"/etc/passwd",
		"a/../../../etc/passwd",
	}
	for _, name := range cases {
		_, err := ResolvePath(root, name)
		assert.ErrorIsf(t, err, ErrPathTraversal, "name=%q", name)
	}
}

func TestResolvePath_RejectsInvalid(t *testing.T) {
	root := t.TempDir()

	cases := []string{"", ".", "a/./b", "a\x00b"}
	for _, name := range cases {
		_, err := ResolvePath(root, name)
		assert.ErrorIsf(t, err, ErrInvalidPath, "name=%q", name)
	}
}

func TestOpenFile_OverwriteNever(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	_, err := OpenFile(root, "f.txt", model.OverwriteNever, time.Now(), 0o755, 0o644, nil)
	assert.ErrorIs(t, err, ErrExists)
}

func TestOpenFile_OverwriteAlways(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	f, err := OpenFile(root, "f.txt", model.OverwriteAlways, time.Now(), 0o755, 0o644, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestOpenFile_OverwriteFreshenRequiresExisting(t *testing.T) {
	root := t.TempDir()

	_, err := OpenFile(root, "new.txt", model.OverwriteFreshen, time.Now(), 0o755, 0o644, nil)
	assert.ErrorIs(t, err, ErrExists)
}

func TestOpenFile_OverwriteUpdateOnlyWhenNewer(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(existing, old, old))

	_, err := OpenFile(root, "f.txt", model.OverwriteUpdate, old.Add(-time.Minute), 0o755, 0o644, nil)
	assert.ErrorIs(t, err, ErrExists)

	f, err := OpenFile(root, "f.txt", model.OverwriteUpdate, time.Now(), 0o755, 0o644, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

func TestOpenFile_OverwritePromptDeclined(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "f.txt")
	require.NoError(t, os.WriteFile(existing, []byte("old"), 0o644))

	_, err := OpenFile(root, "f.txt", model.OverwritePrompt, time.Now(), 0o755, 0o644, func(string) bool { return false })
	assert.ErrorIs(t, err, ErrExists)
}

func TestFile_AbortRemovesPartialFile(t *testing.T) {
	root := t.TempDir()
	f, err := OpenFile(root, "partial.txt", model.OverwriteAlways, time.Now(), 0o755, 0o644, nil)
	require.NoError(t, err)

	_, err = f.Write([]byte("partial data"))
	require.NoError(t, err)
	require.NoError(t, f.Abort())

	_, statErr := os.Stat(f.Path())
	assert.True(t, os.IsNotExist(statErr))
}

func TestDiscard(t *testing.T) {
	d := NewDiscard()
	n, err := d.Write([]byte("anything"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	assert.NoError(t, d.Abort())
	assert.NoError(t, d.Close())
}

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	_, err := b.Write([]byte("hello "))
	require.NoError(t, err)
	_, err = b.Write([]byte("world"))
	require.NoError(t, err)

	assert.Equal(t, "hello world", string(b.Bytes()))
	require.NoError(t, b.Abort())
	assert.Nil(t, b.Bytes())
}
