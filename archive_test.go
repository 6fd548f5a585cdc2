package zipkit

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/zipkit/internal/testutil"
)

func writeFixture(t *testing.T, entries ...testutil.Entry) string {
	t.Helper()
	b := testutil.NewBuilder()
	for _, e := range entries {
		b.Add(e)
	}
	data, err := b.Build()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "fixture.zip")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.zip"))
	assert.Error(t, err)
}

func TestArchive_List(t *testing.T) {
	path := writeFixture(t,
		testutil.Entry{Name: "a.txt", Contents: []byte("a")},
		testutil.Entry{Name: "b.txt", Contents: []byte("bb"), Method: 8},
	)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	entries, res, err := a.List(Options{})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 2, res.Extracted)
}

func TestArchive_List_Filtered(t *testing.T) {
	path := writeFixture(t,
		testutil.Entry{Name: "keep.txt", Contents: []byte("k")},
		testutil.Entry{Name: "skip.txt", Contents: []byte("s")},
	)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	entries, res, err := a.List(Options{Include: []string{"keep*"}, CaseSensitive: true})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "keep.txt", entries[0].Name)
	assert.Equal(t, 1, res.Skipped)
}

func TestArchive_List_StripCommonRoot(t *testing.T) {
	path := writeFixture(t,
		testutil.Entry{Name: "top/a.txt", Contents: []byte("a")},
		testutil.Entry{Name: "top/b/c.txt", Contents: []byte("c")},
	)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	entries, _, err := a.List(Options{StripCommonRoot: true})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	names := []string{entries[0].Name, entries[1].Name}
	assert.ElementsMatch(t, []string{"a.txt", "b/c.txt"}, names)
}

func TestArchive_Extract(t *testing.T) {
	path := writeFixture(t,
		testutil.Entry{Name: "x.txt", Contents: []byte("extracted contents")},
	)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	dest := t.TempDir()
	res, err := a.Extract(context.Background(), dest, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Extracted)

	got, err := os.ReadFile(filepath.Join(dest, "x.txt"))
	require.NoError(t, err)
	assert.Equal(t, "extracted contents", string(got))
}

func TestArchive_Test(t *testing.T) {
	path := writeFixture(t,
		testutil.Entry{Name: "x.txt", Contents: []byte("verify me"), Method: 8},
	)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	res, err := a.Test(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Extracted)
}

func TestArchive_List_EmptyArchive(t *testing.T) {
	path := writeFixture(t)

	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	entries, res, err := a.List(Options{})
	require.NoError(t, err)
	assert.Empty(t, entries)
	require.Len(t, res.Warnings, 1)
}
