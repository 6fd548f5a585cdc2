package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/zipkit/internal/model"
)

func TestLoad_NoFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	path, cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FindsFileInParent(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	contents := "unicodePolicy: 2\noverwritePolicy: 1\ncaseSensitive: false\ntextMode: true\npasswordRetriesPerSecond: 5\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(contents), 0o644))

	chdir(t, sub)

	path, cfg, err := Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, FileName), path)
	assert.Equal(t, model.UnicodeStrict, cfg.UnicodePolicy)
	assert.Equal(t, model.OverwriteAlways, cfg.OverwritePolicy)
	assert.False(t, cfg.CaseSensitive)
	assert.True(t, cfg.TextMode)
	assert.Equal(t, 5.0, cfg.PasswordRetriesPerSecond)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("not: [valid: yaml"), 0o644))
	chdir(t, dir)

	_, _, err := Load(context.Background())
	assert.Error(t, err)
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
