package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindRootDir(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantRoot string
	}{
		{
			name: "simple root",
			args: []string{
				"test/a.txt",
				"test/path/b.txt",
				"test/another/path/c.txt",
			},
			wantRoot: "test",
		},
		{
			name: "no root",
			args: []string{
				"a.txt",
				"path/b.txt",
				"another/path/c.txt",
			},
			wantRoot: "",
		},
		{
			name: "long root",
			args: []string{
				"test/path/to/a.txt",
				"test/path/to/a.txt",
				"test/path/to/a.txt",
			},
			wantRoot: "test",
		},
		{
			name: "window paths",
			args: []string{
				"test\\a.txt",
				"test\\path\\b.txt",
				"test\\another\\path\\c.txt",
			},
			wantRoot: "test",
		},
		{
			name: "one name at top level breaks the root",
			args: []string{
				"test/a.txt",
				"b.txt",
			},
			wantRoot: "",
		},
		{
			name: "diverging top-level directories break the root",
			args: []string{
				"test/a.txt",
				"other/b.txt",
			},
			wantRoot: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			names := make([]string, 0)
			gotRoot, fn := RootDir(""), NewZipRootDirFinder()
			for _, name := range tt.args {
				names = append(names, name)
				gotRoot, _ = fn(name)
			}

			assert.Equalf(t, RootDir(tt.wantRoot), gotRoot, "NewZipRootDirFinder() got = %v, want = %v", gotRoot, tt.wantRoot)

			gotRoot = FindZipRootDir(names)
			assert.Equalf(t, RootDir(tt.wantRoot), gotRoot, "FindZipRootDir(%v) got = %v, want = %v", tt.args, gotRoot, tt.wantRoot)
		})
	}
}

func TestRootDir_TrimFrom(t *testing.T) {
	root := RootDir("test")

	assert.Equal(t, "a.txt", root.TrimFrom("test/a.txt"))
	assert.Equal(t, "path/b.txt", root.TrimFrom("test/path/b.txt"))
	assert.Equal(t, "path/b.txt", root.TrimFrom(`test\path\b.txt`))

	assert.Equal(t, "unrelated.txt", RootDir("").TrimFrom("unrelated.txt"))
}
