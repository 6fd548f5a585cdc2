package internal

import (
	"regexp"
	"strings"
)

var sep = regexp.MustCompile(`[\\/]`)

// RootDir is the single top-level directory shared by every name in an archive, as found by FindZipRootDir.
// The zero value ("") means no shared root was found.
type RootDir string

// TrimFrom removes r (plus its separator) from the front of name, normalizing `\` to `/` first since entry
// names inside a ZIP central directory are always forward-slash paths (APPNOTE §4.4.17.1) but FindZipRootDir
// accepts either when scanning, to tolerate archives built by a Windows-hosted tool.
func (r RootDir) TrimFrom(name string) string {
	if r == "" {
		return name
	}
	normalized := strings.ReplaceAll(name, `\`, "/")
	return strings.TrimPrefix(normalized, string(r)+"/")
}

// FindZipRootDir returns the common root directory of the given file names in a ZIP archive.
//
// Given these three names (ZIP file paths must always be relative and use `/` as separator):
//
//	test/a.txt
//	test/path/b.txt
//	test/another/path/c.txt
//
// the common root directory of those files is `test` (no trailing separator). The returned value is empty if
// the given names have no common root directory, including the degenerate case of a name with no directory
// component at all.
func FindZipRootDir(names []string) (rootDir RootDir) {
	fn := NewZipRootDirFinder()

	var ok bool
	for _, name := range names {
		rootDir, ok = fn(name)
		if !ok {
			return ""
		}
	}

	return
}

// NewZipRootDirFinder returns a function that can be fed names one at a time to compute their common root.
//
// NewZipRootDirFinder is a functional variant of FindZipRootDir. It returns the current root dir and a boolean
// indicating whether there is a common root so far. As soon as the returned boolean value is false, the search
// can stop since there is no common root and subsequent calls will keep returning `"", false`.
func NewZipRootDirFinder() func(string) (rootDir RootDir, hasRoot bool) {
	noRoot, root := false, ""

	return func(name string) (RootDir, bool) {
		if noRoot {
			return "", false
		}

		parts := sep.Split(name, 2)
		if len(parts) == 1 {
			// a file at top level, so there can be no common root.
			noRoot = true
			return "", false
		}

		switch root {
		case parts[0]:
		case "":
			root = parts[0]
		default:
			noRoot = true
			return "", false
		}

		return RootDir(root), true
	}
}
