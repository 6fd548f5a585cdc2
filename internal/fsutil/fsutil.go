// Package fsutil holds small filesystem helpers shared by the sink and
// internal/log.go: exclusive file/dir creation with numeric-suffix
// collision avoidance, and the stem/extension split used to name those
// suffixed files naturally.
package fsutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// OpenExclFile creates a new file for writing with the condition that the file did not exist prior to this call.
//
// The first string should be the stem of the filename, the second the extension. For example, the stem of
// "hello-world.txt" is "hello-world", its ext ".txt". If the name is already taken, a numeric suffix is
// inserted before the extension: "hello-world-1.txt", "hello-world-2.txt", and so on.
//
// The file is opened with flag `os.O_RDWR|os.O_CREATE|os.O_EXCL` and the given permission. Caller is responsible
// for closing the file upon a successful return. See MkExclDir for a directory equivalent.
func OpenExclFile(stem, ext string, perm os.FileMode) (file *os.File, name string, err error) {
	name = stem + ext
	for i := 0; ; {
		switch file, err = os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm); {
		case err == nil:
			return
		case errors.Is(err, os.ErrExist):
			i++
			name = stem + "-" + strconv.Itoa(i) + ext
		default:
			return nil, "", fmt.Errorf("create file error: %w", err)
		}
	}
}

// CreateOrTruncate opens name for writing, truncating any existing content, creating it if necessary.
//
// Used by the sink's OpenFile under every overwrite policy, once the policy check has allowed the write. The
// sink does not use OpenExclFile.
func CreateOrTruncate(name string, perm os.FileMode) (*os.File, error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return nil, fmt.Errorf("create file error: %w", err)
	}
	return f, nil
}

// MkExclDir creates a new child directory that did not exist prior to this invocation.
//
// Stem is the desired name of the directory. The actual directory that is created might have numeric suffixes such as
// stem-1, stem-2, etc. The return value "name" is the actual path to the newly created directory.
func MkExclDir(parent, stem string, perm os.FileMode) (name string, err error) {
	name = stem
	for i := 0; ; {
		switch err = os.Mkdir(filepath.Join(parent, name), perm); {
		case err == nil:
			return
		case errors.Is(err, os.ErrExist):
			i++
			name = stem + "-" + strconv.Itoa(i)
		default:
			return "", fmt.Errorf("create directory error: %w", err)
		}
	}
}

// StemAndExt is a variant of filepath.Ext that allows extended extensions (".tar.gz") to be detected while also
// returning the stem.
//
// StemAndExt will only look at the last 6 characters for a second dot, so long single extensions like ".jfif-tbnl"
// are not treated as compound.
func StemAndExt(path string) (stem, ext string) {
	n := len(path) - 1
	for i, j := n, max(0, n-6); i >= j; i-- {
		switch path[i] {
		case '\\', '/':
			stem = path[i+1:]
			return
		case '.':
			ext = path[i:] + ext
			path = path[:i]
			n = len(path)
			i, j = n, max(0, n-6)
			continue
		}
	}

	stem = filepath.Base(path)
	return
}

// DirBase joins filepath.Dir and filepath.Base for clearer path display in messages, falling back to the absolute
// path when dir is empty or ".".
func DirBase(name string) string {
	dir, base := filepath.Dir(name), filepath.Base(name)
	if dir == "" || dir == "." {
		if abs, err := filepath.Abs(name); err == nil {
			return abs
		}
		return base
	}
	return filepath.Join(dir, base)
}

// TruncateRightWithSuffix keeps the first n runes of text and appends suffix only if truncation happened.
func TruncateRightWithSuffix(text string, n int, suffix string) string {
	if n <= 0 {
		return suffix
	}

	rs := make([]rune, 0, n+len(suffix))
	truncated := false
	count := 0
	for _, r := range text {
		if count >= n {
			truncated = true
			break
		}
		rs = append(rs, r)
		count++
	}

	if !truncated {
		return string(rs)
	}

	for _, r := range suffix {
		rs = append(rs, r)
	}
	return string(rs)
}

// HasWindowsVolumePrefix reports whether name begins with a Windows drive letter (e.g. "C:") or UNC prefix,
// a signal used by the sink to reject entry names that would otherwise escape the extraction root on Windows.
func HasWindowsVolumePrefix(name string) bool {
	if len(name) >= 2 && name[1] == ':' && ((name[0] >= 'a' && name[0] <= 'z') || (name[0] >= 'A' && name[0] <= 'Z')) {
		return true
	}
	return strings.HasPrefix(name, `\\`) || strings.HasPrefix(name, "//")
}
