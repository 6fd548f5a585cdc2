package selector

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelector_IncludeExclude(t *testing.T) {
	s := New([]string{"*.txt"}, []string{"secret*"}, Options{CaseSensitive: true})

	assert.True(t, s.Accept("notes.txt"))
	assert.False(t, s.Accept("secret.txt"))
	assert.False(t, s.Accept("image.png"))
}

func TestSelector_CaseInsensitiveByDefault(t *testing.T) {
	s := New([]string{"*.TXT"}, nil, Options{})

	assert.True(t, s.Accept("notes.txt"))
}

// TestSelector_DirectoryStopDefaultStarDoesNotCrossSlash documents the spec's default directory_stop=true: a
// bare "*" in a pattern without "/" never matches a nested path.
func TestSelector_DirectoryStopDefaultStarDoesNotCrossSlash(t *testing.T) {
	s := New([]string{"*.txt"}, nil, Options{CaseSensitive: true})

	assert.True(t, s.Accept("notes.txt"))
	assert.False(t, s.Accept("dir/notes.txt"))
}

// TestSelector_CrossDirectoryLetsStarCrossSlash covers directory_stop=false: with CrossDirectory set, the same
// pattern now matches through directory boundaries the way "**" already does.
func TestSelector_CrossDirectoryLetsStarCrossSlash(t *testing.T) {
	s := New([]string{"*.txt"}, nil, Options{CaseSensitive: true, CrossDirectory: true})

	assert.True(t, s.Accept("notes.txt"))
	assert.True(t, s.Accept("dir/sub/notes.txt"))
}

func TestWidenStars(t *testing.T) {
	assert.Equal(t, "**.txt", widenStars("*.txt"))
	assert.Equal(t, "**", widenStars("**"))
	assert.Equal(t, "a/**/b", widenStars("a/*/b"))
	assert.Equal(t, "[*]", widenStars("[*]"), "a literal star inside a character class must not be widened")
}
