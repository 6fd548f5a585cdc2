package cmdutil

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nguyengg/zipkit"
)

func TestOverwritePolicyFlag_Policy(t *testing.T) {
	cases := map[OverwritePolicyFlag]zipkit.OverwritePolicy{
		"":        zipkit.OverwritePrompt,
		"prompt":  zipkit.OverwritePrompt,
		"never":   zipkit.OverwriteNever,
		"always":  zipkit.OverwriteAlways,
		"freshen": zipkit.OverwriteFreshen,
		"update":  zipkit.OverwriteUpdate,
	}
	for flag, want := range cases {
		got, err := flag.Policy()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := OverwritePolicyFlag("bogus").Policy()
	assert.Error(t, err)
}

func TestUnicodePolicyFlag_Policy(t *testing.T) {
	cases := map[UnicodePolicyFlag]zipkit.UnicodePolicy{
		"":       zipkit.UnicodeWarnFallback,
		"warn":   zipkit.UnicodeWarnFallback,
		"ignore": zipkit.UnicodeIgnore,
		"strict": zipkit.UnicodeStrict,
	}
	for flag, want := range cases {
		got, err := flag.Policy()
		assert.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := UnicodePolicyFlag("bogus").Policy()
	assert.Error(t, err)
}
