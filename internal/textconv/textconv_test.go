package textconv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransform_BasicEOLs(t *testing.T) {
	tr := New(EOLUnix)
	got := tr.Apply([]byte("a\r\nb\rc\nd"))
	assert.Equal(t, "a\nb\nc\nd", string(got))
}

func TestTransform_ToWindows(t *testing.T) {
	tr := New(EOLWindows)
	got := tr.Apply([]byte("a\nb\rc\r\nd"))
	assert.Equal(t, "a\r\nb\r\nc\r\nd", string(got))
}

func TestTransform_DropsCtrlZ(t *testing.T) {
	tr := New(EOLUnix)
	got := tr.Apply([]byte("abc\x1adef"))
	assert.Equal(t, "abcdef", string(got))
}

func TestTransform_CRLFSplitAcrossChunks(t *testing.T) {
	tr := New(EOLUnix)

	first := tr.Apply([]byte("line1\r"))
	second := tr.Apply([]byte("\nline2"))

	assert.Equal(t, "line1\n", string(first))
	assert.Equal(t, "line2", string(second))
}

func TestTransform_LoneCRAcrossChunksNotConfusedWithCRLF(t *testing.T) {
	tr := New(EOLUnix)

	first := tr.Apply([]byte("line1\r"))
	second := tr.Apply([]byte("line2"))

	assert.Equal(t, "line1\n", string(first))
	assert.Equal(t, "line2", string(second))
}
