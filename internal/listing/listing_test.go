package listing

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nguyengg/zipkit/internal/model"
)

func sampleEntries() []*model.Entry {
	mod := time.Date(2022, 3, 4, 15, 30, 0, 0, time.UTC)
	return []*model.Entry{
		{
			Name:             "readme.txt",
			Method:           model.MethodStored,
			HostOS:           model.HostUnix,
			CRC32:            0xdeadbeef,
			CompressedSize:   100,
			UncompressedSize: 100,
			Modified:         mod,
		},
		{
			Name:             "data.bin",
			Method:           model.MethodDeflate,
			HostOS:           model.HostUnix,
			CRC32:            0x01020304,
			CompressedSize:   50,
			UncompressedSize: 200,
			Modified:         mod,
		},
	}
}

func TestList_Brief(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, List(&buf, sampleEntries(), Options{Verbosity: Brief}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, []string{"readme.txt", "data.bin"}, lines)
}

func TestList_Short(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, List(&buf, sampleEntries(), Options{Verbosity: Short}))

	out := buf.String()
	assert.Contains(t, out, "Length")
	assert.Contains(t, out, "readme.txt")
	assert.Contains(t, out, "data.bin")
	assert.Contains(t, out, "2 files")
}

func TestList_Long(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, List(&buf, sampleEntries(), Options{Verbosity: Long}))

	out := buf.String()
	assert.Contains(t, out, "Method")
	assert.Contains(t, out, "Stored")
	assert.Contains(t, out, "Deflated")
	assert.Contains(t, out, "deadbeef")
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 0, Ratio(0, 0))
	assert.Equal(t, 75, Ratio(25, 100))
	assert.Equal(t, 0, Ratio(100, 100))
	assert.Equal(t, -50, Ratio(150, 100))
}

func TestHostName(t *testing.T) {
	assert.Equal(t, "Unix", HostName(model.HostUnix))
	assert.Equal(t, "unknown", HostName(model.HostOS(200)))
}

func TestWarningf_Color(t *testing.T) {
	var plain, colored bytes.Buffer
	require.NoError(t, Warningf(&plain, false, "skip %s", "a.txt"))
	require.NoError(t, Warningf(&colored, true, "skip %s", "a.txt"))

	assert.Equal(t, "skip a.txt\n", plain.String())
	assert.NotEqual(t, plain.String(), colored.String())
	assert.Contains(t, colored.String(), "skip a.txt")
}
