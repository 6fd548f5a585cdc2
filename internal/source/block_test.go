package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingArchive struct {
	Archive
	reads int
}

func (c *countingArchive) ReadAt(p []byte, off int64) (int, error) {
	c.reads++
	return c.Archive.ReadAt(p, off)
}

func TestBlockSource_ReadAtMatchesBacking(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	backing := &countingArchive{Archive: NewLocal(bytesReaderAt(data), int64(len(data)))}

	bs, err := NewBlockSource(backing, 64, 4)
	require.NoError(t, err)
	assert.Equal(t, int64(300), bs.Size())

	buf := make([]byte, 10)
	n, err := bs.ReadAt(buf, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, data[100:110], buf)
}

func TestBlockSource_CachesRepeatedReads(t *testing.T) {
	data := make([]byte, 300)
	backing := &countingArchive{Archive: NewLocal(bytesReaderAt(data), int64(len(data)))}

	bs, err := NewBlockSource(backing, 64, 4)
	require.NoError(t, err)

	buf := make([]byte, 10)
	_, err = bs.ReadAt(buf, 0)
	require.NoError(t, err)
	first := backing.reads

	_, err = bs.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, first, backing.reads, "second read of the same block should not re-issue I/O")
}

func TestBlockSource_ReadAtSpanningMultipleBlocks(t *testing.T) {
	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	backing := &countingArchive{Archive: NewLocal(bytesReaderAt(data), int64(len(data)))}

	bs, err := NewBlockSource(backing, 64, 4)
	require.NoError(t, err)

	buf := make([]byte, 100)
	n, err := bs.ReadAt(buf, 30)
	require.NoError(t, err)
	assert.Equal(t, 100, n)
	assert.Equal(t, data[30:130], buf)
}

func TestBlockSource_ReadAtRejectsOutOfRange(t *testing.T) {
	data := make([]byte, 64)
	backing := &countingArchive{Archive: NewLocal(bytesReaderAt(data), int64(len(data)))}

	bs, err := NewBlockSource(backing, 64, 4)
	require.NoError(t, err)

	_, err = bs.ReadAt(make([]byte, 10), 60)
	assert.ErrorIs(t, err, ErrShortRead)
}

type byteSliceReaderAt []byte

func (b byteSliceReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n := copy(p, b[off:])
	if n < len(p) {
		return n, ErrShortRead
	}
	return n, nil
}

func bytesReaderAt(b []byte) byteSliceReaderAt { return byteSliceReaderAt(b) }
