package source

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDownloadClient struct {
	data []byte
}

func (f *fakeDownloadClient) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	start, end := int64(0), int64(len(f.data)-1)
	if in.Range != nil {
		var s, e int64
		if _, err := fmt.Sscanf(*in.Range, "bytes=%d-%d", &s, &e); err == nil {
			start, end = s, e
		}
	}
	if end >= int64(len(f.data)) {
		end = int64(len(f.data)) - 1
	}

	contentRange := fmt.Sprintf("bytes %d-%d/%d", start, end, len(f.data))
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(f.data[start : end+1])),
		ContentLength: aws.Int64(end - start + 1),
		ContentRange:  aws.String(contentRange),
	}, nil
}

func TestPrefetch_DownloadsToLocalTempFile(t *testing.T) {
	data := make([]byte, 200)
	for i := range data {
		data[i] = byte(i)
	}
	client := &fakeDownloadClient{data: data}

	local, cleanup, err := Prefetch(context.Background(), client, "bucket", "key.zip", func(o *PrefetchOptions) {
		o.PartSize = 64
		o.Concurrency = 2
	})
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	assert.Equal(t, int64(200), local.Size())

	buf := make([]byte, 200)
	n, err := local.ReadAt(buf, 0)
	require.NoError(t, err)
	assert.Equal(t, 200, n)
	assert.Equal(t, data, buf)

	require.NoError(t, cleanup())
}
