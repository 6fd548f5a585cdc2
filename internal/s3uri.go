package internal

import (
	"fmt"
	"strings"
)

// ParseS3URI parses S3 URIs in format s3://bucket/key.
//
// The only validation that exists right now is that text must start with s3://.
func ParseS3URI(text string) (bucket, key string, err error) {
	if !strings.HasPrefix(text, "s3://") {
		return "", "", fmt.Errorf("text does not start with s3://")
	}

	parts := strings.SplitN(strings.TrimPrefix(text, "s3://"), "/", 2)
	bucket = parts[0]
	if len(parts) > 1 {
		key = parts[1]
	}
	return
}
