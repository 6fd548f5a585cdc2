package cmdutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nguyengg/zipkit"
	"github.com/nguyengg/zipkit/internal"
)

// OpenArchive opens name as a local file, or, if name starts with "s3://", as an S3 object (teacher's
// ParseS3URI convention from internal/s3.go, reused by every download/upload subcommand there). prefetch
// requests OpenS3WithPrefetch over OpenS3 for the S3 case.
func OpenArchive(ctx context.Context, name string, prefetch bool) (*zipkit.Archive, error) {
	bucket, key, err := internal.ParseS3URI(name)
	if err != nil {
		return zipkit.Open(name)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load AWS config error: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	if prefetch {
		return zipkit.OpenS3WithPrefetch(ctx, client, bucket, key)
	}
	return zipkit.OpenS3(ctx, client, bucket, key)
}
