package uploader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vodbackup/uploader/internal/metrics"
	"github.com/vodbackup/uploader/internal/platform"
)

// S3API defines the S3 operations needed for segment archival.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver copies finished segments to S3 before their local deletion.
// Local deletion stays unconditional; the archive copy is best-effort.
type S3Archiver struct {
	client S3API
	bucket string
	log    *slog.Logger
}

// NewS3Archiver creates an S3Archiver writing to the given bucket.
func NewS3Archiver(client S3API, bucket string, log *slog.Logger) *S3Archiver {
	return &S3Archiver{
		client: client,
		bucket: bucket,
		log:    log,
	}
}

// Archive uploads one segment file to s3://<bucket>/segments/<video>/<part>.mp4.
func (a *S3Archiver) Archive(ctx context.Context, videoID int64, part int, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open segment for archival: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("segments/%d/%d.mp4", videoID, part)

	start := time.Now()
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(platform.SegmentMIMEType),
	})
	if err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}
	metrics.ArchiveDuration.Observe(time.Since(start).Seconds())

	a.log.DebugContext(ctx, "Archived segment", "key", key)
	return nil
}
