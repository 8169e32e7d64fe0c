// Package docs stores knowledge base source documents in S3 and triggers
// knowledge base re-syncs.
package docs

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/arturoeanton/blaize-bazaar/internal/port"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Sink implements port.DocumentSink on the knowledge base data source bucket.
type S3Sink struct {
	client s3API
	bucket string
	logger *zap.Logger
}

var _ port.DocumentSink = (*S3Sink)(nil)

// NewS3Sink creates a sink writing to bucket.
func NewS3Sink(client s3API, bucket string, logger *zap.Logger) *S3Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Sink{client: client, bucket: bucket, logger: logger.Named("s3")}
}

// Put uploads body under key.
func (s *S3Sink) Put(ctx context.Context, key, contentType string, body io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("s3 put %s/%s: %w", s.bucket, key, err)
	}
	s.logger.Debug("object stored", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

// DeleteAll removes every object in the bucket, one listing page per
// DeleteObjects call, and returns how many were deleted.
func (s *S3Sink) DeleteAll(ctx context.Context) (int, error) {
	deleted := 0
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return deleted, fmt.Errorf("s3 list %s: %w", s.bucket, err)
		}
		if len(page.Contents) == 0 {
			continue
		}

		objects := make([]s3types.ObjectIdentifier, 0, len(page.Contents))
		for _, obj := range page.Contents {
			objects = append(objects, s3types.ObjectIdentifier{Key: obj.Key})
		}
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &s3types.Delete{Objects: objects},
		})
		if err != nil {
			return deleted, fmt.Errorf("s3 delete %s: %w", s.bucket, err)
		}
		deleted += len(out.Deleted)
		if len(out.Errors) > 0 {
			first := out.Errors[0]
			return deleted, fmt.Errorf("s3 delete %s: %d object(s) failed, first %s: %s",
				s.bucket, len(out.Errors), aws.ToString(first.Key), aws.ToString(first.Message))
		}
	}
	s.logger.Info("bucket emptied", zap.String("bucket", s.bucket), zap.Int("deleted", deleted))
	return deleted, nil
}
