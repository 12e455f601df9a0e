package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/mkelleher/invoicehub/internal/application/port"
)

// S3Storage implements port.ObjectStorage on an S3 bucket.
type S3Storage struct {
	client *s3.Client
	bucket string
	region string
	logger *zap.Logger
}

// NewS3Storage creates a new S3-backed object store. Credentials come from
// the default AWS chain (env, shared config, instance role).
func NewS3Storage(ctx context.Context, bucket, region string, logger *zap.Logger) (*S3Storage, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Storage{
		client: s3.NewFromConfig(cfg),
		bucket: bucket,
		region: region,
		logger: logger,
	}, nil
}

// Put streams the body to the bucket under key
func (s *S3Storage) Put(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		s.logger.Error("S3 PutObject failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to put object: %w", err)
	}

	s.logger.Debug("Object stored", zap.String("bucket", s.bucket), zap.String("key", key))
	return nil
}

// PublicURL returns the deterministic retrieval URL for key
func (s *S3Storage) PublicURL(key string) string {
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// Verify interface compliance
var _ port.ObjectStorage = (*S3Storage)(nil)
