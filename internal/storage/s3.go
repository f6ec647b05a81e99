package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/heritago/backend/internal/config"
)

// S3Store implements Store on an S3 bucket (or an S3-compatible server such as MinIO).
type S3Store struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// NewS3Store creates an S3 client from the configuration and checks the bucket.
func NewS3Store(cfg *config.Config, logger *zap.Logger) (*S3Store, error) {
	ctx := context.Background()

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		// Static credentials for MinIO or explicit keys
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.S3Bucket)}); err != nil {
		return nil, fmt.Errorf("failed to reach bucket %s: %w", cfg.S3Bucket, err)
	}

	logger.Info("Using S3 media store", zap.String("bucket", cfg.S3Bucket))
	return &S3Store{client: client, bucket: cfg.S3Bucket, logger: logger}, nil
}

// Put implements Store.Put.
func (s *S3Store) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          r,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		s.logger.Error("Failed to upload media object", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("failed to upload to s3: %w", err)
	}
	return nil
}

// Get implements Store.Get.
func (s *S3Store) Get(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, 0, ErrObjectNotFound
		}
		return nil, 0, fmt.Errorf("failed to get object from s3: %w", err)
	}
	return result.Body, aws.ToInt64(result.ContentLength), nil
}

// Delete implements Store.Delete.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}
