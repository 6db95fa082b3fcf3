// Package storage publishes assembled feed documents to S3-compatible
// object storage.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	feedapp "github.com/feedbridge/backend/internal/application/feed"
	"github.com/feedbridge/backend/internal/domain/feed"
	infraconfig "github.com/feedbridge/backend/internal/infrastructure/config"
)

// Ensure S3FeedStore implements the application Publisher port
var _ feedapp.Publisher = (*S3FeedStore)(nil)

const feedContentType = "application/json"

// S3FeedStore stores published feed documents in an S3 bucket, one current
// document per tenant. It is compatible with any S3-compatible backend
// (AWS S3, MinIO, etc.)
type S3FeedStore struct {
	client            *s3.Client
	presignClient     *s3.PresignClient
	bucket            string
	keyPrefix         string
	presignExpiration time.Duration
	logger            *zap.Logger
}

// S3FeedStoreOption is a functional option for configuring S3FeedStore.
type S3FeedStoreOption func(*S3FeedStore)

// WithLogger sets a custom logger for S3FeedStore.
func WithLogger(logger *zap.Logger) S3FeedStoreOption {
	return func(s *S3FeedStore) {
		s.logger = logger
	}
}

// WithPresignExpiration sets how long generated feed URLs stay valid.
func WithPresignExpiration(d time.Duration) S3FeedStoreOption {
	return func(s *S3FeedStore) {
		s.presignExpiration = d
	}
}

// NewS3FeedStore creates a feed store from configuration.
func NewS3FeedStore(cfg *infraconfig.StorageConfig, opts ...S3FeedStoreOption) (*S3FeedStore, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}
	if cfg.AccessKey == "" {
		return nil, errors.New("storage access key is required")
	}
	if cfg.SecretKey == "" {
		return nil, errors.New("storage secret key is required")
	}

	endpoint := cfg.Endpoint
	if endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		if _, err := url.Parse(endpoint); err != nil {
			return nil, fmt.Errorf("invalid storage endpoint: %w", err)
		}
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	store := &S3FeedStore{
		client:            client,
		presignClient:     s3.NewPresignClient(client),
		bucket:            cfg.Bucket,
		keyPrefix:         strings.Trim(cfg.KeyPrefix, "/"),
		presignExpiration: 15 * time.Minute,
		logger:            zap.NewNop(),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store, nil
}

// EnsureBucket creates the bucket if it doesn't exist. Call this during
// application startup.
func (s *S3FeedStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("creating feed bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Publish uploads the document as the tenant's current feed and returns
// the storage key it was written under.
func (s *S3FeedStore) Publish(ctx context.Context, doc *feed.Document) (string, error) {
	if doc == nil {
		return "", errors.New("document is required")
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("failed to encode feed document: %w", err)
	}

	key := s.FeedKey(doc.TenantID)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(feedContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload feed: %w", err)
	}

	s.logger.Info("feed published",
		zap.String("tenant_id", doc.TenantID.String()),
		zap.String("key", key),
		zap.Int("item_count", doc.ItemCount),
	)
	return key, nil
}

// Fetch downloads and decodes the tenant's current feed document.
func (s *S3FeedStore) Fetch(ctx context.Context, tenantID uuid.UUID) (*feed.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.FeedKey(tenantID)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to download feed: %w", err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed body: %w", err)
	}

	var doc feed.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode feed document: %w", err)
	}
	return &doc, nil
}

// FeedURL generates a presigned download URL for the tenant's current feed.
func (s *S3FeedStore) FeedURL(ctx context.Context, tenantID uuid.UUID, expiresIn time.Duration) (string, time.Time, error) {
	if expiresIn <= 0 {
		expiresIn = s.presignExpiration
	}

	presignReq, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.FeedKey(tenantID)),
	}, s3.WithPresignExpires(expiresIn))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate feed URL: %w", err)
	}

	return presignReq.URL, time.Now().Add(expiresIn), nil
}

// Delete removes the tenant's published feed.
func (s *S3FeedStore) Delete(ctx context.Context, tenantID uuid.UUID) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.FeedKey(tenantID)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}

// FeedKey returns the storage key of a tenant's current feed document.
func (s *S3FeedStore) FeedKey(tenantID uuid.UUID) string {
	if s.keyPrefix == "" {
		return tenantID.String() + "/feed.json"
	}
	return s.keyPrefix + "/" + tenantID.String() + "/feed.json"
}

// GetBucket returns the bucket name.
func (s *S3FeedStore) GetBucket() string {
	return s.bucket
}
