package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	minio "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/mikeyg42/motioncam/internal/config"
)

const connectTimeout = 30 * time.Second

// MinIOUploader is the object-storage delivery backend: finished artifacts
// are uploaded into a bucket instead of being mailed. It implements
// notification.Sender.
type MinIOUploader struct {
	client     *minio.Client
	bucket     string
	maxRetries int
	logger     *zap.Logger
}

// NewMinIOUploader creates the client and ensures the bucket exists.
func NewMinIOUploader(cfg config.MinIOConfig, logger *zap.Logger) (*MinIOUploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	up := &MinIOUploader{
		client:     client,
		bucket:     cfg.Bucket,
		maxRetries: cfg.MaxRetries,
		logger:     logger.Named("minio"),
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		up.logger.Info("created bucket", zap.String("bucket", cfg.Bucket))
	}
	return up, nil
}

// Send uploads the artifact under its base name. Transient upload failures
// are retried with exponential backoff, but only within the delivery
// timeout the caller's context carries.
func (u *MinIOUploader) Send(ctx context.Context, filePath string) error {
	key := filepath.Base(filePath)

	newBackoff := func() backoff.BackOff {
		bo := backoff.NewExponentialBackOff()
		if u.maxRetries > 0 {
			return backoff.WithMaxRetries(bo, uint64(u.maxRetries))
		}
		return bo
	}

	op := func() error {
		info, err := u.client.FPutObject(ctx, u.bucket, key, filePath, minio.PutObjectOptions{
			ContentType: detectContentType(filePath),
		})
		if err != nil {
			return err
		}
		u.logger.Debug("object uploaded",
			zap.String("key", key),
			zap.Int64("size", info.Size),
			zap.String("etag", info.ETag))
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(newBackoff(), ctx)); err != nil {
		return fmt.Errorf("upload of %s failed: %w", key, err)
	}
	return nil
}

// Close is a no-op; the MinIO client manages its own connections.
func (u *MinIOUploader) Close() error { return nil }

// detectContentType maps artifact extensions to content types.
func detectContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp4":
		return "video/mp4"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}
