package imagestore

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/suteetoe/commerce-directory/internal/apperr"
	"github.com/suteetoe/commerce-directory/pkg/config"
	"go.uber.org/zap"
)

// Store keeps commerce images and returns the object key saved in image_commerce
type Store interface {
	Upload(ctx context.Context, commerceID uint, filename string, r io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}

// MinIOStore uploads images to a single bucket
type MinIOStore struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewMinIOStore connects to MinIO and creates the bucket if it does not exist
func NewMinIOStore(ctx context.Context, cfg *config.MinIOConfig, log *zap.Logger) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Info("Bucket created", zap.String("bucket", cfg.Bucket))
	}

	return &MinIOStore{client: client, bucket: cfg.Bucket, log: log}, nil
}

func (m *MinIOStore) Upload(ctx context.Context, commerceID uint, filename string, r io.Reader, size int64) (string, error) {
	contentType, err := contentTypeFor(filename)
	if err != nil {
		return "", err
	}

	key := objectKey(commerceID, filename)
	_, err = m.client.PutObject(ctx, m.bucket, key, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", apperr.RemoteUnavailable("imagestore.Upload", err)
	}

	m.log.Info("Commerce image uploaded",
		zap.Uint("commerce_id", commerceID),
		zap.String("key", key),
		zap.Int64("size", size))
	return key, nil
}

func (m *MinIOStore) Delete(ctx context.Context, key string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return apperr.RemoteUnavailable("imagestore.Delete", err)
	}
	return nil
}

// Disabled rejects every upload; used when no endpoint is configured
type Disabled struct{}

func (Disabled) Upload(context.Context, uint, string, io.Reader, int64) (string, error) {
	return "", apperr.RemoteUnavailable("imagestore.Upload", fmt.Errorf("image storage is not configured"))
}

func (Disabled) Delete(context.Context, string) error { return nil }

func objectKey(commerceID uint, filename string) string {
	return fmt.Sprintf("commerces/%d/%s%s", commerceID, uuid.NewString(), strings.ToLower(filepath.Ext(filename)))
}

func contentTypeFor(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg", nil
	case ".png":
		return "image/png", nil
	case ".gif":
		return "image/gif", nil
	case ".webp":
		return "image/webp", nil
	default:
		return "", apperr.Validation("imagestore.Upload", "unsupported image type "+filepath.Ext(filename))
	}
}
