// Package storage provides object storage for generated receipts and report exports.
package storage

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	infraconfig "github.com/cobranzas/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a key does not exist in the bucket
var ErrObjectNotFound = errors.New("object not found")

var errEmptyKey = errors.New("storage key is required")

// ObjectStorage stores and retrieves binary objects by key
type ObjectStorage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	GenerateDownloadURL(ctx context.Context, key string, expiresIn time.Duration) (string, time.Time, error)
}

// joinKey prefixes key with prefix, collapsing duplicate slashes
func joinKey(prefix, key string) string {
	key = strings.TrimLeft(key, "/")
	if prefix == "" {
		return key
	}
	return path.Join(strings.Trim(prefix, "/"), key)
}

// New returns S3 storage when cfg enables it and the stub otherwise
func New(cfg *infraconfig.StorageConfig, logger *zap.Logger) (ObjectStorage, error) {
	if cfg == nil || !cfg.Enabled {
		logger.Info("Object storage disabled, using stub")
		return NewStubObjectStorage(), nil
	}
	s3Storage, err := NewS3ObjectStorage(cfg, WithLogger(logger))
	if err != nil {
		return nil, err
	}
	logger.Info("Object storage enabled",
		zap.String("bucket", cfg.Bucket),
		zap.String("endpoint", cfg.Endpoint),
	)
	return s3Storage, nil
}
