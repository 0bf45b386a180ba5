package storage

import (
	"context"
	"fmt"

	"github.com/procurement/backend/internal/application/attachment"
	"github.com/procurement/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New selects the backend named by cfg.Driver. The s3 bucket is created when
// missing.
func New(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (attachment.ObjectStorageService, error) {
	switch cfg.Driver {
	case "", "memory":
		return NewMemoryStorage(cfg.PresignExpiry), nil
	case "s3":
		s, err := NewS3Storage(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
