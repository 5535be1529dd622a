package cache

import (
	"context"
	"time"

	"ventapos/terminal/internal/domain"
)

type SnapshotCache interface {
	Get(ctx context.Context, key string) (*domain.CatalogSnapshot, bool, error)
	Set(ctx context.Context, key string, value *domain.CatalogSnapshot, ttl time.Duration) error
}

type NoopSnapshotCache struct{}

func (NoopSnapshotCache) Get(_ context.Context, _ string) (*domain.CatalogSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopSnapshotCache) Set(_ context.Context, _ string, _ *domain.CatalogSnapshot, _ time.Duration) error {
	return nil
}
