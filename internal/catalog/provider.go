package catalog

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"ventapos/terminal/internal/cache"
	"ventapos/terminal/internal/domain"
)

// Fetcher is implemented by the Catalog API client.
type Fetcher interface {
	Products(ctx context.Context, branchID string) ([]domain.Product, error)
	Clients(ctx context.Context) ([]domain.Client, error)
}

// Provider holds one catalog snapshot per branch. A snapshot is replaced
// wholesale on successful load and kept unchanged when a load fails, so a
// transient upstream error never degrades what the terminal already has.
type Provider struct {
	mu        sync.RWMutex
	fetcher   Fetcher
	cache     cache.SnapshotCache
	ttl       time.Duration
	logger    *zap.Logger
	snapshots map[string]domain.CatalogSnapshot
}

func NewProvider(fetcher Fetcher, snapCache cache.SnapshotCache, ttl time.Duration, logger *zap.Logger) *Provider {
	if snapCache == nil {
		snapCache = cache.NoopSnapshotCache{}
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		fetcher:   fetcher,
		cache:     snapCache,
		ttl:       ttl,
		logger:    logger,
		snapshots: make(map[string]domain.CatalogSnapshot),
	}
}

// Snapshot returns the current snapshot for the branch, loading it when the
// in-memory copy is missing or older than the TTL. Cache errors are
// best-effort: logged and treated as a miss.
func (p *Provider) Snapshot(ctx context.Context, branchID string) (domain.CatalogSnapshot, error) {
	p.mu.RLock()
	snapshot, ok := p.snapshots[branchID]
	p.mu.RUnlock()
	if ok && time.Since(snapshot.FetchedAt) < p.ttl {
		return snapshot, nil
	}

	cached, found, err := p.cache.Get(ctx, cacheKey(branchID))
	if err != nil {
		p.logger.Warn("snapshot cache read failed", zap.String("branch_id", branchID), zap.Error(err))
	}
	if found && time.Since(cached.FetchedAt) < p.ttl {
		p.mu.Lock()
		p.snapshots[branchID] = *cached
		p.mu.Unlock()
		return *cached, nil
	}

	fresh, err := p.Refresh(ctx, branchID)
	if err != nil {
		// Stale-but-present beats nothing: surface the old snapshot with the
		// error so the caller decides whether to keep rendering it.
		if ok {
			return snapshot, err
		}
		return domain.CatalogSnapshot{}, err
	}
	return fresh, nil
}

// Refresh force-fetches the branch catalog and replaces the snapshot and the
// cache entry. On failure the previous snapshot is retained untouched.
func (p *Provider) Refresh(ctx context.Context, branchID string) (domain.CatalogSnapshot, error) {
	products, err := p.fetcher.Products(ctx, branchID)
	if err != nil {
		return domain.CatalogSnapshot{}, err
	}
	clients, err := p.fetcher.Clients(ctx)
	if err != nil {
		return domain.CatalogSnapshot{}, err
	}

	snapshot := domain.CatalogSnapshot{
		BranchID:  branchID,
		Products:  products,
		Clients:   clients,
		FetchedAt: time.Now().UTC(),
	}

	p.mu.Lock()
	p.snapshots[branchID] = snapshot
	p.mu.Unlock()

	if err := p.cache.Set(ctx, cacheKey(branchID), &snapshot, p.ttl); err != nil {
		p.logger.Warn("snapshot cache write failed", zap.String("branch_id", branchID), zap.Error(err))
	}

	return snapshot, nil
}

// Product resolves a product id against the branch snapshot. The bool result
// reports whether the id resolved; err carries snapshot-load failures.
func (p *Provider) Product(ctx context.Context, branchID string, productID string) (domain.Product, bool, error) {
	snapshot, err := p.Snapshot(ctx, branchID)
	if err != nil && len(snapshot.Products) == 0 {
		return domain.Product{}, false, err
	}
	for _, product := range snapshot.Products {
		if product.ID == productID {
			return product, true, nil
		}
	}
	return domain.Product{}, false, nil
}

func cacheKey(branchID string) string {
	return "catalog:" + branchID
}
