package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"ventapos/terminal/internal/domain"
)

type fakeFetcher struct {
	productCalls int
	clientCalls  int
	fail         bool
	products     []domain.Product
	clients      []domain.Client
}

func (f *fakeFetcher) Products(_ context.Context, _ string) ([]domain.Product, error) {
	f.productCalls++
	if f.fail {
		return nil, errors.New("catalog unavailable")
	}
	return f.products, nil
}

func (f *fakeFetcher) Clients(_ context.Context) ([]domain.Client, error) {
	f.clientCalls++
	if f.fail {
		return nil, errors.New("catalog unavailable")
	}
	return f.clients, nil
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		products: []domain.Product{{ID: "p1", Name: "Keyboard", PriceCents: 1500, Stock: 4, BranchID: "branch-central"}},
		clients:  []domain.Client{{ID: "c1", Name: "Acme"}},
	}
}

func TestSnapshotLoadsOnceWithinTTL(t *testing.T) {
	fetcher := newFakeFetcher()
	provider := NewProvider(fetcher, nil, time.Minute, zaptest.NewLogger(t))

	first, err := provider.Snapshot(context.Background(), "branch-central")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	second, err := provider.Snapshot(context.Background(), "branch-central")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	if fetcher.productCalls != 1 || fetcher.clientCalls != 1 {
		t.Fatalf("expected one upstream fetch, got products=%d clients=%d", fetcher.productCalls, fetcher.clientCalls)
	}
	if !first.FetchedAt.Equal(second.FetchedAt) {
		t.Fatal("expected the cached snapshot on the second read")
	}
}

func TestSnapshotKeptOnRefreshFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	provider := NewProvider(fetcher, nil, time.Nanosecond, zaptest.NewLogger(t))

	if _, err := provider.Snapshot(context.Background(), "branch-central"); err != nil {
		t.Fatalf("initial snapshot: %v", err)
	}

	fetcher.fail = true
	time.Sleep(time.Millisecond)

	stale, err := provider.Snapshot(context.Background(), "branch-central")
	if err == nil {
		t.Fatal("expected error when refresh fails")
	}
	if len(stale.Products) != 1 {
		t.Fatalf("expected the stale snapshot to survive, got %+v", stale)
	}
}

func TestRefreshReplacesSnapshotWholesale(t *testing.T) {
	fetcher := newFakeFetcher()
	provider := NewProvider(fetcher, nil, time.Minute, zaptest.NewLogger(t))

	if _, err := provider.Snapshot(context.Background(), "branch-central"); err != nil {
		t.Fatalf("snapshot: %v", err)
	}

	fetcher.products = []domain.Product{{ID: "p2", Name: "Mouse", PriceCents: 700, Stock: 9, BranchID: "branch-central"}}
	refreshed, err := provider.Refresh(context.Background(), "branch-central")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if len(refreshed.Products) != 1 || refreshed.Products[0].ID != "p2" {
		t.Fatalf("expected refreshed products to replace the old set, got %+v", refreshed.Products)
	}
}

func TestProductLookup(t *testing.T) {
	provider := NewProvider(newFakeFetcher(), nil, time.Minute, zaptest.NewLogger(t))

	product, found, err := provider.Product(context.Background(), "branch-central", "p1")
	if err != nil || !found {
		t.Fatalf("expected p1 to resolve, got found=%v err=%v", found, err)
	}
	if product.PriceCents != 1500 {
		t.Fatalf("unexpected product: %+v", product)
	}

	_, found, err = provider.Product(context.Background(), "branch-central", "ghost")
	if err != nil || found {
		t.Fatalf("expected ghost to be absent without error, got found=%v err=%v", found, err)
	}
}
