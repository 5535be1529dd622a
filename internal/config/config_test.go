package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefault(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
}

func TestLoadDefaultsAndTrimsBaseURLs(t *testing.T) {
	t.Setenv("CATALOG_API_URL", "http://catalog.internal/api/")
	t.Setenv("SALES_API_URL", "")
	t.Setenv("SNAPSHOT_TTL_SECONDS", "not-a-number")

	cfg := Load()
	if cfg.CatalogBaseURL != "http://catalog.internal/api" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.CatalogBaseURL)
	}
	if cfg.SalesBaseURL != "http://localhost:9090/api" {
		t.Fatalf("expected default sales base URL, got %q", cfg.SalesBaseURL)
	}
	if cfg.SnapshotTTLSeconds != 30 {
		t.Fatalf("expected fallback snapshot TTL 30, got %d", cfg.SnapshotTTLSeconds)
	}
}
