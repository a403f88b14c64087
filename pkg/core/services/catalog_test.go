package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cabolabs/cabo-shop/pkg/adapters/repository/sqlite"
)

const seedYAML = `
products:
  - slug: product-a
    name: Blue T-Shirt
    image_url: https://example.com/a.jpg
    price_minor: 22999
    external_code: A
  - slug: product-b
    name: Red Hoodie
    price_minor: 45990
  - slug: ""
    name: skipped, no slug
    price_minor: 100
`

func TestSeedFromFile(t *testing.T) {
	repo, err := sqlite.NewSQLiteRepository("file:memdb_catalog?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("Failed to init db: %v", err)
	}
	svc := NewCatalogService(repo)

	path := filepath.Join(t.TempDir(), "products.yaml")
	if err := os.WriteFile(path, []byte(seedYAML), 0o600); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	n, err := svc.SeedFromFile(ctx, path)
	if err != nil {
		t.Fatalf("SeedFromFile failed: %v", err)
	}
	if n != 2 {
		t.Errorf("seeded %d rows, want 2 (empty slug skipped)", n)
	}

	p, err := svc.BySlug(ctx, "product-a")
	if err != nil {
		t.Fatal(err)
	}
	if p.UnitPriceMinor != 22999 || p.ExternalCode != "A" || p.Name != "Blue T-Shirt" {
		t.Errorf("seeded product wrong: %+v", p)
	}

	// Re-seeding must update in place, not duplicate.
	if _, err := svc.SeedFromFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	products, err := svc.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(products) != 2 {
		t.Errorf("re-seed duplicated rows: got %d products", len(products))
	}
}
