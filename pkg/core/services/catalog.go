package services

import (
	"context"
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/ports"
)

type CatalogService struct {
	repo ports.ShopRepository
}

func NewCatalogService(repo ports.ShopRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

func (s *CatalogService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *CatalogService) BySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, err := s.repo.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("product not found")
	}
	return p, nil
}

// seedFile is the YAML catalog format loaded at startup or via the CLI.
type seedFile struct {
	Products []struct {
		Slug         string `yaml:"slug"`
		Name         string `yaml:"name"`
		ImageURL     string `yaml:"image_url"`
		PriceMinor   int64  `yaml:"price_minor"`
		ExternalCode string `yaml:"external_code"`
	} `yaml:"products"`
}

// SeedFromFile upserts catalog rows from a YAML file, keyed by slug so
// re-running the seed is safe. Returns how many rows were written.
func (s *CatalogService) SeedFromFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return 0, err
	}

	n := 0
	now := time.Now()
	for _, row := range seed.Products {
		if row.Slug == "" || row.PriceMinor < 0 {
			continue
		}
		p := domain.Product{
			Slug:           row.Slug,
			Name:           row.Name,
			ImageURL:       row.ImageURL,
			UnitPriceMinor: row.PriceMinor,
			ExternalCode:   row.ExternalCode,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := s.repo.UpsertProductBySlug(ctx, &p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
