package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/cabolabs/cabo-shop/pkg/adapters/handler"
	"github.com/cabolabs/cabo-shop/pkg/adapters/repository/sqlite"
	"github.com/cabolabs/cabo-shop/pkg/config"
	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/core/services"
)

func main() {
	cfg := config.Load()

	// Deployment policy check: the engine itself tolerates the dev secret,
	// the deployment must not.
	if cfg.IsProduction() && cfg.SigningSecret == config.DevSigningSecret {
		log.Fatal("CABO_SIGNING_SECRET is unset in production; refusing to sign attribution cookies with the dev default")
	}

	// Initialize Repository
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Parse the discount map once; a broken blob logs and degrades to no
	// discounts rather than blocking startup.
	dmap := services.LoadDiscountMap(cfg.DiscountMapRaw)
	if cfg.DiscountMapRaw != "" && dmap.Len() == 0 {
		log.Printf("Discount map configured but unparseable; running without discounts")
	}

	// Initialize Services
	attribution := services.NewAttributionService(cfg.SigningSecret, domain.ParseScope(cfg.AttribScope), cfg.AttribTTLDays, cfg.RequireConsent)
	pricing := services.NewPricingService(dmap)
	webhook := services.NewWebhookService(cfg.WebhookURL, cfg.WebhookKeyID, cfg.WebhookSecret, cfg.Currency, cfg.WebhookExternalKeys)
	catalog := services.NewCatalogService(repo)
	cart := services.NewCartService(repo, pricing, attribution, webhook)

	if cfg.CatalogSeedFile != "" {
		n, err := catalog.SeedFromFile(context.Background(), cfg.CatalogSeedFile)
		if err != nil {
			log.Fatalf("Failed to seed catalog from %s: %v", cfg.CatalogSeedFile, err)
		}
		log.Printf("Seeded %d catalog rows from %s", n, cfg.CatalogSeedFile)
	}

	// Initialize Router
	mux := handler.NewRouter(cfg, catalog, cart, pricing, attribution, dmap, repo)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Printf("Server starting on port %s (scope=%s, discounts=%d)", cfg.Port, cfg.AttribScope, dmap.Len())
	if err := server.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}
