package handler

import (
	"net/http"

	"github.com/cabolabs/cabo-shop/pkg/adapters/handler"
	"github.com/cabolabs/cabo-shop/pkg/adapters/repository/sqlite"
	"github.com/cabolabs/cabo-shop/pkg/config"
	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/core/services"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	// Note: On Vercel, db.sqlite is ephemeral unless using a remote SQL/Turso URL in DATABASE_URL
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		// Log but don't fatal, let internal error happen on request if crucial
		panic(err)
	}

	dmap := services.LoadDiscountMap(cfg.DiscountMapRaw)
	attribution := services.NewAttributionService(cfg.SigningSecret, domain.ParseScope(cfg.AttribScope), cfg.AttribTTLDays, cfg.RequireConsent)
	pricing := services.NewPricingService(dmap)
	webhook := services.NewWebhookService(cfg.WebhookURL, cfg.WebhookKeyID, cfg.WebhookSecret, cfg.Currency, cfg.WebhookExternalKeys)
	catalog := services.NewCatalogService(repo)
	cart := services.NewCartService(repo, pricing, attribution, webhook)

	mux = handler.NewRouter(cfg, catalog, cart, pricing, attribution, dmap, repo)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
