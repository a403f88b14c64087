package handler

import (
	"encoding/json"
	"net/http"

	"github.com/cabolabs/cabo-shop/pkg/config"
	"github.com/cabolabs/cabo-shop/pkg/core/services"
	"github.com/cabolabs/cabo-shop/pkg/ports"
)

// NewRouter creates and configures the main application router. The
// attribution middleware wraps the whole mux so referral parameters are
// captured before any routing happens.
func NewRouter(
	cfg *config.Config,
	catalog ports.CatalogService,
	cart ports.CartService,
	pricing *services.PricingService,
	attribution *services.AttributionService,
	dmap *services.DiscountMap,
	repo ports.ShopRepository,
) http.Handler {
	// Initialize Handlers
	sh := NewShopHandler(catalog, cart, pricing, attribution, repo)
	authHandler := NewAuthHandler(cfg, repo)

	// Initialize Middleware
	mw := NewMiddleware(cfg)
	attribMW := NewAttributionMiddleware(attribution, dmap, repo, cfg.IsProduction())

	// Setup Router
	mux := http.NewServeMux()

	// Public Routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.HandleFunc("GET /api/v1/products", sh.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{slug}", sh.GetProduct)

	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.HandleFunc("GET /auth/google/login", authHandler.GoogleLogin)
	mux.HandleFunc("GET /auth/google/callback", authHandler.GoogleCallback)

	// Customer Routes (session required)
	customerMux := http.NewServeMux()
	customerMux.HandleFunc("POST /api/v1/cart", sh.AddToCart)
	customerMux.HandleFunc("GET /api/v1/cart", sh.GetCart)
	customerMux.HandleFunc("DELETE /api/v1/cart", sh.ClearCart)
	customerMux.HandleFunc("POST /api/v1/checkout", sh.Checkout)
	customerMux.HandleFunc("GET /api/v1/orders/{reference}", sh.GetOrder)

	mux.Handle("/api/v1/cart", mw.SessionMiddleware(customerMux))
	mux.Handle("/api/v1/checkout", mw.SessionMiddleware(customerMux))
	mux.Handle("/api/v1/orders/", mw.SessionMiddleware(customerMux))

	// Merchant Routes (Google sign-in required)
	adminMux := http.NewServeMux()
	adminMux.HandleFunc("GET /api/v1/dashboard", sh.Dashboard)
	mux.Handle("/api/v1/dashboard", mw.AdminMiddleware(adminMux))

	return attribMW.Wrap(mux)
}
