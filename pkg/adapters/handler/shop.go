package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/core/services"
	"github.com/cabolabs/cabo-shop/pkg/ports"
)

type ShopHandler struct {
	catalog     ports.CatalogService
	cart        ports.CartService
	pricing     *services.PricingService
	attribution *services.AttributionService
	repo        ports.ShopRepository
}

func NewShopHandler(catalog ports.CatalogService, cart ports.CartService, pricing *services.PricingService, attribution *services.AttributionService, repo ports.ShopRepository) *ShopHandler {
	return &ShopHandler{catalog: catalog, cart: cart, pricing: pricing, attribution: attribution, repo: repo}
}

// eligible builds the per-request eligibility check from whatever
// attribution the middleware attached.
func (h *ShopHandler) eligible(r *http.Request) func(slug string) bool {
	a := AttributionFromContext(r.Context())
	return func(slug string) bool {
		return h.attribution.IsEligible(a, slug)
	}
}

// ListProducts returns the catalog priced for this visitor.
func (h *ShopHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	eligible := h.eligible(r)
	items := make([]domain.PricedLineItem, 0, len(products))
	for _, p := range products {
		items = append(items, h.pricing.PriceOne(domain.CartRow{
			ProductID:      p.ID,
			Slug:           p.Slug,
			Name:           p.Name,
			ImageURL:       p.ImageURL,
			Qty:            1,
			UnitPriceMinor: p.UnitPriceMinor,
		}, eligible))
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"products": items,
	})
}

// GetProduct returns one product priced for this visitor.
func (h *ShopHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	slug := r.PathValue("slug")
	if slug == "" {
		http.Error(w, "Slug missing", http.StatusBadRequest)
		return
	}

	p, err := h.catalog.BySlug(r.Context(), slug)
	if err != nil {
		http.Error(w, "Product not found", http.StatusNotFound)
		return
	}

	item := h.pricing.PriceOne(domain.CartRow{
		ProductID:      p.ID,
		Slug:           p.Slug,
		Name:           p.Name,
		ImageURL:       p.ImageURL,
		Qty:            1,
		UnitPriceMinor: p.UnitPriceMinor,
	}, h.eligible(r))

	json.NewEncoder(w).Encode(item)
}

// AddToCartRequest payload
type AddToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Qty       int   `json:"qty"`
}

func (h *ShopHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Qty == 0 {
		req.Qty = 1
	}

	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.cart.Add(r.Context(), userID, req.ProductID, req.Qty); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// GetCart returns the priced cart for the logged-in user.
func (h *ShopHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	priced, err := h.cart.Priced(r.Context(), userID, AttributionFromContext(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(priced)
}

func (h *ShopHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if err := h.cart.Clear(r.Context(), userID); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout turns the cart into an order and fires the purchase webhook.
func (h *ShopHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	email, _ := UserEmailFromContext(r.Context())

	order, err := h.cart.Checkout(r.Context(), userID, email, AttributionFromContext(r.Context()))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(order)
}

// GetOrder returns a recorded order by its public reference.
func (h *ShopHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ref := r.PathValue("reference")
	order, err := h.repo.GetOrderByReference(r.Context(), ref)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if order == nil {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}

	if userID, ok := UserIDFromContext(r.Context()); !ok || order.UserID != userID {
		http.Error(w, "Order not found", http.StatusNotFound)
		return
	}
	json.NewEncoder(w).Encode(order)
}

// Dashboard serves the merchant view: recent orders and capture counts per
// referral token.
func (h *ShopHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.repo.ListRecentOrders(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	stats, err := h.repo.GetTokenStats(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"recent_orders": orders,
		"token_stats":   stats,
	})
}
