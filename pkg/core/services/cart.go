package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
	"github.com/cabolabs/cabo-shop/pkg/ports"
)

// CartService handles carts and checkout. All prices flow through the
// pricing service so the cart view, the order and the webhook agree to the
// minor unit.
type CartService struct {
	repo        ports.ShopRepository
	pricing     *PricingService
	attribution *AttributionService
	webhook     *WebhookService
}

func NewCartService(repo ports.ShopRepository, pricing *PricingService, attribution *AttributionService, webhook *WebhookService) *CartService {
	return &CartService{repo: repo, pricing: pricing, attribution: attribution, webhook: webhook}
}

func (s *CartService) Add(ctx context.Context, userID, productID int64, qty int) error {
	if qty <= 0 {
		return errors.New("qty must be > 0")
	}
	p, err := s.repo.GetProductByID(ctx, productID)
	if err != nil {
		return err
	}
	if p == nil {
		return errors.New("product not found")
	}
	return s.repo.AddCartItem(ctx, userID, productID, qty)
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.repo.ClearCart(ctx, userID)
}

// Priced loads the user's cart and prices it under the given attribution.
func (s *CartService) Priced(ctx context.Context, userID int64, attribution *domain.ReferralAttribution) (domain.PricedCart, error) {
	rows, err := s.cartRows(ctx, userID)
	if err != nil {
		return domain.PricedCart{}, err
	}
	return s.pricing.PriceCart(rows, s.eligibleFn(attribution)), nil
}

// Checkout prices the cart one final time, records the order with its
// priced lines, clears the cart and fires the purchase webhook. The webhook
// is best-effort; the order stands whether or not the partner answers.
func (s *CartService) Checkout(ctx context.Context, userID int64, email string, attribution *domain.ReferralAttribution) (*domain.Order, error) {
	rows, err := s.cartRows(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("cart is empty")
	}

	priced := s.pricing.PriceCart(rows, s.eligibleFn(attribution))

	order := &domain.Order{
		Reference:     uuid.NewString(),
		UserID:        userID,
		SubtotalMinor: priced.SubtotalMinor,
		DiscountMinor: priced.DiscountMinor,
		TotalMinor:    priced.TotalMinor,
		CreatedAt:     time.Now(),
	}
	if attribution != nil {
		order.ReferralToken = attribution.Token
		order.ReferralLink = attribution.LinkID
	}
	for _, it := range priced.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:           it.ProductID,
			Slug:                it.Slug,
			Name:                it.Name,
			Qty:                 it.Qty,
			UnitPriceMinor:      it.UnitPriceMinor,
			DiscountPct:         it.DiscountPct,
			FinalUnitPriceMinor: it.FinalUnitPriceMinor,
		})
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	_ = s.repo.ClearCart(ctx, userID)

	if s.webhook != nil {
		s.webhook.NotifyPurchase(*order, email, s.externalCode)
	}

	return order, nil
}

func (s *CartService) cartRows(ctx context.Context, userID int64) ([]domain.CartRow, error) {
	items, err := s.repo.GetCartItems(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows := make([]domain.CartRow, 0, len(items))
	for _, it := range items {
		if it.Product == nil {
			continue
		}
		rows = append(rows, domain.CartRow{
			ProductID:      it.ProductID,
			Slug:           it.Product.Slug,
			Name:           it.Product.Name,
			ImageURL:       it.Product.ImageURL,
			Qty:            it.Qty,
			UnitPriceMinor: it.Product.UnitPriceMinor,
		})
	}
	return rows, nil
}

func (s *CartService) eligibleFn(attribution *domain.ReferralAttribution) func(slug string) bool {
	return func(slug string) bool {
		return s.attribution.IsEligible(attribution, slug)
	}
}

// externalCode resolves the webhook item key when the deployment posts
// partner codes instead of internal ids. The discount map is authoritative;
// the catalog row's own code is the fallback.
func (s *CartService) externalCode(productID int64, slug string) string {
	if entry, ok := s.pricing.dmap.Entry(slug); ok && entry.ExternalCode != "" {
		return entry.ExternalCode
	}
	p, err := s.repo.GetProductByID(context.Background(), productID)
	if err != nil || p == nil {
		return ""
	}
	return p.ExternalCode
}
