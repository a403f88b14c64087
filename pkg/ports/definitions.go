package ports

import (
	"context"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

// ShopRepository defines storage operations for the shop
type ShopRepository interface {
	// Catalog
	CreateProduct(ctx context.Context, p *domain.Product) error
	UpsertProductBySlug(ctx context.Context, p *domain.Product) error
	GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	GetProductByID(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// Users
	CreateUser(ctx context.Context, u *domain.User) error
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)

	// Cart
	AddCartItem(ctx context.Context, userID, productID int64, qty int) error
	GetCartItems(ctx context.Context, userID int64) ([]domain.CartItem, error)
	ClearCart(ctx context.Context, userID int64) error

	// Orders
	CreateOrder(ctx context.Context, o *domain.Order) error
	GetOrderByReference(ctx context.Context, ref string) (*domain.Order, error)
	ListRecentOrders(ctx context.Context, limit int) ([]domain.Order, error)

	// Referral stats
	RecordReferralVisit(ctx context.Context, v *domain.ReferralVisit) error
	GetTokenStats(ctx context.Context, limit int) ([]domain.TokenStats, error)
}

// CatalogService defines read access to priced products
type CatalogService interface {
	List(ctx context.Context) ([]domain.Product, error)
	BySlug(ctx context.Context, slug string) (*domain.Product, error)
	SeedFromFile(ctx context.Context, path string) (int, error)
}

// CartService defines the business logic around carts and checkout
type CartService interface {
	Add(ctx context.Context, userID, productID int64, qty int) error
	Priced(ctx context.Context, userID int64, attribution *domain.ReferralAttribution) (domain.PricedCart, error)
	Clear(ctx context.Context, userID int64) error
	Checkout(ctx context.Context, userID int64, email string, attribution *domain.ReferralAttribution) (*domain.Order, error)
}
