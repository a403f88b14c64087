package domain

import "time"

// Product is a catalog row. Prices are integer minor units (kuruş).
type Product struct {
	ID             int64     `json:"id"`
	Slug           string    `json:"slug"`
	Name           string    `json:"name"`
	ImageURL       string    `json:"image_url"`
	UnitPriceMinor int64     `json:"unit_price_minor"`
	ExternalCode   string    `json:"external_code,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// User is a shop customer account.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// CartItem is one product+quantity in a user's cart.
type CartItem struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	ProductID int64     `json:"product_id"`
	Qty       int       `json:"qty"`
	CreatedAt time.Time `json:"created_at"`
	Product   *Product  `json:"product,omitempty"`
}

// CartRow is the pricing engine's input: the slice of a cart (or a single
// catalog row) it needs to price, decoupled from storage.
type CartRow struct {
	ProductID      int64
	Slug           string
	Name           string
	ImageURL       string
	Qty            int
	UnitPriceMinor int64
}

// PricedLineItem is one priced row of output. Invariants:
// FinalUnitPriceMinor <= UnitPriceMinor and
// LineTotalMinor == FinalUnitPriceMinor * Qty.
type PricedLineItem struct {
	ProductID           int64  `json:"product_id"`
	Slug                string `json:"slug"`
	Name                string `json:"name"`
	ImageURL            string `json:"image_url"`
	Qty                 int    `json:"qty"`
	UnitPriceMinor      int64  `json:"unit_price_minor"`
	DiscountPct         int    `json:"discount_pct"`
	FinalUnitPriceMinor int64  `json:"final_unit_price_minor"`
	LineTotalMinor      int64  `json:"line_total_minor"`
}

// PricedCart is the engine's full output: the priced items plus aggregate
// totals. DiscountMinor is always Subtotal - Total, floored at zero.
type PricedCart struct {
	Items         []PricedLineItem `json:"items"`
	SubtotalMinor int64            `json:"subtotal_minor"`
	DiscountMinor int64            `json:"discount_minor"`
	TotalMinor    int64            `json:"total_minor"`
}

// Order is a completed checkout.
type Order struct {
	ID            int64       `json:"id"`
	Reference     string      `json:"reference"` // public uuid, safe to expose
	UserID        int64       `json:"user_id"`
	SubtotalMinor int64       `json:"subtotal_minor"`
	DiscountMinor int64       `json:"discount_minor"`
	TotalMinor    int64       `json:"total_minor"`
	ReferralToken string      `json:"referral_token,omitempty"`
	ReferralLink  string      `json:"referral_link,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	Items         []OrderItem `json:"items,omitempty"`
}

// OrderItem snapshots a priced line at checkout time so later price or
// discount changes never rewrite history.
type OrderItem struct {
	ID                  int64  `json:"id"`
	OrderID             int64  `json:"order_id"`
	ProductID           int64  `json:"product_id"`
	Slug                string `json:"slug"`
	Name                string `json:"name"`
	Qty                 int    `json:"qty"`
	UnitPriceMinor      int64  `json:"unit_price_minor"`
	DiscountPct         int    `json:"discount_pct"`
	FinalUnitPriceMinor int64  `json:"final_unit_price_minor"`
}
