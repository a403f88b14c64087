package services

import (
	"testing"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

func eligibleAll(string) bool  { return true }
func eligibleNone(string) bool { return false }

func testPricing(t *testing.T) *PricingService {
	t.Helper()
	dmap := LoadDiscountMap(`{
		"product-a": {"code": "A", "discount": "10%"},
		"product-b": {"code": "B", "discount": "50TRY"}
	}`)
	if dmap.Len() != 2 {
		t.Fatal("test map failed to load")
	}
	return NewPricingService(dmap)
}

func TestPriceCartAggregation(t *testing.T) {
	svc := testPricing(t)

	rows := []domain.CartRow{
		{ProductID: 1, Slug: "product-a", Name: "A", Qty: 2, UnitPriceMinor: 10000},
		{ProductID: 2, Slug: "product-unmapped", Name: "X", Qty: 1, UnitPriceMinor: 5000},
	}

	cart := svc.PriceCart(rows, eligibleAll)

	if cart.SubtotalMinor != 25000 {
		t.Errorf("SubtotalMinor = %d, want 25000", cart.SubtotalMinor)
	}
	if cart.TotalMinor != 23000 {
		t.Errorf("TotalMinor = %d, want 23000", cart.TotalMinor)
	}
	if cart.DiscountMinor != 2000 {
		t.Errorf("DiscountMinor = %d, want 2000", cart.DiscountMinor)
	}

	a := cart.Items[0]
	if a.DiscountPct != 10 || a.FinalUnitPriceMinor != 9000 || a.LineTotalMinor != 18000 {
		t.Errorf("discounted line wrong: %+v", a)
	}
	// A slug absent from the map keeps full price even when eligible.
	x := cart.Items[1]
	if x.DiscountPct != 0 || x.FinalUnitPriceMinor != 5000 || x.LineTotalMinor != 5000 {
		t.Errorf("unmapped line wrong: %+v", x)
	}
}

func TestPriceCartIneligible(t *testing.T) {
	svc := testPricing(t)
	rows := []domain.CartRow{
		{ProductID: 1, Slug: "product-a", Qty: 3, UnitPriceMinor: 10000},
	}

	cart := svc.PriceCart(rows, eligibleNone)
	if cart.DiscountMinor != 0 || cart.TotalMinor != 30000 {
		t.Errorf("ineligible cart got a discount: %+v", cart)
	}
}

func TestPriceCartFixedDiscount(t *testing.T) {
	svc := testPricing(t)
	rows := []domain.CartRow{
		{ProductID: 2, Slug: "product-b", Qty: 1, UnitPriceMinor: 20000},
	}

	cart := svc.PriceCart(rows, eligibleAll)
	// 50 TRY = 5000 minor units off
	if got := cart.Items[0].FinalUnitPriceMinor; got != 15000 {
		t.Errorf("FinalUnitPriceMinor = %d, want 15000", got)
	}
	if got := cart.Items[0].DiscountPct; got != 25 {
		t.Errorf("DiscountPct = %d, want 25", got)
	}
}

// The product page and the cart must agree: PriceOne routes through the
// same computation as a full cart.
func TestPriceOneMatchesCartLine(t *testing.T) {
	svc := testPricing(t)
	row := domain.CartRow{ProductID: 1, Slug: "product-a", Qty: 1, UnitPriceMinor: 22999}

	one := svc.PriceOne(row, eligibleAll)
	cart := svc.PriceCart([]domain.CartRow{row}, eligibleAll)

	if one != cart.Items[0] {
		t.Errorf("PriceOne = %+v, cart line = %+v", one, cart.Items[0])
	}
	if one.FinalUnitPriceMinor != 20699 {
		t.Errorf("FinalUnitPriceMinor = %d, want 20699", one.FinalUnitPriceMinor)
	}
}

// Many lines of the same product must not drift from one line of the
// summed quantity: rounding happens once per unit price, not per line.
func TestPriceCartNoCentDrift(t *testing.T) {
	svc := testPricing(t)

	var many []domain.CartRow
	for i := 0; i < 7; i++ {
		many = append(many, domain.CartRow{ProductID: 1, Slug: "product-a", Qty: 1, UnitPriceMinor: 22999})
	}
	one := []domain.CartRow{{ProductID: 1, Slug: "product-a", Qty: 7, UnitPriceMinor: 22999}}

	if a, b := svc.PriceCart(many, eligibleAll).TotalMinor, svc.PriceCart(one, eligibleAll).TotalMinor; a != b {
		t.Errorf("totals drift: 7x1 = %d, 1x7 = %d", a, b)
	}
}

func TestPriceCartEmpty(t *testing.T) {
	svc := testPricing(t)
	cart := svc.PriceCart(nil, eligibleAll)
	if cart.SubtotalMinor != 0 || cart.TotalMinor != 0 || cart.DiscountMinor != 0 {
		t.Errorf("empty cart totals wrong: %+v", cart)
	}
	if len(cart.Items) != 0 {
		t.Errorf("empty cart has items: %+v", cart.Items)
	}
}
