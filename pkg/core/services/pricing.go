package services

import (
	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

// PricingService is the single source of truth for "what does this buyer
// pay for this item right now". Product pages, cart totals and order
// recording all route through it; none of those call sites recompute
// prices locally.
type PricingService struct {
	dmap *DiscountMap
}

func NewPricingService(dmap *DiscountMap) *PricingService {
	return &PricingService{dmap: dmap}
}

// PriceCart prices each row and aggregates totals. A slug absent from the
// discount map, or one the eligibility check rejects, keeps its full price.
func (s *PricingService) PriceCart(rows []domain.CartRow, eligible func(slug string) bool) domain.PricedCart {
	out := domain.PricedCart{Items: make([]domain.PricedLineItem, 0, len(rows))}

	for _, row := range rows {
		item := s.priceRow(row, eligible)
		out.Items = append(out.Items, item)
		out.SubtotalMinor += row.UnitPriceMinor * int64(row.Qty)
		out.TotalMinor += item.LineTotalMinor
	}

	out.DiscountMinor = out.SubtotalMinor - out.TotalMinor
	if out.DiscountMinor < 0 {
		out.DiscountMinor = 0
	}
	return out
}

// PriceOne prices a single catalog row through the exact same path as a
// full cart, so detail pages and cart lines can never disagree.
func (s *PricingService) PriceOne(row domain.CartRow, eligible func(slug string) bool) domain.PricedLineItem {
	if row.Qty < 1 {
		row.Qty = 1
	}
	return s.priceRow(row, eligible)
}

func (s *PricingService) priceRow(row domain.CartRow, eligible func(slug string) bool) domain.PricedLineItem {
	item := domain.PricedLineItem{
		ProductID:           row.ProductID,
		Slug:                row.Slug,
		Name:                row.Name,
		ImageURL:            row.ImageURL,
		Qty:                 row.Qty,
		UnitPriceMinor:      row.UnitPriceMinor,
		FinalUnitPriceMinor: row.UnitPriceMinor,
	}

	entry, ok := s.dmap.Entry(row.Slug)
	if ok && entry.Discount != nil && eligible != nil && eligible(row.Slug) {
		item.FinalUnitPriceMinor = entry.Discount.Apply(row.UnitPriceMinor)
		item.DiscountPct = entry.Discount.Pct(row.UnitPriceMinor)
	}

	item.LineTotalMinor = item.FinalUnitPriceMinor * int64(item.Qty)
	return item
}
