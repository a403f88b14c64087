package services

import (
	"net/url"
	"testing"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

const sampleMap = `{
	"product-tshirt": {"code": "A", "discount": "10%"},
	"b": {"code": "B", "discount": "50TRY"},
	"product-shoes": {"external_code": "C", "pct": 0.25},
	"product-hat": {"code": "D", "discount": 15},
	"product-broken": {"code": "E", "discount": "not-a-discount"}
}`

func TestLoadDiscountMap(t *testing.T) {
	m := LoadDiscountMap(sampleMap)
	if m.Len() != 5 {
		t.Fatalf("Len = %d, want 5", m.Len())
	}

	entry, ok := m.Entry("product-tshirt")
	if !ok || entry.Discount == nil || entry.Discount.Kind != domain.SpecPercent || entry.Discount.Value != 10 {
		t.Errorf("product-tshirt entry wrong: %+v", entry)
	}

	// Short keys expand to the canonical slug form.
	entry, ok = m.Entry("product-b")
	if !ok {
		t.Fatal("short key 'b' did not expand to product-b")
	}
	if entry.Discount == nil || entry.Discount.Kind != domain.SpecFixed || entry.Discount.Value != 50 {
		t.Errorf("product-b entry wrong: %+v", entry)
	}

	// Fraction-of-one numbers scale to percent.
	entry, _ = m.Entry("product-shoes")
	if entry.Discount == nil || entry.Discount.Kind != domain.SpecPercent || entry.Discount.Value != 25 {
		t.Errorf("product-shoes entry wrong: %+v", entry)
	}

	// Bare numbers at or above 1 are literal percents.
	entry, _ = m.Entry("product-hat")
	if entry.Discount == nil || entry.Discount.Value != 15 {
		t.Errorf("product-hat entry wrong: %+v", entry)
	}

	// Unparseable discount text degrades to no discount, entry kept.
	entry, ok = m.Entry("product-broken")
	if !ok {
		t.Fatal("entry with broken discount text should still load")
	}
	if entry.Discount != nil {
		t.Errorf("broken discount parsed to %+v, want nil", entry.Discount)
	}
}

func TestLoadDiscountMapTolerantLayers(t *testing.T) {
	// One layer of surrounding quotes.
	quoted := `"` + `{"product-a": {"code": "A", "discount": "10%"}}` + `"`
	if m := LoadDiscountMap(quoted); m.Len() != 1 {
		t.Errorf("quoted blob: Len = %d, want 1", m.Len())
	}

	// URL-encoded blob.
	encoded := url.QueryEscape(`{"product-a": {"code": "A", "discount": "10%"}}`)
	if m := LoadDiscountMap(encoded); m.Len() != 1 {
		t.Errorf("url-encoded blob: Len = %d, want 1", m.Len())
	}

	// Surrounding whitespace.
	if m := LoadDiscountMap("  \n" + sampleMap + "\n "); m.Len() != 5 {
		t.Errorf("whitespace blob: Len = %d, want 5", m.Len())
	}
}

func TestLoadDiscountMapMalformed(t *testing.T) {
	inputs := []string{
		"{not json",
		"[1,2,3]",
		"null",
		"",
		"'single quoted garbage",
	}
	for _, in := range inputs {
		m := LoadDiscountMap(in)
		if m == nil {
			t.Fatalf("LoadDiscountMap(%q) returned nil map", in)
		}
		if m.Len() != 0 {
			t.Errorf("LoadDiscountMap(%q) Len = %d, want 0", in, m.Len())
		}
		if _, ok := m.Entry("product-a"); ok {
			t.Errorf("empty map claims to know product-a")
		}
	}
}

func TestSlugForCode(t *testing.T) {
	m := LoadDiscountMap(sampleMap)
	if got := m.SlugForCode("A"); got != "product-tshirt" {
		t.Errorf("SlugForCode(A) = %q, want product-tshirt", got)
	}
	if got := m.SlugForCode("C"); got != "product-shoes" {
		t.Errorf("SlugForCode(C) = %q, want product-shoes", got)
	}
	if got := m.SlugForCode("nope"); got != "" {
		t.Errorf("SlugForCode(nope) = %q, want empty", got)
	}
}
