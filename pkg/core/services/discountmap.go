package services

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/cabolabs/cabo-shop/pkg/core/domain"
)

// DiscountMapEntry is the per-product configuration: the partner system's
// product code plus the discount to apply when attribution is eligible.
type DiscountMapEntry struct {
	Slug         string
	ExternalCode string
	Discount     *domain.DiscountSpec
}

// DiscountMap holds the slug → entry mapping parsed once at startup. It is
// read-only after construction, so concurrent request handlers share it
// without locking.
type DiscountMap struct {
	entries map[string]DiscountMapEntry
	byCode  map[string]string // external code → slug
}

// rawEntry covers the shapes the config has accumulated over time: the
// discount as "10%", "50TRY", a bare number, or a fraction; the code under
// either key.
type rawEntry struct {
	Code         string          `json:"code"`
	ExternalCode string          `json:"external_code"`
	Discount     json.RawMessage `json:"discount"`
	Pct          json.RawMessage `json:"pct"`
}

// LoadDiscountMap parses the configured JSON blob. Config systems have
// historically double-quoted and URL-encoded this value, so parsing peels
// those layers first. Anything unusable degrades to an empty map; a broken
// discount map must never take down product listing.
func LoadDiscountMap(raw string) *DiscountMap {
	m := &DiscountMap{
		entries: make(map[string]DiscountMapEntry),
		byCode:  make(map[string]string),
	}

	s := strings.TrimSpace(raw)
	s = trimOneQuoteLayer(s)

	// Some config stores hand us the blob percent-encoded. Prefer the
	// decoded form when it decodes to valid JSON.
	if decoded, err := url.QueryUnescape(s); err == nil && decoded != s && json.Valid([]byte(decoded)) {
		s = decoded
	}

	if s == "" {
		return m
	}

	var parsed map[string]rawEntry
	if err := json.Unmarshal([]byte(s), &parsed); err != nil {
		return m
	}

	for key, re := range parsed {
		slug := normalizeSlug(key)
		entry := DiscountMapEntry{
			Slug:         slug,
			ExternalCode: re.ExternalCode,
			Discount:     parseRawDiscount(re.Discount),
		}
		if entry.ExternalCode == "" {
			entry.ExternalCode = re.Code
		}
		if entry.Discount == nil {
			entry.Discount = parseRawDiscount(re.Pct)
		}
		m.entries[slug] = entry
		if entry.ExternalCode != "" {
			m.byCode[entry.ExternalCode] = slug
		}
	}
	return m
}

// parseRawDiscount accepts a JSON string ("10%", "50TRY") or a JSON number
// (15 → 15%, 0.1 → 10%).
func parseRawDiscount(raw json.RawMessage) *domain.DiscountSpec {
	if len(raw) == 0 {
		return nil
	}
	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		return domain.ParseDiscountSpec(asString)
	}
	var asNumber float64
	if err := json.Unmarshal(raw, &asNumber); err == nil {
		pct := domain.NormalizePct(asNumber)
		if pct <= 0 {
			return nil
		}
		return &domain.DiscountSpec{Kind: domain.SpecPercent, Value: float64(pct)}
	}
	return nil
}

// normalizeSlug expands short letter/code keys ("a") to the canonical
// product slug form ("product-a"). Keys that already look like full slugs
// pass through.
func normalizeSlug(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, "-") {
		return key
	}
	return fmt.Sprintf("product-%s", key)
}

// trimOneQuoteLayer removes a single layer of matching surrounding quotes,
// which some deployment tooling adds around the whole JSON value.
func trimOneQuoteLayer(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Entry looks up a slug; ok is false for slugs the map doesn't know.
func (m *DiscountMap) Entry(slug string) (DiscountMapEntry, bool) {
	e, ok := m.entries[slug]
	return e, ok
}

// SlugForCode reverses an external product code to its slug, used when a
// referral URL identifies the landing product by partner code.
func (m *DiscountMap) SlugForCode(code string) string {
	return m.byCode[code]
}

// Len reports how many products carry discount config.
func (m *DiscountMap) Len() int { return len(m.entries) }

// Slugs lists the configured slugs, handy for the admin CLI.
func (m *DiscountMap) Slugs() []string {
	out := make([]string, 0, len(m.entries))
	for slug := range m.entries {
		out = append(out, slug)
	}
	return out
}
