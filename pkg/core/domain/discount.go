package domain

import (
	"math"
	"strconv"
	"strings"
)

// SpecKind tags the two supported discount strategies.
type SpecKind string

const (
	SpecPercent SpecKind = "percent"
	SpecFixed   SpecKind = "fixed"
)

// DiscountSpec is a normalized discount: either a percentage of the unit
// price or a fixed amount expressed in major currency units.
type DiscountSpec struct {
	Kind  SpecKind `json:"kind"`
	Value float64  `json:"value"`
}

// currency words accepted as a trailing suffix on fixed-amount specs.
var currencySuffixes = []string{"try", "tl", "₺", "trl"}

// ParseDiscountSpec turns free-text config values like "10%", "50TRY",
// "50 tl" or a bare number (treated as percent) into a DiscountSpec.
// Unparseable input returns nil, which callers must treat as "no discount"
// rather than zero percent.
func ParseDiscountSpec(text string) *DiscountSpec {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}

	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSpace(strings.TrimSuffix(s, "%")), 64)
		if err != nil {
			return nil
		}
		return &DiscountSpec{Kind: SpecPercent, Value: clampPct(v)}
	}

	lower := strings.ToLower(s)
	for _, suffix := range currencySuffixes {
		if strings.HasSuffix(lower, suffix) {
			num := strings.TrimSpace(s[:len(s)-len(suffix)])
			v, err := strconv.ParseFloat(num, 64)
			if err != nil {
				return nil
			}
			if v < 0 {
				// Negative fixed amounts are rejected outright, not clamped.
				return nil
			}
			return &DiscountSpec{Kind: SpecFixed, Value: v}
		}
	}

	// Bare number: percent by convention of the config format.
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &DiscountSpec{Kind: SpecPercent, Value: clampPct(v)}
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FixedMinor converts a fixed-amount spec's major-unit value into minor
// units (×100), rounded half-up.
func (s *DiscountSpec) FixedMinor() int64 {
	return int64(math.Round(s.Value * 100))
}

// Apply computes the discounted unit price in minor units. Percent specs
// round half-up in a single step using basis-point integer math so repeated
// lines of the same product never drift by a cent. Fixed specs subtract and
// floor at zero. A nil spec returns the input unchanged.
func (s *DiscountSpec) Apply(unitMinor int64) int64 {
	if s == nil || unitMinor <= 0 {
		if unitMinor < 0 {
			return 0
		}
		return unitMinor
	}

	switch s.Kind {
	case SpecPercent:
		bp := int64(math.Round(s.Value * 100)) // percent → basis points
		if bp <= 0 {
			return unitMinor
		}
		if bp >= 10000 {
			return 0
		}
		return (unitMinor*(10000-bp) + 5000) / 10000
	case SpecFixed:
		out := unitMinor - s.FixedMinor()
		if out < 0 {
			return 0
		}
		return out
	}
	return unitMinor
}

// Pct reports the spec as an integer percent 0..100 for display. Fixed
// specs need the unit price to express an effective percentage.
func (s *DiscountSpec) Pct(unitMinor int64) int {
	if s == nil || unitMinor <= 0 {
		return 0
	}
	switch s.Kind {
	case SpecPercent:
		return int(math.Round(s.Value))
	case SpecFixed:
		final := s.Apply(unitMinor)
		return int(math.Round(float64(unitMinor-final) / float64(unitMinor) * 100))
	}
	return 0
}

// NormalizePct maps a raw numeric config value onto an integer percent.
// Values strictly below 1 are fractions-of-one (0.1 → 10%); 1 and above are
// literal percents, so exactly 1 means 1%, not 100%.
func NormalizePct(raw float64) int {
	if raw < 0 {
		return 0
	}
	if raw < 1 {
		raw *= 100
	}
	if raw > 100 {
		raw = 100
	}
	return int(math.Round(raw))
}
