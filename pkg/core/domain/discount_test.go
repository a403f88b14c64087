package domain

import "testing"

func TestParseDiscountSpec(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *DiscountSpec
	}{
		{"percent", "10%", &DiscountSpec{Kind: SpecPercent, Value: 10}},
		{"percent with space", " 25 %", &DiscountSpec{Kind: SpecPercent, Value: 25}},
		{"percent clamped high", "250%", &DiscountSpec{Kind: SpecPercent, Value: 100}},
		{"percent clamped negative", "-5%", &DiscountSpec{Kind: SpecPercent, Value: 0}},
		{"fixed TRY", "50TRY", &DiscountSpec{Kind: SpecFixed, Value: 50}},
		{"fixed tl lowercase with space", "50 tl", &DiscountSpec{Kind: SpecFixed, Value: 50}},
		{"fixed negative rejected", "-50TRY", nil},
		{"bare number is percent", "15", &DiscountSpec{Kind: SpecPercent, Value: 15}},
		{"garbage", "hello", nil},
		{"empty", "", nil},
		{"whitespace", "   ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDiscountSpec(tt.input)
			if tt.want == nil {
				if got != nil {
					t.Errorf("ParseDiscountSpec(%q) = %+v, want nil", tt.input, got)
				}
				return
			}
			if got == nil {
				t.Fatalf("ParseDiscountSpec(%q) = nil, want %+v", tt.input, tt.want)
			}
			if got.Kind != tt.want.Kind || got.Value != tt.want.Value {
				t.Errorf("ParseDiscountSpec(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestApplyPercentRoundsHalfUp(t *testing.T) {
	spec := &DiscountSpec{Kind: SpecPercent, Value: 10}
	// 22999 * 0.9 = 20699.1 → rounds to 20699
	if got := spec.Apply(22999); got != 20699 {
		t.Errorf("Apply(22999) = %d, want 20699", got)
	}
	// 5 * 0.9 = 4.5 → half-up to 5
	if got := spec.Apply(5); got != 5 {
		t.Errorf("Apply(5) = %d, want 5", got)
	}
}

func TestApplyFixedFloorsAtZero(t *testing.T) {
	spec := &DiscountSpec{Kind: SpecFixed, Value: 150}
	if got := spec.Apply(100); got != 0 {
		t.Errorf("Apply(100) with 150 fixed = %d, want 0", got)
	}
	spec = &DiscountSpec{Kind: SpecFixed, Value: 50}
	if got := spec.Apply(22999); got != 17999 {
		t.Errorf("Apply(22999) with 50 fixed = %d, want 17999", got)
	}
}

func TestApplyNilSpecIsIdentity(t *testing.T) {
	var spec *DiscountSpec
	if got := spec.Apply(12345); got != 12345 {
		t.Errorf("nil spec changed the price: got %d", got)
	}
}

func TestPct(t *testing.T) {
	percent := &DiscountSpec{Kind: SpecPercent, Value: 12.4}
	if got := percent.Pct(10000); got != 12 {
		t.Errorf("Pct = %d, want 12", got)
	}
	fixed := &DiscountSpec{Kind: SpecFixed, Value: 25}
	// 2500 off 10000 is 25%
	if got := fixed.Pct(10000); got != 25 {
		t.Errorf("fixed Pct = %d, want 25", got)
	}
}

func TestNormalizePct(t *testing.T) {
	tests := []struct {
		raw  float64
		want int
	}{
		{0.1, 10},
		{0.5, 50},
		{0.999, 100},
		{1, 1}, // exactly 1 is a literal 1%, not 100%
		{15, 15},
		{150, 100},
		{-3, 0},
	}
	for _, tt := range tests {
		if got := NormalizePct(tt.raw); got != tt.want {
			t.Errorf("NormalizePct(%v) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
