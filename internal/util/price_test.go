package util

import (
	"math"
	"testing"
)

func TestRoundToTick(t *testing.T) {
	tests := []struct {
		name     string
		x        float64
		tick     float64
		expected float64
	}{
		{"basic rounding down", 1.2345, 0.01, 1.23},
		{"tie rounds away from zero", 1.235, 0.01, 1.24},
		{"negative tie rounds away from zero", -1.235, 0.01, -1.24},
		{"larger tick size", 1.27, 0.05, 1.25},
		{"exact multiple", 1.25, 0.05, 1.25},
		{"zero tick is passthrough", 1.2345, 0, 1.2345},
		{"negative tick is passthrough", 1.2345, -0.01, 1.2345},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RoundToTick(tt.x, tt.tick)
			if math.Abs(result-tt.expected) > 1e-10 {
				t.Errorf("RoundToTick(%v, %v) = %v, expected %v", tt.x, tt.tick, result, tt.expected)
			}
		})
	}
}

func TestOptionTick(t *testing.T) {
	if got := OptionTick(2.99); got != 0.01 {
		t.Errorf("OptionTick(2.99) = %v, expected 0.01", got)
	}
	if got := OptionTick(3.00); got != 0.05 {
		t.Errorf("OptionTick(3.00) = %v, expected 0.05", got)
	}
}

func TestRoundPremium(t *testing.T) {
	tests := []struct {
		price    float64
		expected float64
	}{
		{1.234, 1.23},
		{2.996, 3.00},
		{3.12, 3.10},
		{4.88, 4.90},
	}
	for _, tt := range tests {
		if got := RoundPremium(tt.price); math.Abs(got-tt.expected) > 1e-10 {
			t.Errorf("RoundPremium(%v) = %v, expected %v", tt.price, got, tt.expected)
		}
	}
}
