package ta

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestRSIShortSeriesNeutral(t *testing.T) {
	if got := RSI([]float64{1, 2, 3}, 14); got != 50.0 {
		t.Errorf("RSI on short series = %.2f, want 50", got)
	}
}

func TestRSIAllGains(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 + float64(i)
	}
	if got := RSI(prices, 14); got != 100.0 {
		t.Errorf("RSI with no losses = %.2f, want 100", got)
	}
}

func TestRSIAllLosses(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 100 - float64(i)
	}
	if got := RSI(prices, 14); got != 0.0 {
		t.Errorf("RSI with no gains = %.2f, want 0", got)
	}
}

func TestRSIMixed(t *testing.T) {
	// Alternating equal gains and losses should sit near 50.
	prices := make([]float64, 30)
	for i := range prices {
		prices[i] = 100 + float64(i%2)
	}
	got := RSI(prices, 14)
	if got < 40 || got > 60 {
		t.Errorf("balanced RSI = %.2f, want near 50", got)
	}
}

func TestMomentum(t *testing.T) {
	prices := []float64{100, 101, 102, 103, 110}
	if got := Momentum(prices, 1); !almostEqual(got, 110.0/103.0-1, 1e-9) {
		t.Errorf("Momentum period 1 = %.6f", got)
	}
	if got := Momentum(prices, 4); !almostEqual(got, 0.10, 1e-9) {
		t.Errorf("Momentum period 4 = %.6f, want 0.10", got)
	}
	if got := Momentum(prices, 10); got != 0 {
		t.Errorf("Momentum on short series = %.6f, want 0", got)
	}
	if got := Momentum([]float64{0, 5}, 1); got != 0 {
		t.Errorf("Momentum with zero reference = %.6f, want 0", got)
	}
}

func TestMACDShortSeries(t *testing.T) {
	line, sig, hist := MACD(make([]float64, 34), 12, 26, 9)
	if line != 0 || sig != 0 || hist != 0 {
		t.Errorf("MACD on 34 bars = (%.4f, %.4f, %.4f), want zeros", line, sig, hist)
	}
}

func TestMACDUptrend(t *testing.T) {
	prices := make([]float64, 60)
	for i := range prices {
		prices[i] = 100 * math.Pow(1.01, float64(i))
	}
	line, sig, hist := MACD(prices, 12, 26, 9)
	if line <= 0 {
		t.Errorf("uptrend MACD line = %.4f, want > 0", line)
	}
	if !almostEqual(hist, line-sig, 1e-9) {
		t.Errorf("histogram %.6f != line-signal %.6f", hist, line-sig)
	}
}

func TestEMAConvergesToConstant(t *testing.T) {
	prices := make([]float64, 50)
	for i := range prices {
		prices[i] = 42.0
	}
	if got := EMA(prices, 12); !almostEqual(got, 42.0, 1e-9) {
		t.Errorf("EMA of constant series = %.4f, want 42", got)
	}
}

func TestSupportResistanceShortSeries(t *testing.T) {
	prices := []float64{100, 101, 102}
	support, resistance := SupportResistance(prices, 20)
	if len(support) != 1 || support[0] != 102 {
		t.Errorf("short-series support = %v, want [102]", support)
	}
	if len(resistance) != 1 || resistance[0] != 102 {
		t.Errorf("short-series resistance = %v, want [102]", resistance)
	}
}

func TestSupportResistanceFindsExtrema(t *testing.T) {
	// Build a series with a clear peak at 120 and trough at 80.
	prices := make([]float64, 0, 90)
	for i := 0; i < 30; i++ {
		prices = append(prices, 100+float64(i)*20/30)
	}
	for i := 0; i < 30; i++ {
		prices = append(prices, 120-float64(i)*40/30)
	}
	for i := 0; i < 30; i++ {
		prices = append(prices, 80+float64(i)*20/30)
	}
	support, resistance := SupportResistance(prices, 10)
	if len(resistance) == 0 || !almostEqual(resistance[0], 120, 1.0) {
		t.Errorf("resistance = %v, want peak near 120", resistance)
	}
	if len(support) == 0 || !almostEqual(support[0], 80, 1.5) {
		t.Errorf("support = %v, want trough near 80", support)
	}
}

func TestIsBreakout(t *testing.T) {
	resistance := []float64{100}
	if !IsBreakout([]float64{99, 101}, resistance) {
		t.Error("prev at/below level and current 1% above should be a breakout")
	}
	if IsBreakout([]float64{101, 102}, resistance) {
		t.Error("already above the level is not a fresh breakout")
	}
	if IsBreakout([]float64{99, 100.3}, resistance) {
		t.Error("clearing by under 0.5% is not a breakout")
	}
	if IsBreakout([]float64{101}, resistance) {
		t.Error("single bar cannot confirm a breakout")
	}
}

func TestIsBreakdown(t *testing.T) {
	support := []float64{100}
	if !IsBreakdown([]float64{101, 99}, support) {
		t.Error("prev at/above level and current 1% below should be a breakdown")
	}
	if IsBreakdown([]float64{99, 98}, support) {
		t.Error("already below the level is not a fresh breakdown")
	}
}

func TestBollinger(t *testing.T) {
	prices := make([]float64, 20)
	for i := range prices {
		prices[i] = 50.0
	}
	mid, up, lo := Bollinger(prices, 20, 2)
	if mid != 50 || up != 50 || lo != 50 {
		t.Errorf("flat series bands = (%.2f, %.2f, %.2f), want all 50", mid, up, lo)
	}
	_, up, lo = Bollinger([]float64{1, 2}, 20, 2)
	if up != 0 || lo != 0 {
		t.Error("short series should return zeros")
	}
}

func TestVWAP(t *testing.T) {
	highs := []float64{11, 12}
	lows := []float64{9, 10}
	closes := []float64{10, 11}
	volumes := []float64{100, 300}
	// typical prices: 10 and 11; weighted (10*100 + 11*300)/400 = 10.75
	if got := VWAP(highs, lows, closes, volumes); !almostEqual(got, 10.75, 1e-9) {
		t.Errorf("VWAP = %.4f, want 10.75", got)
	}
	if got := VWAP(highs, lows, closes, []float64{0, 0}); got != 0 {
		t.Errorf("zero-volume VWAP = %.4f, want 0", got)
	}
}

func TestATR(t *testing.T) {
	highs := []float64{12, 13, 14, 15}
	lows := []float64{10, 11, 12, 13}
	closes := []float64{11, 12, 13, 14}
	got := ATR(highs, lows, closes, 3)
	if !almostEqual(got, 2.0, 1e-9) {
		t.Errorf("ATR = %.4f, want 2.0", got)
	}
	if ATR(highs, lows, closes, 10) != 0 {
		t.Error("short series ATR should be 0")
	}
}

func TestStochastic(t *testing.T) {
	highs := []float64{10, 12, 14}
	lows := []float64{8, 9, 10}
	closes := []float64{9, 11, 14}
	if got := Stochastic(highs, lows, closes, 3); got != 100 {
		t.Errorf("close at range high = %.2f, want 100", got)
	}
	if got := Stochastic(highs, lows, closes, 10); got != 50 {
		t.Errorf("short series stochastic = %.2f, want 50", got)
	}
}

func TestWilliamsR(t *testing.T) {
	highs := []float64{10, 12, 14}
	lows := []float64{8, 9, 10}
	closes := []float64{9, 11, 14}
	if got := WilliamsR(highs, lows, closes, 3); got != 0 {
		t.Errorf("close at range high = %.2f, want 0", got)
	}
	closes[2] = 8
	if got := WilliamsR(highs, lows, closes, 3); got != -100 {
		t.Errorf("close at range low = %.2f, want -100", got)
	}
}
