package models

import (
	"testing"
	"time"
)

func TestCanTransitionFromActive(t *testing.T) {
	terminals := []PositionStatus{
		StatusHitTarget, StatusHitStop, StatusExpired,
		StatusClosedProfit, StatusClosedLoss, StatusBreakeven,
	}
	for _, to := range terminals {
		if !CanTransition(StatusActive, to) {
			t.Errorf("expected ACTIVE -> %s to be valid", to)
		}
	}
}

func TestTerminalStatesAreAbsorbing(t *testing.T) {
	terminals := []PositionStatus{
		StatusHitTarget, StatusHitStop, StatusExpired,
		StatusClosedProfit, StatusClosedLoss, StatusBreakeven,
	}
	for _, from := range terminals {
		if !from.IsTerminal() {
			t.Errorf("expected %s to be terminal", from)
		}
		for _, to := range append(terminals, StatusActive) {
			if CanTransition(from, to) {
				t.Errorf("expected %s -> %s to be invalid", from, to)
			}
		}
	}
}

func TestCloseRejectsDoubleClose(t *testing.T) {
	now := time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)
	p := &Position{ID: "abc", Status: StatusActive, EntryPrice: 2.0}

	if err := p.Close(StatusHitTarget, 2.6, now); err != nil {
		t.Fatalf("first close failed: %v", err)
	}
	if p.Status != StatusHitTarget {
		t.Errorf("status = %s, want HIT_TARGET", p.Status)
	}
	if p.ExitPrice != 2.6 {
		t.Errorf("exit price = %.2f, want 2.60", p.ExitPrice)
	}
	if err := p.Close(StatusHitStop, 1.0, now); err == nil {
		t.Error("expected second close to fail")
	}
}

func TestProfitLoss(t *testing.T) {
	p := &Position{EntryPrice: 2.50, Contracts: 3}

	if got := p.ProfitLoss(3.00); got != 150.0 {
		t.Errorf("ProfitLoss(3.00) = %.2f, want 150.00", got)
	}
	if got := p.ProfitLossPercent(3.00); got != 20.0 {
		t.Errorf("ProfitLossPercent(3.00) = %.2f, want 20.00", got)
	}
	if got := p.ProfitLoss(2.00); got != -150.0 {
		t.Errorf("ProfitLoss(2.00) = %.2f, want -150.00", got)
	}
}

func TestProfitLossPercentZeroEntry(t *testing.T) {
	p := &Position{EntryPrice: 0, Contracts: 1}
	if got := p.ProfitLossPercent(1.0); got != 0 {
		t.Errorf("expected 0 for zero entry, got %.2f", got)
	}
}

func TestIsExpired(t *testing.T) {
	p := &Position{Expiration: "2026-01-16"}

	before := time.Date(2026, 1, 15, 23, 59, 59, 0, time.UTC)
	if p.IsExpired(before) {
		t.Error("position should not be expired before the expiration date")
	}
	midnight := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	if !p.IsExpired(midnight) {
		t.Error("position should be expired at midnight of the expiration date")
	}
	intraday := time.Date(2026, 1, 16, 15, 0, 0, 0, time.UTC)
	if !p.IsExpired(intraday) {
		t.Error("position should be expired during the expiration day")
	}
}

func TestIsExpiredMalformedDate(t *testing.T) {
	p := &Position{Expiration: "not-a-date"}
	if p.IsExpired(time.Now()) {
		t.Error("malformed expiration must never report expired")
	}
	if p.DaysToExpiration(time.Now()) != -1 {
		t.Error("malformed expiration should report -1 DTE")
	}
}

func TestContractMoneyness(t *testing.T) {
	tests := []struct {
		name       string
		optType    OptionType
		strike     float64
		underlying float64
		want       Moneyness
	}{
		{"call deep ITM", OptionTypeCall, 100, 110, MoneynessITM},
		{"call OTM", OptionTypeCall, 100, 95, MoneynessOTM},
		{"call ATM", OptionTypeCall, 100, 101, MoneynessATM},
		{"put ITM", OptionTypePut, 100, 90, MoneynessITM},
		{"put OTM", OptionTypePut, 100, 110, MoneynessOTM},
		{"put ATM", OptionTypePut, 100, 99, MoneynessATM},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &OptionContract{OptionType: tt.optType, Strike: tt.strike, UnderlyingPrice: tt.underlying}
			if got := c.Moneyness(); got != tt.want {
				t.Errorf("Moneyness() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPricingMark(t *testing.T) {
	p := NewPricing(1.00, 1.10, 1.07)
	if p.Mark != 1.05 {
		t.Errorf("mark = %.4f, want 1.05", p.Mark)
	}
	// One-sided book falls back to last.
	p = NewPricing(0, 1.10, 1.07)
	if p.Mark != 1.07 {
		t.Errorf("mark = %.4f, want last 1.07", p.Mark)
	}
}

func TestOccSymbol(t *testing.T) {
	c := &OptionContract{
		Symbol:     "NVDA",
		Strike:     145,
		Expiration: "2026-01-16",
		OptionType: OptionTypeCall,
	}
	if got := c.OccSymbol(); got != "NVDA260116C00145000" {
		t.Errorf("OccSymbol() = %s", got)
	}
}

func TestSignalRiskRewardRatio(t *testing.T) {
	s := &Signal{EntryPrice: 2.00, TargetPrice: 2.60, StopLoss: 1.70}
	if got := s.RiskRewardRatio(); got < 1.99 || got > 2.01 {
		t.Errorf("RiskRewardRatio() = %.4f, want ~2.0", got)
	}
	s = &Signal{EntryPrice: 2.00, TargetPrice: 2.60, StopLoss: 2.00}
	if got := s.RiskRewardRatio(); got != 0 {
		t.Errorf("zero risk should give ratio 0, got %.4f", got)
	}
}
