package storage

import (
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/tradefly/optionsignals/internal/models"
)

func tempStorage(t *testing.T) (*JSONStorage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "engine.json")
	s, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("NewJSONStorage: %v", err)
	}
	return s, path
}

func samplePosition(id string) *models.Position {
	return &models.Position{
		ID:         id,
		Symbol:     "NVDA",
		Strategy:   models.StrategyScalping,
		Action:     models.ActionBuyCall,
		Strike:     145,
		Expiration: "2026-01-16",
		OptionType: models.OptionTypeCall,
		Contracts:  2,
		EntryPrice: 2.40, CurrentPrice: 2.40, HighestPrice: 2.40,
		TargetPrice: 2.76, StopLoss: 2.28,
		Status:    models.StatusActive,
		EntryTime: time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC),
	}
}

func TestSaveAndReloadPosition(t *testing.T) {
	s, path := tempStorage(t)
	if err := s.SavePosition(samplePosition("p1")); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}

	// A fresh instance must see the persisted state.
	reloaded, err := NewJSONStorage(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, err := reloaded.GetPositionByID("p1")
	if err != nil {
		t.Fatalf("GetPositionByID: %v", err)
	}
	if got.Symbol != "NVDA" || got.EntryPrice != 2.40 {
		t.Errorf("reloaded position = %+v", got)
	}
}

func TestSavePositionRejectsDuplicate(t *testing.T) {
	s, _ := tempStorage(t)
	if err := s.SavePosition(samplePosition("p1")); err != nil {
		t.Fatalf("SavePosition: %v", err)
	}
	err := s.SavePosition(samplePosition("p1"))
	if !errors.Is(err, ErrDuplicatePosition) {
		t.Errorf("err = %v, want ErrDuplicatePosition", err)
	}
}

func TestUpdateMissingPosition(t *testing.T) {
	s, _ := tempStorage(t)
	err := s.UpdatePosition(samplePosition("ghost"))
	if !errors.Is(err, ErrPositionNotFound) {
		t.Errorf("err = %v, want ErrPositionNotFound", err)
	}
}

func TestActiveAndClosedPartition(t *testing.T) {
	s, _ := tempStorage(t)
	active := samplePosition("a")
	closed := samplePosition("c")
	now := time.Now()
	if err := closed.Close(models.StatusHitTarget, 2.76, now); err != nil {
		t.Fatalf("close: %v", err)
	}
	_ = s.SavePosition(active)
	_ = s.SavePosition(closed)

	if got := s.GetActivePositions(); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("active = %v", got)
	}
	if got := s.GetClosedPositions(); len(got) != 1 || got[0].ID != "c" {
		t.Errorf("closed = %v", got)
	}
}

func TestDailyPnLAccumulates(t *testing.T) {
	s, _ := tempStorage(t)
	_ = s.AddDailyPnL("2026-01-05", 120)
	_ = s.AddDailyPnL("2026-01-05", -50)
	if got := s.GetDailyPnL("2026-01-05"); got != 70 {
		t.Errorf("daily pnl = %.2f, want 70", got)
	}
	if got := s.GetDailyPnL("2026-01-06"); got != 0 {
		t.Errorf("missing date pnl = %.2f, want 0", got)
	}
}

func TestRecentSignalsLimit(t *testing.T) {
	s, _ := tempStorage(t)
	for i := 0; i < 5; i++ {
		sig := models.NewSignal(models.StrategySwing, models.ActionBuyCall,
			models.OptionContract{Symbol: "AMD"}, 3.0, 3.9, 2.55, 0.8, "test", time.Now())
		if err := s.RecordSignal(sig); err != nil {
			t.Fatalf("RecordSignal: %v", err)
		}
	}
	if got := s.GetRecentSignals(3); len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
	if got := s.GetRecentSignals(0); len(got) != 5 {
		t.Errorf("limit 0 should return everything, got %d", len(got))
	}
}

func TestGetStatistics(t *testing.T) {
	s, _ := tempStorage(t)
	now := time.Now()

	win := samplePosition("w")
	_ = win.Close(models.StatusHitTarget, 2.90, now) // +0.50 * 100 * 2 = +100
	loss := samplePosition("l")
	_ = loss.Close(models.StatusHitStop, 2.28, now) // -0.12 * 100 * 2 = -24
	open := samplePosition("o")

	_ = s.SavePosition(win)
	_ = s.SavePosition(loss)
	_ = s.SavePosition(open)

	stats := s.GetStatistics()
	if stats.TotalTrades != 2 {
		t.Errorf("total trades = %d, want 2 (open positions excluded)", stats.TotalTrades)
	}
	if stats.WinningTrades != 1 || stats.LosingTrades != 1 {
		t.Errorf("wins/losses = %d/%d, want 1/1", stats.WinningTrades, stats.LosingTrades)
	}
	if stats.WinRate != 50 {
		t.Errorf("win rate = %.1f, want 50", stats.WinRate)
	}
	if ss := stats.ByStrategy[models.StrategyScalping]; ss.Trades != 2 || ss.Wins != 1 {
		t.Errorf("scalping stats = %+v", ss)
	}
	if math.Abs(stats.ProfitFactor-100.0/24.0) > 1e-9 {
		t.Errorf("profit factor = %.4f, want %.4f", stats.ProfitFactor, 100.0/24.0)
	}
}
