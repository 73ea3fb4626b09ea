package tracker

import (
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/storage"
)

var testNow = time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC)

func newTestTracker(clock market.Clock) (*Tracker, *storage.MockStorage) {
	store := storage.NewMockStorage()
	return New(store, clock, log.New(io.Discard, "", 0)), store
}

func testSignal() *models.Signal {
	contract := models.OptionContract{
		Symbol:     "NVDA",
		Strike:     145,
		Expiration: "2026-01-30",
		OptionType: models.OptionTypeCall,
		Pricing:    models.NewPricing(99, 100, 99.5),
	}
	return models.NewSignal(models.StrategySwing, models.ActionBuyCall, contract,
		100, 110, 90, 0.8, "test setup", testNow)
}

func openPosition(t *testing.T, tr *Tracker) *models.Position {
	t.Helper()
	pos, err := tr.AddPosition(testSignal(), 1)
	if err != nil {
		t.Fatalf("AddPosition: %v", err)
	}
	return pos
}

func TestAddPositionInitialState(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	if pos.Status != models.StatusActive {
		t.Errorf("status = %s, want ACTIVE", pos.Status)
	}
	if pos.CurrentPrice != 100 || pos.HighestPrice != 100 {
		t.Errorf("current/highest = %.2f/%.2f, want 100/100", pos.CurrentPrice, pos.HighestPrice)
	}
	if !pos.EntryTime.Equal(testNow) || !pos.LastUpdate.Equal(testNow) {
		t.Error("entry and update times must come from the injected clock")
	}
}

func TestAddPositionCarriesSignalID(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	sig := testSignal()
	pos, err := tr.AddPosition(sig, 1)
	if err != nil {
		t.Fatalf("AddPosition: %v", err)
	}
	if pos.SignalID == "" || pos.SignalID != sig.ID {
		t.Errorf("position signal id = %q, want originating signal %q", pos.SignalID, sig.ID)
	}
}

func TestMarkPartialExitIsSticky(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	if pos.PartialExitTaken {
		t.Fatal("new position must not start scaled out")
	}
	got, err := tr.MarkPartialExit(pos.ID)
	if err != nil {
		t.Fatalf("MarkPartialExit: %v", err)
	}
	if !got.PartialExitTaken {
		t.Error("flag not set after partial exit")
	}
	again, err := tr.MarkPartialExit(pos.ID)
	if err != nil {
		t.Fatalf("second MarkPartialExit: %v", err)
	}
	if !again.PartialExitTaken {
		t.Error("flag must stay set")
	}
}

func TestAddPositionRejectsZeroContracts(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	if _, err := tr.AddPosition(testSignal(), 0); err == nil {
		t.Error("zero contracts must be rejected")
	}
}

func TestUpdatePriceUnknownID(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	_, err := tr.UpdatePrice("ghost", 100)
	if !errors.Is(err, storage.ErrPositionNotFound) {
		t.Errorf("err = %v, want ErrPositionNotFound", err)
	}
}

func TestHighestPriceIsMonotonic(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	for _, tick := range []float64{105, 103, 108, 101, 96} {
		var err error
		pos, err = tr.UpdatePrice(pos.ID, tick)
		if err != nil {
			t.Fatalf("UpdatePrice(%.0f): %v", tick, err)
		}
	}
	if pos.HighestPrice != 108 {
		t.Errorf("highest = %.2f, want 108", pos.HighestPrice)
	}
	if pos.CurrentPrice != 96 {
		t.Errorf("current = %.2f, want 96", pos.CurrentPrice)
	}
}

func TestAutoCloseAtTargetSettlesAtTarget(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	// Price gaps through the 110 target; the close settles at 110 exactly.
	pos, err := tr.UpdatePrice(pos.ID, 115)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if pos.Status != models.StatusHitTarget {
		t.Errorf("status = %s, want HIT_TARGET", pos.Status)
	}
	if pos.ExitPrice != 110 {
		t.Errorf("exit price = %.2f, want exactly 110", pos.ExitPrice)
	}
}

func TestAutoCloseAtStopSettlesAtStop(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	pos, err := tr.UpdatePrice(pos.ID, 85)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if pos.Status != models.StatusHitStop {
		t.Errorf("status = %s, want HIT_STOP", pos.Status)
	}
	if pos.ExitPrice != 90 {
		t.Errorf("exit price = %.2f, want exactly 90", pos.ExitPrice)
	}
}

func TestTargetWinsOverStopOnSameTick(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	sig := testSignal()
	// Degenerate levels where one price satisfies both rules.
	sig.TargetPrice = 100
	sig.StopLoss = 100
	pos, err := tr.AddPosition(sig, 1)
	if err != nil {
		t.Fatalf("AddPosition: %v", err)
	}
	pos, err = tr.UpdatePrice(pos.ID, 100)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if pos.Status != models.StatusHitTarget {
		t.Errorf("status = %s, want HIT_TARGET to win the tie", pos.Status)
	}
}

func TestExpirationClosesAtZero(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: time.Date(2026, 2, 2, 15, 0, 0, 0, time.UTC)})
	store := storage.NewMockStorage()
	tr = New(store, market.FixedClock{T: time.Date(2026, 2, 2, 15, 0, 0, 0, time.UTC)}, log.New(io.Discard, "", 0))

	pos := &models.Position{
		ID: "exp", Symbol: "NVDA", Strategy: models.StrategySwing,
		Expiration: "2026-01-30", Contracts: 1,
		EntryPrice: 100, CurrentPrice: 95, HighestPrice: 100,
		TargetPrice: 110, StopLoss: 90,
		Status: models.StatusActive, EntryTime: testNow,
	}
	if err := store.SavePosition(pos); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := tr.UpdatePrice("exp", 95)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if got.Status != models.StatusExpired {
		t.Errorf("status = %s, want EXPIRED_WORTHLESS", got.Status)
	}
	if got.ExitPrice != 0 {
		t.Errorf("exit price = %.2f, want 0", got.ExitPrice)
	}
	if pct := got.ProfitLossPercent(got.ExitPrice); pct != -100 {
		t.Errorf("pnl%% = %.1f, want -100", pct)
	}
}

func TestExpirationDayClosesIntraday(t *testing.T) {
	// A tick during the expiration day itself closes the position; the
	// contract expires at midnight of the expiration date, not at day end.
	expDay := time.Date(2026, 1, 30, 15, 0, 0, 0, time.UTC)
	tr, store := newTestTracker(market.FixedClock{T: expDay})

	pos := &models.Position{
		ID: "expday", Symbol: "NVDA", Strategy: models.StrategySwing,
		Expiration: "2026-01-30", Contracts: 1,
		EntryPrice: 100, CurrentPrice: 95, HighestPrice: 100,
		TargetPrice: 110, StopLoss: 90,
		Status: models.StatusActive, EntryTime: testNow,
	}
	if err := store.SavePosition(pos); err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := tr.UpdatePrice("expday", 95)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if got.Status != models.StatusExpired {
		t.Errorf("status = %s, want EXPIRED_WORTHLESS", got.Status)
	}
	if got.ExitPrice != 0 {
		t.Errorf("exit price = %.2f, want 0", got.ExitPrice)
	}
}

func TestMalformedExpirationIsTolerated(t *testing.T) {
	tr, store := newTestTracker(market.FixedClock{T: testNow})
	pos := &models.Position{
		ID: "bad", Expiration: "garbage", Contracts: 1,
		EntryPrice: 100, CurrentPrice: 100, HighestPrice: 100,
		TargetPrice: 110, StopLoss: 90,
		Status: models.StatusActive, EntryTime: testNow,
	}
	if err := store.SavePosition(pos); err != nil {
		t.Fatalf("seed: %v", err)
	}
	got, err := tr.UpdatePrice("bad", 100)
	if err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	if got.Status != models.StatusActive {
		t.Errorf("status = %s, want ACTIVE (expiration check skipped)", got.Status)
	}
}

func TestTerminalUpdatesAreIdempotent(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	pos, _ = tr.UpdatePrice(pos.ID, 115)
	if pos.Status != models.StatusHitTarget {
		t.Fatalf("setup: status = %s", pos.Status)
	}
	// Further ticks change nothing.
	again, err := tr.UpdatePrice(pos.ID, 50)
	if err != nil {
		t.Fatalf("UpdatePrice on terminal: %v", err)
	}
	if again.Status != models.StatusHitTarget || again.ExitPrice != 110 || again.CurrentPrice != 110 {
		t.Errorf("terminal position mutated: %+v", again)
	}
}

func TestManualCloseBreakevenBand(t *testing.T) {
	tests := []struct {
		price float64
		want  models.PositionStatus
	}{
		{101.9, models.StatusBreakeven},
		{98.1, models.StatusBreakeven},
		{102.0, models.StatusClosedProfit},
		{97.9, models.StatusClosedLoss},
	}
	for _, tt := range tests {
		tr, _ := newTestTracker(market.FixedClock{T: testNow})
		pos := openPosition(t, tr)
		got, err := tr.ClosePosition(pos.ID, tt.price)
		if err != nil {
			t.Fatalf("ClosePosition(%.1f): %v", tt.price, err)
		}
		if got.Status != tt.want {
			t.Errorf("close at %.1f: status = %s, want %s", tt.price, got.Status, tt.want)
		}
	}
}

func TestCloseRecordsDailyPnL(t *testing.T) {
	tr, store := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	if _, err := tr.UpdatePrice(pos.ID, 115); err != nil {
		t.Fatalf("UpdatePrice: %v", err)
	}
	// (110 - 100) * 100 * 1 = 1000
	if got := store.GetDailyPnL("2026-01-05"); got != 1000 {
		t.Errorf("daily pnl = %.2f, want 1000", got)
	}
}

func TestMoveStopToBreakeven(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	got, err := tr.MoveStopToBreakeven(pos.ID)
	if err != nil {
		t.Fatalf("MoveStopToBreakeven: %v", err)
	}
	if got.StopLoss != 100 || !got.BreakevenMoved {
		t.Errorf("stop = %.2f moved = %v, want 100/true", got.StopLoss, got.BreakevenMoved)
	}
}

func TestRaiseStopNeverLowers(t *testing.T) {
	tr, _ := newTestTracker(market.FixedClock{T: testNow})
	pos := openPosition(t, tr)

	got, err := tr.RaiseStop(pos.ID, 95)
	if err != nil {
		t.Fatalf("RaiseStop: %v", err)
	}
	if got.StopLoss != 95 {
		t.Errorf("stop = %.2f, want 95", got.StopLoss)
	}

	got, err = tr.RaiseStop(pos.ID, 92)
	if err != nil {
		t.Fatalf("RaiseStop: %v", err)
	}
	if got.StopLoss != 95 {
		t.Errorf("stop lowered to %.2f, want 95", got.StopLoss)
	}
}
