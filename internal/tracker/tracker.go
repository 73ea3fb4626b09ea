// Package tracker owns the position lifecycle: admitting positions from
// signals, applying price updates with auto-close rules, and computing
// advisory exit signals.
package tracker

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/storage"
)

// breakevenBandPct is the +/- band, in percent of entry, inside which a
// manual close counts as breakeven rather than a win or loss.
const breakevenBandPct = 2.0

// Tracker manages tracked positions on top of a storage backend. All time
// reads go through the injected clock. The mutex serializes every
// read-modify-write so concurrent callers cannot race on one position.
type Tracker struct {
	mu     sync.Mutex
	store  storage.Interface
	clock  market.Clock
	logger *log.Logger
}

// New builds a Tracker. A nil logger falls back to the process default.
func New(store storage.Interface, clock market.Clock, logger *log.Logger) *Tracker {
	if logger == nil {
		logger = log.Default()
	}
	return &Tracker{store: store, clock: clock, logger: logger}
}

// AddPosition opens a new active position from a signal. The highest and
// current price both start at the entry price.
func (t *Tracker) AddPosition(sig *models.Signal, contracts int) (*models.Position, error) {
	if contracts <= 0 {
		return nil, fmt.Errorf("contracts must be positive, got %d", contracts)
	}
	now := t.clock.Now()
	pos := &models.Position{
		ID:           uuid.New().String(),
		SignalID:     sig.ID,
		Symbol:       sig.Symbol,
		Strategy:     sig.Strategy,
		Action:       sig.Action,
		Strike:       sig.Contract.Strike,
		Expiration:   sig.Contract.Expiration,
		OptionType:   sig.Contract.OptionType,
		Contracts:    contracts,
		EntryPrice:   sig.EntryPrice,
		CurrentPrice: sig.EntryPrice,
		HighestPrice: sig.EntryPrice,
		TargetPrice:  sig.TargetPrice,
		StopLoss:     sig.StopLoss,
		Status:       models.StatusActive,
		EntryTime:    now,
		LastUpdate:   now,
	}
	if err := t.store.SavePosition(pos); err != nil {
		return nil, fmt.Errorf("saving position: %w", err)
	}
	t.logger.Printf("opened %s %s %s x%d at %.2f (target %.2f, stop %.2f)",
		pos.Strategy, pos.Symbol, pos.Action, contracts, pos.EntryPrice, pos.TargetPrice, pos.StopLoss)
	return pos, nil
}

// UpdatePrice applies a price tick to a position. Terminal positions are
// untouched and returned as-is. Auto-close rules run in priority order:
// profit target first, then stop loss, then expiration. Target and stop
// closes settle at exactly the configured level, not the observed price.
func (t *Tracker) UpdatePrice(id string, price float64) (*models.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, err := t.store.GetPositionByID(id)
	if err != nil {
		return nil, err
	}
	if pos.Status.IsTerminal() {
		return pos, nil
	}
	now := t.clock.Now()
	pos.CurrentPrice = price
	pos.LastUpdate = now
	if price > pos.HighestPrice {
		pos.HighestPrice = price
	}

	switch {
	case price >= pos.TargetPrice:
		return t.settle(pos, models.StatusHitTarget, pos.TargetPrice)
	case price <= pos.StopLoss:
		return t.settle(pos, models.StatusHitStop, pos.StopLoss)
	case pos.IsExpired(now):
		return t.settle(pos, models.StatusExpired, 0)
	}

	if err := t.store.UpdatePosition(pos); err != nil {
		return nil, fmt.Errorf("updating position: %w", err)
	}
	return pos, nil
}

func (t *Tracker) settle(pos *models.Position, status models.PositionStatus, exitPrice float64) (*models.Position, error) {
	now := t.clock.Now()
	if err := pos.Close(status, exitPrice, now); err != nil {
		return nil, err
	}
	if err := t.store.UpdatePosition(pos); err != nil {
		return nil, fmt.Errorf("persisting close: %w", err)
	}
	pnl := pos.ProfitLoss(exitPrice)
	if err := t.store.AddDailyPnL(now.UTC().Format("2006-01-02"), pnl); err != nil {
		return nil, fmt.Errorf("recording daily pnl: %w", err)
	}
	t.logger.Printf("closed %s %s as %s at %.2f, P/L %.2f (%.1f%%)",
		pos.Strategy, pos.Symbol, pos.Status, exitPrice, pnl, pos.ProfitLossPercent(exitPrice))
	return pos, nil
}

// ClosePosition closes a position manually at the supplied price. The
// terminal state depends on where the price lands relative to the
// breakeven band around entry.
func (t *Tracker) ClosePosition(id string, price float64) (*models.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, err := t.store.GetPositionByID(id)
	if err != nil {
		return nil, err
	}
	if pos.Status.IsTerminal() {
		return pos, nil
	}
	pnlPct := pos.ProfitLossPercent(price)
	status := models.StatusBreakeven
	switch {
	case pnlPct >= breakevenBandPct:
		status = models.StatusClosedProfit
	case pnlPct <= -breakevenBandPct:
		status = models.StatusClosedLoss
	}
	return t.settle(pos, status, price)
}

// MoveStopToBreakeven raises the stop to the entry price, once.
func (t *Tracker) MoveStopToBreakeven(id string) (*models.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, err := t.store.GetPositionByID(id)
	if err != nil {
		return nil, err
	}
	if pos.Status.IsTerminal() || pos.BreakevenMoved {
		return pos, nil
	}
	if pos.EntryPrice > pos.StopLoss {
		pos.StopLoss = pos.EntryPrice
	}
	pos.BreakevenMoved = true
	pos.LastUpdate = t.clock.Now()
	if err := t.store.UpdatePosition(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// MarkPartialExit records that part of the position has been scaled out,
// once. The flag keeps the partial-profit rule from firing again on the
// same position.
func (t *Tracker) MarkPartialExit(id string) (*models.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, err := t.store.GetPositionByID(id)
	if err != nil {
		return nil, err
	}
	if pos.Status.IsTerminal() || pos.PartialExitTaken {
		return pos, nil
	}
	pos.PartialExitTaken = true
	pos.LastUpdate = t.clock.Now()
	if err := t.store.UpdatePosition(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// RaiseStop lifts the stop to the given level. A stop never moves down, so
// a level at or below the current stop is a no-op.
func (t *Tracker) RaiseStop(id string, stop float64) (*models.Position, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	pos, err := t.store.GetPositionByID(id)
	if err != nil {
		return nil, err
	}
	if pos.Status.IsTerminal() || stop <= pos.StopLoss {
		return pos, nil
	}
	pos.StopLoss = stop
	pos.LastUpdate = t.clock.Now()
	if err := t.store.UpdatePosition(pos); err != nil {
		return nil, err
	}
	return pos, nil
}

// ActivePositions returns the open positions.
func (t *Tracker) ActivePositions() []models.Position {
	return t.store.GetActivePositions()
}
