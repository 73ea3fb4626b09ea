package main

import (
	"context"
	"fmt"

	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/util"
)

// runCycle performs one full pass: refresh open positions, scan the
// watchlist, and act on whatever survives the quality filter.
func (e *Engine) runCycle(ctx context.Context) {
	now := e.clock.Now()
	if !e.calendar.IsMarketOpen(now) {
		e.logger.Printf("Market closed (%s), skipping cycle", e.calendar.SessionAt(now))
		return
	}

	e.refreshPositions(ctx)

	signals, err := e.scanner.Scan(ctx)
	if err != nil {
		e.logger.Printf("Scan failed: %v", err)
		return
	}
	for i := range signals {
		sig := &signals[i]
		if err := e.store.RecordSignal(sig); err != nil {
			e.logger.Printf("Recording signal %s: %v", sig.ID, err)
		}
		e.logger.Printf("Signal %s %s %s conf=%.2f entry=%.2f target=%.2f stop=%.2f (%s)",
			sig.Strategy, sig.Action, sig.Contract.OccSymbol(), sig.Confidence,
			sig.EntryPrice, sig.TargetPrice, sig.StopLoss, sig.Reason)
		if e.cfg.Engine.AutoTrade {
			e.executeSignal(sig)
		}
	}
	if len(signals) == 0 {
		e.logger.Println("No signals this cycle")
	}
}

// refreshPositions marks every open position to the latest chain price and
// applies stop management.
func (e *Engine) refreshPositions(ctx context.Context) {
	for _, pos := range e.tracker.ActivePositions() {
		price, err := e.currentContractPrice(ctx, &pos)
		if err != nil {
			e.logger.Printf("Price refresh %s: %v", pos.ID, err)
			continue
		}
		updated, err := e.tracker.UpdatePrice(pos.ID, price)
		if err != nil {
			e.logger.Printf("Updating position %s: %v", pos.ID, err)
			continue
		}
		if updated.Status.IsTerminal() {
			continue
		}
		e.managePosition(updated, price)
	}
}

// managePosition acts on the tracker's advisory exit signals and the hard
// exit rules for one open position.
func (e *Engine) managePosition(pos *models.Position, price float64) {
	if exit, reason := e.risk.ShouldExit(pos, e.clock.Now()); exit {
		if _, err := e.tracker.ClosePosition(pos.ID, price); err != nil {
			e.logger.Printf("Closing position %s: %v", pos.ID, err)
		} else {
			e.logger.Printf("Closed %s: %s", pos.ID, reason)
		}
		return
	}

	for _, sig := range e.tracker.CheckExitSignals(pos) {
		e.logger.Printf("[%s] %s %s: %s", sig.Severity, pos.Symbol, sig.Type, sig.Message)
		if sig.Type == models.ExitMoveBreakeven {
			if _, err := e.tracker.MoveStopToBreakeven(pos.ID); err != nil {
				e.logger.Printf("Moving stop to breakeven %s: %v", pos.ID, err)
			}
		}
	}

	if trail := e.risk.TrailingStop(pos); trail > pos.StopLoss {
		rounded := util.RoundPremium(trail)
		if _, err := e.tracker.RaiseStop(pos.ID, rounded); err != nil {
			e.logger.Printf("Raising stop %s: %v", pos.ID, err)
		} else {
			e.logger.Printf("Trailing stop %s raised to %.2f", pos.ID, rounded)
		}
	}

	if take, contracts := e.risk.ShouldTakePartialProfit(pos); take {
		e.logger.Printf("Partial profit on %s: sell %d of %d contracts",
			pos.ID, contracts, pos.Contracts)
		if _, err := e.tracker.MarkPartialExit(pos.ID); err != nil {
			e.logger.Printf("Marking partial exit %s: %v", pos.ID, err)
		}
	}
}

// executeSignal opens a tracked position for a signal if the risk limits
// allow it.
func (e *Engine) executeSignal(sig *models.Signal) {
	balance := e.cfg.Engine.AccountBalance
	today := e.clock.Now().UTC().Format("2006-01-02")
	ok, reason := e.risk.CanTrade(balance, e.store.GetDailyPnL(today), len(e.tracker.ActivePositions()))
	if !ok {
		e.logger.Printf("Skipping %s signal: %s", sig.Strategy, reason)
		return
	}

	contracts := e.risk.Contracts(e.risk.PositionSize(balance), sig.EntryPrice, sig.StopLoss)
	if contracts <= 0 {
		e.logger.Printf("Skipping %s signal: stop at or above entry", sig.Strategy)
		return
	}

	pos, err := e.tracker.AddPosition(sig, contracts)
	if err != nil {
		e.logger.Printf("Opening position for signal %s: %v", sig.ID, err)
		return
	}
	e.logger.Printf("Opened %s x%d from %s signal", pos.ID, contracts, sig.Strategy)
}

// currentContractPrice pulls the chain for the position's expiration and
// returns the mark of the matching contract.
func (e *Engine) currentContractPrice(ctx context.Context, pos *models.Position) (float64, error) {
	chain, err := e.provider.GetOptionChain(ctx, pos.Symbol, pos.Expiration)
	if err != nil {
		return 0, err
	}
	for i := range chain {
		c := &chain[i]
		if c.Strike == pos.Strike && c.OptionType == pos.OptionType {
			return c.Pricing.Mark, nil
		}
	}
	return 0, fmt.Errorf("contract %.2f %s not found in %s %s chain",
		pos.Strike, pos.OptionType, pos.Symbol, pos.Expiration)
}
