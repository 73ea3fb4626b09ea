package tracker

import (
	"fmt"
	"time"

	"github.com/tradefly/optionsignals/internal/models"
)

// Exit-signal thresholds. These are advisory bands, distinct from the hard
// auto-close rules in UpdatePrice.
const (
	targetApproachBand = 0.95 // within 5% below target
	stopApproachBand   = 1.10 // within 10% above stop
	trailingProfitPct  = 15.0
	trailingPullback   = 0.85 // 15% off the highest price
	breakevenProfitPct = 10.0
	scalpMaxHold       = 5 * time.Minute
	scalpStagnantPct   = 5.0
	swingMaxHold       = 5 * 24 * time.Hour
)

// CheckExitSignals computes the advisory exit signals for a position at the
// tracker's current time. It is pure with respect to the position: nothing
// is mutated or persisted, and repeated calls give the same answer for the
// same inputs. Terminal positions produce no signals.
func (t *Tracker) CheckExitSignals(pos *models.Position) []models.ExitSignal {
	if pos.Status.IsTerminal() {
		return nil
	}
	now := t.clock.Now()
	var signals []models.ExitSignal

	price := pos.CurrentPrice
	pnlPct := pos.ProfitLossPercent(price)
	if price >= pos.TargetPrice*targetApproachBand && price < pos.TargetPrice {
		signals = append(signals, models.ExitSignal{
			Type:          models.ExitTargetApproaching,
			Severity:      models.SeverityHigh,
			Message:       fmt.Sprintf("within 5%% of target %.2f", pos.TargetPrice),
			SuggestedExit: pos.TargetPrice,
		})
	}
	if price > pos.StopLoss && price <= pos.StopLoss*stopApproachBand {
		signals = append(signals, models.ExitSignal{
			Type:          models.ExitStopApproaching,
			Severity:      models.SeverityHigh,
			Message:       fmt.Sprintf("within 10%% of stop %.2f", pos.StopLoss),
			SuggestedExit: price,
		})
	}

	if pnlPct >= trailingProfitPct && price <= pos.HighestPrice*trailingPullback {
		signals = append(signals, models.ExitSignal{
			Type:          models.ExitTrailingStop,
			Severity:      models.SeverityHigh,
			Message:       fmt.Sprintf("pulled back over 15%% from high %.2f while up %.1f%%", pos.HighestPrice, pnlPct),
			SuggestedExit: price,
		})
	}
	if pnlPct >= breakevenProfitPct && !pos.BreakevenMoved {
		signals = append(signals, models.ExitSignal{
			Type:          models.ExitMoveBreakeven,
			Severity:      models.SeverityMedium,
			Message:       fmt.Sprintf("up %.1f%%, stop still below entry", pnlPct),
			SuggestedStop: pos.EntryPrice,
		})
	}

	held := pos.HoldingTime(now)
	switch pos.Strategy {
	case models.StrategyScalping:
		if held > scalpMaxHold && pnlPct > -scalpStagnantPct && pnlPct < scalpStagnantPct {
			signals = append(signals, models.ExitSignal{
				Type:     models.ExitTimeStop,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("scalp stagnant for %s", held.Round(time.Second)),
			})
		}
	case models.StrategySwing:
		if held > swingMaxHold {
			signals = append(signals, models.ExitSignal{
				Type:     models.ExitTimeStop,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("swing held %d days", int(held.Hours()/24)),
			})
		}
	}

	// Malformed expirations report -1 and skip this check.
	if dte := pos.DaysToExpiration(now); dte >= 0 {
		if dte <= 1 {
			signals = append(signals, models.ExitSignal{
				Type:     models.ExitExpirationRisk,
				Severity: models.SeverityHigh,
				Message:  fmt.Sprintf("%d days to expiration", dte),
			})
		} else if dte <= 3 {
			signals = append(signals, models.ExitSignal{
				Type:     models.ExitExpirationRisk,
				Severity: models.SeverityMedium,
				Message:  fmt.Sprintf("%d days to expiration", dte),
			})
		}
	}

	for i := range signals {
		signals[i].CurrentPrice = price
		signals[i].ProfitLossPct = pnlPct
	}
	return signals
}
