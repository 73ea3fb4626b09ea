// Package risk sizes positions and enforces the account-level circuit
// breaker.
package risk

import (
	"fmt"
	"math"
	"time"

	"github.com/tradefly/optionsignals/internal/models"
)

// Limits holds the account risk parameters. Zero fields are filled with
// the production defaults by Normalize.
type Limits struct {
	// RiskPerTradePct is the share of account balance risked per trade.
	RiskPerTradePct float64 `yaml:"risk_per_trade_pct"`
	// DailyLossLimitPct halts new entries once daily losses exceed this
	// share of the balance.
	DailyLossLimitPct float64 `yaml:"daily_loss_limit_pct"`
	// MaxActivePositions halts new entries at this many open positions.
	MaxActivePositions int `yaml:"max_active_positions"`
	// PartialProfitMultiple triggers a partial sale once price reaches
	// entry times this multiple.
	PartialProfitMultiple float64 `yaml:"partial_profit_multiple"`
	// TrailingStopRetention is the fraction of the highest price kept as
	// the trailing floor.
	TrailingStopRetention float64 `yaml:"trailing_stop_retention"`
	// MaxHold closes positions that have been open too long. Go duration
	// string, e.g. "48h".
	MaxHold string `yaml:"max_hold"`

	// MaxHoldDuration is MaxHold parsed; set it directly when building
	// Limits in code.
	MaxHoldDuration time.Duration `yaml:"-"`
}

// Normalize fills zero fields with production defaults.
func (l *Limits) Normalize() {
	if l.RiskPerTradePct == 0 {
		l.RiskPerTradePct = 0.02
	}
	if l.DailyLossLimitPct == 0 {
		l.DailyLossLimitPct = 0.03
	}
	if l.MaxActivePositions == 0 {
		l.MaxActivePositions = 3
	}
	if l.PartialProfitMultiple == 0 {
		l.PartialProfitMultiple = 2.0
	}
	if l.TrailingStopRetention == 0 {
		l.TrailingStopRetention = 0.75
	}
	if l.MaxHoldDuration == 0 {
		if d, err := time.ParseDuration(l.MaxHold); err == nil && d > 0 {
			l.MaxHoldDuration = d
		} else {
			l.MaxHoldDuration = 48 * time.Hour
		}
	}
}

// Manager applies the account's risk limits. It is stateless; account
// balance and daily P/L are passed in by the caller.
type Manager struct {
	limits Limits
}

// NewManager returns a Manager with normalized limits.
func NewManager(limits Limits) *Manager {
	limits.Normalize()
	return &Manager{limits: limits}
}

// Limits returns the normalized limits in effect.
func (m *Manager) Limits() Limits { return m.limits }

// PositionSize returns the dollar amount to risk on one trade.
func (m *Manager) PositionSize(balance float64) float64 {
	return balance * m.limits.RiskPerTradePct
}

// CanTrade applies the circuit breaker: daily losses beyond the limit or
// too many open positions block new entries. The returned reason explains
// a refusal; an allowed trade gets "OK".
func (m *Manager) CanTrade(balance, dailyPnL float64, activePositions int) (bool, string) {
	if dailyPnL < -balance*m.limits.DailyLossLimitPct {
		return false, fmt.Sprintf("daily loss limit reached: %.2f exceeds %.1f%% of balance",
			dailyPnL, m.limits.DailyLossLimitPct*100)
	}
	if activePositions >= m.limits.MaxActivePositions {
		return false, fmt.Sprintf("max active positions reached: %d", activePositions)
	}
	return true, "OK"
}

// Contracts converts a dollar risk budget into a whole number of contracts
// using the per-contract loss at the stop. Entries at or below the stop
// size to zero; a budget too small for one contract still buys one.
func (m *Manager) Contracts(dollarRisk, entryPrice, stopLoss float64) int {
	if entryPrice <= stopLoss {
		return 0
	}
	perContract := (entryPrice - stopLoss) * models.SharesPerContract
	n := int(math.Floor(dollarRisk / perContract))
	if n < 1 {
		return 1
	}
	return n
}

// ShouldTakePartialProfit reports whether the position has doubled and a
// partial sale is due, along with how many contracts to sell (half, rounded
// down, at least one when any are held). A position that already scaled out
// never triggers again.
func (m *Manager) ShouldTakePartialProfit(p *models.Position) (bool, int) {
	if p.PartialExitTaken {
		return false, 0
	}
	if p.CurrentPrice < p.EntryPrice*m.limits.PartialProfitMultiple {
		return false, 0
	}
	if p.Contracts <= 0 {
		return false, 0
	}
	sell := p.Contracts / 2
	if sell < 1 {
		sell = 1
	}
	return true, sell
}

// TrailingStop returns the stop floor implied by the highest price seen.
// It activates only once the position is profitable and never lowers an
// existing stop.
func (m *Manager) TrailingStop(p *models.Position) float64 {
	if p.HighestPrice <= p.EntryPrice {
		return p.StopLoss
	}
	floor := p.HighestPrice * m.limits.TrailingStopRetention
	if floor < p.StopLoss {
		return p.StopLoss
	}
	return floor
}

// ShouldExit checks the hard exit conditions in priority order: stop loss,
// profit target, then maximum holding time. The reason is empty when no
// exit applies.
func (m *Manager) ShouldExit(p *models.Position, now time.Time) (bool, string) {
	if p.CurrentPrice <= p.StopLoss {
		return true, fmt.Sprintf("stop loss hit at %.2f", p.StopLoss)
	}
	if p.CurrentPrice >= p.TargetPrice {
		return true, fmt.Sprintf("profit target hit at %.2f", p.TargetPrice)
	}
	if p.HoldingTime(now) >= m.limits.MaxHoldDuration {
		return true, fmt.Sprintf("max holding time %s exceeded", m.limits.MaxHoldDuration)
	}
	return false, ""
}
