package models

import (
	"fmt"
	"time"
)

// PositionStatus is the lifecycle state of a tracked position.
type PositionStatus string

const (
	// StatusActive means the position is open and being monitored.
	StatusActive PositionStatus = "ACTIVE"
	// StatusHitTarget means the position closed at its profit target.
	StatusHitTarget PositionStatus = "HIT_TARGET"
	// StatusHitStop means the position closed at its stop loss.
	StatusHitStop PositionStatus = "HIT_STOP"
	// StatusExpired means the position expired worthless.
	StatusExpired PositionStatus = "EXPIRED_WORTHLESS"
	// StatusClosedProfit means the position was closed manually in profit.
	StatusClosedProfit PositionStatus = "CLOSED_PROFIT"
	// StatusClosedLoss means the position was closed manually at a loss.
	StatusClosedLoss PositionStatus = "CLOSED_LOSS"
	// StatusBreakeven means the position was closed manually near flat.
	StatusBreakeven PositionStatus = "BREAKEVEN"
)

// IsTerminal reports whether the status is a closed state. Updates against
// terminal positions are idempotent no-ops.
func (s PositionStatus) IsTerminal() bool {
	return s != StatusActive
}

// StatusTransition describes one allowed lifecycle edge.
type StatusTransition struct {
	From        PositionStatus
	To          PositionStatus
	Description string
}

// ValidStatusTransitions is the complete lifecycle graph. Every terminal
// state is absorbing; the only out-edges leave StatusActive.
var ValidStatusTransitions = []StatusTransition{
	{StatusActive, StatusHitTarget, "current price reached the profit target"},
	{StatusActive, StatusHitStop, "current price fell to the stop loss"},
	{StatusActive, StatusExpired, "contract passed expiration without exit"},
	{StatusActive, StatusClosedProfit, "manual close above breakeven band"},
	{StatusActive, StatusClosedLoss, "manual close below breakeven band"},
	{StatusActive, StatusBreakeven, "manual close within breakeven band"},
}

// CanTransition reports whether from -> to is an allowed lifecycle edge.
func CanTransition(from, to PositionStatus) bool {
	for _, t := range ValidStatusTransitions {
		if t.From == from && t.To == to {
			return true
		}
	}
	return false
}

// ExitSeverity ranks how urgent an advisory exit signal is.
type ExitSeverity string

const (
	// SeverityHigh marks signals that warrant immediate attention.
	SeverityHigh ExitSeverity = "HIGH"
	// SeverityMedium marks signals worth reviewing soon.
	SeverityMedium ExitSeverity = "MEDIUM"
)

// ExitSignalType identifies the condition an advisory exit signal detected.
type ExitSignalType string

const (
	// ExitTargetApproaching fires inside the final 5% run-up to target.
	ExitTargetApproaching ExitSignalType = "TARGET_APPROACHING"
	// ExitStopApproaching fires inside the final 10% drop to the stop.
	ExitStopApproaching ExitSignalType = "STOP_APPROACHING"
	// ExitTrailingStop suggests locking gains after a pullback from highs.
	ExitTrailingStop ExitSignalType = "TRAILING_STOP"
	// ExitMoveBreakeven suggests raising the stop to the entry price.
	ExitMoveBreakeven ExitSignalType = "MOVE_TO_BREAKEVEN"
	// ExitTimeStop fires when a position outlives its strategy's horizon.
	ExitTimeStop ExitSignalType = "TIME_STOP"
	// ExitExpirationRisk fires as the contract nears expiration.
	ExitExpirationRisk ExitSignalType = "EXPIRATION_RISK"
)

// ExitSignal is advisory only; it never mutates the position it describes.
type ExitSignal struct {
	Type          ExitSignalType `json:"type"`
	Severity      ExitSeverity   `json:"severity"`
	Message       string         `json:"message"`
	CurrentPrice  float64        `json:"current_price"`
	ProfitLossPct float64        `json:"profit_loss_pct"`
	SuggestedExit float64        `json:"suggested_exit,omitempty"`
	SuggestedStop float64        `json:"suggested_stop,omitempty"`
}

// Position is one tracked option trade from entry to close.
type Position struct {
	ID         string       `json:"id"`
	SignalID   string       `json:"signal_id,omitempty"`
	Symbol     string       `json:"symbol"`
	Strategy   Strategy     `json:"strategy"`
	Action     SignalAction `json:"action"`
	Strike     float64      `json:"strike"`
	Expiration string       `json:"expiration"` // YYYY-MM-DD
	OptionType OptionType   `json:"option_type"`
	Contracts  int          `json:"contracts"`

	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	HighestPrice float64 `json:"highest_price"`
	TargetPrice  float64 `json:"target_price"`
	StopLoss     float64 `json:"stop_loss"`

	Status           PositionStatus `json:"status"`
	BreakevenMoved   bool           `json:"breakeven_moved"`
	PartialExitTaken bool           `json:"partial_exit_taken"`

	EntryTime  time.Time  `json:"entry_time"`
	LastUpdate time.Time  `json:"last_update"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	ExitPrice  float64    `json:"exit_price,omitempty"`
}

// ProfitLoss returns the dollar P/L at the given contract price.
func (p *Position) ProfitLoss(price float64) float64 {
	return (price - p.EntryPrice) * SharesPerContract * float64(p.Contracts)
}

// ProfitLossPercent returns the P/L as a percentage of the entry price.
func (p *Position) ProfitLossPercent(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return (price - p.EntryPrice) / p.EntryPrice * 100
}

// HoldingTime returns how long the position has been open, or the final
// holding time once closed.
func (p *Position) HoldingTime(now time.Time) time.Duration {
	if p.ClosedAt != nil {
		return p.ClosedAt.Sub(p.EntryTime)
	}
	return now.Sub(p.EntryTime)
}

// DaysToExpiration returns whole days until the contract expires, or -1 if
// the expiration string is malformed.
func (p *Position) DaysToExpiration(now time.Time) int {
	exp, err := time.Parse("2006-01-02", p.Expiration)
	if err != nil {
		return -1
	}
	days := int(exp.Sub(now.UTC().Truncate(24*time.Hour)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// IsExpired reports whether the expiration date has been reached: any time
// at or past midnight of the expiration day counts as expired. Malformed
// expirations are never considered expired.
func (p *Position) IsExpired(now time.Time) bool {
	exp, err := time.Parse("2006-01-02", p.Expiration)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}

// Close transitions the position into a terminal state at the given exit
// price. Returns an error if the transition is not allowed.
func (p *Position) Close(to PositionStatus, exitPrice float64, now time.Time) error {
	if !CanTransition(p.Status, to) {
		return fmt.Errorf("invalid transition from %s to %s for position %s", p.Status, to, p.ID)
	}
	p.Status = to
	p.CurrentPrice = exitPrice
	p.ExitPrice = exitPrice
	p.LastUpdate = now
	closed := now
	p.ClosedAt = &closed
	return nil
}
