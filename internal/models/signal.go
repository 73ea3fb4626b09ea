package models

import (
	"time"

	"github.com/google/uuid"
)

// SignalAction identifies what a trading signal recommends.
type SignalAction string

const (
	// ActionBuyCall recommends opening a long call position.
	ActionBuyCall SignalAction = "BUY_CALL"
	// ActionBuyPut recommends opening a long put position.
	ActionBuyPut SignalAction = "BUY_PUT"
	// ActionFollowFlow recommends following detected institutional flow.
	ActionFollowFlow SignalAction = "FOLLOW_FLOW"
)

// Strategy identifies which evaluator produced a signal.
type Strategy string

const (
	// StrategyScalping is the intraday momentum scalping evaluator.
	StrategyScalping Strategy = "SCALPING"
	// StrategyMomentum is the breakout momentum evaluator.
	StrategyMomentum Strategy = "MOMENTUM"
	// StrategyVolumeSpike is the unusual-options-activity evaluator.
	StrategyVolumeSpike Strategy = "VOLUME_SPIKE"
	// StrategySwing is the multi-day swing evaluator.
	StrategySwing Strategy = "SWING"
)

// ScalpEvidence records the measurements behind a scalping signal.
type ScalpEvidence struct {
	Momentum1m float64 `json:"momentum_1m"`
	Momentum5m float64 `json:"momentum_5m"`
	RSI        float64 `json:"rsi"`
	Strong5Bar bool    `json:"strong_5bar"`
}

// MomentumEvidence records the measurements behind a momentum signal.
type MomentumEvidence struct {
	Move15m     float64 `json:"move_15m"`
	VolumeRatio float64 `json:"volume_ratio"`
	MACDLine    float64 `json:"macd_line"`
	MACDSignal  float64 `json:"macd_signal"`
	MACDHist    float64 `json:"macd_hist"`
	Breakout    bool    `json:"breakout"`
}

// FlowEvidence records the measurements behind a volume-spike signal.
type FlowEvidence struct {
	VolumeRatio    float64 `json:"volume_ratio"`
	BlockCount     int     `json:"block_count"`
	NetPremiumFlow float64 `json:"net_premium_flow"`
}

// SwingEvidence records the measurements behind a swing signal.
type SwingEvidence struct {
	Momentum3d     float64 `json:"momentum_3d"`
	MomentumHourly float64 `json:"momentum_hourly"`
	DailyRSI       float64 `json:"daily_rsi"`
	DTE            int     `json:"dte"`
}

// Signal is a fully-formed trade recommendation produced by one evaluator.
// Exactly one evidence pointer matching Strategy is non-nil; the rest are
// omitted from the JSON encoding.
type Signal struct {
	ID          string         `json:"id"`
	Symbol      string         `json:"symbol"`
	Strategy    Strategy       `json:"strategy"`
	Action      SignalAction   `json:"action"`
	Contract    OptionContract `json:"contract"`
	EntryPrice  float64        `json:"entry_price"`
	TargetPrice float64        `json:"target_price"`
	StopLoss    float64        `json:"stop_loss"`
	Confidence  float64        `json:"confidence"` // 0.0-1.0
	Reason      string         `json:"reason"`
	GeneratedAt time.Time      `json:"generated_at"`

	Scalp    *ScalpEvidence    `json:"scalp_evidence,omitempty"`
	Momentum *MomentumEvidence `json:"momentum_evidence,omitempty"`
	Flow     *FlowEvidence     `json:"flow_evidence,omitempty"`
	Swing    *SwingEvidence    `json:"swing_evidence,omitempty"`
}

// NewSignal builds a Signal with a fresh ID and the shared fields filled in.
// Evaluators attach their evidence struct afterward.
func NewSignal(strategy Strategy, action SignalAction, contract OptionContract, entry, target, stop, confidence float64, reason string, now time.Time) *Signal {
	return &Signal{
		ID:          uuid.New().String(),
		Symbol:      contract.Symbol,
		Strategy:    strategy,
		Action:      action,
		Contract:    contract,
		EntryPrice:  entry,
		TargetPrice: target,
		StopLoss:    stop,
		Confidence:  confidence,
		Reason:      reason,
		GeneratedAt: now,
	}
}

// RiskRewardRatio returns reward per unit of risk. Zero when the stop
// distance is not positive.
func (s *Signal) RiskRewardRatio() float64 {
	risk := s.EntryPrice - s.StopLoss
	if risk <= 0 {
		return 0
	}
	return (s.TargetPrice - s.EntryPrice) / risk
}
