package strategy

import (
	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/models"
)

// FilterConfig holds the post-evaluation quality gate thresholds.
type FilterConfig struct {
	MinConfidence    float64 `yaml:"min_confidence"`
	MaxSpreadPercent float64 `yaml:"max_spread_percent"`
	MinRiskReward    float64 `yaml:"min_risk_reward"`
}

// Normalize fills zero fields with the production defaults.
func (c *FilterConfig) Normalize() {
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.70
	}
	if c.MaxSpreadPercent == 0 {
		c.MaxSpreadPercent = 10.0
	}
	if c.MinRiskReward == 0 {
		c.MinRiskReward = 1.5
	}
}

// sessionWeight discounts confidence for sessions where signal quality is
// historically weaker. Out-of-hours signals are dropped outright by Apply.
var sessionWeight = map[market.Session]float64{
	market.SessionOpeningRush: 1.00,
	market.SessionMiddayChop:  0.85,
	market.SessionPowerHour:   0.95,
	market.SessionCloseGamma:  0.90,
}

// QualityFilter applies session weighting and hard quality gates to raw
// evaluator output before it reaches the trade queue.
type QualityFilter struct {
	cfg FilterConfig
	cal Calendar
}

// NewQualityFilter builds the filter with normalized config.
func NewQualityFilter(cfg FilterConfig, cal Calendar) *QualityFilter {
	cfg.Normalize()
	return &QualityFilter{cfg: cfg, cal: cal}
}

// Apply returns the signal with session-adjusted confidence, or nil if any
// quality gate rejects it. The input signal is not mutated.
func (f *QualityFilter) Apply(sig *models.Signal) *models.Signal {
	if sig == nil {
		return nil
	}
	session := f.cal.SessionAt(sig.GeneratedAt)
	weight, tradable := sessionWeight[session]
	if !tradable {
		return nil
	}
	if sig.Contract.Pricing.SpreadPercent() > f.cfg.MaxSpreadPercent {
		return nil
	}
	// FOLLOW_FLOW signals track institutions rather than our own entry
	// structure, so the risk-reward gate does not apply to them.
	if sig.Action != models.ActionFollowFlow && sig.RiskRewardRatio() < f.cfg.MinRiskReward {
		return nil
	}

	adjusted := *sig
	adjusted.Confidence = sig.Confidence * weight
	if adjusted.Confidence < f.cfg.MinConfidence {
		return nil
	}
	return &adjusted
}
