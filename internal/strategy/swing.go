package strategy

import (
	"fmt"

	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/ta"
)

// SwingConfig holds the multi-day swing evaluator's thresholds.
type SwingConfig struct {
	MinDTE            int     `yaml:"min_dte"`
	MaxDTE            int     `yaml:"max_dte"`
	MinDelta          float64 `yaml:"min_delta"`
	MaxDelta          float64 `yaml:"max_delta"`
	MaxAsk            float64 `yaml:"max_ask"`
	MinVolume         int64   `yaml:"min_volume"`
	MinOpenInterest   int64   `yaml:"min_open_interest"`
	MinDailyBars      int     `yaml:"min_daily_bars"`
	MinMomentum3d     float64 `yaml:"min_momentum_3d"`
	MinMomentumHourly float64 `yaml:"min_momentum_hourly"`
	RSIPeriod         int     `yaml:"rsi_period"`
}

// Normalize fills zero fields with the production defaults.
func (c *SwingConfig) Normalize() {
	if c.MinDTE == 0 {
		c.MinDTE = 14
	}
	if c.MaxDTE == 0 {
		c.MaxDTE = 30
	}
	if c.MinDelta == 0 {
		c.MinDelta = 0.40
	}
	if c.MaxDelta == 0 {
		c.MaxDelta = 0.60
	}
	if c.MaxAsk == 0 {
		c.MaxAsk = 5.0
	}
	if c.MinVolume == 0 {
		c.MinVolume = 50
	}
	if c.MinOpenInterest == 0 {
		c.MinOpenInterest = 100
	}
	if c.MinDailyBars == 0 {
		c.MinDailyBars = 10
	}
	if c.MinMomentum3d == 0 {
		c.MinMomentum3d = 0.01
	}
	if c.MinMomentumHourly == 0 {
		c.MinMomentumHourly = 0.001
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = 14
	}
}

// Swing looks for multi-day trends in contracts with enough time left to
// ride them: a three-day move with daily RSI not yet stretched and the
// hourly trend agreeing.
type Swing struct {
	cfg SwingConfig
}

// NewSwing builds the evaluator with normalized config.
func NewSwing(cfg SwingConfig) *Swing {
	cfg.Normalize()
	return &Swing{cfg: cfg}
}

// Name implements Evaluator.
func (s *Swing) Name() models.Strategy { return models.StrategySwing }

// Evaluate runs the gate pipeline: contract suitability (DTE, delta, price,
// liquidity), then trend alignment across the daily and hourly frames.
func (s *Swing) Evaluate(snap *Snapshot) *models.Signal {
	c := snap.Contract
	dte := c.DaysToExpiration(snap.Now)
	if dte < s.cfg.MinDTE || dte > s.cfg.MaxDTE {
		return nil
	}
	delta := absFloat(c.Greeks.Delta)
	if delta < s.cfg.MinDelta || delta > s.cfg.MaxDelta {
		return nil
	}
	if c.Pricing.Ask > s.cfg.MaxAsk || c.Pricing.Ask <= 0 {
		return nil
	}
	if c.Volume.Volume < s.cfg.MinVolume {
		return nil
	}
	if c.Volume.OpenInterest < s.cfg.MinOpenInterest {
		return nil
	}
	if len(snap.BarsDaily) < s.cfg.MinDailyBars {
		return nil
	}

	daily := models.Closes(snap.BarsDaily)
	hourly := models.Closes(snap.BarsHourly)
	mom3d := ta.Momentum(daily, 3)
	momHourly := ta.Momentum(hourly, 1)
	rsi := ta.RSI(daily, s.cfg.RSIPeriod)

	var action models.SignalAction
	switch {
	case c.OptionType == models.OptionTypeCall &&
		mom3d > s.cfg.MinMomentum3d &&
		rsi >= 30 && rsi <= 45 &&
		momHourly > s.cfg.MinMomentumHourly:
		action = models.ActionBuyCall
	case c.OptionType == models.OptionTypePut &&
		mom3d < -s.cfg.MinMomentum3d &&
		rsi >= 55 && rsi <= 70 &&
		momHourly < -s.cfg.MinMomentumHourly:
		action = models.ActionBuyPut
	default:
		return nil
	}

	confidence := 0.75 + absFloat(mom3d)*5
	if confidence > 0.95 {
		confidence = 0.95
	}

	ask := c.Pricing.Ask
	sig := models.NewSignal(models.StrategySwing, action, c,
		ask, ask*1.30, ask*0.85, confidence,
		fmt.Sprintf("3d momentum %.2f%% with daily RSI %.1f, %d DTE", mom3d*100, rsi, dte), snap.Now)
	sig.Swing = &models.SwingEvidence{
		Momentum3d:     mom3d,
		MomentumHourly: momHourly,
		DailyRSI:       rsi,
		DTE:            dte,
	}
	return sig
}

var _ Evaluator = (*Swing)(nil)
