package strategy

import (
	"fmt"

	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/ta"
)

// ScalpConfig holds the scalping evaluator's thresholds.
type ScalpConfig struct {
	MaxSpread         float64 `yaml:"max_spread"`
	MinVolume         int64   `yaml:"min_volume"`
	MinDelta          float64 `yaml:"min_delta"`
	MaxDelta          float64 `yaml:"max_delta"`
	MaxAsk            float64 `yaml:"max_ask"`
	MomentumThreshold float64 `yaml:"momentum_threshold"`
	RSIPeriod         int     `yaml:"rsi_period"`
	// StrictChecks turns on the full pre-trade contract vetting: volume/OI
	// sanity, expiration window, IV band, spread and theta quality,
	// moneyness distance.
	StrictChecks bool `yaml:"strict_checks"`
}

// Normalize fills zero fields with the production defaults.
func (c *ScalpConfig) Normalize() {
	if c.MaxSpread == 0 {
		c.MaxSpread = 0.50
	}
	if c.MinVolume == 0 {
		c.MinVolume = 1000
	}
	if c.MinDelta == 0 {
		c.MinDelta = 0.40
	}
	if c.MaxDelta == 0 {
		c.MaxDelta = 0.70
	}
	if c.MaxAsk == 0 {
		c.MaxAsk = 10.0
	}
	if c.MomentumThreshold == 0 {
		c.MomentumThreshold = 0.002
	}
	if c.RSIPeriod == 0 {
		c.RSIPeriod = 14
	}
}

// Scalping hunts fast intraday moves in liquid near-the-money contracts.
// Entries are restricted to the opening rush and the final trading hour.
type Scalping struct {
	cfg ScalpConfig
	cal Calendar
}

// NewScalping builds the evaluator with normalized config.
func NewScalping(cfg ScalpConfig, cal Calendar) *Scalping {
	cfg.Normalize()
	return &Scalping{cfg: cfg, cal: cal}
}

// Name implements Evaluator.
func (s *Scalping) Name() models.Strategy { return models.StrategyScalping }

// Evaluate runs the gate pipeline: time window, liquidity, greeks, price,
// then momentum plus RSI confirmation.
func (s *Scalping) Evaluate(snap *Snapshot) *models.Signal {
	if !s.cal.IsScalpWindow(snap.Now) {
		return nil
	}
	c := snap.Contract
	if c.Pricing.Spread() > s.cfg.MaxSpread {
		return nil
	}
	if c.Volume.Volume < s.cfg.MinVolume {
		return nil
	}
	delta := absFloat(c.Greeks.Delta)
	if delta < s.cfg.MinDelta || delta > s.cfg.MaxDelta {
		return nil
	}
	if c.Pricing.Ask > s.cfg.MaxAsk || c.Pricing.Ask <= 0 {
		return nil
	}

	closes1m := models.Closes(snap.Bars1m)
	closes5m := models.Closes(snap.Bars5m)
	mom1m := ta.Momentum(closes1m, 1)
	mom5m := ta.Momentum(closes5m, 1)
	rsi := ta.RSI(closes1m, s.cfg.RSIPeriod)

	if s.cfg.StrictChecks {
		if ok, _ := passesStrictChecks(&c, mom1m, snap.Now); !ok {
			return nil
		}
	}

	evidence := &models.ScalpEvidence{Momentum1m: mom1m, Momentum5m: mom5m, RSI: rsi}
	ask := c.Pricing.Ask

	// Primary path: a one-minute pop with RSI still out of the crowded
	// zone, in the direction the contract pays.
	if mom1m > s.cfg.MomentumThreshold && rsi >= 30 && rsi <= 50 && c.OptionType == models.OptionTypeCall {
		sig := models.NewSignal(models.StrategyScalping, models.ActionBuyCall, c,
			ask, ask*1.15, ask*0.95, 0.85,
			fmt.Sprintf("1m momentum %.2f%% with RSI %.1f", mom1m*100, rsi), snap.Now)
		sig.Scalp = evidence
		return sig
	}
	if mom1m < -s.cfg.MomentumThreshold && rsi >= 50 && rsi <= 70 && c.OptionType == models.OptionTypePut {
		sig := models.NewSignal(models.StrategyScalping, models.ActionBuyPut, c,
			ask, ask*1.15, ask*0.95, 0.85,
			fmt.Sprintf("1m momentum %.2f%% with RSI %.1f", mom1m*100, rsi), snap.Now)
		sig.Scalp = evidence
		return sig
	}

	// Secondary path: a sustained five-minute move, direction by sign.
	if absFloat(mom5m) > s.cfg.MomentumThreshold {
		action := models.ActionBuyCall
		if mom5m < 0 {
			action = models.ActionBuyPut
		}
		if (action == models.ActionBuyCall) != (c.OptionType == models.OptionTypeCall) {
			return nil
		}
		conf := 0.70
		if absFloat(mom5m) > 2*s.cfg.MomentumThreshold {
			conf = 0.75
		}
		evidence.Strong5Bar = true
		sig := models.NewSignal(models.StrategyScalping, action, c,
			ask, ask*1.20, ask*0.95, conf,
			fmt.Sprintf("sustained 5m momentum %.2f%%", mom5m*100), snap.Now)
		sig.Scalp = evidence
		return sig
	}
	return nil
}

var _ Evaluator = (*Scalping)(nil)
