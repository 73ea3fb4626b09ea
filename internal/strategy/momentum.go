package strategy

import (
	"fmt"
	"log"

	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/ta"
)

// MomentumConfig holds the breakout momentum evaluator's thresholds.
type MomentumConfig struct {
	MinMove15m     float64 `yaml:"min_move_15m"`
	MinVolumeRatio float64 `yaml:"min_volume_ratio"`
	MACDFast       int     `yaml:"macd_fast"`
	MACDSlow       int     `yaml:"macd_slow"`
	MACDSignal     int     `yaml:"macd_signal"`
}

// Normalize fills zero fields with the production defaults.
func (c *MomentumConfig) Normalize() {
	if c.MinMove15m == 0 {
		c.MinMove15m = 0.03
	}
	if c.MinVolumeRatio == 0 {
		c.MinVolumeRatio = 3.0
	}
	if c.MACDFast == 0 {
		c.MACDFast = 12
	}
	if c.MACDSlow == 0 {
		c.MACDSlow = 26
	}
	if c.MACDSignal == 0 {
		c.MACDSignal = 9
	}
}

// Momentum detects sharp 15-minute moves backed by unusual volume and a
// confirming MACD, with extra conviction on a fresh resistance breakout.
type Momentum struct {
	cfg    MomentumConfig
	cal    Calendar
	logger *log.Logger
}

// NewMomentum builds the evaluator with normalized config. A nil logger
// falls back to the process default.
func NewMomentum(cfg MomentumConfig, cal Calendar, logger *log.Logger) *Momentum {
	cfg.Normalize()
	if logger == nil {
		logger = log.Default()
	}
	return &Momentum{cfg: cfg, cal: cal, logger: logger}
}

// Name implements Evaluator.
func (m *Momentum) Name() models.Strategy { return models.StrategyMomentum }

// Evaluate gates on the size of the 15-minute move, the volume ratio, and
// MACD agreement. An off-session setup is noted in the log but not refused;
// momentum that survives midday chop is information, not noise.
func (m *Momentum) Evaluate(snap *Snapshot) *models.Signal {
	c := snap.Contract
	closes := models.Closes(snap.Bars15m)
	if len(closes) < m.cfg.MACDSlow+m.cfg.MACDSignal {
		return nil
	}

	move := ta.Momentum(closes, 1)
	if absFloat(move) < m.cfg.MinMove15m {
		return nil
	}
	if c.Volume.VolumeRatio < m.cfg.MinVolumeRatio {
		return nil
	}

	line, sig, hist := ta.MACD(closes, m.cfg.MACDFast, m.cfg.MACDSlow, m.cfg.MACDSignal)
	bullish := line > sig && hist > 0
	bearish := line < sig && hist < 0

	var action models.SignalAction
	switch {
	case move > 0 && bullish && c.OptionType == models.OptionTypeCall:
		action = models.ActionBuyCall
	case move < 0 && bearish && c.OptionType == models.OptionTypePut:
		action = models.ActionBuyPut
	default:
		return nil
	}

	if session := m.cal.SessionAt(snap.Now); session == market.SessionMiddayChop {
		m.logger.Printf("momentum setup on %s during %s", snap.Symbol, session)
	}

	confidence := 0.90
	support, resistance := ta.SupportResistance(closes, 20)
	breakout := move > 0 && ta.IsBreakout(closes, resistance) ||
		move < 0 && ta.IsBreakdown(closes, support)
	if breakout {
		confidence = 0.93
	}

	ask := c.Pricing.Ask
	signal := models.NewSignal(models.StrategyMomentum, action, c,
		ask, ask*1.50, ask*0.80, confidence,
		fmt.Sprintf("15m move %.2f%% on %.1fx volume", move*100, c.Volume.VolumeRatio), snap.Now)
	signal.Momentum = &models.MomentumEvidence{
		Move15m:     move,
		VolumeRatio: c.Volume.VolumeRatio,
		MACDLine:    line,
		MACDSignal:  sig,
		MACDHist:    hist,
		Breakout:    breakout,
	}
	return signal
}

var _ Evaluator = (*Momentum)(nil)
