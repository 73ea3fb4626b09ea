package strategy

import (
	"fmt"

	"github.com/tradefly/optionsignals/internal/models"
)

// VolumeSpikeConfig holds the unusual-options-activity thresholds.
type VolumeSpikeConfig struct {
	MinVolumeRatio float64 `yaml:"min_volume_ratio"`
	MinBlockSize   int64   `yaml:"min_block_size"`
	MinBlockCount  int     `yaml:"min_block_count"`
	MinNetPremium  float64 `yaml:"min_net_premium"`
}

// Normalize fills zero fields with the production defaults.
func (c *VolumeSpikeConfig) Normalize() {
	if c.MinVolumeRatio == 0 {
		c.MinVolumeRatio = 5.0
	}
	if c.MinBlockSize == 0 {
		c.MinBlockSize = 100
	}
	if c.MinBlockCount == 0 {
		c.MinBlockCount = 3
	}
	if c.MinNetPremium == 0 {
		c.MinNetPremium = 1_000_000
	}
}

// VolumeSpike follows institutional option flow: a volume explosion plus
// repeated block trades with a large one-sided premium commitment.
type VolumeSpike struct {
	cfg VolumeSpikeConfig
}

// NewVolumeSpike builds the evaluator with normalized config.
func NewVolumeSpike(cfg VolumeSpikeConfig) *VolumeSpike {
	cfg.Normalize()
	return &VolumeSpike{cfg: cfg}
}

// Name implements Evaluator.
func (v *VolumeSpike) Name() models.Strategy { return models.StrategyVolumeSpike }

// NetPremiumFlow sums signed block premium: buys add, sells subtract,
// each block worth size * price * 100. Blocks below the minimum size are
// ignored.
func (v *VolumeSpike) NetPremiumFlow(blocks []models.BlockTrade) (float64, int) {
	var flow float64
	count := 0
	for _, b := range blocks {
		if b.Size < v.cfg.MinBlockSize {
			continue
		}
		count++
		premium := float64(b.Size) * b.Price * models.SharesPerContract
		if b.Side == "sell" {
			premium = -premium
		}
		flow += premium
	}
	return flow, count
}

// Evaluate gates on volume ratio, qualifying block count, and the absolute
// net premium. Confidence scales with the size of the commitment.
func (v *VolumeSpike) Evaluate(snap *Snapshot) *models.Signal {
	c := snap.Contract
	if c.Volume.VolumeRatio < v.cfg.MinVolumeRatio {
		return nil
	}
	flow, count := v.NetPremiumFlow(snap.Blocks)
	if count < v.cfg.MinBlockCount {
		return nil
	}
	if absFloat(flow) < v.cfg.MinNetPremium {
		return nil
	}

	confidence := 0.85
	switch {
	case absFloat(flow) >= 5_000_000:
		confidence = 0.92
	case absFloat(flow) >= 2_000_000:
		confidence = 0.88
	}

	direction := "bullish"
	if flow < 0 {
		direction = "bearish"
	}
	ask := c.Pricing.Ask
	sig := models.NewSignal(models.StrategyVolumeSpike, models.ActionFollowFlow, c,
		ask, ask*1.25, ask*0.85, confidence,
		fmt.Sprintf("%s flow: $%.1fM net premium across %d blocks at %.1fx volume",
			direction, flow/1_000_000, count, c.Volume.VolumeRatio), snap.Now)
	sig.Flow = &models.FlowEvidence{
		VolumeRatio:    c.Volume.VolumeRatio,
		BlockCount:     count,
		NetPremiumFlow: flow,
	}
	return sig
}

var _ Evaluator = (*VolumeSpike)(nil)
