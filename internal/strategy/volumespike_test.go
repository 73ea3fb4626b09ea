package strategy

import (
	"testing"
	"time"

	"github.com/tradefly/optionsignals/internal/models"
)

func flowContract(volumeRatio float64) models.OptionContract {
	c := models.OptionContract{
		Symbol:     "AAPL",
		Strike:     230,
		Expiration: "2026-01-16",
		OptionType: models.OptionTypeCall,
		Pricing:    models.NewPricing(2.45, 2.55, 2.50),
	}
	c.Volume = models.VolumeMetrics{Volume: 50000, OpenInterest: 10000, VolumeRatio: volumeRatio}
	return c
}

func blocks(side string, size int64, price float64, n int) []models.BlockTrade {
	out := make([]models.BlockTrade, n)
	for i := range out {
		out[i] = models.BlockTrade{Size: size, Price: price, Side: side, Time: time.Now()}
	}
	return out
}

func TestNetPremiumFlow(t *testing.T) {
	v := NewVolumeSpike(VolumeSpikeConfig{})

	// 3 buys of 2000 @ 2.50: each 2000 * 2.50 * 100 = 500k.
	flow, count := v.NetPremiumFlow(blocks("buy", 2000, 2.50, 3))
	if flow != 1_500_000 {
		t.Errorf("flow = %.0f, want 1500000", flow)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// Sells subtract.
	mixed := append(blocks("buy", 2000, 2.50, 2), blocks("sell", 2000, 2.50, 1)...)
	flow, _ = v.NetPremiumFlow(mixed)
	if flow != 500_000 {
		t.Errorf("mixed flow = %.0f, want 500000", flow)
	}

	// Blocks under the minimum size are ignored.
	flow, count = v.NetPremiumFlow(blocks("buy", 99, 2.50, 5))
	if flow != 0 || count != 0 {
		t.Errorf("sub-threshold blocks: flow = %.0f count = %d, want zeros", flow, count)
	}
}

func TestVolumeSpikeSignal(t *testing.T) {
	v := NewVolumeSpike(VolumeSpikeConfig{})
	snap := &Snapshot{
		Symbol:   "AAPL",
		Contract: flowContract(6.0),
		Blocks:   blocks("buy", 2000, 2.50, 3), // $1.5M net
		Now:      time.Date(2026, 1, 5, 15, 0, 0, 0, time.UTC),
	}

	sig := v.Evaluate(snap)
	if sig == nil {
		t.Fatal("expected a signal")
	}
	if sig.Action != models.ActionFollowFlow {
		t.Errorf("action = %s, want FOLLOW_FLOW", sig.Action)
	}
	if sig.Confidence != 0.85 {
		t.Errorf("confidence = %.2f, want 0.85 for $1.5M flow", sig.Confidence)
	}
	if sig.Flow == nil || sig.Flow.NetPremiumFlow != 1_500_000 {
		t.Errorf("flow evidence = %+v", sig.Flow)
	}
}

func TestVolumeSpikeConfidenceTiers(t *testing.T) {
	v := NewVolumeSpike(VolumeSpikeConfig{})

	tests := []struct {
		size int64
		want float64
	}{
		{3000, 0.88}, // 3 * 3000 * 2.50 * 100 = $2.25M
		{7000, 0.92}, // 3 * 7000 * 2.50 * 100 = $5.25M
	}
	for _, tt := range tests {
		snap := &Snapshot{
			Contract: flowContract(6.0),
			Blocks:   blocks("buy", tt.size, 2.50, 3),
			Now:      time.Now(),
		}
		sig := v.Evaluate(snap)
		if sig == nil {
			t.Fatalf("block size %d: expected a signal", tt.size)
		}
		if sig.Confidence != tt.want {
			t.Errorf("block size %d: confidence = %.2f, want %.2f", tt.size, sig.Confidence, tt.want)
		}
	}
}

func TestVolumeSpikeBearishFlow(t *testing.T) {
	v := NewVolumeSpike(VolumeSpikeConfig{})
	snap := &Snapshot{
		Contract: flowContract(6.0),
		Blocks:   blocks("sell", 2000, 2.50, 3), // -$1.5M
		Now:      time.Now(),
	}

	sig := v.Evaluate(snap)
	if sig == nil {
		t.Fatal("large bearish flow is still a signal")
	}
	if sig.Flow.NetPremiumFlow != -1_500_000 {
		t.Errorf("flow = %.0f, want -1500000", sig.Flow.NetPremiumFlow)
	}
}

func TestVolumeSpikeGates(t *testing.T) {
	v := NewVolumeSpike(VolumeSpikeConfig{})

	// Volume ratio below 5x.
	snap := &Snapshot{Contract: flowContract(4.9), Blocks: blocks("buy", 2000, 2.50, 3), Now: time.Now()}
	if v.Evaluate(snap) != nil {
		t.Error("volume ratio under 5x must be rejected")
	}

	// Only two qualifying blocks.
	snap = &Snapshot{Contract: flowContract(6.0), Blocks: blocks("buy", 3000, 2.50, 2), Now: time.Now()}
	if v.Evaluate(snap) != nil {
		t.Error("fewer than 3 blocks must be rejected")
	}

	// Net premium below $1M.
	snap = &Snapshot{Contract: flowContract(6.0), Blocks: blocks("buy", 1000, 2.50, 3), Now: time.Now()}
	if v.Evaluate(snap) != nil {
		t.Error("$750k net premium must be rejected")
	}
}
