// Package models provides data structures for option contracts, trading
// signals, and tracked positions.
package models

import (
	"fmt"
	"time"
)

// SharesPerContract is the standard US equity option multiplier.
const SharesPerContract = 100.0

// OptionType represents the type of option contract.
type OptionType string

const (
	// OptionTypeCall represents a call option contract.
	OptionTypeCall OptionType = "call"
	// OptionTypePut represents a put option contract.
	OptionTypePut OptionType = "put"
)

// Valid returns true if the OptionType is one of the defined constants.
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// Moneyness classifies a contract relative to the underlying price.
type Moneyness string

const (
	// MoneynessITM means the contract is in the money.
	MoneynessITM Moneyness = "ITM"
	// MoneynessATM means the contract is at the money (within 2% of spot).
	MoneynessATM Moneyness = "ATM"
	// MoneynessOTM means the contract is out of the money.
	MoneynessOTM Moneyness = "OTM"
)

// Pricing holds a real-time option quote.
type Pricing struct {
	Bid  float64 `json:"bid"`
	Ask  float64 `json:"ask"`
	Last float64 `json:"last"`
	Mark float64 `json:"mark"`
}

// NewPricing builds a Pricing with the mark derived from bid/ask, falling
// back to the last trade when either side of the book is missing.
func NewPricing(bid, ask, last float64) Pricing {
	mark := last
	if bid > 0 && ask > 0 {
		mark = (bid + ask) / 2
	}
	return Pricing{Bid: bid, Ask: ask, Last: last, Mark: mark}
}

// Spread returns the bid-ask spread.
func (p Pricing) Spread() float64 {
	return p.Ask - p.Bid
}

// SpreadPercent returns the spread as a percentage of the mark price.
func (p Pricing) SpreadPercent() float64 {
	if p.Mark <= 0 {
		return 0
	}
	return (p.Spread() / p.Mark) * 100
}

// VolumeMetrics holds volume and open interest data for a contract.
type VolumeMetrics struct {
	Volume       int64   `json:"volume"`
	OpenInterest int64   `json:"open_interest"`
	VolumeAvg30d int64   `json:"volume_avg_30d"`
	VolumeRatio  float64 `json:"volume_ratio"` // current volume / 30d average
}

// NewVolumeMetrics computes the ratio from the raw counts. A missing 30-day
// average yields a neutral 1.0 ratio rather than a division blow-up.
func NewVolumeMetrics(volume, openInterest, avg30d int64) VolumeMetrics {
	ratio := 1.0
	if avg30d > 0 {
		ratio = float64(volume) / float64(avg30d)
	}
	return VolumeMetrics{
		Volume:       volume,
		OpenInterest: openInterest,
		VolumeAvg30d: avg30d,
		VolumeRatio:  ratio,
	}
}

// Greeks holds the option risk sensitivities.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"` // daily decay
	Vega  float64 `json:"vega"`  // per 1% IV change
	Rho   float64 `json:"rho"`   // per 1% rate change
}

// IVMetrics holds implied volatility and its position within history.
type IVMetrics struct {
	IV           float64 `json:"iv"`            // decimal, 0.30 = 30%
	IVRank       float64 `json:"iv_rank"`       // 0-100
	IVPercentile float64 `json:"iv_percentile"` // 0-100
}

// OptionContract is an immutable snapshot of one option at one point in
// time. It is constructed fresh on every data fetch and never mutated;
// derived values are methods, not stored fields.
type OptionContract struct {
	Symbol          string        `json:"symbol"`
	Strike          float64       `json:"strike"`
	Expiration      string        `json:"expiration"` // YYYY-MM-DD
	OptionType      OptionType    `json:"option_type"`
	Pricing         Pricing       `json:"pricing"`
	Volume          VolumeMetrics `json:"volume_metrics"`
	Greeks          Greeks        `json:"greeks"`
	IV              IVMetrics     `json:"iv_metrics"`
	UnderlyingPrice float64       `json:"underlying_price"`
	Timestamp       time.Time     `json:"timestamp"`
}

// OccSymbol returns the OCC-style contract identifier, e.g. NVDA250113C00145000.
func (c *OptionContract) OccSymbol() string {
	exp, err := time.Parse("2006-01-02", c.Expiration)
	if err != nil {
		return c.Symbol
	}
	typeChar := "C"
	if c.OptionType == OptionTypePut {
		typeChar = "P"
	}
	return fmt.Sprintf("%s%s%s%08d", c.Symbol, exp.Format("060102"), typeChar, int64(c.Strike*1000))
}

// DaysToExpiration returns whole days between now and expiration, clamped
// at zero for same-day expiries. Returns -1 if the expiration string does
// not parse; callers treat that as "unknown, skip the dependent check".
func (c *OptionContract) DaysToExpiration(now time.Time) int {
	exp, err := time.Parse("2006-01-02", c.Expiration)
	if err != nil {
		return -1
	}
	days := int(exp.Sub(now.UTC().Truncate(24*time.Hour)).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Moneyness classifies the contract as ITM, ATM, or OTM using a 2% band
// around the strike.
func (c *OptionContract) Moneyness() Moneyness {
	if c.OptionType == OptionTypeCall {
		switch {
		case c.UnderlyingPrice > c.Strike*1.02:
			return MoneynessITM
		case c.UnderlyingPrice < c.Strike*0.98:
			return MoneynessOTM
		default:
			return MoneynessATM
		}
	}
	switch {
	case c.UnderlyingPrice < c.Strike*0.98:
		return MoneynessITM
	case c.UnderlyingPrice > c.Strike*1.02:
		return MoneynessOTM
	default:
		return MoneynessATM
	}
}

// IntrinsicValue returns the exercise value of the contract.
func (c *OptionContract) IntrinsicValue() float64 {
	var v float64
	if c.OptionType == OptionTypeCall {
		v = c.UnderlyingPrice - c.Strike
	} else {
		v = c.Strike - c.UnderlyingPrice
	}
	if v < 0 {
		return 0
	}
	return v
}

// ExtrinsicValue returns the time value embedded in the mark price.
func (c *OptionContract) ExtrinsicValue() float64 {
	return c.Pricing.Mark - c.IntrinsicValue()
}

// Bar is a single OHLCV price bar. Histories are ordered oldest to newest.
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Closes extracts the close series from a bar history.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}

// BlockTrade is a single large order observed on the tape, used by the
// unusual-options-activity evaluator.
type BlockTrade struct {
	Size  int64     `json:"size"`
	Price float64   `json:"price"`
	Side  string    `json:"side"` // "buy" or "sell"
	Time  time.Time `json:"time"`
}
