// Package mock provides a synthetic market data provider for development
// and paper runs without an upstream feed.
package mock

import (
	"context"
	"crypto/rand"
	"math"
	"math/big"
	"sync"
	"time"

	"github.com/tradefly/optionsignals/internal/greeks"
	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/provider"
)

// secureFloat64 generates a cryptographically secure random float64 between 0 and 1
func secureFloat64() float64 {
	n, err := rand.Int(rand.Reader, big.NewInt(1<<53))
	if err != nil {
		// Fallback to a reasonable default if crypto/rand fails
		return 0.5
	}
	return float64(n.Int64()) / (1 << 53)
}

// secureInt63n generates a cryptographically secure random int64 between 0 and n-1
func secureInt63n(n int64) int64 {
	r, err := rand.Int(rand.Reader, big.NewInt(n))
	if err != nil {
		return n / 2
	}
	return r.Int64()
}

// Provider simulates a slowly drifting market per symbol.
type Provider struct {
	mu     sync.Mutex
	prices map[string]float64
	calc   *greeks.Calculator
	clock  func() time.Time
}

// NewProvider returns a Provider seeding each symbol near $150.
func NewProvider() *Provider {
	return &Provider{
		prices: make(map[string]float64),
		calc:   greeks.NewCalculator(greeks.DefaultRiskFreeRate, nil),
		clock:  time.Now,
	}
}

func (m *Provider) price(symbol string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.prices[symbol]
	if !ok {
		p = 140 + secureFloat64()*20
	}
	// Simulate small price movements.
	p += (secureFloat64() - 0.5) * 2
	m.prices[symbol] = p
	return p
}

// GetUnderlyingPrice returns the drifting synthetic price.
func (m *Provider) GetUnderlyingPrice(_ context.Context, symbol string) (float64, error) {
	return m.price(symbol), nil
}

// GetExpirations returns the next four Fridays.
func (m *Provider) GetExpirations(_ context.Context, _ string) ([]string, error) {
	out := make([]string, 0, 4)
	d := m.clock()
	for len(out) < 4 {
		d = d.Add(24 * time.Hour)
		if d.Weekday() == time.Friday {
			out = append(out, d.Format("2006-01-02"))
		}
	}
	return out, nil
}

// GetOptionChain generates strikes around spot with Black-Scholes pricing
// and greeks at a randomized IV.
func (m *Provider) GetOptionChain(_ context.Context, symbol, expiration string) ([]models.OptionContract, error) {
	spot := m.price(symbol)
	exp, err := time.Parse("2006-01-02", expiration)
	if err != nil {
		return nil, err
	}
	timeYears := exp.Sub(m.clock()).Hours() / 24 / 365
	if timeYears < 0 {
		timeYears = 0
	}
	iv := 0.25 + secureFloat64()*0.30

	base := math.Round(spot/5) * 5
	var chain []models.OptionContract
	for offset := -10.0; offset <= 10.0; offset += 5.0 {
		strike := base + offset
		for _, optType := range []models.OptionType{models.OptionTypeCall, models.OptionTypePut} {
			mark := m.calc.Price(optType, spot, strike, timeYears, iv)
			spread := 0.02 + mark*0.02
			volume := secureInt63n(5000)
			chain = append(chain, models.OptionContract{
				Symbol:          symbol,
				Strike:          strike,
				Expiration:      expiration,
				OptionType:      optType,
				Pricing:         models.NewPricing(math.Max(0, mark-spread/2), mark+spread/2, mark),
				Volume:          models.NewVolumeMetrics(volume, secureInt63n(10000), volume/2+1),
				Greeks:          m.calc.Compute(optType, spot, strike, timeYears, iv),
				IV:              models.IVMetrics{IV: iv, IVRank: 50, IVPercentile: 50},
				UnderlyingPrice: spot,
				Timestamp:       m.clock(),
			})
		}
	}
	return chain, nil
}

// GetBars returns a random walk ending near the current synthetic price.
func (m *Provider) GetBars(_ context.Context, symbol string, interval provider.Interval, limit int) ([]models.Bar, error) {
	step := map[provider.Interval]time.Duration{
		provider.Interval1m:     time.Minute,
		provider.Interval5m:     5 * time.Minute,
		provider.Interval15m:    15 * time.Minute,
		provider.IntervalHourly: time.Hour,
		provider.IntervalDaily:  24 * time.Hour,
	}[interval]
	if step == 0 {
		step = time.Minute
	}

	end := m.clock()
	p := m.price(symbol)
	bars := make([]models.Bar, limit)
	// Walk backwards from the present so the last bar matches spot.
	for i := limit - 1; i >= 0; i-- {
		move := (secureFloat64() - 0.5) * p * 0.004
		bars[i] = models.Bar{
			Timestamp: end.Add(-time.Duration(limit-1-i) * step),
			Open:      p - move,
			High:      math.Max(p, p-move) * 1.001,
			Low:       math.Min(p, p-move) * 0.999,
			Close:     p,
			Volume:    float64(secureInt63n(1_000_000)),
		}
		p -= move
	}
	return bars, nil
}

// GetBlockTrades occasionally fabricates a burst of institutional prints.
func (m *Provider) GetBlockTrades(_ context.Context, _ string) ([]models.BlockTrade, error) {
	if secureFloat64() < 0.8 {
		return nil, nil
	}
	n := 3 + int(secureInt63n(4))
	side := "buy"
	if secureFloat64() < 0.5 {
		side = "sell"
	}
	now := m.clock()
	out := make([]models.BlockTrade, n)
	for i := range out {
		out[i] = models.BlockTrade{
			Size:  100 + secureInt63n(3000),
			Price: 1 + secureFloat64()*5,
			Side:  side,
			Time:  now.Add(-time.Duration(i) * time.Minute),
		}
	}
	return out, nil
}

// GetIVHistory returns a mean-reverting IV series around 30%.
func (m *Provider) GetIVHistory(_ context.Context, _ string, days int) ([]float64, error) {
	out := make([]float64, days)
	iv := 0.30
	for i := range out {
		iv += (secureFloat64() - 0.5) * 0.02
		if iv < 0.05 {
			iv = 0.05
		}
		out[i] = iv
	}
	return out, nil
}

// Ensure Provider implements the market data interface.
var _ provider.Provider = (*Provider)(nil)
