// Package scanner drives the evaluation cycle: it fans out across the
// watchlist, assembles per-symbol snapshots, and runs every evaluator over
// the candidate contracts.
package scanner

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tradefly/optionsignals/internal/greeks"
	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/provider"
	"github.com/tradefly/optionsignals/internal/retry"
	"github.com/tradefly/optionsignals/internal/strategy"
)

// Config holds the scanner's knobs.
type Config struct {
	Symbols     []string `yaml:"symbols"`
	Concurrency int      `yaml:"concurrency"`
	// MaxDataAge is a Go duration string, e.g. "2m".
	MaxDataAge string `yaml:"max_data_age"`
	IVDays     int    `yaml:"iv_days"`

	maxDataAge time.Duration
}

// Normalize fills zero fields with the production defaults.
func (c *Config) Normalize() {
	if c.Concurrency == 0 {
		c.Concurrency = 4
	}
	c.maxDataAge = 2 * time.Minute
	if d, err := time.ParseDuration(c.MaxDataAge); err == nil && d > 0 {
		c.maxDataAge = d
	}
	if c.IVDays == 0 {
		c.IVDays = 30
	}
}

// Scanner assembles snapshots and runs the evaluator pipeline.
type Scanner struct {
	cfg        Config
	provider   provider.Provider
	evaluators []strategy.Evaluator
	filter     *strategy.QualityFilter
	freshness  market.FreshnessGuard
	calc       *greeks.Calculator
	clock      market.Clock
	logger     *log.Logger
}

// New builds a Scanner. A nil logger falls back to the process default.
func New(cfg Config, p provider.Provider, evaluators []strategy.Evaluator,
	filter *strategy.QualityFilter, freshness market.FreshnessGuard,
	calc *greeks.Calculator, clock market.Clock, logger *log.Logger) *Scanner {
	cfg.Normalize()
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		cfg:        cfg,
		provider:   p,
		evaluators: evaluators,
		filter:     filter,
		freshness:  freshness,
		calc:       calc,
		clock:      clock,
		logger:     logger,
	}
}

// Scan evaluates the whole watchlist concurrently and returns the surviving
// signals ordered by confidence, highest first. A failing symbol is logged
// and skipped; one bad ticker does not abort the cycle.
func (s *Scanner) Scan(ctx context.Context) ([]models.Signal, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)

	var mu sync.Mutex
	var out []models.Signal
	for _, symbol := range s.cfg.Symbols {
		symbol := symbol
		g.Go(func() error {
			signals, err := s.scanSymbol(ctx, symbol)
			if err != nil {
				s.logger.Printf("WARN: scan %s: %v", symbol, err)
				return nil
			}
			mu.Lock()
			out = append(out, signals...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	return out, nil
}

func (s *Scanner) scanSymbol(ctx context.Context, symbol string) ([]models.Signal, error) {
	now := s.clock.Now()
	snap, err := retry.Do(ctx, s.logger, retry.DefaultConfig, "snapshot "+symbol,
		func(ctx context.Context) (*symbolSnapshot, error) {
			return s.buildSnapshot(ctx, symbol, now)
		})
	if err != nil {
		return nil, err
	}
	if err := s.freshness.MarkFetched(ctx, symbol, snap.dataTime); err != nil {
		s.logger.Printf("WARN: freshness mark %s: %v", symbol, err)
	}
	fresh, err := s.freshness.IsFresh(ctx, symbol, s.clock.Now(), s.cfg.maxDataAge)
	if err != nil {
		return nil, fmt.Errorf("freshness check: %w", err)
	}
	if !fresh {
		return nil, fmt.Errorf("market data for %s older than %s", symbol, s.cfg.maxDataAge)
	}

	var out []models.Signal
	for _, candidate := range snap.candidates {
		eval := *snap.base
		eval.Contract = candidate
		for _, e := range s.evaluators {
			sig := s.filter.Apply(e.Evaluate(&eval))
			if sig != nil {
				out = append(out, *sig)
			}
		}
	}
	return out, nil
}

type symbolSnapshot struct {
	base       *strategy.Snapshot
	candidates []models.OptionContract
	// dataTime is the newest timestamp carried by the fetched quotes and
	// bars. The freshness guard is marked with this, not the fetch time,
	// so an upstream serving stale payloads fails the age check.
	dataTime time.Time
}

// newestDataTime scans the fetched payload for the latest quote or bar
// timestamp. Zero when nothing in the payload is timestamped.
func newestDataTime(chain []models.OptionContract, barSets ...[]models.Bar) time.Time {
	var newest time.Time
	for i := range chain {
		if chain[i].Timestamp.After(newest) {
			newest = chain[i].Timestamp
		}
	}
	for _, bars := range barSets {
		for i := range bars {
			if bars[i].Timestamp.After(newest) {
				newest = bars[i].Timestamp
			}
		}
	}
	return newest
}

// buildSnapshot fetches everything the evaluators need for one symbol and
// enriches the candidate contracts with computed greeks and IV metrics.
func (s *Scanner) buildSnapshot(ctx context.Context, symbol string, now time.Time) (*symbolSnapshot, error) {
	spot, err := s.provider.GetUnderlyingPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("underlying price: %w", err)
	}
	expirations, err := s.provider.GetExpirations(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("expirations: %w", err)
	}
	if len(expirations) == 0 {
		return nil, fmt.Errorf("no expirations for %s", symbol)
	}

	var chain []models.OptionContract
	for _, exp := range expirations {
		contracts, err := s.provider.GetOptionChain(ctx, symbol, exp)
		if err != nil {
			return nil, fmt.Errorf("chain %s: %w", exp, err)
		}
		chain = append(chain, contracts...)
	}

	bars1m, err := s.provider.GetBars(ctx, symbol, provider.Interval1m, 30)
	if err != nil {
		return nil, fmt.Errorf("1m bars: %w", err)
	}
	bars5m, err := s.provider.GetBars(ctx, symbol, provider.Interval5m, 30)
	if err != nil {
		return nil, fmt.Errorf("5m bars: %w", err)
	}
	bars15m, err := s.provider.GetBars(ctx, symbol, provider.Interval15m, 50)
	if err != nil {
		return nil, fmt.Errorf("15m bars: %w", err)
	}
	barsHourly, err := s.provider.GetBars(ctx, symbol, provider.IntervalHourly, 50)
	if err != nil {
		return nil, fmt.Errorf("hourly bars: %w", err)
	}
	barsDaily, err := s.provider.GetBars(ctx, symbol, provider.IntervalDaily, 30)
	if err != nil {
		return nil, fmt.Errorf("daily bars: %w", err)
	}
	blocks, err := s.provider.GetBlockTrades(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("block trades: %w", err)
	}
	ivHistory, err := s.provider.GetIVHistory(ctx, symbol, s.cfg.IVDays)
	if err != nil {
		return nil, fmt.Errorf("iv history: %w", err)
	}

	base := &strategy.Snapshot{
		Symbol:     symbol,
		Bars1m:     bars1m,
		Bars5m:     bars5m,
		Bars15m:    bars15m,
		BarsHourly: barsHourly,
		BarsDaily:  barsDaily,
		Blocks:     blocks,
		Now:        now,
	}
	// Untimestamped feeds fall back to the fetch time.
	dataTime := newestDataTime(chain, bars1m, bars5m, bars15m, barsHourly, barsDaily)
	if dataTime.IsZero() {
		dataTime = now
	}
	return &symbolSnapshot{
		base:       base,
		candidates: s.pickCandidates(chain, spot, ivHistory, now),
		dataTime:   dataTime,
	}, nil
}

// pickCandidates keeps the near-the-money call and put of each expiration,
// with greeks recomputed from the mark and IV rank filled from history.
func (s *Scanner) pickCandidates(chain []models.OptionContract, spot float64, ivHistory []float64, now time.Time) []models.OptionContract {
	type key struct {
		exp string
		typ models.OptionType
	}
	best := make(map[key]models.OptionContract)
	for _, c := range chain {
		k := key{c.Expiration, c.OptionType}
		cur, ok := best[k]
		if !ok || math.Abs(c.Strike-spot) < math.Abs(cur.Strike-spot) {
			best[k] = c
		}
	}

	out := make([]models.OptionContract, 0, len(best))
	for _, c := range best {
		c.UnderlyingPrice = spot
		if c.Timestamp.IsZero() {
			c.Timestamp = now
		}
		timeYears := float64(c.DaysToExpiration(now)) / 365
		iv := c.IV.IV
		if iv <= 0 && c.Pricing.Mark > 0 {
			iv = s.calc.ImpliedVolatility(c.OptionType, c.Pricing.Mark, spot, c.Strike, timeYears)
		}
		c.Greeks = s.calc.Compute(c.OptionType, spot, c.Strike, timeYears, iv)
		c.IV = models.IVMetrics{
			IV:           iv,
			IVRank:       greeks.IVRank(iv, ivHistory),
			IVPercentile: greeks.IVPercentile(iv, ivHistory),
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Expiration != out[j].Expiration {
			return out[i].Expiration < out[j].Expiration
		}
		return out[i].OptionType < out[j].OptionType
	})
	return out
}
