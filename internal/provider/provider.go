// Package provider defines the market data interface the engine consumes
// and a circuit-breaker wrapper for flaky upstreams.
package provider

import (
	"context"

	"github.com/tradefly/optionsignals/internal/models"
)

// Interval identifies a bar aggregation period.
type Interval string

const (
	// Interval1m is one-minute bars.
	Interval1m Interval = "1m"
	// Interval5m is five-minute bars.
	Interval5m Interval = "5m"
	// Interval15m is fifteen-minute bars.
	Interval15m Interval = "15m"
	// IntervalHourly is hourly bars.
	IntervalHourly Interval = "1h"
	// IntervalDaily is daily bars.
	IntervalDaily Interval = "1d"
)

// Provider supplies market data to the scanner and evaluators.
//
// Implementations must be safe for concurrent use; the scanner fans out
// across symbols with one goroutine per symbol.
type Provider interface {
	// GetUnderlyingPrice returns the latest underlying trade price.
	GetUnderlyingPrice(ctx context.Context, symbol string) (float64, error)

	// GetOptionChain returns the contracts for one expiration.
	GetOptionChain(ctx context.Context, symbol, expiration string) ([]models.OptionContract, error)

	// GetExpirations returns available expiration dates, soonest first.
	GetExpirations(ctx context.Context, symbol string) ([]string, error)

	// GetBars returns up to limit bars, oldest first.
	GetBars(ctx context.Context, symbol string, interval Interval, limit int) ([]models.Bar, error)

	// GetBlockTrades returns today's large option prints for the symbol.
	GetBlockTrades(ctx context.Context, symbol string) ([]models.BlockTrade, error)

	// GetIVHistory returns the trailing daily IV readings, oldest first.
	GetIVHistory(ctx context.Context, symbol string, days int) ([]float64, error)
}
