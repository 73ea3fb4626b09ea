package provider

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tradefly/optionsignals/internal/models"
)

// CircuitBreakerProvider wraps a Provider so a misbehaving upstream trips
// open instead of stalling every scan cycle.
type CircuitBreakerProvider struct {
	provider Provider
	breaker  *gobreaker.CircuitBreaker
}

// BreakerSettings configures circuit breaker behavior.
type BreakerSettings struct {
	MaxRequests  uint32        // Max requests when half-open
	Interval     time.Duration // Reset counts interval
	Timeout      time.Duration // Open circuit duration
	MinRequests  uint32        // Min requests before tripping
	FailureRatio float64       // Failure ratio threshold
}

// NewCircuitBreakerProvider wraps provider with sensible defaults.
func NewCircuitBreakerProvider(p Provider) *CircuitBreakerProvider {
	return NewCircuitBreakerProviderWithSettings(p, BreakerSettings{
		MaxRequests:  3,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
}

// NewCircuitBreakerProviderWithSettings wraps provider with custom settings.
func NewCircuitBreakerProviderWithSettings(p Provider, settings BreakerSettings) *CircuitBreakerProvider {
	gbSettings := gobreaker.Settings{
		Name:        "MarketDataCircuitBreaker",
		MaxRequests: settings.MaxRequests,
		Interval:    settings.Interval,
		Timeout:     settings.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 || counts.Requests < settings.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= settings.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s state changed from %s to %s", name, from, to)
		},
	}
	return &CircuitBreakerProvider{
		provider: p,
		breaker:  gobreaker.NewCircuitBreaker(gbSettings),
	}
}

// exec is a generic helper for circuit breaker wrapper methods.
func exec[T any](breaker *gobreaker.CircuitBreaker, p Provider, fn func(Provider) (T, error)) (T, error) {
	var zero T
	res, err := breaker.Execute(func() (interface{}, error) { return fn(p) })
	if err != nil {
		return zero, err
	}
	if res == nil {
		return zero, nil
	}
	v, ok := res.(T)
	if !ok {
		return zero, errors.New("circuit breaker: type assertion failed")
	}
	return v, nil
}

// GetUnderlyingPrice wraps the underlying provider call with the breaker.
func (c *CircuitBreakerProvider) GetUnderlyingPrice(ctx context.Context, symbol string) (float64, error) {
	return exec(c.breaker, c.provider, func(p Provider) (float64, error) {
		return p.GetUnderlyingPrice(ctx, symbol)
	})
}

// GetOptionChain wraps the underlying provider call with the breaker.
func (c *CircuitBreakerProvider) GetOptionChain(ctx context.Context, symbol, expiration string) ([]models.OptionContract, error) {
	return exec(c.breaker, c.provider, func(p Provider) ([]models.OptionContract, error) {
		return p.GetOptionChain(ctx, symbol, expiration)
	})
}

// GetExpirations wraps the underlying provider call with the breaker.
func (c *CircuitBreakerProvider) GetExpirations(ctx context.Context, symbol string) ([]string, error) {
	return exec(c.breaker, c.provider, func(p Provider) ([]string, error) {
		return p.GetExpirations(ctx, symbol)
	})
}

// GetBars wraps the underlying provider call with the breaker.
func (c *CircuitBreakerProvider) GetBars(ctx context.Context, symbol string, interval Interval, limit int) ([]models.Bar, error) {
	return exec(c.breaker, c.provider, func(p Provider) ([]models.Bar, error) {
		return p.GetBars(ctx, symbol, interval, limit)
	})
}

// GetBlockTrades wraps the underlying provider call with the breaker.
func (c *CircuitBreakerProvider) GetBlockTrades(ctx context.Context, symbol string) ([]models.BlockTrade, error) {
	return exec(c.breaker, c.provider, func(p Provider) ([]models.BlockTrade, error) {
		return p.GetBlockTrades(ctx, symbol)
	})
}

// GetIVHistory wraps the underlying provider call with the breaker.
func (c *CircuitBreakerProvider) GetIVHistory(ctx context.Context, symbol string, days int) ([]float64, error) {
	return exec(c.breaker, c.provider, func(p Provider) ([]float64, error) {
		return p.GetIVHistory(ctx, symbol, days)
	})
}

// Ensure CircuitBreakerProvider implements Provider.
var _ Provider = (*CircuitBreakerProvider)(nil)
