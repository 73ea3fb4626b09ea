package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tradefly/optionsignals/internal/models"
)

type failingProvider struct {
	err error
}

func (f *failingProvider) GetUnderlyingPrice(context.Context, string) (float64, error) {
	return 0, f.err
}
func (f *failingProvider) GetOptionChain(context.Context, string, string) ([]models.OptionContract, error) {
	return nil, f.err
}
func (f *failingProvider) GetExpirations(context.Context, string) ([]string, error) {
	return nil, f.err
}
func (f *failingProvider) GetBars(context.Context, string, Interval, int) ([]models.Bar, error) {
	return nil, f.err
}
func (f *failingProvider) GetBlockTrades(context.Context, string) ([]models.BlockTrade, error) {
	return nil, f.err
}
func (f *failingProvider) GetIVHistory(context.Context, string, int) ([]float64, error) {
	return nil, f.err
}

var _ Provider = (*failingProvider)(nil)

func TestBreakerTripsAfterRepeatedFailures(t *testing.T) {
	upstream := &failingProvider{err: errors.New("upstream down")}
	cb := NewCircuitBreakerProviderWithSettings(upstream, BreakerSettings{
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  5,
		FailureRatio: 0.6,
	})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := cb.GetUnderlyingPrice(ctx, "NVDA"); err == nil {
			t.Fatal("expected upstream error")
		}
	}
	if cb.breaker.State() != gobreaker.StateOpen {
		t.Errorf("breaker state = %s, want open after 5 failures", cb.breaker.State())
	}
	if _, err := cb.GetBars(ctx, "NVDA", Interval1m, 10); !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("err = %v, want gobreaker.ErrOpenState", err)
	}
}

func TestBreakerPassesThroughSuccess(t *testing.T) {
	// A provider that succeeds never trips.
	upstream := &failingProvider{err: nil}
	cb := NewCircuitBreakerProvider(upstream)

	if _, err := cb.GetExpirations(context.Background(), "NVDA"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cb.breaker.State() != gobreaker.StateClosed {
		t.Errorf("breaker state = %s, want closed", cb.breaker.State())
	}
}
