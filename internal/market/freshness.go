package market

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// FreshnessGuard records when market data for a symbol was last fetched and
// answers whether it is recent enough to trade on. Implementations must be
// safe for concurrent use.
type FreshnessGuard interface {
	// MarkFetched records a successful data fetch for symbol at t.
	MarkFetched(ctx context.Context, symbol string, t time.Time) error
	// IsFresh reports whether symbol's data is newer than maxAge as of now.
	// Symbols never marked are not fresh.
	IsFresh(ctx context.Context, symbol string, now time.Time, maxAge time.Duration) (bool, error)
}

// MemoryFreshness is an in-process FreshnessGuard.
type MemoryFreshness struct {
	mu      sync.RWMutex
	fetched map[string]time.Time
}

// NewMemoryFreshness returns an empty in-memory guard.
func NewMemoryFreshness() *MemoryFreshness {
	return &MemoryFreshness{fetched: make(map[string]time.Time)}
}

// MarkFetched records a fetch time for symbol.
func (m *MemoryFreshness) MarkFetched(_ context.Context, symbol string, t time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched[symbol] = t
	return nil
}

// IsFresh reports whether symbol was fetched within maxAge of now.
func (m *MemoryFreshness) IsFresh(_ context.Context, symbol string, now time.Time, maxAge time.Duration) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.fetched[symbol]
	if !ok {
		return false, nil
	}
	return now.Sub(t) <= maxAge, nil
}

// RedisFreshness stores fetch timestamps in Redis so multiple engine
// instances share one view of data staleness.
type RedisFreshness struct {
	client *redis.Client
	prefix string
}

// NewRedisFreshness wraps an existing Redis client. Keys are namespaced
// under prefix.
func NewRedisFreshness(client *redis.Client, prefix string) *RedisFreshness {
	if prefix == "" {
		prefix = "optionsignals:freshness"
	}
	return &RedisFreshness{client: client, prefix: prefix}
}

func (r *RedisFreshness) key(symbol string) string {
	return fmt.Sprintf("%s:%s", r.prefix, symbol)
}

// MarkFetched stores the fetch time with a one-day TTL.
func (r *RedisFreshness) MarkFetched(ctx context.Context, symbol string, t time.Time) error {
	if err := r.client.Set(ctx, r.key(symbol), t.UnixNano(), 24*time.Hour).Err(); err != nil {
		return fmt.Errorf("mark fetched %s: %w", symbol, err)
	}
	return nil
}

// IsFresh reads the stored fetch time and compares against maxAge. A
// missing key means not fresh; transport errors are returned to the caller.
func (r *RedisFreshness) IsFresh(ctx context.Context, symbol string, now time.Time, maxAge time.Duration) (bool, error) {
	nanos, err := r.client.Get(ctx, r.key(symbol)).Int64()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("freshness lookup %s: %w", symbol, err)
	}
	return now.Sub(time.Unix(0, nanos)) <= maxAge, nil
}

var _ FreshnessGuard = (*MemoryFreshness)(nil)
var _ FreshnessGuard = (*RedisFreshness)(nil)
