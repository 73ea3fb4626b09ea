package storage

import (
	"fmt"
	"sync"

	"github.com/tradefly/optionsignals/internal/models"
)

// MockStorage is an in-memory Interface implementation for tests. Error
// fields, when set, are returned by the corresponding methods.
type MockStorage struct {
	mu        sync.RWMutex
	positions map[string]models.Position
	signals   []models.Signal
	dailyPnL  map[string]float64

	SaveErr   error
	UpdateErr error
	RecordErr error
}

// NewMockStorage returns an empty MockStorage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		positions: make(map[string]models.Position),
		dailyPnL:  make(map[string]float64),
	}
}

// SavePosition stores a new position, rejecting duplicate ids.
func (m *MockStorage) SavePosition(pos *models.Position) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.positions[pos.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePosition, pos.ID)
	}
	m.positions[pos.ID] = *pos
	return nil
}

// UpdatePosition overwrites an existing position.
func (m *MockStorage) UpdatePosition(pos *models.Position) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.positions[pos.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrPositionNotFound, pos.ID)
	}
	m.positions[pos.ID] = *pos
	return nil
}

// GetPositionByID returns a copy of the stored position.
func (m *MockStorage) GetPositionByID(id string) (*models.Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, id)
	}
	return &pos, nil
}

// GetActivePositions returns all open positions.
func (m *MockStorage) GetActivePositions() []models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Position
	for _, p := range m.positions {
		if p.Status == models.StatusActive {
			out = append(out, p)
		}
	}
	return out
}

// GetClosedPositions returns all terminal positions.
func (m *MockStorage) GetClosedPositions() []models.Position {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Position
	for _, p := range m.positions {
		if p.Status.IsTerminal() {
			out = append(out, p)
		}
	}
	return out
}

// RecordSignal appends to the in-memory signal log.
func (m *MockStorage) RecordSignal(sig *models.Signal) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signals = append(m.signals, *sig)
	return nil
}

// GetRecentSignals returns up to limit signals, newest last.
func (m *MockStorage) GetRecentSignals(limit int) []models.Signal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.signals)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.Signal, limit)
	copy(out, m.signals[n-limit:])
	return out
}

// AddDailyPnL accumulates realized P/L under the date key.
func (m *MockStorage) AddDailyPnL(date string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dailyPnL[date] += delta
	return nil
}

// GetDailyPnL returns the accumulated P/L for the date.
func (m *MockStorage) GetDailyPnL(date string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dailyPnL[date]
}

// GetStatistics computes statistics over the closed positions.
func (m *MockStorage) GetStatistics() *Statistics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	stats := &Statistics{ByStrategy: make(map[models.Strategy]StrategyStats)}
	for _, p := range m.positions {
		if !p.Status.IsTerminal() {
			continue
		}
		pnl := p.ProfitLoss(p.ExitPrice)
		stats.TotalTrades++
		stats.TotalPnL += pnl
		if pnl > 0 {
			stats.WinningTrades++
		} else if pnl < 0 {
			stats.LosingTrades++
		}
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}
	return stats
}

// Save is a no-op for the in-memory mock.
func (m *MockStorage) Save() error { return nil }

// Load is a no-op for the in-memory mock.
func (m *MockStorage) Load() error { return nil }

// Ensure MockStorage implements Interface.
var _ Interface = (*MockStorage)(nil)
