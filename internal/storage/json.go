package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/tradefly/optionsignals/internal/models"
)

// maxSignalHistory caps the retained signal log so the file stays small.
const maxSignalHistory = 500

// JSONStorage persists engine state as a single JSON document on disk.
type JSONStorage struct {
	mu       sync.RWMutex
	filepath string
	data     *storageData
}

type storageData struct {
	Positions   map[string]models.Position `json:"positions"`
	Signals     []models.Signal            `json:"signals"`
	DailyPnL    map[string]float64         `json:"daily_pnl"`
	LastUpdated time.Time                  `json:"last_updated"`
}

// Statistics summarizes the closed-trade history.
type Statistics struct {
	TotalTrades   int     `json:"total_trades"`
	WinningTrades int     `json:"winning_trades"`
	LosingTrades  int     `json:"losing_trades"`
	WinRate       float64 `json:"win_rate"`
	TotalPnL      float64 `json:"total_pnl"`
	AverageWin    float64 `json:"average_win"`
	AverageLoss   float64 `json:"average_loss"`
	ProfitFactor  float64 `json:"profit_factor"`

	ByStrategy map[models.Strategy]StrategyStats `json:"by_strategy"`
}

// StrategyStats is the per-evaluator slice of Statistics.
type StrategyStats struct {
	Trades int     `json:"trades"`
	Wins   int     `json:"wins"`
	PnL    float64 `json:"pnl"`
}

// NewJSONStorage opens or creates the storage file at filepath.
func NewJSONStorage(filepath string) (*JSONStorage, error) {
	s := &JSONStorage{
		filepath: filepath,
		data: &storageData{
			Positions: make(map[string]models.Position),
			DailyPnL:  make(map[string]float64),
		},
	}
	if _, err := os.Stat(filepath); err == nil {
		if err := s.Load(); err != nil {
			return nil, fmt.Errorf("loading storage: %w", err)
		}
	}
	return s, nil
}

// Load replaces in-memory state with the file's contents.
func (s *JSONStorage) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.filepath)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		return fmt.Errorf("parsing %s: %w", s.filepath, err)
	}
	if s.data.Positions == nil {
		s.data.Positions = make(map[string]models.Position)
	}
	if s.data.DailyPnL == nil {
		s.data.DailyPnL = make(map[string]float64)
	}
	return nil
}

// Save writes the current state to disk atomically via a temp file rename.
func (s *JSONStorage) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked()
}

func (s *JSONStorage) saveLocked() error {
	s.data.LastUpdated = time.Now()

	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}
	tmpFile := s.filepath + ".tmp"
	if err := os.WriteFile(tmpFile, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpFile, s.filepath)
}

// SavePosition stores a new position. Colliding ids are rejected.
func (s *JSONStorage) SavePosition(pos *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Positions[pos.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicatePosition, pos.ID)
	}
	s.data.Positions[pos.ID] = *pos
	return s.saveLocked()
}

// UpdatePosition overwrites an existing position.
func (s *JSONStorage) UpdatePosition(pos *models.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data.Positions[pos.ID]; !exists {
		return fmt.Errorf("%w: %s", ErrPositionNotFound, pos.ID)
	}
	s.data.Positions[pos.ID] = *pos
	return s.saveLocked()
}

// GetPositionByID returns a copy of the stored position.
func (s *JSONStorage) GetPositionByID(id string) (*models.Position, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pos, ok := s.data.Positions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPositionNotFound, id)
	}
	return &pos, nil
}

// GetActivePositions returns copies of all open positions.
func (s *JSONStorage) GetActivePositions() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Position
	for _, p := range s.data.Positions {
		if p.Status == models.StatusActive {
			out = append(out, p)
		}
	}
	return out
}

// GetClosedPositions returns copies of all terminal positions.
func (s *JSONStorage) GetClosedPositions() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Position
	for _, p := range s.data.Positions {
		if p.Status.IsTerminal() {
			out = append(out, p)
		}
	}
	return out
}

// RecordSignal appends to the signal log, trimming the oldest entries past
// the retention cap.
func (s *JSONStorage) RecordSignal(sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Signals = append(s.data.Signals, *sig)
	if len(s.data.Signals) > maxSignalHistory {
		s.data.Signals = s.data.Signals[len(s.data.Signals)-maxSignalHistory:]
	}
	return s.saveLocked()
}

// GetRecentSignals returns up to limit signals, newest last.
func (s *JSONStorage) GetRecentSignals(limit int) []models.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.data.Signals)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.Signal, limit)
	copy(out, s.data.Signals[n-limit:])
	return out
}

// AddDailyPnL accumulates realized P/L under the given date key.
func (s *JSONStorage) AddDailyPnL(date string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.DailyPnL[date] += delta
	return s.saveLocked()
}

// GetDailyPnL returns the accumulated P/L for the date, zero if absent.
func (s *JSONStorage) GetDailyPnL(date string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.DailyPnL[date]
}

// GetStatistics computes win/loss statistics over the closed positions.
func (s *JSONStorage) GetStatistics() *Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Statistics{ByStrategy: make(map[models.Strategy]StrategyStats)}
	var winSum, lossSum float64
	for _, p := range s.data.Positions {
		if !p.Status.IsTerminal() {
			continue
		}
		pnl := p.ProfitLoss(p.ExitPrice)
		stats.TotalTrades++
		stats.TotalPnL += pnl

		ss := stats.ByStrategy[p.Strategy]
		ss.Trades++
		ss.PnL += pnl
		if pnl > 0 {
			stats.WinningTrades++
			winSum += pnl
			ss.Wins++
		} else if pnl < 0 {
			stats.LosingTrades++
			lossSum += pnl
		}
		stats.ByStrategy[p.Strategy] = ss
	}
	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}
	if stats.WinningTrades > 0 {
		stats.AverageWin = winSum / float64(stats.WinningTrades)
	}
	if stats.LosingTrades > 0 {
		stats.AverageLoss = lossSum / float64(stats.LosingTrades)
	}
	if lossSum < 0 {
		stats.ProfitFactor = winSum / -lossSum
	}
	return stats
}

// Ensure JSONStorage implements Interface.
var _ Interface = (*JSONStorage)(nil)
