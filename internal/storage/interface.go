package storage

import (
	"github.com/tradefly/optionsignals/internal/models"
)

// Interface defines the contract for position and signal persistence.
//
// Implementations must be safe for concurrent use - callers can assume all
// methods are goroutine-safe and can safely call them from multiple
// goroutines.
//
// The provided JSONStorage implementation uses sync.RWMutex to serialize
// access, ensuring all Interface methods are protected for concurrent
// readers and writers.
type Interface interface {
	// Position management
	SavePosition(pos *models.Position) error
	UpdatePosition(pos *models.Position) error
	GetPositionByID(id string) (*models.Position, error)
	GetActivePositions() []models.Position
	GetClosedPositions() []models.Position

	// Signal history
	RecordSignal(sig *models.Signal) error
	GetRecentSignals(limit int) []models.Signal

	// Daily P/L ledger, keyed by YYYY-MM-DD
	AddDailyPnL(date string, delta float64) error
	GetDailyPnL(date string) float64

	// Analytics
	GetStatistics() *Statistics

	// Data persistence
	Save() error
	Load() error
}

// NewStorage creates a new storage implementation (currently JSON-based).
func NewStorage(filepath string) (Interface, error) {
	return NewJSONStorage(filepath)
}
