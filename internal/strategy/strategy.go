// Package strategy implements the signal evaluators. Each evaluator is a
// stateless pipeline of gating filters over one market snapshot; any
// failed gate short-circuits to no signal.
package strategy

import (
	"time"

	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/models"
)

// Snapshot is everything an evaluator may look at for one symbol at one
// instant. Evaluators never fetch data or read the wall clock themselves.
type Snapshot struct {
	Symbol   string
	Contract models.OptionContract

	Bars1m     []models.Bar
	Bars5m     []models.Bar
	Bars15m    []models.Bar
	BarsHourly []models.Bar
	BarsDaily  []models.Bar

	Blocks []models.BlockTrade

	Now time.Time
}

// Evaluator turns a snapshot into at most one signal. A nil result means
// no setup was found; evaluators never return errors for ordinary
// rejections.
type Evaluator interface {
	Name() models.Strategy
	Evaluate(snap *Snapshot) *models.Signal
}

// Calendar is the slice of market.Calendar the evaluators need.
type Calendar interface {
	SessionAt(t time.Time) market.Session
	IsScalpWindow(t time.Time) bool
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
