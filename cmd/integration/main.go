package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/tradefly/optionsignals/internal/greeks"
	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/mock"
	"github.com/tradefly/optionsignals/internal/models"
	"github.com/tradefly/optionsignals/internal/provider"
	"github.com/tradefly/optionsignals/internal/risk"
	"github.com/tradefly/optionsignals/internal/scanner"
	"github.com/tradefly/optionsignals/internal/storage"
	"github.com/tradefly/optionsignals/internal/strategy"
	"github.com/tradefly/optionsignals/internal/tracker"
)

// End-to-end smoke check against the simulated feed. Exercises every layer
// the way the engine does, without touching any live upstream.
func main() {
	fmt.Println("=== Signal Engine - End-to-End Smoke Check ===")
	fmt.Println()

	logger := log.New(os.Stdout, "[E2E] ", log.LstdFlags)
	prov := provider.NewCircuitBreakerProvider(mock.NewProvider())

	storagePath := "data/smoke_check.json"
	store, err := storage.NewJSONStorage(storagePath)
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer func() {
		if err := os.Remove(storagePath); err != nil && !os.IsNotExist(err) {
			logger.Printf("Warning: failed to clean up storage file: %v", err)
		}
	}()

	fmt.Println("All components initialized")
	fmt.Println()

	runChecks(prov, store, logger)
}

func runChecks(prov provider.Provider, store storage.Interface, logger *log.Logger) {
	checks := []struct {
		name string
		fn   func() bool
	}{
		{"Feed Connectivity", func() bool { return checkFeed(prov, logger) }},
		{"Greeks and IV", func() bool { return checkGreeks(prov, logger) }},
		{"Scan Cycle", func() bool { return checkScan(prov, logger) }},
		{"Position Storage", func() bool { return checkStorage(store, logger) }},
		{"Position Lifecycle", func() bool { return checkLifecycle(store, logger) }},
		{"Risk Limits", func() bool { return checkRisk(logger) }},
	}

	passed := 0
	for i, c := range checks {
		fmt.Printf("Check %d: %s\n", i+1, c.name)
		if c.fn() {
			passed++
			fmt.Println("PASSED")
		} else {
			fmt.Println("FAILED")
		}
		fmt.Println()
	}

	fmt.Println("=== Smoke Check Results ===")
	fmt.Printf("Checks passed: %d/%d\n", passed, len(checks))
	if passed != len(checks) {
		os.Exit(1)
	}
}

func checkFeed(prov provider.Provider, logger *log.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	price, err := prov.GetUnderlyingPrice(ctx, "NVDA")
	if err != nil {
		logger.Printf("Underlying price failed: %v", err)
		return false
	}
	logger.Printf("NVDA last: $%.2f", price)

	expirations, err := prov.GetExpirations(ctx, "NVDA")
	if err != nil || len(expirations) == 0 {
		logger.Printf("Expirations failed: %v", err)
		return false
	}
	logger.Printf("Found %d expirations", len(expirations))

	chain, err := prov.GetOptionChain(ctx, "NVDA", expirations[0])
	if err != nil {
		logger.Printf("Option chain failed: %v", err)
		return false
	}
	logger.Printf("Found %d contracts for %s", len(chain), expirations[0])
	return len(chain) > 0
}

func checkGreeks(prov provider.Provider, logger *log.Logger) bool {
	calc := greeks.NewCalculator(greeks.DefaultRiskFreeRate, logger)

	theo := calc.Price(models.OptionTypeCall, 150, 150, 30.0/365, 0.35)
	iv := calc.ImpliedVolatility(models.OptionTypeCall, theo, 150, 150, 30.0/365)
	logger.Printf("Theoretical price %.2f, recovered IV %.4f", theo, iv)
	if iv < 0.34 || iv > 0.36 {
		logger.Printf("IV round-trip outside tolerance")
		return false
	}

	g := calc.Compute(models.OptionTypeCall, 150, 150, 30.0/365, 0.35)
	logger.Printf("ATM call delta %.4f gamma %.4f theta %.4f", g.Delta, g.Gamma, g.Theta)
	return g.Delta > 0.4 && g.Delta < 0.7
}

func checkScan(prov provider.Provider, logger *log.Logger) bool {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cal := market.NewCalendar()
	calc := greeks.NewCalculator(greeks.DefaultRiskFreeRate, logger)
	evaluators := []strategy.Evaluator{
		strategy.NewScalping(strategy.ScalpConfig{}, cal),
		strategy.NewMomentum(strategy.MomentumConfig{}, cal, logger),
		strategy.NewVolumeSpike(strategy.VolumeSpikeConfig{}),
		strategy.NewSwing(strategy.SwingConfig{}),
	}
	filter := strategy.NewQualityFilter(strategy.FilterConfig{}, cal)
	sc := scanner.New(scanner.Config{Symbols: []string{"NVDA", "AMD"}}, prov,
		evaluators, filter, market.NewMemoryFreshness(), calc, market.SystemClock{}, logger)

	signals, err := sc.Scan(ctx)
	if err != nil {
		logger.Printf("Scan failed: %v", err)
		return false
	}
	logger.Printf("Scan produced %d signals", len(signals))
	return true
}

func checkStorage(store storage.Interface, logger *log.Logger) bool {
	if err := store.Load(); err != nil {
		logger.Printf("Load failed: %v", err)
		return false
	}
	logger.Printf("Storage holds %d active positions", len(store.GetActivePositions()))
	if err := store.Save(); err != nil {
		logger.Printf("Save failed: %v", err)
		return false
	}
	logger.Printf("Storage round-trip successful")
	return true
}

func checkLifecycle(store storage.Interface, logger *log.Logger) bool {
	tr := tracker.New(store, market.SystemClock{}, logger)

	contract := models.OptionContract{
		Symbol:     "NVDA",
		Strike:     150,
		Expiration: time.Now().AddDate(0, 0, 25).Format("2006-01-02"),
		OptionType: models.OptionTypeCall,
		Pricing:    models.NewPricing(1.95, 2.05, 2.00),
	}
	sig := models.NewSignal(models.StrategyScalping, models.ActionBuyCall, contract,
		2.00, 2.40, 1.80, 0.80, "smoke check", time.Now())

	pos, err := tr.AddPosition(sig, 1)
	if err != nil {
		logger.Printf("AddPosition failed: %v", err)
		return false
	}
	updated, err := tr.UpdatePrice(pos.ID, 2.40)
	if err != nil {
		logger.Printf("UpdatePrice failed: %v", err)
		return false
	}
	logger.Printf("Position closed as %s with P/L $%.2f", updated.Status, updated.ProfitLoss(updated.ExitPrice))
	return updated.Status == models.StatusHitTarget
}

func checkRisk(logger *log.Logger) bool {
	mgr := risk.NewManager(risk.Limits{})

	ok, reason := mgr.CanTrade(10000, -100, 0)
	logger.Printf("CanTrade with small loss: %t (%s)", ok, reason)
	if !ok {
		return false
	}

	ok, reason = mgr.CanTrade(10000, -500, 0)
	logger.Printf("CanTrade past daily limit: %t (%s)", ok, reason)
	if ok {
		return false
	}

	contracts := mgr.Contracts(mgr.PositionSize(10000), 2.50, 2.00)
	logger.Printf("Sized %d contracts for $200 risk budget", contracts)
	return contracts == 4
}
