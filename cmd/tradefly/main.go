package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tradefly/optionsignals/internal/config"
	"github.com/tradefly/optionsignals/internal/dashboard"
	"github.com/tradefly/optionsignals/internal/greeks"
	"github.com/tradefly/optionsignals/internal/market"
	"github.com/tradefly/optionsignals/internal/mock"
	"github.com/tradefly/optionsignals/internal/provider"
	"github.com/tradefly/optionsignals/internal/risk"
	"github.com/tradefly/optionsignals/internal/scanner"
	"github.com/tradefly/optionsignals/internal/storage"
	"github.com/tradefly/optionsignals/internal/strategy"
	"github.com/tradefly/optionsignals/internal/tracker"
)

var errLiveFeedUnavailable = errors.New("no live market data provider configured; set engine.use_mock_data")

// Engine ties the scanner, tracker, and risk manager into one scan loop.
type Engine struct {
	cfg      *config.Config
	provider provider.Provider
	scanner  *scanner.Scanner
	tracker  *tracker.Tracker
	risk     *risk.Manager
	store    storage.Interface
	clock    market.Clock
	calendar *market.Calendar
	logger   *log.Logger
	stop     chan struct{}
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := log.New(os.Stdout, "[engine] ", log.LstdFlags)
	logger.Printf("Starting signal engine, profile=%s interval=%s",
		cfg.Strategies.Profile, cfg.Engine.ScanInterval)
	if cfg.Engine.AutoTrade {
		logger.Println("Auto-trade enabled: signals open tracked positions")
	}

	if dir := filepath.Dir(cfg.Storage.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			logger.Fatalf("Failed to create data directory: %v", err)
		}
	}
	store, err := storage.NewStorage(cfg.Storage.Path)
	if err != nil {
		logger.Fatalf("Failed to open storage: %v", err)
	}

	prov, err := buildProvider(cfg)
	if err != nil {
		logger.Fatalf("Failed to build data provider: %v", err)
	}

	clock := market.SystemClock{}
	cal := market.NewCalendar()
	calc := greeks.NewCalculator(greeks.DefaultRiskFreeRate, logger)
	fresh := buildFreshness(cfg)

	sc := scanner.New(cfg.Scanner, prov, buildEvaluators(cfg, cal, logger),
		strategy.NewQualityFilter(cfg.Strategies.Filter, cal), fresh, calc, clock, logger)

	engine := &Engine{
		cfg:      cfg,
		provider: prov,
		scanner:  sc,
		tracker:  tracker.New(store, clock, logger),
		risk:     risk.NewManager(cfg.Risk),
		store:    store,
		clock:    clock,
		calendar: cal,
		logger:   logger,
		stop:     make(chan struct{}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var dash *dashboard.Server
	if cfg.Dashboard.Enabled {
		dash = dashboard.NewServer(dashboard.Config{
			Addr:      cfg.Dashboard.Addr,
			AuthToken: cfg.Dashboard.AuthToken,
		}, store, engine.tracker, logrus.New())
		go func() {
			logger.Printf("Dashboard listening on %s", cfg.Dashboard.Addr)
			if err := dash.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Printf("Dashboard stopped: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Println("Shutdown signal received, stopping engine...")
		close(engine.stop)
		cancel()
	}()

	if err := engine.Run(ctx); err != nil {
		logger.Fatalf("Engine error: %v", err)
	}

	if dash != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := dash.Shutdown(shutdownCtx); err != nil {
			logger.Printf("Dashboard shutdown: %v", err)
		}
	}
	if err := store.Save(); err != nil {
		logger.Printf("Final state save: %v", err)
	}
	logger.Println("Engine stopped")
}

// Run drives the scan loop until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.cfg.GetScanInterval())
	defer ticker.Stop()

	e.runCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.stop:
			return nil
		case <-ticker.C:
			e.runCycle(ctx)
		}
	}
}

func buildProvider(cfg *config.Config) (provider.Provider, error) {
	if cfg.Engine.UseMockData {
		return provider.NewCircuitBreakerProvider(mock.NewProvider()), nil
	}
	// Only the simulated feed ships today. A live feed slots in behind the
	// same breaker once one exists.
	return nil, errLiveFeedUnavailable
}

func buildFreshness(cfg *config.Config) market.FreshnessGuard {
	if !cfg.Redis.Enabled {
		return market.NewMemoryFreshness()
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	return market.NewRedisFreshness(client, "")
}

func buildEvaluators(cfg *config.Config, cal *market.Calendar, logger *log.Logger) []strategy.Evaluator {
	return []strategy.Evaluator{
		strategy.NewScalping(cfg.Strategies.Scalping, cal),
		strategy.NewMomentum(cfg.Strategies.Momentum, cal, logger),
		strategy.NewVolumeSpike(cfg.Strategies.VolumeSpike),
		strategy.NewSwing(cfg.Strategies.Swing),
	}
}
