// Package config loads and validates the engine's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tradefly/optionsignals/internal/risk"
	"github.com/tradefly/optionsignals/internal/scanner"
	"github.com/tradefly/optionsignals/internal/strategy"
)

// Threshold profiles selectable via Strategies.Profile.
const (
	// ProfileProduction is the default threshold set.
	ProfileProduction = "production"
	// ProfileStrict tightens the entry gates for choppy tape.
	ProfileStrict = "strict"
)

// Config is the root configuration document.
type Config struct {
	Engine     EngineConfig     `yaml:"engine"`
	Scanner    scanner.Config   `yaml:"scanner"`
	Risk       risk.Limits      `yaml:"risk"`
	Strategies StrategiesConfig `yaml:"strategies"`
	Storage    StorageConfig    `yaml:"storage"`
	Redis      RedisConfig      `yaml:"redis"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}

// EngineConfig holds the top-level runtime knobs.
type EngineConfig struct {
	// ScanInterval is a Go duration string, e.g. "1m".
	ScanInterval   string  `yaml:"scan_interval"`
	AccountBalance float64 `yaml:"account_balance"`
	UseMockData    bool    `yaml:"use_mock_data"`
	AutoTrade      bool    `yaml:"auto_trade"`
}

// StrategiesConfig holds per-evaluator thresholds plus the profile that
// seeds them.
type StrategiesConfig struct {
	Profile     string                     `yaml:"profile"`
	Scalping    strategy.ScalpConfig       `yaml:"scalping"`
	Momentum    strategy.MomentumConfig    `yaml:"momentum"`
	VolumeSpike strategy.VolumeSpikeConfig `yaml:"volume_spike"`
	Swing       strategy.SwingConfig       `yaml:"swing"`
	Filter      strategy.FilterConfig      `yaml:"filter"`
}

// StorageConfig points at the JSON state file.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig configures the shared freshness guard. Disabled means the
// in-memory guard is used instead.
type RedisConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DashboardConfig configures the HTTP status server.
type DashboardConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Addr      string `yaml:"addr"`
	AuthToken string `yaml:"auth_token"`
}

// Load reads, normalizes, and validates the configuration file.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Secrets come from the environment, not the file.
	_ = godotenv.Load()
	cfg.loadFromEnv()

	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadFromEnv overrides file values with environment variables where set.
func (c *Config) loadFromEnv() {
	if val := os.Getenv("REDIS_ADDR"); val != "" {
		c.Redis.Addr = val
	}
	if val := os.Getenv("REDIS_PASSWORD"); val != "" {
		c.Redis.Password = val
	}
	if val := os.Getenv("DASHBOARD_AUTH_TOKEN"); val != "" {
		c.Dashboard.AuthToken = val
	}
	if val := os.Getenv("STORAGE_PATH"); val != "" {
		c.Storage.Path = val
	}
}

// Normalize fills zero fields with defaults and applies the threshold
// profile. Explicit per-field values in the file win over the profile.
func (c *Config) Normalize() {
	if c.Engine.ScanInterval == "" {
		c.Engine.ScanInterval = "1m"
	}
	if c.Engine.AccountBalance == 0 {
		c.Engine.AccountBalance = 10000
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "data/engine.json"
	}
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Dashboard.Addr == "" {
		c.Dashboard.Addr = ":9847"
	}
	if c.Strategies.Profile == "" {
		c.Strategies.Profile = ProfileProduction
	}
	if c.Strategies.Profile == ProfileStrict {
		c.applyStrictProfile()
	}
	c.Strategies.Scalping.Normalize()
	c.Strategies.Momentum.Normalize()
	c.Strategies.VolumeSpike.Normalize()
	c.Strategies.Swing.Normalize()
	c.Strategies.Filter.Normalize()
	c.Risk.Normalize()
	c.Scanner.Normalize()
}

// applyStrictProfile tightens unset gates for low-conviction tape.
func (c *Config) applyStrictProfile() {
	s := &c.Strategies
	if s.Scalping.MaxSpread == 0 {
		s.Scalping.MaxSpread = 0.20
	}
	if s.Scalping.MinVolume == 0 {
		s.Scalping.MinVolume = 2000
	}
	s.Scalping.StrictChecks = true
	if s.Momentum.MinMove15m == 0 {
		s.Momentum.MinMove15m = 0.05
	}
	if s.Momentum.MinVolumeRatio == 0 {
		s.Momentum.MinVolumeRatio = 5.0
	}
	if s.VolumeSpike.MinVolumeRatio == 0 {
		s.VolumeSpike.MinVolumeRatio = 8.0
	}
	if s.VolumeSpike.MinNetPremium == 0 {
		s.VolumeSpike.MinNetPremium = 2_000_000
	}
	if s.Swing.MinMomentum3d == 0 {
		s.Swing.MinMomentum3d = 0.02
	}
	if s.Filter.MinConfidence == 0 {
		s.Filter.MinConfidence = 0.80
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if len(c.Scanner.Symbols) == 0 && !c.Engine.UseMockData {
		return fmt.Errorf("scanner.symbols must not be empty")
	}
	interval, err := time.ParseDuration(c.Engine.ScanInterval)
	if err != nil {
		return fmt.Errorf("engine.scan_interval: %w", err)
	}
	if interval < 5*time.Second {
		return fmt.Errorf("engine.scan_interval %s is below the 5s minimum", interval)
	}
	if c.Engine.AccountBalance < 0 {
		return fmt.Errorf("engine.account_balance must not be negative")
	}
	switch c.Strategies.Profile {
	case ProfileProduction, ProfileStrict:
	default:
		return fmt.Errorf("unknown strategies.profile %q", c.Strategies.Profile)
	}
	if c.Risk.RiskPerTradePct < 0 || c.Risk.RiskPerTradePct > 0.10 {
		return fmt.Errorf("risk.risk_per_trade_pct %.3f outside [0, 0.10]", c.Risk.RiskPerTradePct)
	}
	if c.Dashboard.Enabled && c.Dashboard.AuthToken == "" {
		return fmt.Errorf("dashboard.auth_token is required when the dashboard is enabled")
	}
	return nil
}

// GetScanInterval returns the parsed scan interval. Normalize and Validate
// have already guaranteed it parses.
func (c *Config) GetScanInterval() time.Duration {
	d, err := time.ParseDuration(c.Engine.ScanInterval)
	if err != nil {
		return time.Minute
	}
	return d
}
