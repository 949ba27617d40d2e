// Package config loads and persists cclens configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds all cclens configuration.
type Config struct {
	General  GeneralConfig  `toml:"general"`
	Cache    CacheConfig    `toml:"cache"`
	Estimate EstimateRates  `toml:"estimate"`
	Log      LogConfig      `toml:"log"`
}

// GeneralConfig holds the scan and conversion settings the engine consumes.
type GeneralConfig struct {
	// RootPath is the usage-log scan root. "~" is expanded before any I/O.
	RootPath string `toml:"root_path,omitempty"`
	// Timezone is an IANA zone name; empty means the system zone.
	Timezone string `toml:"timezone,omitempty"`
	// ExchangeRate converts USD costs into the display currency.
	ExchangeRate float64 `toml:"exchange_rate"`
	// Currency is the display label for converted costs.
	Currency string `toml:"currency"`
}

// CacheConfig holds TTL and capacity knobs for the in-memory result cache.
type CacheConfig struct {
	FastTTLSeconds int `toml:"fast_ttl_seconds"`
	BaseTTLSeconds int `toml:"base_ttl_seconds"`
	Capacity       int `toml:"capacity"`
}

// EstimateRates are USD prices per 1,000 tokens used to estimate costs for
// periods where no entry carries a recorded costUSD.
type EstimateRates struct {
	InputPer1K  float64 `toml:"input_per_1k"`
	OutputPer1K float64 `toml:"output_per_1k"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	File  string `toml:"file,omitempty"`
	Debug bool   `toml:"debug"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			ExchangeRate: 1.0,
			Currency:     "USD",
		},
		Cache: CacheConfig{
			FastTTLSeconds: 10,
			BaseTTLSeconds: 45,
			Capacity:       256,
		},
		Estimate: EstimateRates{
			InputPer1K:  0.003,
			OutputPer1K: 0.015,
		},
	}
}

// DefaultRootPath returns the default usage-log scan root.
func DefaultRootPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".claude", "projects")
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cclens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "cclens")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "cclens")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "cclens")
}

// StorePath returns the full path to the SQLite fast-path database.
func StorePath() string {
	return filepath.Join(CacheDir(), "entries.db")
}

// Load reads the config file, returning defaults if it doesn't exist.
func Load() (Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads a config file from an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg.normalized(), nil
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := ConfigDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(ConfigPath(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer func() { _ = f.Close() }()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// normalized clamps bad values back onto usable defaults so a hand-edited
// config can't zero out TTLs or the exchange rate.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.General.ExchangeRate <= 0 {
		c.General.ExchangeRate = def.General.ExchangeRate
	}
	if c.Cache.FastTTLSeconds <= 0 {
		c.Cache.FastTTLSeconds = def.Cache.FastTTLSeconds
	}
	if c.Cache.BaseTTLSeconds <= 0 {
		c.Cache.BaseTTLSeconds = def.Cache.BaseTTLSeconds
	}
	if c.Cache.Capacity <= 0 {
		c.Cache.Capacity = def.Cache.Capacity
	}
	if c.Estimate.InputPer1K <= 0 {
		c.Estimate.InputPer1K = def.Estimate.InputPer1K
	}
	if c.Estimate.OutputPer1K <= 0 {
		c.Estimate.OutputPer1K = def.Estimate.OutputPer1K
	}
	return c
}

// Root returns the configured scan root, falling back to the default.
func (c Config) Root() string {
	if c.General.RootPath != "" {
		return c.General.RootPath
	}
	return DefaultRootPath()
}

// EstimateCost computes the estimated USD cost for a token split using the
// fixed per-1K-token rate table.
func (r EstimateRates) EstimateCost(inputTokens, outputTokens int64) float64 {
	return float64(inputTokens)/1000*r.InputPer1K +
		float64(outputTokens)/1000*r.OutputPer1K
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}
