// Package config loads and validates application configuration via viper.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"harmwatch/internal/common"
	"harmwatch/internal/window"
)

// Defaults for the analysis pipeline.
const (
	DefaultMonthsWindow       = 4
	DefaultMaxRecords         = 5000
	DefaultPageSize           = 1000
	DefaultCacheFreshnessDays = 7
	DefaultCoverageTolerance  = 7

	// MaxPageSize is the largest size the search API accepts per request.
	MaxPageSize = 1000

	DefaultAPIBase = "https://www.consumerfinance.gov/data-research/consumer-complaints/search/api/v1/"
	DefaultBulkURL = "https://files.consumerfinance.gov/ccdb/complaints.csv.zip"
)

// RedisConfig holds remote cache connection settings. An empty Addr
// disables the remote cache entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config is the explicit configuration passed into each component at
// construction. There is no hidden process-wide state.
type Config struct {
	APIBase               string
	BulkURL               string
	CacheDir              string
	Redis                 RedisConfig
	MonthsWindow          int
	MaxRecords            int
	PageSize              int
	CacheFreshnessDays    int
	CoverageToleranceDays int
	LiteMode              bool
}

// Load decodes configuration from viper into an explicit Config,
// applying defaults for unset values.
func Load() (*Config, error) {
	viper.SetDefault("months_window", DefaultMonthsWindow)
	viper.SetDefault("max_records", DefaultMaxRecords)
	viper.SetDefault("page_size", DefaultPageSize)
	viper.SetDefault("cache_freshness_days", DefaultCacheFreshnessDays)
	viper.SetDefault("coverage_tolerance_days", DefaultCoverageTolerance)
	viper.SetDefault("api_base", DefaultAPIBase)
	viper.SetDefault("bulk_url", DefaultBulkURL)
	viper.SetDefault("lite_mode", false)

	cfg := &Config{
		MonthsWindow:          viper.GetInt("months_window"),
		LiteMode:              viper.GetBool("lite_mode"),
		MaxRecords:            viper.GetInt("max_records"),
		PageSize:              viper.GetInt("page_size"),
		CacheFreshnessDays:    viper.GetInt("cache_freshness_days"),
		CoverageToleranceDays: viper.GetInt("coverage_tolerance_days"),
		APIBase:               viper.GetString("api_base"),
		BulkURL:               viper.GetString("bulk_url"),
		CacheDir:              ExpandPath(viper.GetString("cache_dir")),
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = defaultCacheDir()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks cap and threshold values. Month counts outside [1,12]
// clamp with a warning rather than failing, matching window semantics.
func (c *Config) Validate() error {
	if clamped := window.ClampMonths(c.MonthsWindow); clamped != c.MonthsWindow {
		slog.Warn("months_window out of range, clamping",
			"configured", c.MonthsWindow,
			"clamped", clamped)
		c.MonthsWindow = clamped
	}
	if c.MaxRecords <= 0 {
		return fmt.Errorf("%w: max_records must be positive, got %d", common.ErrInvalidConfig, c.MaxRecords)
	}
	if c.PageSize <= 0 || c.PageSize > MaxPageSize {
		return fmt.Errorf("%w: page_size must be in [1,%d], got %d", common.ErrInvalidConfig, MaxPageSize, c.PageSize)
	}
	if c.CacheFreshnessDays <= 0 {
		return fmt.Errorf("%w: cache_freshness_days must be positive, got %d", common.ErrInvalidConfig, c.CacheFreshnessDays)
	}
	if c.CoverageToleranceDays < 0 {
		return fmt.Errorf("%w: coverage_tolerance_days must not be negative, got %d", common.ErrInvalidConfig, c.CoverageToleranceDays)
	}
	if c.APIBase == "" {
		return fmt.Errorf("%w: api_base must not be empty", common.ErrInvalidConfig)
	}
	if c.BulkURL == "" {
		return fmt.Errorf("%w: bulk_url must not be empty", common.ErrInvalidConfig)
	}
	return nil
}

// CacheFreshness returns the freshness threshold as a duration.
func (c *Config) CacheFreshness() time.Duration {
	return time.Duration(c.CacheFreshnessDays) * 24 * time.Hour
}

// CoverageTolerance returns the coverage tolerance as a duration.
func (c *Config) CoverageTolerance() time.Duration {
	return time.Duration(c.CoverageToleranceDays) * 24 * time.Hour
}

// RemoteCacheEnabled reports whether redis credentials were supplied.
func (c *Config) RemoteCacheEnabled() bool {
	return c.Redis.Addr != ""
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".local", "share", "harmwatch")
}
