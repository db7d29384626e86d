package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"catdist/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Limits   LimitsConfig
	Chart    ChartConfig
}

// DatabaseConfig holds database connection settings. An empty URL means
// rows come from files.
type DatabaseConfig struct {
	URL   string
	Table string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	Port string
}

// LimitsConfig bounds a single pipeline invocation
type LimitsConfig struct {
	MaxRows       int
	MaxCategories int
	Timeout       time.Duration
	Workers       int
}

// ChartConfig holds the defaults applied when a request omits a setting
type ChartConfig struct {
	Alpha             float64
	BandwidthFactor   float64
	DensityResolution int
	LinearPortion     float64
	TickCount         int
	LimitToExtents    bool
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Database: loadDatabaseConfig(),
		Server:   loadServerConfig(),
		Limits:   loadLimitsConfig(),
		Chart:    loadChartConfig(),
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:   getEnvOrDefault("DATABASE_URL", ""),
		Table: getEnvOrDefault("CATDIST_TABLE", "chart_rows"),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port: getEnvOrDefault("PORT", "8080"),
	}
}

func loadLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxRows:       getEnvIntOrDefault("CATDIST_MAX_ROWS", 1_000_000),
		MaxCategories: getEnvIntOrDefault("CATDIST_MAX_CATEGORIES", 500),
		Timeout:       getEnvDurationOrDefault("CATDIST_TIMEOUT", 8*time.Second),
		Workers:       getEnvIntOrDefault("CATDIST_WORKERS", 4),
	}
}

// DefaultChartConfig returns the chart defaults used when no variable is set.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Alpha:             0.05,
		BandwidthFactor:   0.1,
		DensityResolution: 100,
		LinearPortion:     1,
		TickCount:         10,
		LimitToExtents:    true,
	}
}

func loadChartConfig() ChartConfig {
	d := DefaultChartConfig()
	return ChartConfig{
		Alpha:             getEnvFloatOrDefault("CATDIST_ALPHA", d.Alpha),
		BandwidthFactor:   getEnvFloatOrDefault("CATDIST_BANDWIDTH_FACTOR", d.BandwidthFactor),
		DensityResolution: getEnvIntOrDefault("CATDIST_DENSITY_RESOLUTION", d.DensityResolution),
		LinearPortion:     getEnvFloatOrDefault("CATDIST_LINEAR_PORTION", d.LinearPortion),
		TickCount:         getEnvIntOrDefault("CATDIST_TICK_COUNT", d.TickCount),
		LimitToExtents:    getEnvBoolOrDefault("CATDIST_LIMIT_TO_EXTENTS", d.LimitToExtents),
	}
}

func validateConfig(config *Config) error {
	l := config.Limits
	if l.MaxRows <= 0 || l.MaxCategories <= 0 {
		return errors.ConfigInvalid("row and category limits must be positive")
	}
	if l.Timeout <= 0 {
		return errors.ConfigInvalid("timeout must be positive")
	}
	if l.Workers <= 0 {
		return errors.ConfigInvalid("workers must be positive")
	}
	c := config.Chart
	if !(c.Alpha > 0 && c.Alpha < 1) {
		return errors.ConfigInvalid(fmt.Sprintf("alpha must be in (0, 1), got %v", c.Alpha))
	}
	if !(c.BandwidthFactor > 0) {
		return errors.ConfigInvalid("bandwidth factor must be positive")
	}
	if c.DensityResolution < 2 {
		return errors.ConfigInvalid("density resolution must be at least 2")
	}
	if !(c.LinearPortion > 0) {
		return errors.ConfigInvalid("linear portion must be positive")
	}
	if c.TickCount <= 0 {
		return errors.ConfigInvalid("tick count must be positive")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
