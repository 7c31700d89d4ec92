// pkg/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration for the pipeline process.
type Config struct {
	App       AppConfig       `koanf:"app"`
	Log       LogConfig       `koanf:"log"`
	Metrics   MetricsConfig   `koanf:"metrics"`
	Tracing   TracingConfig   `koanf:"tracing"`
	Cache     CacheConfig     `koanf:"cache"`
	Optimizer OptimizerConfig `koanf:"optimizer"`
}

// AppConfig holds general process settings.
type AppConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // development, staging, production
	Debug       bool   `koanf:"debug"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"` // json, text
	Output     string `koanf:"output"` // stdout, stderr, file (file writes to logs/app.log)
	MaxSize    int    `koanf:"max_size"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAge     int    `koanf:"max_age"`
	Compress   bool   `koanf:"compress"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `koanf:"enabled"`
	Port      int    `koanf:"port"`
	Path      string `koanf:"path"`
	Namespace string `koanf:"namespace"`
	Subsystem string `koanf:"subsystem"`
}

// TracingConfig configures the OTel exporter.
type TracingConfig struct {
	Enabled     bool    `koanf:"enabled"`
	Endpoint    string  `koanf:"endpoint"`
	ServiceName string  `koanf:"service_name"`
	SampleRate  float64 `koanf:"sample_rate"`
}

// CacheConfig configures the distance-matrix / solve cache.
type CacheConfig struct {
	Enabled    bool          `koanf:"enabled"`
	Driver     string        `koanf:"driver"` // redis, memory
	Host       string        `koanf:"host"`
	Port       int           `koanf:"port"`
	Password   string        `koanf:"password"`
	DB         int           `koanf:"db"`
	DefaultTTL time.Duration `koanf:"default_ttl"`
	MaxEntries int           `koanf:"max_entries"` // for in-memory
}

// Address returns the cache's dial address.
func (c CacheConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// OptimizerConfig holds every tunable parameter of the four pipeline
// layers: the cost model, load-balancing thresholds and the L4 local
// search schedule.
type OptimizerConfig struct {
	// L2 cost model.
	CostPerKM float64 `koanf:"cost_per_km"`
	CostPerKG float64 `koanf:"cost_per_kg"`

	// L2 load balancing.
	LoadBalanceStdevFraction float64 `koanf:"load_balance_stdev_fraction"`
	OverloadedFactor         float64 `koanf:"overloaded_factor"`
	UnderloadedFactor        float64 `koanf:"underloaded_factor"`
	LoadBalanceMaxRounds     int     `koanf:"load_balance_max_rounds"`

	// L4 local search.
	TwoOptEnabled   bool `koanf:"two_opt_enabled"`
	ThreeOptEnabled bool `koanf:"three_opt_enabled"`
	OrOptEnabled    bool `koanf:"or_opt_enabled"`
	OrOptMaxSegment int  `koanf:"or_opt_max_segment"`

	// L4 simulated annealing.
	InitialTemperature float64 `koanf:"initial_temperature"`
	CoolingRate        float64 `koanf:"cooling_rate"`
	MinTemperature     float64 `koanf:"min_temperature"`
	MaxIterations      int     `koanf:"max_iterations"`
	MaxIterationsSmall int     `koanf:"max_iterations_small"`
	SmallInstanceSize  int     `koanf:"small_instance_size"`

	// Wall-clock budget, per spec §5: a budget-exceeded condition yields a
	// best-effort partial result rather than an error.
	WallClockBudget time.Duration `koanf:"wall_clock_budget"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	var errs []string

	if c.App.Name == "" {
		errs = append(errs, "app.name is required")
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, fmt.Sprintf("log.level must be one of: debug, info, warn, error, got %s", c.Log.Level))
	}

	if c.Optimizer.CostPerKM < 0 {
		errs = append(errs, "optimizer.cost_per_km must be non-negative")
	}
	if c.Optimizer.CostPerKG < 0 {
		errs = append(errs, "optimizer.cost_per_kg must be non-negative")
	}
	if c.Optimizer.CoolingRate <= 0 || c.Optimizer.CoolingRate >= 1 {
		errs = append(errs, fmt.Sprintf("optimizer.cooling_rate must be in (0,1), got %v", c.Optimizer.CoolingRate))
	}
	if c.Optimizer.OrOptMaxSegment < 1 {
		errs = append(errs, "optimizer.or_opt_max_segment must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}

// IsDevelopment reports whether the process is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "dev"
}

// IsProduction reports whether the process is running in production mode.
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production" || c.App.Environment == "prod"
}
