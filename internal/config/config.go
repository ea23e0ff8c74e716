package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"censuswage/internal/dataset"

	"gopkg.in/yaml.v3"
)

// Config holds all censuswage configuration.
type Config struct {
	// Source dataset and its column names
	Data DataConfig `yaml:"data"`

	// Outlier filter constants
	Filter dataset.FilterConfig `yaml:"filter"`

	// Named subsample divisors
	Sampling SamplingConfig `yaml:"sampling"`

	// Statistical battery
	Analysis AnalysisConfig `yaml:"analysis"`

	// Run history database
	Store StoreConfig `yaml:"store"`

	// Report output
	Report ReportConfig `yaml:"report"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig locates the extract.
type DataConfig struct {
	Path    string          `yaml:"path"`
	Columns dataset.Columns `yaml:"columns"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// ReportConfig configures the Markdown report.
type ReportConfig struct {
	Render   bool   `yaml:"render"`    // style through glamour when writing to a terminal
	WordWrap int    `yaml:"word_wrap"` // glamour wrap width
	Output   string `yaml:"output"`    // empty means stdout
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Columns: dataset.DefaultColumns(),
		},

		Filter: dataset.DefaultFilterConfig(),

		Sampling: DefaultSamplingConfig(),

		Analysis: DefaultAnalysisConfig(),

		Store: StoreConfig{
			Enabled: true,
			Path:    ".censuswage/runs.db",
		},

		Report: ReportConfig{
			Render:   true,
			WordWrap: 100,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.Filter.Wage = cfg.Data.Columns.Wage

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("CENSUSWAGE_DATA"); path != "" {
		c.Data.Path = path
	}

	// Database path from environment
	if path := os.Getenv("CENSUSWAGE_DB"); path != "" {
		c.Store.Path = path
	}

	if level := os.Getenv("CENSUSWAGE_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// Unparseable values are ignored so a stray variable cannot break a run
	if v := os.Getenv("CENSUSWAGE_PARALLELISM"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Analysis.Parallelism = n
		}
	}
}

// GetAnalysisTimeout returns the battery timeout as a duration.
func (c *Config) GetAnalysisTimeout() time.Duration {
	d, err := time.ParseDuration(c.Analysis.Timeout)
	if err != nil || d <= 0 {
		return 10 * time.Minute
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	cols := c.Data.Columns
	if cols.Education == "" || cols.Wage == "" || cols.Sex == "" {
		return fmt.Errorf("data.columns: education, wage and sex must all be named")
	}
	if cols.Education == cols.Wage || cols.Education == cols.Sex || cols.Wage == cols.Sex {
		return fmt.Errorf("data.columns: column names must be distinct")
	}

	f := c.Filter
	if !positive(f.SentinelWage) {
		return fmt.Errorf("filter.sentinel_wage must be positive, got %v", f.SentinelWage)
	}
	if !finite(f.UpperBase) || !finite(f.LowerBase) {
		return fmt.Errorf("filter bases must be finite")
	}
	if f.IQRMultiplier < 0 || !finite(f.IQRMultiplier) {
		return fmt.Errorf("filter.iqr_multiplier must be non-negative, got %v", f.IQRMultiplier)
	}
	if _, err := dataset.ParseQuantileMethod(string(f.Method)); err != nil {
		return fmt.Errorf("filter.quantile_method: %w", err)
	}

	if err := c.Sampling.Validate(); err != nil {
		return err
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}

	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when the store is enabled")
	}
	if c.Report.WordWrap < 0 {
		return fmt.Errorf("report.word_wrap must be non-negative, got %d", c.Report.WordWrap)
	}

	return c.Logging.Validate()
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

func positive(v float64) bool { return finite(v) && v > 0 }
