package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// ParserConfig configures tolerance callout parsing
type ParserConfig struct {
	// CacheSize bounds the descriptor cache (0 = unbounded)
	CacheSize int `yaml:"cache_size"`
}

// CapabilityConfig configures capability index computation
type CapabilityConfig struct {
	// Enabled computes Cp/Cpk/Pp/Ppk for every evaluable feature
	Enabled bool `yaml:"enabled"`

	// MinSampleSize is the smallest sample analysed for capability
	MinSampleSize int `yaml:"min_sample_size"`

	// AcceptableIndex is the threshold counted as acceptable in summaries
	AcceptableIndex float64 `yaml:"acceptable_index"`
}

// ExtrapolationConfig configures synthetic sample growth
type ExtrapolationConfig struct {
	// Enabled grows small samples before capability analysis
	Enabled bool `yaml:"enabled"`

	// TargetSize is the requested sample size (0 = next available size)
	TargetSize int `yaml:"target_size"`

	// AvailableSizes are the sizes a sample may be grown to
	AvailableSizes []int `yaml:"available_sizes"`

	// MaxAttempts bounds the draws made looking for a normal sample
	MaxAttempts int `yaml:"max_attempts"`

	// Seed makes extrapolation reproducible (0 = random)
	Seed uint64 `yaml:"seed"`
}

// HistoryConfig configures the study history store
type HistoryConfig struct {
	// Enabled saves every analysed study
	Enabled bool `yaml:"enabled"`

	// DBPath is the SQLite database path (empty = $CAPSTUDY_HOME/history.db)
	DBPath string `yaml:"db_path"`
}

// MetricsConfig configures metrics export
type MetricsConfig struct {
	// Textfile, when set, receives Prometheus text-format metrics after each study
	Textfile string `yaml:"textfile"`
}

// Config represents capstudy configuration options
type Config struct {
	// LogLevel sets the logging verbosity (trace, debug, info, warn, error)
	LogLevel string `yaml:"log_level"`

	// LogDir is the directory where study logs will be written
	LogDir string `yaml:"log_dir"`

	// MaxConcurrency is the maximum number of features analysed in parallel (0 = unlimited)
	MaxConcurrency int `yaml:"max_concurrency"`

	// Timeout bounds a whole study (0 = no timeout)
	Timeout time.Duration `yaml:"timeout"`

	Parser        ParserConfig        `yaml:"parser"`
	Capability    CapabilityConfig    `yaml:"capability"`
	Extrapolation ExtrapolationConfig `yaml:"extrapolation"`
	History       HistoryConfig       `yaml:"history"`
	Metrics       MetricsConfig       `yaml:"metrics"`
}

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:       "info",
		LogDir:         filepath.Join(".capstudy", "logs"),
		MaxConcurrency: 0,
		Timeout:        10 * time.Minute,
		Parser: ParserConfig{
			CacheSize: 4096,
		},
		Capability: CapabilityConfig{
			Enabled:         true,
			MinSampleSize:   5,
			AcceptableIndex: 1.33,
		},
		Extrapolation: ExtrapolationConfig{
			Enabled:        false,
			AvailableSizes: []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 125, 150},
			MaxAttempts:    100,
		},
		History: HistoryConfig{
			Enabled: false,
		},
	}
}

// LoadConfig loads configuration from the specified file path.
// Keys present in the file override DefaultConfig(); absent keys keep their
// defaults. A missing file yields the defaults without error. Unknown keys are
// rejected so typos do not go unnoticed.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return cfg, nil
}

// LoadConfigFromDir loads configuration from .capstudy/config.yaml in the specified directory
func LoadConfigFromDir(dir string) (*Config, error) {
	return LoadConfig(filepath.Join(dir, ".capstudy", "config.yaml"))
}

// Overrides holds CLI flag values. Nil fields were not set on the command
// line and leave the configuration untouched.
type Overrides struct {
	LogLevel        *string
	LogDir          *string
	MaxConcurrency  *int
	Timeout         *time.Duration
	CacheSize       *int
	Capability      *bool
	MinSampleSize   *int
	AcceptableIndex *float64
	Extrapolate     *bool
	TargetSize      *int
	Seed            *uint64
	History         *bool
	HistoryDB       *string
	MetricsTextfile *string
}

// MergeWithFlags merges CLI flags into the configuration.
// Non-nil flag values override configuration values.
func (c *Config) MergeWithFlags(o Overrides) {
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogDir != nil {
		c.LogDir = *o.LogDir
	}
	if o.MaxConcurrency != nil {
		c.MaxConcurrency = *o.MaxConcurrency
	}
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	if o.CacheSize != nil {
		c.Parser.CacheSize = *o.CacheSize
	}
	if o.Capability != nil {
		c.Capability.Enabled = *o.Capability
	}
	if o.MinSampleSize != nil {
		c.Capability.MinSampleSize = *o.MinSampleSize
	}
	if o.AcceptableIndex != nil {
		c.Capability.AcceptableIndex = *o.AcceptableIndex
	}
	if o.Extrapolate != nil {
		c.Extrapolation.Enabled = *o.Extrapolate
	}
	if o.TargetSize != nil {
		c.Extrapolation.TargetSize = *o.TargetSize
	}
	if o.Seed != nil {
		c.Extrapolation.Seed = *o.Seed
	}
	if o.History != nil {
		c.History.Enabled = *o.History
	}
	if o.HistoryDB != nil {
		c.History.DBPath = *o.HistoryDB
	}
	if o.MetricsTextfile != nil {
		c.Metrics.Textfile = *o.MetricsTextfile
	}
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency must be >= 0, got %d", c.MaxConcurrency)
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.LogLevel] {
		return fmt.Errorf("invalid log_level %q, must be one of: trace, debug, info, warn, error", c.LogLevel)
	}

	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be >= 0, got %v", c.Timeout)
	}

	if c.Parser.CacheSize < 0 {
		return fmt.Errorf("parser.cache_size must be >= 0, got %d", c.Parser.CacheSize)
	}

	if c.Capability.MinSampleSize < 2 {
		return fmt.Errorf("capability.min_sample_size must be >= 2, got %d", c.Capability.MinSampleSize)
	}
	if c.Capability.AcceptableIndex <= 0 {
		return fmt.Errorf("capability.acceptable_index must be > 0, got %v", c.Capability.AcceptableIndex)
	}

	if c.Extrapolation.TargetSize < 0 {
		return fmt.Errorf("extrapolation.target_size must be >= 0, got %d", c.Extrapolation.TargetSize)
	}
	if c.Extrapolation.MaxAttempts <= 0 {
		return fmt.Errorf("extrapolation.max_attempts must be > 0, got %d", c.Extrapolation.MaxAttempts)
	}
	for _, size := range c.Extrapolation.AvailableSizes {
		if size <= 0 {
			return fmt.Errorf("extrapolation.available_sizes must be positive, got %d", size)
		}
	}
	if !sort.IntsAreSorted(c.Extrapolation.AvailableSizes) {
		return fmt.Errorf("extrapolation.available_sizes must be ascending, got %v", c.Extrapolation.AvailableSizes)
	}
	if c.Extrapolation.Enabled && !c.Capability.Enabled {
		return fmt.Errorf("extrapolation.enabled requires capability.enabled")
	}

	return nil
}

// HistoryDBPath returns the configured history database path, or the
// default under the capstudy home.
func (c *Config) HistoryDBPath() (string, error) {
	if c.History.DBPath != "" {
		return c.History.DBPath, nil
	}
	return GetHistoryDBPath()
}
