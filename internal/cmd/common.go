package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/config"
	"github.com/harrison/capstudy/internal/evaluator"
	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/history"
	"github.com/harrison/capstudy/internal/study"
)

// loadConfig reads --config (or .capstudy/config.yaml in the working
// directory) and applies the persistent --log-level flag.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
		}
	} else {
		cfg, err = config.LoadConfigFromDir(".")
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		cfg.MergeWithFlags(config.Overrides{LogLevel: &level})
	}
	return cfg, nil
}

// addStudyFlags registers the flags shared by commands that run studies.
func addStudyFlags(cmd *cobra.Command) {
	cmd.Flags().Int("max-concurrency", 0, "Maximum number of features analysed in parallel (0 = unlimited)")
	cmd.Flags().String("timeout", "", "Maximum study time (e.g., 30s, 5m)")
	cmd.Flags().String("log-dir", "", "Directory for study log files")
	cmd.Flags().Bool("capability", true, "Compute capability indices (use --capability=false to only evaluate)")
	cmd.Flags().Int("min-sample-size", 0, "Smallest sample analysed for capability")
	cmd.Flags().Float64("acceptable-index", 0, "Capability index counted as acceptable")
	cmd.Flags().Bool("extrapolate", false, "Grow small or non-normal samples before capability analysis")
	cmd.Flags().Int("target-size", 0, "Extrapolation target size (0 = next available size)")
	cmd.Flags().Uint64("seed", 0, "Random seed for reproducible extrapolation (0 = random)")
	cmd.Flags().Bool("history", false, "Save the study to the history database")
	cmd.Flags().String("history-db", "", "History database path (default: $CAPSTUDY_HOME/history.db)")
	cmd.Flags().String("metrics-textfile", "", "Write Prometheus metrics to this file after the study")
	cmd.Flags().Int("cache-size", 0, "Tolerance callout cache size (0 = unbounded)")
}

// studyOverrides collects the study flags that were set on the command line.
func studyOverrides(cmd *cobra.Command) (config.Overrides, error) {
	var o config.Overrides
	flags := cmd.Flags()

	if flags.Changed("max-concurrency") {
		v, _ := flags.GetInt("max-concurrency")
		o.MaxConcurrency = &v
	}
	if flags.Changed("timeout") {
		s, _ := flags.GetString("timeout")
		timeout, err := time.ParseDuration(s)
		if err != nil {
			return o, fmt.Errorf("invalid timeout format %q: %w", s, err)
		}
		o.Timeout = &timeout
	}
	if flags.Changed("log-dir") {
		v, _ := flags.GetString("log-dir")
		o.LogDir = &v
	}
	if flags.Changed("capability") {
		v, _ := flags.GetBool("capability")
		o.Capability = &v
	}
	if flags.Changed("min-sample-size") {
		v, _ := flags.GetInt("min-sample-size")
		o.MinSampleSize = &v
	}
	if flags.Changed("acceptable-index") {
		v, _ := flags.GetFloat64("acceptable-index")
		o.AcceptableIndex = &v
	}
	if flags.Changed("extrapolate") {
		v, _ := flags.GetBool("extrapolate")
		o.Extrapolate = &v
	}
	if flags.Changed("target-size") {
		v, _ := flags.GetInt("target-size")
		o.TargetSize = &v
	}
	if flags.Changed("seed") {
		v, _ := flags.GetUint64("seed")
		o.Seed = &v
	}
	if flags.Changed("history") {
		v, _ := flags.GetBool("history")
		o.History = &v
	}
	if flags.Changed("history-db") {
		v, _ := flags.GetString("history-db")
		o.HistoryDB = &v
	}
	if flags.Changed("metrics-textfile") {
		v, _ := flags.GetString("metrics-textfile")
		o.MetricsTextfile = &v
	}
	if flags.Changed("cache-size") {
		v, _ := flags.GetInt("cache-size")
		o.CacheSize = &v
	}
	return o, nil
}

// loadStudyConfig loads the configuration, merges the study flags and
// validates the result.
func loadStudyConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	overrides, err := studyOverrides(cmd)
	if err != nil {
		return nil, err
	}
	cfg.MergeWithFlags(overrides)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// studyConfig converts the file/flag configuration into runner settings.
func studyConfig(cfg *config.Config) study.Config {
	return study.Config{
		MaxConcurrency:  cfg.MaxConcurrency,
		Timeout:         cfg.Timeout,
		Capability:      cfg.Capability.Enabled,
		MinSampleSize:   cfg.Capability.MinSampleSize,
		AcceptableIndex: cfg.Capability.AcceptableIndex,
		Extrapolate:     cfg.Extrapolation.Enabled,
		TargetSize:      cfg.Extrapolation.TargetSize,
		MaxAttempts:     cfg.Extrapolation.MaxAttempts,
		AvailableSizes:  cfg.Extrapolation.AvailableSizes,
		Seed:            cfg.Extrapolation.Seed,
	}
}

// newRunner builds a study runner with a parser sized from cfg.
func newRunner(cfg *config.Config, opts ...study.Option) *study.Runner {
	parser := gdt.NewParser(gdt.WithCacheSize(cfg.Parser.CacheSize))
	opts = append([]study.Option{study.WithEvaluator(evaluator.New(parser))}, opts...)
	return study.NewRunner(studyConfig(cfg), opts...)
}

// openHistory opens the configured history database.
func openHistory(cfg *config.Config) (*history.Store, error) {
	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get history database path: %w", err)
	}
	store, err := history.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}
	return store, nil
}
