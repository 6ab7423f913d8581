package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/config"
	"github.com/harrison/capstudy/internal/display"
	"github.com/harrison/capstudy/internal/export"
	"github.com/harrison/capstudy/internal/ingest"
	"github.com/harrison/capstudy/internal/logger"
	"github.com/harrison/capstudy/internal/models"
	"github.com/harrison/capstudy/internal/study"
)

// NewAnalyzeCommand creates the analyze command
func NewAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <input-file-or-pattern>...",
		Short: "Run a capability study over measurement files",
		Long: `Evaluate every feature in the given measurement files against its
tolerance and, unless disabled, compute capability indices.

Inputs may be CSV, JSON, YAML or XLSX files, directories, or glob patterns
with ** support. Records from all inputs form one study.

Examples:
  capstudy analyze measurements.csv
  capstudy analyze 'data/**/*.xlsx' --output report.html
  capstudy analyze study.yaml --extrapolate --seed 42
  capstudy analyze study.yaml --capability=false     # acceptance only
  capstudy analyze study.yaml --history              # save to history`,
		Args: cobra.MinimumNArgs(1),
		RunE: analyzeCommand,
	}

	addStudyFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Export the study to this file (format from the extension)")
	cmd.Flags().String("format", "", "Export format: csv, json, markdown, html, xlsx (overrides the extension)")
	cmd.Flags().Bool("verbose", false, "Show every feature result as it completes")
	cmd.Flags().Bool("quiet", false, "Do not print the result table")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

// analyzeOptions are the per-invocation output choices of a study.
type analyzeOptions struct {
	output  string
	format  string
	quiet   bool
	noColor bool
	source  string
}

func analyzeCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadStudyConfig(cmd)
	if err != nil {
		return err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		cfg.LogLevel = "debug"
	}

	var opts analyzeOptions
	opts.output, _ = cmd.Flags().GetString("output")
	opts.format, _ = cmd.Flags().GetString("format")
	opts.quiet, _ = cmd.Flags().GetBool("quiet")
	opts.noColor, _ = cmd.Flags().GetBool("no-color")
	if opts.format != "" {
		if _, err := export.ParseFormat(opts.format); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := runStudy(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg, args, opts)
	if err != nil {
		return err
	}
	if result.Summary.Bad > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "\nStudy completed with %d BAD feature(s).\n", result.Summary.Bad)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "\nStudy completed: all features GOOD.\n")
	}
	return nil
}

// loadInputs expands the input patterns and loads each file, reporting
// progress on out.
func loadInputs(ctx context.Context, out io.Writer, patterns []string) ([]models.InputRecord, []string, error) {
	files, err := ingest.Expand(patterns...)
	if err != nil {
		return nil, nil, err
	}

	var progress *display.ProgressIndicator
	if len(files) == 1 {
		display.DisplaySingleFile(out, files[0])
	} else {
		progress = display.NewProgressIndicator(out, len(files))
		progress.Start()
	}

	var records []models.InputRecord
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		if progress != nil {
			progress.Step(file)
		}
		loaded, err := ingest.LoadFile(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load %s: %w", file, err)
		}
		records = append(records, loaded...)
	}
	if progress != nil {
		progress.Complete(len(records))
	}
	return records, files, nil
}

// runStudy loads the inputs, runs the study with console and file logging,
// prints the result table, and performs the configured exports. It is shared
// by analyze and watch.
func runStudy(ctx context.Context, out, errOut io.Writer, cfg *config.Config, patterns []string, opts analyzeOptions) (*models.StudyResult, error) {
	records, files, err := loadInputs(ctx, out, patterns)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		fmt.Fprintf(out, "Inputs are valid but contain no features.\n")
		return &models.StudyResult{}, nil
	}

	consoleLog := logger.NewConsoleLogger(out, cfg.LogLevel)
	consoleLog.SetAcceptableIndex(cfg.Capability.AcceptableIndex)
	if opts.noColor {
		consoleLog.SetColor(false)
	}

	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	metrics := study.NewMetrics()
	runner := newRunner(cfg,
		study.WithLogger(logger.NewMultiLogger(consoleLog, fileLog)),
		study.WithMetrics(metrics),
	)

	fmt.Fprintln(out)
	result, err := runner.Run(ctx, records)
	if err != nil && !study.IsInterrupted(err) {
		return nil, fmt.Errorf("study failed: %w", err)
	}
	interrupted := err

	if len(result.Summary.ValidationWarnings) > 0 {
		display.WarnValidation(result.Summary.ValidationWarnings).Display(errOut)
	}

	if !opts.quiet {
		fmt.Fprintln(out)
		tableOpts := display.TableOptions{
			Color:      display.ColorEnabled(out) && !opts.noColor,
			Acceptable: cfg.Capability.AcceptableIndex,
		}
		if err := display.RenderResults(out, result.Records, tableOpts); err != nil {
			return nil, fmt.Errorf("failed to render results: %w", err)
		}
	}
	if w, ok := display.WarnBadFeatures(result.Records); ok {
		w.Display(errOut)
	}

	if interrupted != nil {
		return result, interrupted
	}

	if opts.output != "" {
		if opts.format != "" {
			format, _ := export.ParseFormat(opts.format)
			err = export.WriteFileAs(ctx, opts.output, format, result)
		} else {
			err = export.WriteFile(ctx, opts.output, result)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to export study: %w", err)
		}
		fmt.Fprintf(out, "Study exported to: %s\n", opts.output)
	}

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(ctx, cfg.Metrics.Textfile); err != nil {
			return nil, err
		}
	}

	if cfg.History.Enabled {
		store, err := openHistory(cfg)
		if err != nil {
			return nil, err
		}
		defer store.Close()

		source := opts.source
		if source == "" {
			source = strings.Join(files, ", ")
		}
		if err := store.SaveStudy(ctx, result, source); err != nil {
			return nil, fmt.Errorf("failed to save study: %w", err)
		}
		fmt.Fprintf(out, "Study saved to history: %s\n", result.Summary.StudyID)
	}

	fmt.Fprintf(out, "Logs written to: %s\n", fileLog.RunFile())
	return result, nil
}
