package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/study"
	"github.com/harrison/capstudy/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <directory>",
		Short: "Re-run the study whenever measurement files change",
		Long: `Run a capability study over the measurement files in a directory tree,
then watch the tree and run it again whenever an input file is created,
written or removed. Bursts of writes are coalesced into one run.

Examples:
  capstudy watch ./measurements
  capstudy watch ./measurements --pattern 'line-*/**/*.csv' --output report.html`,
		Args: cobra.ExactArgs(1),
		RunE: watchCommand,
	}

	addStudyFlags(cmd)
	cmd.Flags().String("pattern", "", "Only watch files matching this glob, relative to the directory (supports **)")
	cmd.Flags().Duration("debounce", watch.DefaultDebounceDelay, "Quiet period before a change triggers a run")
	cmd.Flags().StringP("output", "o", "", "Export each study to this file (format from the extension)")
	cmd.Flags().Bool("quiet", false, "Do not print the result table")
	cmd.Flags().Bool("no-color", false, "Disable colored output")

	return cmd
}

func watchCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadStudyConfig(cmd)
	if err != nil {
		return err
	}

	dir := args[0]
	pattern, _ := cmd.Flags().GetString("pattern")
	debounce, _ := cmd.Flags().GetDuration("debounce")

	var opts analyzeOptions
	opts.output, _ = cmd.Flags().GetString("output")
	opts.quiet, _ = cmd.Flags().GetBool("quiet")
	opts.noColor, _ = cmd.Flags().GetBool("no-color")

	inputs := []string{dir}
	if pattern != "" {
		inputs = []string{filepath.Join(dir, pattern)}
	}

	watchOpts := []watch.Option{watch.WithDebounce(debounce)}
	if pattern != "" {
		watchOpts = append(watchOpts, watch.WithPattern(pattern))
	}
	// an export written inside the tree must not retrigger a run
	if opts.output != "" {
		watchOpts = append(watchOpts, watch.WithIgnore(opts.output))
	}

	w, err := watch.New(dir, watchOpts...)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out, errOut := cmd.OutOrStdout(), cmd.ErrOrStderr()
	run := func(ctx context.Context, reason string) {
		fmt.Fprintf(out, "\n[%s] %s\n", time.Now().Format("15:04:05"), reason)
		if _, err := runStudy(ctx, out, errOut, cfg, inputs, opts); err != nil && !study.IsInterrupted(err) {
			fmt.Fprintf(errOut, "Error: %v\n", err)
		}
	}

	run(ctx, "Initial study")
	fmt.Fprintf(out, "\nWatching %s for changes (Ctrl+C to stop)...\n", w.RootDir())

	err = w.Run(ctx, func(ctx context.Context, changed []string) {
		names := make([]string, len(changed))
		for i, p := range changed {
			if rel, err := filepath.Rel(w.RootDir(), p); err == nil {
				p = rel
			}
			names[i] = p
		}
		run(ctx, fmt.Sprintf("Changed: %s", strings.Join(names, ", ")))
	}, func(err error) {
		fmt.Fprintf(errOut, "Watch error: %v\n", err)
	})
	if err != nil && !study.IsInterrupted(err) {
		return err
	}
	fmt.Fprintln(out, "\nStopped watching.")
	return nil
}
