package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/config"
	"github.com/harrison/capstudy/internal/display"
	"github.com/harrison/capstudy/internal/history"
)

// NewHistoryCommand creates the 'capstudy history' parent command
func NewHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse saved capability studies",
		Long: `Commands for viewing and managing the study history database.

Studies are saved by 'capstudy analyze --history' (or history.enabled in the
config file) to $CAPSTUDY_HOME/history.db unless history.db_path says
otherwise.`,
	}
	cmd.PersistentFlags().String("history-db", "", "History database path (default: $CAPSTUDY_HOME/history.db)")

	cmd.AddCommand(newHistoryListCommand())
	cmd.AddCommand(newHistoryShowCommand())
	cmd.AddCommand(newHistoryElementCommand())
	cmd.AddCommand(newHistoryDeleteCommand())

	return cmd
}

// withHistory opens the history store for a read command. ok is false when
// no database exists yet.
func withHistory(cmd *cobra.Command) (store *history.Store, ok bool, err error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, false, err
	}
	if cmd.Flags().Changed("history-db") {
		v, _ := cmd.Flags().GetString("history-db")
		cfg.MergeWithFlags(config.Overrides{HistoryDB: &v})
	}

	dbPath, err := cfg.HistoryDBPath()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get history database path: %w", err)
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, false, nil
	}
	store, err = openHistory(cfg)
	if err != nil {
		return nil, false, err
	}
	return store, true, nil
}

func newHistoryListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent studies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, ok, err := withHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(out, "No studies saved yet.")
				return nil
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			studies, err := store.ListStudies(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list studies: %w", err)
			}
			if len(studies) == 0 {
				fmt.Fprintln(out, "No studies saved yet.")
				return nil
			}

			table := display.NewTable("Study", "Started", "Features", "GOOD", "BAD", "Normal %", "Source").AlignRight(2, 3, 4, 5)
			for _, s := range studies {
				table.Append([]string{
					shortID(s.ID),
					s.StartedAt.Local().Format("2006-01-02 15:04"),
					strconv.Itoa(s.TotalElements),
					strconv.Itoa(s.Good),
					strconv.Itoa(s.Bad),
					fmt.Sprintf("%.1f", s.NormalityPercentage),
					s.Source,
				}, nil)
			}
			return table.Render(out)
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of studies to list")
	return cmd
}

func newHistoryShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <study-id>",
		Short: "Show a saved study",
		Long:  "Show the summary and per-feature results of a saved study. A unique prefix of the id is enough.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, ok, err := withHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", history.ErrStudyNotFound, args[0])
			}
			defer store.Close()

			result, err := store.GetStudy(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			s := result.Summary
			fmt.Fprintf(out, "Study %s\n", s.StudyID)
			fmt.Fprintf(out, "  Started: %s (%s)\n", s.StartedAt.Local().Format("2006-01-02 15:04:05"), s.Duration)
			fmt.Fprintf(out, "  Features: %d (GOOD %d / BAD %d)\n", s.TotalElements, s.Good, s.Bad)
			if s.HasCapability() {
				fmt.Fprintf(out, "  Analyses: %d successful, %d failed\n", s.SuccessfulAnalyses, s.FailedAnalyses)
				fmt.Fprintf(out, "  Normal distributions: %d (%.1f%%)\n", s.NormalCount, s.NormalityPercentage)
			}
			for _, r := range s.Recommendations {
				fmt.Fprintf(out, "  - %s\n", r)
			}
			fmt.Fprintln(out)

			acceptable := s.AcceptableIndex
			if acceptable <= 0 {
				acceptable = config.DefaultConfig().Capability.AcceptableIndex
			}
			return display.RenderResults(out, result.Records, display.TableOptions{
				Color:      display.ColorEnabled(out),
				Acceptable: acceptable,
			})
		},
	}
}

func newHistoryElementCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "element <element-id>",
		Short: "Show how one feature performed across studies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			store, ok, err := withHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintf(out, "No saved results for %s\n", args[0])
				return nil
			}
			defer store.Close()

			limit, _ := cmd.Flags().GetInt("limit")
			results, err := store.ElementHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return fmt.Errorf("element history: %w", err)
			}
			if len(results) == 0 {
				fmt.Fprintf(out, "No saved results for %s\n", args[0])
				return nil
			}

			table := display.NewTable("Study", "Started", "Status", "Mean", "Std dev", "OOS", "Cpk", "Ppk").AlignRight(3, 4, 5, 6, 7)
			for _, r := range results {
				table.Append([]string{
					shortID(r.StudyID),
					r.StartedAt.Local().Format("2006-01-02 15:04"),
					r.Status,
					fmt.Sprintf("%.4g", r.Mean),
					fmt.Sprintf("%.4g", r.StdDev),
					strconv.Itoa(r.OutOfSpecCount),
					optIndex(r.Cpk),
					optIndex(r.Ppk),
				}, nil)
			}
			return table.Render(out)
		},
	}
	cmd.Flags().Int("limit", 20, "Maximum number of results")
	return cmd
}

func newHistoryDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <study-id>",
		Short: "Delete a saved study",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, ok, err := withHistory(cmd)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%w: %s", history.ErrStudyNotFound, args[0])
			}
			defer store.Close()

			if err := store.DeleteStudy(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted study %s\n", args[0])
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func optIndex(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
