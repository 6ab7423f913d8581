package cmd

import (
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// NewRootCommand creates and returns the root cobra command for capstudy
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "capstudy",
		Short: "Tolerance interpretation and process capability studies",
		Long: `capstudy interprets drawing tolerance callouts (GD&T and plain
dimensions), evaluates measured features against them, and runs statistical
process capability studies (Cp, Cpk, Pp, Ppk) with Anderson-Darling normality
testing and optional sample extrapolation.

Configuration is loaded from .capstudy/config.yaml if present.
CLI flags override configuration file settings.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text; main prints the error
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("config", "", "Path to config file (default: .capstudy/config.yaml)")
	cmd.PersistentFlags().String("log-level", "", "Log level: trace, debug, info, warn, error (default from config)")

	cmd.AddCommand(NewAnalyzeCommand())
	cmd.AddCommand(NewParseCommand())
	cmd.AddCommand(NewExtrapolateCommand())
	cmd.AddCommand(NewDrawingCommand())
	cmd.AddCommand(NewHistoryCommand())
	cmd.AddCommand(NewWatchCommand())
	cmd.AddCommand(NewServeCommand())

	return cmd
}
