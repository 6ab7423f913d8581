package cmd

import (
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/history"
	"github.com/harrison/capstudy/internal/logger"
	"github.com/harrison/capstudy/internal/mcptools"
	"github.com/harrison/capstudy/internal/study"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the capability engine as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the tools
parse_tolerance, evaluate_feature, analyze_study, extrapolate_sample and,
when history is enabled, study_history.

Study logs go to the configured log directory; stdout is reserved for the
protocol.`,
		Args: cobra.NoArgs,
		RunE: serveCommand,
	}

	addStudyFlags(cmd)
	return cmd
}

func serveCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadStudyConfig(cmd)
	if err != nil {
		return err
	}

	fileLog, err := logger.NewFileLoggerWithDirAndLevel(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	defer fileLog.Close()

	deps := mcptools.Deps{
		Runner:         newRunner(cfg, study.WithLogger(fileLog)),
		AvailableSizes: cfg.Extrapolation.AvailableSizes,
		MaxAttempts:    cfg.Extrapolation.MaxAttempts,
	}

	var store *history.Store
	if cfg.History.Enabled {
		store, err = openHistory(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		deps.Store = store
	}

	s := mcptools.NewServer("capstudy", Version, deps)
	fileLog.LogInfo("MCP server listening on stdio")
	return server.ServeStdio(s)
}
