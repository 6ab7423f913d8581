package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harrison/capstudy/internal/export"
	"github.com/harrison/capstudy/internal/history"
	"github.com/harrison/capstudy/internal/ingest"
	"github.com/harrison/capstudy/internal/study"
)

// AnalyzeStudyTool handles the analyze_study MCP tool.
type AnalyzeStudyTool struct {
	runner *study.Runner
	store  *history.Store
}

// NewAnalyzeStudyTool creates an AnalyzeStudyTool. store may be nil, in which
// case studies are never saved.
func NewAnalyzeStudyTool(runner *study.Runner, store *history.Store) *AnalyzeStudyTool {
	return &AnalyzeStudyTool{runner: runner, store: store}
}

// Definition returns the MCP tool definition for analyze_study.
func (t *AnalyzeStudyTool) Definition() mcp.Tool {
	return mcp.NewTool("analyze_study",
		mcp.WithDescription(
			"Run a capability study over measurement files (CSV, JSON, YAML or XLSX). "+
				"Returns a Markdown report with the study summary, recommendations and one row per feature. "+
				"Optionally writes an export file and saves the study to history.",
		),
		mcp.WithString("inputs",
			mcp.Required(),
			mcp.Description("Input paths or glob patterns, separated by commas (e.g. 'data/**/*.csv')"),
		),
		mcp.WithString("output",
			mcp.Description("Optional export path; the format follows the extension (.csv, .json, .md, .html, .xlsx)"),
		),
		mcp.WithBoolean("save",
			mcp.Description("Save the study to history (default: true when history is enabled)"),
		),
	)
}

// Handle processes the analyze_study tool call.
func (t *AnalyzeStudyTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var patterns []string
	for _, p := range strings.Split(req.GetString("inputs", ""), ",") {
		if p = strings.TrimSpace(p); p != "" {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return mcp.NewToolResultError("'inputs' is required"), nil
	}

	records, files, err := ingest.Load(ctx, patterns...)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load inputs: %v", err)), nil
	}

	result, err := t.runner.Run(ctx, records)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("study failed: %v", err)), nil
	}

	var notes []string
	if output := strings.TrimSpace(req.GetString("output", "")); output != "" {
		if err := export.WriteFile(ctx, output, result); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to export study: %v", err)), nil
		}
		notes = append(notes, fmt.Sprintf("Exported to %s", output))
	}
	if t.store != nil && boolArg(req, "save", true) {
		if err := t.store.SaveStudy(ctx, result, strings.Join(files, ", ")); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to save study: %v", err)), nil
		}
		notes = append(notes, fmt.Sprintf("Saved to history as %s", result.Summary.StudyID))
	}

	var sb strings.Builder
	if err := (&export.MarkdownExporter{}).Export(&sb, result); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to render report: %v", err)), nil
	}
	fmt.Fprintf(&sb, "\n_Loaded %d features from %d files._\n", len(records), len(files))
	for _, n := range notes {
		fmt.Fprintf(&sb, "\n%s\n", n)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
