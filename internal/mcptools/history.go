package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harrison/capstudy/internal/history"
)

// HistoryTool handles the study_history MCP tool.
type HistoryTool struct {
	store *history.Store
}

// NewHistoryTool creates a HistoryTool with the given history store.
func NewHistoryTool(store *history.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for study_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("study_history",
		mcp.WithDescription(
			"Look up saved capability studies. Without arguments lists recent studies; "+
				"with element_id shows how that feature performed across studies.",
		),
		mcp.WithString("element_id",
			mcp.Description("Feature identifier to trace across studies"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum rows to return (default: 20)"),
		),
	)
}

// Handle processes the study_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", 20)
	if limit <= 0 {
		limit = 20
	}

	if elementID := strings.TrimSpace(req.GetString("element_id", "")); elementID != "" {
		return t.element(ctx, elementID, limit)
	}

	studies, err := t.store.ListStudies(ctx, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list studies: %v", err)), nil
	}
	if len(studies) == 0 {
		return mcp.NewToolResultText("No studies saved yet."), nil
	}

	var sb strings.Builder
	sb.WriteString("## Saved Studies\n\n")
	sb.WriteString("| Study | Started | Features | GOOD | BAD | Normal % | Source |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, s := range studies {
		fmt.Fprintf(&sb, "| %s | %s | %d | %d | %d | %.1f | %s |\n",
			shortID(s.ID), s.StartedAt.Format("2006-01-02 15:04"), s.TotalElements, s.Good, s.Bad,
			s.NormalityPercentage, s.Source)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (t *HistoryTool) element(ctx context.Context, elementID string, limit int) (*mcp.CallToolResult, error) {
	results, err := t.store.ElementHistory(ctx, elementID, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read history: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No saved results for %s.", elementID)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## History of %s\n\n", elementID)
	sb.WriteString("| Study | Started | Status | Mean | Std dev | OOS | Cpk | Ppk |\n")
	sb.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, r := range results {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %d | %s | %s |\n",
			shortID(r.StudyID), r.StartedAt.Format("2006-01-02 15:04"), r.Status,
			num(r.Mean), num(r.StdDev), r.OutOfSpecCount, optIndex(r.Cpk), optIndex(r.Ppk))
	}
	return mcp.NewToolResultText(sb.String()), nil
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
