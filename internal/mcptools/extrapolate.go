package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harrison/capstudy/internal/spc"
)

// ExtrapolateTool handles the extrapolate_sample MCP tool.
type ExtrapolateTool struct {
	sizes       []int
	maxAttempts int
}

// NewExtrapolateTool creates an ExtrapolateTool with the permitted target
// sizes and attempt budget. Zero values select the engine defaults.
func NewExtrapolateTool(sizes []int, maxAttempts int) *ExtrapolateTool {
	return &ExtrapolateTool{sizes: sizes, maxAttempts: maxAttempts}
}

// Definition returns the MCP tool definition for extrapolate_sample.
func (t *ExtrapolateTool) Definition() mcp.Tool {
	return mcp.NewTool("extrapolate_sample",
		mcp.WithDescription(
			"Grow a small measurement sample with values drawn from its own normal distribution until the "+
				"combined sample passes the Anderson-Darling normality test. Returns the grown sample and test result.",
		),
		mcp.WithArray("values",
			mcp.Required(),
			mcp.Description("Measured values"),
			mcp.Items(map[string]any{"type": "number"}),
		),
		mcp.WithNumber("target_size",
			mcp.Description("Requested sample size (default: next available size above the sample)"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Random seed for reproducible draws (default: random)"),
		),
		mcp.WithBoolean("non_negative",
			mcp.Description("Fold draws to absolute values, for features that cannot go below zero"),
		),
	)
}

// Handle processes the extrapolate_sample tool call.
func (t *ExtrapolateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cells, err := measurementsArg(req, "values")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	values := make([]float64, 0, len(cells))
	for _, c := range cells {
		if c != nil {
			values = append(values, *c)
		}
	}
	if len(values) == 0 {
		return mcp.NewToolResultError("'values' is required"), nil
	}

	opts := []spc.ExtrapolatorOption{spc.WithAvailableSizes(t.sizes)}
	if t.maxAttempts > 0 {
		opts = append(opts, spc.WithMaxAttempts(t.maxAttempts))
	}
	if seed := intArg(req, "seed", 0); seed > 0 {
		opts = append(opts, spc.WithSeed(uint64(seed)))
	}
	x := spc.NewExtrapolator(opts...)

	target := x.TargetFor(len(values), intArg(req, "target_size", 0))
	res, err := x.Extrapolate(ctx, values, target, boolArg(req, "non_negative", false))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("extrapolation failed: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Extrapolation\n\n")
	if !res.Extrapolated {
		fmt.Fprintf(&sb, "Sample of %d kept as is (target %d).\n", res.OriginalSize, target)
		return mcp.NewToolResultText(sb.String()), nil
	}
	fmt.Fprintf(&sb, "- **Original size**: %d\n", res.OriginalSize)
	fmt.Fprintf(&sb, "- **Target size**: %d\n", res.TargetSize)
	fmt.Fprintf(&sb, "- **Attempts**: %d of %d\n", res.Attempts, x.MaxAttempts())
	fmt.Fprintf(&sb, "- **Anderson-Darling**: A² %.3f, p %.3f\n", res.ADStatistic, res.PValue)
	fmt.Fprintf(&sb, "- **Normality achieved**: %t\n", res.Achieved)

	parts := make([]string, len(res.Values))
	for i, v := range res.Values {
		parts[i] = num(v)
	}
	fmt.Fprintf(&sb, "\n**Values**: %s\n", strings.Join(parts, ", "))
	return mcp.NewToolResultText(sb.String()), nil
}
