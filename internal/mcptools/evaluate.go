package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harrison/capstudy/internal/models"
	"github.com/harrison/capstudy/internal/study"
)

// EvaluateTool handles the evaluate_feature MCP tool.
type EvaluateTool struct {
	runner *study.Runner
}

// NewEvaluateTool creates an EvaluateTool backed by runner.
func NewEvaluateTool(runner *study.Runner) *EvaluateTool {
	return &EvaluateTool{runner: runner}
}

// Definition returns the MCP tool definition for evaluate_feature.
func (t *EvaluateTool) Definition() mcp.Tool {
	return mcp.NewTool("evaluate_feature",
		mcp.WithDescription(
			"Evaluate one measured feature against its tolerance: GOOD/BAD verdict, out-of-spec count, "+
				"mean and standard deviation, MMC/LMC bonus tolerance, and capability indices "+
				"(Cp, Cpk, Pp, Ppk with Anderson-Darling normality) when enough measurements are given.",
		),
		mcp.WithString("element_id",
			mcp.Required(),
			mcp.Description("Feature identifier"),
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Feature description or callout text"),
		),
		mcp.WithNumber("nominal",
			mcp.Required(),
			mcp.Description("Nominal value"),
		),
		mcp.WithArray("measurements",
			mcp.Required(),
			mcp.Description("Measured values; null entries are empty cells"),
			mcp.Items(map[string]any{"type": []string{"number", "null"}}),
		),
		mcp.WithString("tolerance",
			mcp.Description("Explicit tolerance: a single value, or text like '+0.2/-0.1'. Omit to derive from the callout"),
		),
		mcp.WithString("class",
			mcp.Description("Element class: standard, geometric or traction (default: inferred)"),
		),
		mcp.WithString("datum_element_id",
			mcp.Description("Identifier of the datum feature granting MMC/LMC bonus"),
		),
		mcp.WithNumber("datum_nominal",
			mcp.Description("Datum feature nominal size"),
		),
		mcp.WithNumber("datum_measurement",
			mcp.Description("Datum feature actual size"),
		),
	)
}

// Handle processes the evaluate_feature tool call.
func (t *EvaluateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rec, err := recordFromRequest(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := t.runner.AnalyzeRecord(ctx, rec)
	return mcp.NewToolResultText(formatRecord(out)), nil
}

func recordFromRequest(req mcp.CallToolRequest) (models.InputRecord, error) {
	rec := models.InputRecord{
		ElementID:      strings.TrimSpace(req.GetString("element_id", "")),
		Description:    req.GetString("description", ""),
		Class:          req.GetString("class", ""),
		DatumElementID: req.GetString("datum_element_id", ""),
	}
	if rec.ElementID == "" {
		return rec, fmt.Errorf("'element_id' is required")
	}

	var err error
	if rec.Nominal, err = optionalFloat(req, "nominal"); err != nil {
		return rec, err
	}
	if rec.Tolerance, err = toleranceArg(req, "tolerance"); err != nil {
		return rec, err
	}
	if rec.Measurements, err = measurementsArg(req, "measurements"); err != nil {
		return rec, err
	}
	if rec.DatumNominal, err = optionalFloat(req, "datum_nominal"); err != nil {
		return rec, err
	}
	if rec.DatumMeasurement, err = optionalFloat(req, "datum_measurement"); err != nil {
		return rec, err
	}
	return rec, nil
}

// formatRecord renders one output record as Markdown.
func formatRecord(r models.OutputRecord) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s: %s\n\n", r.ElementID, r.Status)
	fmt.Fprintf(&sb, "- **Type**: %s\n", r.FeatureType)
	fmt.Fprintf(&sb, "- **Nominal**: %s\n", num(r.Nominal))
	fmt.Fprintf(&sb, "- **Tolerance**: [%s, %s]\n", num(r.LowerTolerance), num(r.UpperTolerance))
	if r.BonusTolerance != 0 {
		fmt.Fprintf(&sb, "- **Bonus**: %s (effective [%s, %s])\n",
			num(r.BonusTolerance), num(r.EffectiveLowerTolerance), num(r.EffectiveUpperTolerance))
	}
	fmt.Fprintf(&sb, "- **Out of spec**: %d of %d\n", r.OutOfSpecCount, len(r.Measurements))
	fmt.Fprintf(&sb, "- **Mean**: %s, **Std dev**: %s\n", num(r.Mean), num(r.StdDev))

	if c := r.Capability; c != nil {
		sb.WriteString("\n### Capability\n\n")
		fmt.Fprintf(&sb, "- **Class**: %s\n", c.ElementClass)
		fmt.Fprintf(&sb, "- **Cp** %.2f, **Cpk** %.2f, **Pp** %.2f, **Ppk** %.2f\n", c.Cp, c.Cpk, c.Pp, c.Ppk)
		fmt.Fprintf(&sb, "- **PPM**: short %.0f, long %.0f\n", c.PPMShort, c.PPMLong)
		normal := "normal"
		if !c.IsNormal {
			normal = "not normal"
		}
		fmt.Fprintf(&sb, "- **Anderson-Darling**: A² %.3f, p %.3f (%s)\n", c.ADStatistic, c.PValue, normal)
		if c.Extrapolated {
			fmt.Fprintf(&sb, "- **Extrapolated** to %d values (normality achieved: %t)\n", c.ExtrapolationSize, c.NormalityAchieved)
		}
	}

	if len(r.Warnings) > 0 {
		sb.WriteString("\n**Warnings**:\n")
		for _, w := range r.Warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}
	return sb.String()
}
