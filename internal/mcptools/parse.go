package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/tolerance"
)

// ParseTool handles the parse_tolerance MCP tool.
type ParseTool struct {
	parser *gdt.Parser
}

// NewParseTool creates a ParseTool sharing parser (and its cache).
func NewParseTool(parser *gdt.Parser) *ParseTool {
	if parser == nil {
		parser = gdt.NewParser()
	}
	return &ParseTool{parser: parser}
}

// Definition returns the MCP tool definition for parse_tolerance.
func (t *ParseTool) Definition() mcp.Tool {
	return mcp.NewTool("parse_tolerance",
		mcp.WithDescription(
			"Interpret a drawing tolerance callout such as '⌖ Ø0.1 Ⓜ A|B' or 'Flatness 0.05'. "+
				"Returns the tolerance type, magnitude, material condition, datum references, keyword flags, "+
				"and the resolved tolerance band for the given nominal.",
		),
		mcp.WithString("description",
			mcp.Required(),
			mcp.Description("Feature description or callout text"),
		),
		mcp.WithNumber("nominal",
			mcp.Description("Nominal value used to resolve the band (default 0)"),
		),
		mcp.WithString("tolerance",
			mcp.Description("Explicit tolerance: a single value, or text like '+0.2/-0.1' or '±0.05'"),
		),
	)
}

// Handle processes the parse_tolerance tool call.
func (t *ParseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	description := req.GetString("description", "")
	if strings.TrimSpace(description) == "" {
		return mcp.NewToolResultError("'description' is required"), nil
	}
	nominal, err := optionalFloat(req, "nominal")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	raw, err := toleranceArg(req, "tolerance")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	desc := t.parser.Parse(description)
	flags := gdt.Flags(description)
	nom := 0.0
	if nominal != nil {
		nom = *nominal
	}
	res := tolerance.Resolve(tolerance.Input{Raw: raw, Descriptor: desc, Flags: flags, Nominal: nom})

	var sb strings.Builder
	sb.WriteString("## Tolerance Callout\n\n")
	fmt.Fprintf(&sb, "- **Source**: %s\n", desc.Source)
	fmt.Fprintf(&sb, "- **Display**: %s\n", gdt.FormatDisplay(description))
	fmt.Fprintf(&sb, "- **Type**: %s\n", desc.Type)
	fmt.Fprintf(&sb, "- **Feature type**: %s\n", desc.FeatureType())
	if desc.HasMagnitude {
		fmt.Fprintf(&sb, "- **Magnitude**: %s\n", num(desc.Magnitude))
	}
	fmt.Fprintf(&sb, "- **Material condition**: %s\n", desc.MaterialCondition)
	if len(desc.DatumRefs) > 0 {
		fmt.Fprintf(&sb, "- **Datums**: %s\n", strings.Join(desc.DatumRefs, "|"))
	}
	if desc.BilateralProfile {
		sb.WriteString("- **Profile**: bilateral\n")
	}

	var active []string
	for _, key := range gdt.FlagKeys() {
		if flags[key] {
			active = append(active, key)
		}
	}
	if len(active) > 0 {
		fmt.Fprintf(&sb, "- **Flags**: %s\n", strings.Join(active, ", "))
	}

	fmt.Fprintf(&sb, "\n**Resolved band** at nominal %s: [%s, %s] (limits %s .. %s)\n",
		num(nom), num(res.Band.Lower), num(res.Band.Upper),
		num(res.Band.LowerLimit(nom)), num(res.Band.UpperLimit(nom)))

	warnings := append(append([]string(nil), desc.Warnings...), res.Warnings...)
	if len(warnings) > 0 {
		sb.WriteString("\n**Warnings**:\n")
		for _, w := range warnings {
			fmt.Fprintf(&sb, "- %s\n", w)
		}
	}

	return mcp.NewToolResultText(sb.String()), nil
}
