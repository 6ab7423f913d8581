package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/display"
	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/ingest"
)

// NewDrawingCommand creates the drawing command
func NewDrawingCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drawing <drawing.pdf>",
		Short: "List the geometric tolerance callouts in a drawing PDF",
		Long: `Extract the text of every page of a drawing PDF and list the lines that
parse as geometric tolerance callouts, with type, magnitude, material
condition and datum references.

Examples:
  capstudy drawing bracket-rev-c.pdf
  capstudy drawing bracket-rev-c.pdf --json > callouts.json`,
		Args: cobra.ExactArgs(1),
		RunE: drawingCommand,
	}

	cmd.Flags().Bool("json", false, "Print the callouts as JSON")

	return cmd
}

func drawingCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	asJSON, _ := cmd.Flags().GetBool("json")

	parser := gdt.NewParser(gdt.WithCacheSize(cfg.Parser.CacheSize))
	callouts, err := ingest.ReadDrawing(args[0], parser)
	if err != nil {
		return fmt.Errorf("failed to read drawing: %w", err)
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(callouts, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode callouts: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if len(callouts) == 0 {
		fmt.Fprintf(out, "No tolerance callouts found in %s\n", args[0])
		return nil
	}

	table := display.NewTable("Page", "Line", "Type", "Tol", "MC", "Datums", "Callout").AlignRight(0, 1, 3)
	for _, c := range callouts {
		mag := "-"
		if c.Descriptor.HasMagnitude {
			mag = strconv.FormatFloat(c.Descriptor.Magnitude, 'g', -1, 64)
		}
		table.Append([]string{
			strconv.Itoa(c.Page),
			strconv.Itoa(c.Line),
			string(c.Descriptor.Type),
			mag,
			string(c.Descriptor.MaterialCondition),
			strings.Join(c.Descriptor.DatumRefs, "|"),
			c.Display,
		}, nil)
	}
	if err := table.Render(out); err != nil {
		return err
	}
	fmt.Fprintf(out, "\n%d callout(s) found\n", len(callouts))
	return nil
}
