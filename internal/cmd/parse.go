package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/harrison/capstudy/internal/display"
	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/models"
	"github.com/harrison/capstudy/internal/tolerance"
)

// NewParseCommand creates the parse command
func NewParseCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <callout>...",
		Short: "Interpret a tolerance callout",
		Long: `Parse a drawing tolerance callout and show its type, magnitude, material
condition, datum references, keyword flags and the resolved tolerance band.

All arguments are joined into one callout, so quoting is optional.

Examples:
  capstudy parse "position Ø0.1 (M) A B"
  capstudy parse flatness 0.05
  capstudy parse Length --nominal 25.4 --tolerance "+0.2/-0.1"`,
		Args: cobra.MinimumNArgs(1),
		RunE: parseCommand,
	}

	cmd.Flags().Float64("nominal", 0, "Nominal value used to resolve the band")
	cmd.Flags().String("tolerance", "", "Explicit tolerance (single value or text like '+0.2/-0.1')")
	cmd.Flags().Bool("json", false, "Print the result as JSON")

	return cmd
}

// parseOutput is the JSON form of a parse result.
type parseOutput struct {
	Descriptor *models.ToleranceDescriptor `json:"descriptor"`
	Display    string                      `json:"display"`
	Flags      map[string]bool             `json:"gdt_flags"`
	Nominal    float64                     `json:"nominal"`
	Band       models.Band                 `json:"band"`
	Warnings   []string                    `json:"warnings,omitempty"`
}

func parseCommand(cmd *cobra.Command, args []string) error {
	description := strings.Join(args, " ")
	nominal, _ := cmd.Flags().GetFloat64("nominal")
	tolText, _ := cmd.Flags().GetString("tolerance")
	asJSON, _ := cmd.Flags().GetBool("json")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	parser := gdt.NewParser(gdt.WithCacheSize(cfg.Parser.CacheSize))

	var raw models.RawTolerance
	if tolText != "" {
		raw = models.TextTolerance(tolText)
	}

	desc := parser.Parse(description)
	flags := gdt.Flags(description)
	res := tolerance.Resolve(tolerance.Input{Raw: raw, Descriptor: desc, Flags: flags, Nominal: nominal})
	formatted := gdt.FormatDisplay(description)

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(parseOutput{
			Descriptor: desc,
			Display:    formatted,
			Flags:      flags,
			Nominal:    nominal,
			Band:       res.Band,
			Warnings:   res.Warnings,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if err := display.RenderDescriptor(out, desc, formatted); err != nil {
		return err
	}

	var active []string
	for _, key := range gdt.FlagKeys() {
		if flags[key] {
			active = append(active, key)
		}
	}
	if len(active) > 0 {
		fmt.Fprintf(out, "\nFlags: %s\n", strings.Join(active, ", "))
	}

	fmt.Fprintf(out, "\nResolved band: [%g, %g]  limits %g .. %g\n",
		res.Band.Lower, res.Band.Upper, res.Band.LowerLimit(nominal), res.Band.UpperLimit(nominal))
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "Warning: %s\n", w)
	}
	return nil
}
