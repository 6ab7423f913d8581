package logger

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/capstudy/internal/models"
)

// colorScheme defines consistent colors for capability figures.
// Green: index at or above the acceptable threshold
// Yellow: index at or above 1.0 but below the threshold
// Red: index below 1.0 or failed features
type colorScheme struct {
	success *color.Color
	fail    *color.Color
	warn    *color.Color
	label   *color.Color
	header  *color.Color
}

// newColorScheme creates the standard color scheme. When enabled is false
// every color renders plain text.
func newColorScheme(enabled bool) *colorScheme {
	scheme := &colorScheme{
		success: color.New(color.FgGreen),
		fail:    color.New(color.FgRed),
		warn:    color.New(color.FgYellow),
		label:   color.New(color.FgCyan),
		header:  color.New(color.Bold),
	}
	for _, c := range []*color.Color{scheme.success, scheme.fail, scheme.warn, scheme.label, scheme.header} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return scheme
}

// indexColor picks the color for a capability index value.
func (cs *colorScheme) indexColor(value, acceptable float64) *color.Color {
	switch {
	case value >= acceptable:
		return cs.success
	case value >= 1.0:
		return cs.warn
	default:
		return cs.fail
	}
}

// formatColorizedIndex formats "label value" with the value colored by threshold.
func formatColorizedIndex(label string, value, acceptable float64, scheme *colorScheme) string {
	return fmt.Sprintf("%s %s", scheme.label.Sprint(label), scheme.indexColor(value, acceptable).Sprintf("%.2f", value))
}

// formatCapabilityMetrics formats the per-feature capability figures.
// Format: "Cp 1.52, Cpk 1.41, Pp 1.48, Ppk 1.37, p 0.412"
// A non-normal sample is flagged, as is a synthetically extended one.
func formatCapabilityMetrics(c *models.CapabilityFields, acceptable float64, enabled bool) string {
	if c == nil {
		return ""
	}
	scheme := newColorScheme(enabled)

	parts := []string{
		formatColorizedIndex("Cp", c.Cp, acceptable, scheme),
		formatColorizedIndex("Cpk", c.Cpk, acceptable, scheme),
		formatColorizedIndex("Pp", c.Pp, acceptable, scheme),
		formatColorizedIndex("Ppk", c.Ppk, acceptable, scheme),
	}

	p := fmt.Sprintf("p %.3f", c.PValue)
	if !c.IsNormal {
		p = scheme.warn.Sprint(p + " non-normal")
	}
	parts = append(parts, p)

	if c.Extrapolated {
		parts = append(parts, scheme.label.Sprintf("extrapolated to %d", c.ExtrapolationSize))
	}
	return strings.Join(parts, ", ")
}

// formatIndexStats formats one summary line for a capability index.
// Format: "Cpk: mean 1.21, min 0.84, max 1.67, acceptable 3/5"
func formatIndexStats(name string, stats models.IndexStats, analysed int, scheme *colorScheme) string {
	acceptable := fmt.Sprintf("acceptable %d/%d", stats.Acceptable, analysed)
	switch {
	case analysed > 0 && stats.Acceptable == analysed:
		acceptable = scheme.success.Sprint(acceptable)
	case stats.Acceptable == 0:
		acceptable = scheme.fail.Sprint(acceptable)
	default:
		acceptable = scheme.warn.Sprint(acceptable)
	}
	return fmt.Sprintf("%s: mean %.2f, min %.2f, max %.2f, %s",
		scheme.header.Sprint(name), stats.Mean, stats.Min, stats.Max, acceptable)
}

// formatExtrapolation describes an extrapolation outcome.
func formatExtrapolation(elementID string, res models.ExtrapolationResult, scheme *colorScheme) string {
	if !res.Extrapolated {
		return fmt.Sprintf("%s: sample of %d kept as is", elementID, res.OriginalSize)
	}
	verdict := scheme.success.Sprint("normal")
	if !res.Achieved {
		verdict = scheme.warn.Sprint("normality not achieved")
	}
	return fmt.Sprintf("%s: extrapolated %d -> %d in %d attempts (p %.3f, %s)",
		elementID, res.OriginalSize, len(res.Values), res.Attempts, res.PValue, verdict)
}
