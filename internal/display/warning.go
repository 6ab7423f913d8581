package display

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/harrison/capstudy/internal/models"
)

// Warning represents a user-facing warning message
type Warning struct {
	Title      string   // Main warning title
	Message    string   // Detailed explanation (optional)
	Elements   []string // Affected features (optional)
	Suggestion string   // Action to take (optional)
}

// Display shows a formatted warning, in yellow when out is a color terminal.
func (w Warning) Display(out io.Writer) {
	fmt.Fprint(out, w.render(ColorEnabled(out)))
}

func (w Warning) render(useColor bool) string {
	var b strings.Builder

	b.WriteString("⚠️  Warning: ")
	b.WriteString(w.Title)
	b.WriteString("\n")

	if w.Message != "" {
		b.WriteString("    ")
		b.WriteString(w.Message)
		b.WriteString("\n")
	}

	if len(w.Elements) > 0 {
		if len(w.Elements) == 1 {
			b.WriteString("    Affected feature:\n")
		} else {
			b.WriteString("    Affected features:\n")
		}
		for i, el := range w.Elements {
			b.WriteString(fmt.Sprintf("      %d. %s\n", i+1, el))
		}
	}

	if w.Suggestion != "" {
		b.WriteString("    Suggestion:\n")
		b.WriteString("    ")
		b.WriteString(w.Suggestion)
		b.WriteString("\n")
	}

	return painter(useColor, color.FgYellow).Sprint(b.String())
}

// WarnValidation builds the warning shown for pre-study input validation
// findings. The zero Warning is returned when there are none.
func WarnValidation(warnings []string) Warning {
	if len(warnings) == 0 {
		return Warning{}
	}
	return Warning{
		Title:      "Input Validation",
		Message:    fmt.Sprintf("%d issue(s) found before analysis", len(warnings)),
		Elements:   warnings,
		Suggestion: "Check sample sizes and tolerance columns for the listed features",
	}
}

// WarnBadFeatures builds a warning listing every BAD feature with its
// out-of-spec count. ok is false when all features passed.
func WarnBadFeatures(records []models.OutputRecord) (w Warning, ok bool) {
	var bad []string
	for _, rec := range records {
		if rec.Status != models.StatusBad {
			continue
		}
		bad = append(bad, fmt.Sprintf("%s: %d of %d out of spec", rec.ElementID, rec.OutOfSpecCount, len(rec.Measurements)))
	}
	if len(bad) == 0 {
		return Warning{}, false
	}
	return Warning{
		Title:    "Features Out of Specification",
		Elements: bad,
	}, true
}

// IsZero reports whether the warning carries nothing to show.
func (w Warning) IsZero() bool {
	return w.Title == "" && w.Message == "" && len(w.Elements) == 0 && w.Suggestion == ""
}
