package study

import (
	"fmt"
	"math"
	"strings"

	"github.com/harrison/capstudy/internal/models"
)

// Validate checks a batch before it is run and returns study-level warnings.
// None of them stops the study; the affected features are reported BAD or
// without capability by the runner.
func Validate(records []models.InputRecord, minSampleSize int) []string {
	warnings := []string{}
	if len(records) == 0 {
		return append(warnings, "no elements provided for analysis")
	}

	seen := make(map[string]int, len(records))
	for i, rec := range records {
		name := rec.ElementID
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("row %d", i+1)
			warnings = append(warnings, fmt.Sprintf("%s: missing element_id", name))
		} else if first, dup := seen[name]; dup {
			warnings = append(warnings, fmt.Sprintf("%s: duplicate element_id (first seen in row %d)", name, first+1))
		} else {
			seen[name] = i
		}

		if rec.Nominal == nil {
			warnings = append(warnings, fmt.Sprintf("%s: missing nominal", name))
		}

		values := rec.Values()
		if len(values) < minSampleSize {
			warnings = append(warnings, fmt.Sprintf("%s: sample size %d < %d", name, len(values), minSampleSize))
		}
		for _, v := range values {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				warnings = append(warnings, fmt.Sprintf("%s: NaN or infinite values found", name))
				break
			}
		}

		if rec.Tolerance.Kind == models.ToleranceList && len(rec.Tolerance.Values) == 2 &&
			rec.Tolerance.Values[0] > rec.Tolerance.Values[1] {
			warnings = append(warnings, fmt.Sprintf("%s: lower tolerance > upper tolerance", name))
		}
	}
	return warnings
}
