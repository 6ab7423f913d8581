package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/harrison/capstudy/internal/models"
)

// CSVExporter writes one row per feature. Multi-valued cells (measurements,
// deviations, flags) are joined with ";".
type CSVExporter struct {
	// Comma overrides the field separator; zero means ','.
	Comma rune
}

// Export implements Exporter.
func (ce *CSVExporter) Export(w io.Writer, study *models.StudyResult) error {
	cw := csv.NewWriter(w)
	if ce.Comma != 0 {
		cw.Comma = ce.Comma
	}

	cols := columnsFor(study.Records)
	if err := cw.Write(headers(cols)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range study.Records {
		if err := cw.Write(row(cols, r)); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", r.ElementID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
