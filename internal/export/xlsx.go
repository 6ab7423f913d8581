package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/harrison/capstudy/internal/models"
)

// Sheet names of the XLSX report
const (
	SheetResults = "Results"
	SheetSummary = "Summary"
)

// XLSXExporter writes a workbook with a results sheet (one row per feature)
// and a summary sheet.
type XLSXExporter struct{}

// Export implements Exporter.
func (xe *XLSXExporter) Export(w io.Writer, study *models.StudyResult) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetResults); err != nil {
		return fmt.Errorf("failed to name results sheet: %w", err)
	}
	if err := writeResultsSheet(f, study.Records); err != nil {
		return err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("failed to add summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, study.Summary); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write XLSX: %w", err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, rowNum int, value interface{}) error {
	name, err := excelize.CoordinatesToCellName(col, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, name, value); err != nil {
		return fmt.Errorf("failed to set %s!%s: %w", sheet, name, err)
	}
	return nil
}

func writeResultsSheet(f *excelize.File, records []models.OutputRecord) error {
	cols := columnsFor(records)
	for i, h := range headers(cols) {
		if err := setCell(f, SheetResults, i+1, 1, h); err != nil {
			return err
		}
	}
	for r, rec := range records {
		for i, c := range cols {
			var value interface{} = c.value(rec)
			if c.number != nil {
				v, ok := c.number(rec)
				if !ok {
					continue
				}
				value = v
			}
			if err := setCell(f, SheetResults, i+1, r+2, value); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, s models.StudySummary) error {
	rows := [][]interface{}{
		{"study_id", s.StudyID},
		{"started_at", s.StartedAt.Format("2006-01-02 15:04:05")},
		{"total_elements", s.TotalElements},
		{"good", s.Good},
		{"bad", s.Bad},
		{"successful_analyses", s.SuccessfulAnalyses},
		{"failed_analyses", s.FailedAnalyses},
		{"normality_percentage", s.NormalityPercentage},
		{"acceptable_index", s.AcceptableIndex},
	}
	for _, ix := range []struct {
		name  string
		stats models.IndexStats
	}{{"cp", s.Cp}, {"cpk", s.Cpk}, {"pp", s.Pp}, {"ppk", s.Ppk}} {
		rows = append(rows,
			[]interface{}{ix.name + "_mean", ix.stats.Mean},
			[]interface{}{ix.name + "_min", ix.stats.Min},
			[]interface{}{ix.name + "_max", ix.stats.Max},
			[]interface{}{ix.name + "_acceptable_count", ix.stats.Acceptable},
		)
	}
	for _, rec := range s.Recommendations {
		rows = append(rows, []interface{}{"recommendation", rec})
	}
	for _, warn := range s.ValidationWarnings {
		rows = append(rows, []interface{}{"validation_warning", warn})
	}

	for r, values := range rows {
		for c, v := range values {
			if err := setCell(f, SheetSummary, c+1, r+1, v); err != nil {
				return err
			}
		}
	}
	return nil
}
