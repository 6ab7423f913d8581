package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/harrison/capstudy/internal/models"
)

// column identifies what a table header holds.
type column int

const (
	colIgnored column = iota
	colElementID
	colBatch
	colCavity
	colClass
	colDescription
	colNominal
	colTolerance
	colTolMinus
	colTolPlus
	colMeasurements
	colMeasurement
	colDatumElementID
	colDatumNominal
	colDatumMeasurement
)

// headerAliases maps normalized header names to columns. Headers are
// lower-cased with spaces and dashes folded to underscores, except the
// signed tolerance headers which keep their sign.
var headerAliases = map[string]column{
	"element_id":    colElementID,
	"element":       colElementID,
	"feature":       colElementID,
	"id":            colElementID,
	"batch":         colBatch,
	"lot":           colBatch,
	"cavity":        colCavity,
	"class":         colClass,
	"element_class": colClass,
	"description":   colDescription,
	"descripcio":    colDescription,
	"nominal":       colNominal,
	"valor_nominal": colNominal,
	"tolerance":     colTolerance,
	"tol":           colTolerance,
	"measurements":  colMeasurements,
	"values":        colMeasurements,

	"tol-":                colTolMinus,
	"lower_tolerance":     colTolMinus,
	"tolerancia_inferior": colTolMinus,
	"tol+":                colTolPlus,
	"upper_tolerance":     colTolPlus,
	"tolerancia_superior": colTolPlus,

	"datum_element_id":  colDatumElementID,
	"datum":             colDatumElementID,
	"datum_nominal":     colDatumNominal,
	"datum_measurement": colDatumMeasurement,
}

// measurementHeader matches per-measurement columns such as "m1", "value_2"
// or "Measurement 3".
var measurementHeader = regexp.MustCompile(`^(?:m|v|value|measurement|mesura)_?(\d+)$`)

// listSeparator splits a measurements cell holding several values.
var listSeparator = regexp.MustCompile(`[;\s|]+`)

type tableLayout struct {
	columns []column
	// order of per-measurement columns by their index in the header
	measurementOrder []int
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	if h == "tol-" || h == "tol +" || h == "tol+" || h == "tol -" {
		return strings.ReplaceAll(h, " ", "")
	}
	return strings.NewReplacer(" ", "_", "-", "_").Replace(h)
}

func newTableLayout(header []string) (*tableLayout, error) {
	layout := &tableLayout{columns: make([]column, len(header))}
	type numbered struct{ col, n int }
	var measurements []numbered

	hasID := false
	for i, h := range header {
		key := normalizeHeader(h)
		if c, ok := headerAliases[key]; ok {
			layout.columns[i] = c
			hasID = hasID || c == colElementID
			continue
		}
		if m := measurementHeader.FindStringSubmatch(key); m != nil {
			n, _ := strconv.Atoi(m[1])
			layout.columns[i] = colMeasurement
			measurements = append(measurements, numbered{col: i, n: n})
		}
	}
	if !hasID {
		return nil, errors.New("missing element_id column")
	}

	sort.SliceStable(measurements, func(a, b int) bool { return measurements[a].n < measurements[b].n })
	for _, m := range measurements {
		layout.measurementOrder = append(layout.measurementOrder, m.col)
	}
	return layout, nil
}

// record builds an input record from one data row. Empty measurement cells
// stay empty; unreadable numbers are reported with their row and column.
func (l *tableLayout) record(row []string, rowNum int, header []string) (models.InputRecord, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	number := func(i int) (*float64, error) {
		s := cell(i)
		if s == "" {
			return nil, nil
		}
		v, err := models.ParseDecimal(s)
		if err != nil {
			return nil, fmt.Errorf("row %d, column %q: invalid number %q", rowNum, header[i], s)
		}
		return &v, nil
	}

	var rec models.InputRecord
	var tolMinus, tolPlus *float64
	var err error

	for i, c := range l.columns {
		switch c {
		case colElementID:
			rec.ElementID = cell(i)
		case colBatch:
			rec.Batch = cell(i)
		case colCavity:
			rec.Cavity = cell(i)
		case colClass:
			rec.Class = cell(i)
		case colDescription:
			rec.Description = cell(i)
		case colNominal:
			rec.Nominal, err = number(i)
		case colTolerance:
			rec.Tolerance = toleranceCell(cell(i))
		case colTolMinus:
			tolMinus, err = number(i)
		case colTolPlus:
			tolPlus, err = number(i)
		case colMeasurements:
			rec.Measurements, err = measurementList(cell(i), rowNum)
		case colDatumElementID:
			rec.DatumElementID = cell(i)
		case colDatumNominal:
			rec.DatumNominal, err = number(i)
		case colDatumMeasurement:
			rec.DatumMeasurement, err = number(i)
		}
		if err != nil {
			return rec, err
		}
	}

	for _, i := range l.measurementOrder {
		v, err := number(i)
		if err != nil {
			return rec, err
		}
		rec.Measurements = append(rec.Measurements, v)
	}
	rec.Measurements = trimTrailingEmpty(rec.Measurements)

	if rec.Tolerance.IsEmpty() && (tolMinus != nil || tolPlus != nil) {
		rec.Tolerance = signedPair(tolMinus, tolPlus)
	}
	return rec, nil
}

// signedPair turns Tol-/Tol+ columns into a pair. Tol- is read as a signed
// lower offset; sign normalization in the resolver takes care of sheets that
// write it as a positive magnitude.
func signedPair(minus, plus *float64) models.RawTolerance {
	var lower, upper float64
	if minus != nil {
		lower = *minus
	}
	if plus != nil {
		upper = *plus
	}
	if minus != nil && lower > 0 {
		lower = -lower
	}
	return models.PairTolerance(lower, upper)
}

func toleranceCell(s string) models.RawTolerance {
	if s == "" {
		return models.RawTolerance{}
	}
	if v, err := models.ParseDecimal(s); err == nil {
		return models.ScalarTolerance(v)
	}
	return models.TextTolerance(s)
}

func measurementList(s string, rowNum int) ([]*float64, error) {
	if s == "" {
		return nil, nil
	}
	parts := listSeparator.Split(s, -1)
	values := make([]*float64, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		v, err := models.ParseDecimal(p)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid measurement %q", rowNum, p)
		}
		values = append(values, &v)
	}
	return values, nil
}

func trimTrailingEmpty(values []*float64) []*float64 {
	for len(values) > 0 && values[len(values)-1] == nil {
		values = values[:len(values)-1]
	}
	return values
}

// readTable converts header + rows into records, skipping blank rows.
func readTable(rows [][]string) ([]models.InputRecord, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	header := rows[0]
	layout, err := newTableLayout(header)
	if err != nil {
		return nil, err
	}

	var records []models.InputRecord
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		rec, err := layout.record(row, i+2, header)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// csvLoader reads comma or semicolon separated tables. Semicolon is chosen
// when the header contains more semicolons than commas, which is how
// spreadsheets with decimal commas export.
type csvLoader struct{}

func (csvLoader) Load(r io.Reader) ([]models.InputRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	text := strings.TrimPrefix(string(data), "\ufeff")

	reader := csv.NewReader(strings.NewReader(text))
	firstLine, _, _ := strings.Cut(text, "\n")
	if strings.Count(firstLine, ";") > strings.Count(firstLine, ",") {
		reader.Comma = ';'
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	return readTable(rows)
}

// xlsxLoader reads the first sheet that has an element_id header.
type xlsxLoader struct{}

func (xlsxLoader) Load(r io.Reader) ([]models.InputRecord, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening XLSX: %w", err)
	}
	defer f.Close()

	var lastErr error
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		records, err := readTable(rows)
		if err != nil {
			lastErr = fmt.Errorf("sheet %q: %w", sheet, err)
			continue
		}
		return records, nil
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, errors.New("no data found in XLSX")
}
