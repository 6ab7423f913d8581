package display

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/harrison/capstudy/internal/models"
)

// TableOptions controls RenderResults.
type TableOptions struct {
	Color      bool
	Acceptable float64 // threshold for green capability values
	MaxWidth   int     // element and type columns are truncated to this; 0 means 24
}

// Table is a plain column-aligned text table. Cells may hold wide runes
// (Ø, ⌀, ⊥) and are padded by display width.
type Table struct {
	headers []string
	rows    [][]string
	styles  [][]*color.Color
	right   map[int]bool
}

// NewTable creates a table with the given headers.
func NewTable(headers ...string) *Table {
	return &Table{headers: headers, right: map[int]bool{}}
}

// AlignRight right-aligns the given column indexes.
func (t *Table) AlignRight(cols ...int) *Table {
	for _, c := range cols {
		t.right[c] = true
	}
	return t
}

// Append adds a row; styles may be nil or hold one color per cell (nil cells
// are left plain).
func (t *Table) Append(cells []string, styles []*color.Color) {
	t.rows = append(t.rows, cells)
	t.styles = append(t.styles, styles)
}

// Render writes the table to w.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(cell))
			}
		}
	}

	var sb strings.Builder
	t.writeRow(&sb, t.headers, nil, widths)
	sep := make([]string, len(widths))
	for i, wd := range widths {
		sep[i] = strings.Repeat("-", wd)
	}
	t.writeRow(&sb, sep, nil, widths)
	for i, row := range t.rows {
		t.writeRow(&sb, row, t.styles[i], widths)
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func (t *Table) writeRow(sb *strings.Builder, cells []string, styles []*color.Color, widths []int) {
	for i, wd := range widths {
		cell := ""
		if i < len(cells) {
			cell = cells[i]
		}
		pad := strings.Repeat(" ", wd-runewidth.StringWidth(cell))
		if i < len(styles) && styles[i] != nil {
			cell = styles[i].Sprint(cell)
		}
		if i > 0 {
			sb.WriteString("  ")
		}
		if t.right[i] {
			sb.WriteString(pad + cell)
		} else if i < len(widths)-1 {
			sb.WriteString(cell + pad)
		} else {
			sb.WriteString(cell)
		}
	}
	sb.WriteString("\n")
}

func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderResults writes one row per feature: acceptance verdict plus the
// capability figures when they were computed.
func RenderResults(w io.Writer, records []models.OutputRecord, opts TableOptions) error {
	if opts.Acceptable <= 0 {
		opts.Acceptable = 1.33
	}
	maxWidth := opts.MaxWidth
	if maxWidth <= 0 {
		maxWidth = 24
	}

	withCapability := false
	for _, rec := range records {
		if rec.Capability != nil {
			withCapability = true
			break
		}
	}

	headers := []string{"Element", "Type", "Nominal", "Lower", "Upper", "Mean", "OOS", "Status"}
	if withCapability {
		headers = append(headers, "Cp", "Cpk", "Pp", "Ppk", "p")
	}
	table := NewTable(headers...).AlignRight(2, 3, 4, 5, 6, 8, 9, 10, 11, 12)

	good := painter(opts.Color, color.FgGreen)
	warn := painter(opts.Color, color.FgYellow)
	bad := painter(opts.Color, color.FgRed)
	indexStyle := func(v float64) *color.Color {
		switch {
		case v >= opts.Acceptable:
			return good
		case v >= 1.0:
			return warn
		default:
			return bad
		}
	}

	for _, rec := range records {
		cells := []string{
			runewidth.Truncate(rec.ElementID, maxWidth, "…"),
			runewidth.Truncate(rec.FeatureType, maxWidth, "…"),
			fmtNum(rec.Nominal),
			fmtNum(rec.EffectiveLowerTolerance),
			fmtNum(rec.EffectiveUpperTolerance),
			fmt.Sprintf("%.4f", rec.Mean),
			fmt.Sprintf("%d/%d", rec.OutOfSpecCount, len(rec.Measurements)),
			rec.Status,
		}
		styles := make([]*color.Color, len(headers))
		if rec.Status == models.StatusGood {
			styles[7] = good
		} else {
			styles[7] = bad
		}

		if withCapability {
			if c := rec.Capability; c != nil {
				p := fmt.Sprintf("%.3f", c.PValue)
				cells = append(cells,
					fmt.Sprintf("%.2f", c.Cp),
					fmt.Sprintf("%.2f", c.Cpk),
					fmt.Sprintf("%.2f", c.Pp),
					fmt.Sprintf("%.2f", c.Ppk),
					p)
				styles[8] = indexStyle(c.Cp)
				styles[9] = indexStyle(c.Cpk)
				styles[10] = indexStyle(c.Pp)
				styles[11] = indexStyle(c.Ppk)
				if !c.IsNormal {
					styles[12] = warn
				}
			} else {
				cells = append(cells, "-", "-", "-", "-", "-")
			}
		}
		table.Append(cells, styles)
	}

	return table.Render(w)
}

// RenderDescriptor writes a parsed tolerance callout as key/value lines.
func RenderDescriptor(w io.Writer, desc *models.ToleranceDescriptor, formatted string) error {
	table := NewTable("Field", "Value")
	add := func(k, v string) { table.Append([]string{k, v}, nil) }

	add("Source", desc.Source)
	if formatted != "" {
		add("Display", formatted)
	}
	add("Type", string(desc.Type))
	add("Feature type", desc.FeatureType())
	if desc.HasMagnitude {
		add("Magnitude", fmtNum(desc.Magnitude))
	}
	add("Material condition", string(desc.MaterialCondition))
	if len(desc.DatumRefs) > 0 {
		add("Datums", strings.Join(desc.DatumRefs, "|"))
	}
	if desc.BilateralProfile {
		add("Profile", "bilateral")
	}
	for _, warning := range desc.Warnings {
		add("Warning", warning)
	}
	return table.Render(w)
}
