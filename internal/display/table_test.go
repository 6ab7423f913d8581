package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/harrison/capstudy/internal/models"
)

func tableRecords() []models.OutputRecord {
	return []models.OutputRecord{
		{
			ElementID:               "Ø12",
			FeatureType:             "dimension",
			Nominal:                 12,
			EffectiveLowerTolerance: -0.05,
			EffectiveUpperTolerance: 0.05,
			Measurements:            []float64{12.01, 11.99},
			Mean:                    12,
			Status:                  models.StatusGood,
			Capability:              &models.CapabilityFields{Cp: 1.5, Cpk: 1.4, Pp: 1.2, Ppk: 0.9, PValue: 0.31, IsNormal: true},
		},
		{
			ElementID:               "FLAT-2",
			FeatureType:             "flatness",
			EffectiveUpperTolerance: 0.1,
			Measurements:            []float64{0.2},
			Mean:                    0.2,
			OutOfSpecCount:          1,
			Status:                  models.StatusBad,
		},
	}
}

func TestTableRender_Alignment(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable("Name", "N").AlignRight(1)
	table.Append([]string{"bore-1", "7"}, nil)
	table.Append([]string{"x", "123"}, nil)
	if err := table.Render(&buf); err != nil {
		t.Fatal(err)
	}

	want := "Name      N\n" +
		"------  ---\n" +
		"bore-1    7\n" +
		"x       123\n"
	if buf.String() != want {
		t.Errorf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestRenderResults(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderResults(&buf, tableRecords(), TableOptions{}); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header, separator and 2 rows, got %d:\n%s", len(lines), buf.String())
	}

	header := strings.Fields(lines[0])
	wantHeader := []string{"Element", "Type", "Nominal", "Lower", "Upper", "Mean", "OOS", "Status", "Cp", "Cpk", "Pp", "Ppk", "p"}
	if strings.Join(header, " ") != strings.Join(wantHeader, " ") {
		t.Errorf("header = %v", header)
	}

	good := strings.Fields(lines[2])
	if strings.Join(good, " ") != "Ø12 dimension 12 -0.05 0.05 12.0000 0/2 GOOD 1.50 1.40 1.20 0.90 0.310" {
		t.Errorf("unexpected good row %q", lines[2])
	}
	bad := strings.Fields(lines[3])
	if strings.Join(bad, " ") != "FLAT-2 flatness 0 0 0.1 0.2000 1/1 BAD - - - - -" {
		t.Errorf("unexpected bad row %q", lines[3])
	}
	if strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected no color codes")
	}
}

func TestRenderResults_NoCapability(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderResults(&buf, tableRecords()[1:], TableOptions{}); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Cpk") {
		t.Errorf("capability columns shown without capability:\n%s", buf.String())
	}
}

func TestRenderResults_Color(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderResults(&buf, tableRecords(), TableOptions{Color: true, Acceptable: 1.33}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"\x1b[32mGOOD\x1b[0m",
		"\x1b[31mBAD\x1b[0m",
		"\x1b[32m1.50\x1b[0m", // Cp above threshold
		"\x1b[33m1.20\x1b[0m", // Pp between 1.0 and threshold
		"\x1b[31m0.90\x1b[0m", // Ppk below 1.0
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestRenderResults_Truncates(t *testing.T) {
	recs := []models.OutputRecord{{ElementID: strings.Repeat("X", 40), FeatureType: "dimension", Status: models.StatusGood}}
	var buf bytes.Buffer
	if err := RenderResults(&buf, recs, TableOptions{MaxWidth: 10}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "XXXXXXXXX…") {
		t.Errorf("expected truncated element id:\n%s", buf.String())
	}
}

func TestRenderDescriptor(t *testing.T) {
	desc := &models.ToleranceDescriptor{
		Source:            "position 0.1 (M) A|B",
		Type:              models.GDTPosition,
		Magnitude:         0.1,
		HasMagnitude:      true,
		MaterialCondition: models.MaterialMMC,
		DatumRefs:         []string{"A", "B"},
	}
	var buf bytes.Buffer
	if err := RenderDescriptor(&buf, desc, "⌖ 0.1 Ⓜ | A | B"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Type", "position", "Magnitude", "0.1", "MMC", "A|B", "Display"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in:\n%s", want, out)
		}
	}
}
