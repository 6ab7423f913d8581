package display

import (
	"bytes"
	"strings"
	"testing"
)

func TestProgressIndicator(t *testing.T) {
	var buf bytes.Buffer
	pi := NewProgressIndicator(&buf, 2)
	if pi.useColor {
		t.Error("expected color disabled for a buffer")
	}

	pi.Start()
	pi.Step("/data/line-1/cmm.csv")
	pi.Step("measurements.xlsx")
	pi.Complete(17)

	want := "Loading input files:\n" +
		"  [1/2] cmm.csv\n" +
		"  [2/2] measurements.xlsx\n" +
		"✓ Loaded 17 features from 2 files\n"
	if buf.String() != want {
		t.Errorf("unexpected output:\n%q\nwant:\n%q", buf.String(), want)
	}
}

func TestProgressIndicator_Color(t *testing.T) {
	var buf bytes.Buffer
	pi := NewProgressIndicator(&buf, 1)
	pi.useColor = true
	pi.Step("a.yaml")
	pi.Complete(1)

	out := buf.String()
	if !strings.Contains(out, "\x1b[36m  [1/1] a.yaml\x1b[0m") {
		t.Errorf("expected cyan step, got %q", out)
	}
	if !strings.Contains(out, "\x1b[32m✓\x1b[0m") {
		t.Errorf("expected green check, got %q", out)
	}
}

func TestDisplaySingleFile(t *testing.T) {
	var buf bytes.Buffer
	DisplaySingleFile(&buf, "study.yaml")
	if buf.String() != "Loading features from study.yaml...\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestColorEnabled_NonTerminal(t *testing.T) {
	var buf bytes.Buffer
	if IsTerminal(&buf) || ColorEnabled(&buf) {
		t.Error("a buffer is not a terminal")
	}
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(&buf) {
		t.Error("NO_COLOR must disable color")
	}
}
