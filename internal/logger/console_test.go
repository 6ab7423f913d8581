package logger

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/harrison/capstudy/internal/models"
)

func goodRecord() models.OutputRecord {
	return models.OutputRecord{
		ElementID:    "LEN-1",
		FeatureType:  "dimension",
		Measurements: []float64{10.01, 9.99, 10.02},
		Status:       models.StatusGood,
		Capability: &models.CapabilityFields{
			ElementClass: models.ClassStandard,
			Cp:           1.52,
			Cpk:          1.41,
			Pp:           1.48,
			Ppk:          1.37,
			PValue:       0.412,
			IsNormal:     true,
		},
	}
}

func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "DEBUG")

		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "debug" {
			t.Errorf("expected log level %q, got %q", "debug", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("expected no color for a non-terminal writer")
		}
		if logger.acceptable != DefaultAcceptableIndex {
			t.Errorf("expected default acceptable index, got %v", logger.acceptable)
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "bogus")
		if logger.logLevel != "info" {
			t.Errorf("expected fallback level info, got %q", logger.logLevel)
		}
		// must not panic
		logger.LogInfo("ignored")
		logger.LogFeatureResult(goodRecord())
		logger.LogStudySummary(models.StudySummary{})
	})
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level   string
		visible []string
		hidden  []string
	}{
		{"trace", []string{"[TRACE]", "[DEBUG]", "[INFO]", "[WARN]", "[ERROR]"}, nil},
		{"info", []string{"[INFO]", "[WARN]", "[ERROR]"}, []string{"[TRACE]", "[DEBUG]"}},
		{"error", []string{"[ERROR]"}, []string{"[INFO]", "[WARN]"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)
			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			out := buf.String()
			for _, want := range tt.visible {
				if !strings.Contains(out, want) {
					t.Errorf("expected %s in output:\n%s", want, out)
				}
			}
			for _, unwanted := range tt.hidden {
				if strings.Contains(out, unwanted) {
					t.Errorf("did not expect %s in output:\n%s", unwanted, out)
				}
			}
		})
	}
}

func TestLogStudyStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogStudyStart("abc-123", 7)

	if !strings.Contains(buf.String(), "Starting study abc-123: 7 features") {
		t.Errorf("unexpected output: %q", buf.String())
	}
	if !strings.HasPrefix(buf.String(), "[") {
		t.Error("expected timestamp prefix")
	}
}

func TestLogFeatureResult(t *testing.T) {
	t.Run("hidden at info", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "info").LogFeatureResult(goodRecord())
		if buf.Len() != 0 {
			t.Errorf("expected no output at info level, got %q", buf.String())
		}
	})

	t.Run("good with capability", func(t *testing.T) {
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "debug").LogFeatureResult(goodRecord())
		out := buf.String()
		for _, want := range []string{
			"LEN-1 (dimension): GOOD [out of spec 0/3]",
			"Cp 1.52", "Cpk 1.41", "Pp 1.48", "Ppk 1.37", "p 0.412",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in %q", want, out)
			}
		}
		if strings.Contains(out, "non-normal") {
			t.Error("normal sample flagged as non-normal")
		}
	})

	t.Run("bad with warnings", func(t *testing.T) {
		rec := models.OutputRecord{
			ElementID:      "GAP-1",
			FeatureType:    "dimension",
			Measurements:   []float64{0.6},
			OutOfSpecCount: 1,
			Status:         models.StatusBad,
			Warnings:       []string{"only 1 measurement"},
		}
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "debug").LogFeatureResult(rec)
		out := buf.String()
		if !strings.Contains(out, "GAP-1 (dimension): BAD [out of spec 1/1]") {
			t.Errorf("unexpected output: %q", out)
		}
		if !strings.Contains(out, "  - only 1 measurement") {
			t.Errorf("warning not listed: %q", out)
		}
		if strings.Contains(out, "Cpk") {
			t.Error("capability shown for a record without capability")
		}
	})

	t.Run("non-normal extrapolated", func(t *testing.T) {
		rec := goodRecord()
		rec.Capability.IsNormal = false
		rec.Capability.Extrapolated = true
		rec.Capability.ExtrapolationSize = 50
		buf := &bytes.Buffer{}
		NewConsoleLogger(buf, "debug").LogFeatureResult(rec)
		out := buf.String()
		if !strings.Contains(out, "non-normal") || !strings.Contains(out, "extrapolated to 50") {
			t.Errorf("unexpected output: %q", out)
		}
	})

	t.Run("color output", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "debug")
		logger.SetColor(true)
		logger.LogFeatureResult(goodRecord())
		if !strings.Contains(buf.String(), "\x1b[") {
			t.Errorf("expected ANSI codes in %q", buf.String())
		}
	})
}

func TestLogProgress(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogStudyStart("s", 20)
	buf.Reset()

	for i := 1; i <= 20; i++ {
		logger.LogProgress(i, 20)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// first feature plus one line per ten percent
	if len(lines) != 11 {
		t.Fatalf("expected 11 progress lines, got %d:\n%s", len(lines), buf.String())
	}
	last := lines[len(lines)-1]
	if !strings.Contains(last, "[██████████] 100% (20/20 features)") {
		t.Errorf("unexpected final line: %q", last)
	}
	if !strings.Contains(last, "/feature") {
		t.Errorf("expected average duration in %q", last)
	}
}

func TestLogStudySummary(t *testing.T) {
	summary := models.StudySummary{
		StudyID:             "s1",
		Duration:            1500 * time.Millisecond,
		TotalElements:       5,
		Good:                4,
		Bad:                 1,
		SuccessfulAnalyses:  4,
		FailedAnalyses:      1,
		NormalCount:         3,
		NormalityPercentage: 75,
		AcceptableIndex:     1.33,
		Cpk:                 models.IndexStats{Mean: 1.21, Min: 0.84, Max: 1.67, Acceptable: 3},
		Recommendations:     []string{"Review 1 failed analyses for data quality issues"},
	}

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogStudySummary(summary)
	out := buf.String()

	for _, want := range []string{
		"=== Study Summary ===",
		"Features: 5",
		"GOOD: 4",
		"BAD: 1",
		"Analyses: 4 successful, 1 failed",
		"Normal distributions: 3 (75.0%)",
		"Cpk: mean 1.21, min 0.84, max 1.67, acceptable 3/4",
		"Duration: 1s",
		"  - Review 1 failed analyses",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in summary:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{5 * time.Second, "5s"},
		{90 * time.Second, "1m30s"},
		{2 * time.Minute, "2m"},
		{2*time.Hour + 15*time.Minute, "2h15m"},
		{time.Hour + time.Minute + time.Second, "1h1m1s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestConsoleLoggerConcurrent(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "debug")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogFeatureResult(goodRecord())
		}()
	}
	wg.Wait()

	if got := strings.Count(buf.String(), "LEN-1"); got != 20 {
		t.Errorf("expected 20 lines, got %d", got)
	}
}

func TestNoOpLogger(t *testing.T) {
	n := NewNoOpLogger()
	n.LogStudyStart("x", 1)
	n.LogFeatureResult(goodRecord())
	n.LogProgress(1, 1)
	n.LogStudySummary(models.StudySummary{})
}
