package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/harrison/capstudy/internal/models"
)

func readRunLog(t *testing.T, fl *FileLogger) string {
	t.Helper()
	data, err := os.ReadFile(fl.RunFile())
	if err != nil {
		t.Fatalf("read study log: %v", err)
	}
	return string(data)
}

func TestNewFileLoggerWithDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	fl, err := NewFileLoggerWithDir(dir)
	if err != nil {
		t.Fatalf("NewFileLoggerWithDir: %v", err)
	}
	defer fl.Close()

	if !strings.HasPrefix(filepath.Base(fl.RunFile()), "study-") {
		t.Errorf("unexpected study log name %q", fl.RunFile())
	}
	if info, err := os.Stat(filepath.Join(dir, "features")); err != nil || !info.IsDir() {
		t.Errorf("features directory not created: %v", err)
	}

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatalf("latest.log symlink: %v", err)
	}
	if target != filepath.Base(fl.RunFile()) {
		t.Errorf("latest.log points to %q, want %q", target, filepath.Base(fl.RunFile()))
	}

	if !strings.Contains(readRunLog(t, fl), "=== Capability Study Log ===") {
		t.Error("missing log header")
	}
}

func TestFileLogger_SymlinkReplaced(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileLoggerWithDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	// distinct timestamped name
	time.Sleep(1100 * time.Millisecond)

	second, err := NewFileLoggerWithDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	target, err := os.Readlink(filepath.Join(dir, "latest.log"))
	if err != nil {
		t.Fatal(err)
	}
	if target != filepath.Base(second.RunFile()) {
		t.Errorf("latest.log points to %q, want %q", target, filepath.Base(second.RunFile()))
	}
}

func TestFileLogger_StudyEvents(t *testing.T) {
	dir := t.TempDir()
	fl, err := NewFileLoggerWithDirAndLevel(dir, "info")
	if err != nil {
		t.Fatal(err)
	}
	defer fl.Close()

	fl.LogStudyStart("study-1", 2)
	fl.LogFeatureResult(goodRecord())
	fl.LogFeatureResult(models.OutputRecord{
		ElementID:               "Ø 12/H7",
		Description:             "(diam.) 12 H7",
		FeatureType:             "dimension",
		Nominal:                 12,
		UpperTolerance:          0.018,
		EffectiveUpperTolerance: 0.018,
		Measurements:            []float64{12.01, 12.03},
		OutOfSpecCount:          1,
		Status:                  models.StatusBad,
		Warnings:                []string{"1 of 2 measurements out of spec"},
	})
	fl.LogProgress(2, 2)
	fl.LogStudySummary(models.StudySummary{
		StudyID:            "study-1",
		TotalElements:      2,
		Good:               1,
		Bad:                1,
		SuccessfulAnalyses: 1,
		Cpk:                models.IndexStats{Mean: 1.41, Min: 1.41, Max: 1.41, Acceptable: 1},
		Recommendations:    []string{"Investigate 1 BAD features"},
	})
	fl.LogDebug("hidden")
	fl.LogWarn("visible warning")

	out := readRunLog(t, fl)
	for _, want := range []string{
		"Starting study study-1: 2 features",
		"LEN-1 (dimension): GOOD [out of spec 0/3]",
		"Cpk 1.41",
		"Ø 12/H7 (dimension): BAD [out of spec 1/2]",
		"=== Study Summary ===",
		"Cpk: mean 1.41, min 1.41, max 1.41, acceptable 1/1",
		"  - Investigate 1 BAD features",
		"[WARN] visible warning",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in study log:\n%s", want, out)
		}
	}
	if strings.Contains(out, "hidden") || strings.Contains(out, "Progress:") {
		t.Errorf("debug output leaked into info log:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("file log must not contain ANSI codes")
	}

	detail, err := os.ReadFile(filepath.Join(dir, "features", "12_H7.log"))
	if err != nil {
		t.Fatalf("feature detail file: %v", err)
	}
	for _, want := range []string{"=== Feature Ø 12/H7 ===", "Status: BAD", "2: 12.03  OUT", "1 of 2 measurements out of spec"} {
		if !strings.Contains(string(detail), want) {
			t.Errorf("expected %q in detail:\n%s", want, detail)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "features", "LEN-1.log")); !os.IsNotExist(err) {
		t.Error("GOOD feature must not get a detail file")
	}
}

func TestFileLogger_CloseTwice(t *testing.T) {
	fl, err := NewFileLoggerWithDir(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := fl.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	// writes after close are dropped
	fl.LogInfo("after close")
}
