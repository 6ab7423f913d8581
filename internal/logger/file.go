package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/harrison/capstudy/internal/models"
)

// FileLogger logs study events to files in a log directory.
// It creates timestamped per-study log files, a detail file for every
// failed feature, and maintains a latest.log symlink pointing to the most
// recent study.
type FileLogger struct {
	logDir      string
	runLog      *os.File
	runFile     string
	featuresDir string
	logLevel    string
	mu          sync.Mutex
}

// NewFileLoggerWithDir creates a new FileLogger with a custom log directory
// at the default "info" level.
func NewFileLoggerWithDir(logDir string) (*FileLogger, error) {
	return NewFileLoggerWithDirAndLevel(logDir, "info")
}

// NewFileLoggerWithDirAndLevel creates a new FileLogger with a custom log
// directory and log level.
func NewFileLoggerWithDirAndLevel(logDir string, logLevel string) (*FileLogger, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	featuresDir := filepath.Join(logDir, "features")
	if err := os.MkdirAll(featuresDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create features directory: %w", err)
	}

	// study-YYYYMMDD-HHMMSS.log
	runFile := filepath.Join(logDir, fmt.Sprintf("study-%s.log", time.Now().Format("20060102-150405")))
	file, err := os.OpenFile(runFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create study log file: %w", err)
	}

	symlinkPath := filepath.Join(logDir, "latest.log")
	if _, err := os.Lstat(symlinkPath); err == nil {
		if err := os.Remove(symlinkPath); err != nil {
			file.Close()
			return nil, fmt.Errorf("failed to remove old symlink: %w", err)
		}
	}
	if err := os.Symlink(filepath.Base(runFile), symlinkPath); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to create symlink: %w", err)
	}

	fl := &FileLogger{
		logDir:      logDir,
		runLog:      file,
		runFile:     runFile,
		featuresDir: featuresDir,
		logLevel:    normalizeLogLevel(logLevel),
	}

	fl.writeRunLog("=== Capability Study Log ===\n")
	fl.writeRunLog(fmt.Sprintf("Started at: %s\n\n", time.Now().Format(time.RFC3339)))

	return fl, nil
}

// RunFile returns the path of the current study log.
func (fl *FileLogger) RunFile() string {
	return fl.runFile
}

func (fl *FileLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(fl.logLevel)
}

// LogTrace logs a trace-level message (most verbose).
func (fl *FileLogger) LogTrace(message string) {
	fl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (fl *FileLogger) LogDebug(message string) {
	fl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (fl *FileLogger) LogInfo(message string) {
	fl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (fl *FileLogger) LogWarn(message string) {
	fl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (fl *FileLogger) LogError(message string) {
	fl.logWithLevel("ERROR", message)
}

func (fl *FileLogger) logWithLevel(level string, message string) {
	if !fl.shouldLog(strings.ToLower(level)) {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] [%s] %s\n", timestamp(), level, message))
}

// LogStudyStart logs the beginning of a study.
func (fl *FileLogger) LogStudyStart(studyID string, features int) {
	if !fl.shouldLog("info") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Starting study %s: %d features\n", timestamp(), studyID, features))
}

// LogFeatureResult writes a one-line verdict to the study log. Failed
// features also get a detail file under features/.
func (fl *FileLogger) LogFeatureResult(rec models.OutputRecord) {
	if fl.shouldLog("info") {
		line := fmt.Sprintf("[%s] %s (%s): %s [out of spec %d/%d]",
			timestamp(), rec.ElementID, rec.FeatureType, rec.Status, rec.OutOfSpecCount, len(rec.Measurements))
		if rec.Capability != nil {
			line += " " + formatCapabilityMetrics(rec.Capability, DefaultAcceptableIndex, false)
		}
		fl.writeRunLog(line + "\n")
	}

	if rec.Status == models.StatusBad {
		if err := fl.writeFeatureDetail(rec); err != nil {
			fl.LogWarn(fmt.Sprintf("feature detail for %s: %v", rec.ElementID, err))
		}
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// featureLogPath returns features/<element>.log with the element ID made
// filesystem safe.
func (fl *FileLogger) featureLogPath(elementID string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(elementID, "_"), "_")
	if name == "" {
		name = "feature"
	}
	return filepath.Join(fl.featuresDir, name+".log")
}

func (fl *FileLogger) writeFeatureDetail(rec models.OutputRecord) error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	file, err := os.OpenFile(fl.featureLogPath(rec.ElementID), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create feature log file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	fmt.Fprintf(&sb, "=== Feature %s ===\n", rec.ElementID)
	if rec.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", rec.Description)
	}
	fmt.Fprintf(&sb, "Status: %s\n", rec.Status)
	fmt.Fprintf(&sb, "Type: %s\n", rec.FeatureType)
	fmt.Fprintf(&sb, "Nominal: %g\n", rec.Nominal)
	fmt.Fprintf(&sb, "Tolerance: %g / %g\n", rec.LowerTolerance, rec.UpperTolerance)
	fmt.Fprintf(&sb, "Effective tolerance: %g / %g (bonus %g)\n",
		rec.EffectiveLowerTolerance, rec.EffectiveUpperTolerance, rec.BonusTolerance)
	fmt.Fprintf(&sb, "Out of spec: %d of %d\n", rec.OutOfSpecCount, len(rec.Measurements))

	sb.WriteString("\nMeasurements:\n")
	lower := rec.Nominal + rec.EffectiveLowerTolerance
	upper := rec.Nominal + rec.EffectiveUpperTolerance
	for i, m := range rec.Measurements {
		mark := ""
		if m < lower || m > upper {
			mark = "  OUT"
		}
		fmt.Fprintf(&sb, "  %3d: %g%s\n", i+1, m, mark)
	}

	if len(rec.Warnings) > 0 {
		sb.WriteString("\nWarnings:\n")
		for _, w := range rec.Warnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}

	_, err = file.WriteString(sb.String())
	return err
}

// LogExtrapolation records synthetic sample growth at debug level.
func (fl *FileLogger) LogExtrapolation(elementID string, res models.ExtrapolationResult) {
	if !fl.shouldLog("debug") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] %s\n", timestamp(), formatExtrapolation(elementID, res, newColorScheme(false))))
}

// LogProgress is recorded only at debug level; the file log keeps every
// feature result instead.
func (fl *FileLogger) LogProgress(done, total int) {
	if !fl.shouldLog("debug") {
		return
	}
	fl.writeRunLog(fmt.Sprintf("[%s] Progress: %d/%d features\n", timestamp(), done, total))
}

// LogStudySummary writes the study roll-up.
func (fl *FileLogger) LogStudySummary(s models.StudySummary) {
	if !fl.shouldLog("info") {
		return
	}

	var sb strings.Builder
	sb.WriteString("\n=== Study Summary ===\n")
	fmt.Fprintf(&sb, "Study: %s\n", s.StudyID)
	fmt.Fprintf(&sb, "Features: %d\n", s.TotalElements)
	fmt.Fprintf(&sb, "GOOD: %d\n", s.Good)
	fmt.Fprintf(&sb, "BAD: %d\n", s.Bad)
	fmt.Fprintf(&sb, "Analyses: %d successful, %d failed\n", s.SuccessfulAnalyses, s.FailedAnalyses)
	if s.HasCapability() {
		fmt.Fprintf(&sb, "Normal distributions: %d (%.1f%%)\n", s.NormalCount, s.NormalityPercentage)
		scheme := newColorScheme(false)
		for _, ix := range []struct {
			name  string
			stats models.IndexStats
		}{{"Cp", s.Cp}, {"Cpk", s.Cpk}, {"Pp", s.Pp}, {"Ppk", s.Ppk}} {
			sb.WriteString(formatIndexStats(ix.name, ix.stats, s.SuccessfulAnalyses, scheme) + "\n")
		}
	}
	fmt.Fprintf(&sb, "Duration: %s\n", formatDuration(s.Duration))

	if len(s.ValidationWarnings) > 0 {
		sb.WriteString("Validation warnings:\n")
		for _, w := range s.ValidationWarnings {
			fmt.Fprintf(&sb, "  - %s\n", w)
		}
	}
	if len(s.Recommendations) > 0 {
		sb.WriteString("Recommendations:\n")
		for _, r := range s.Recommendations {
			fmt.Fprintf(&sb, "  - %s\n", r)
		}
	}

	fl.writeRunLog(sb.String())
}

// Close flushes and closes the study log file.
func (fl *FileLogger) Close() error {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		if err := fl.runLog.Sync(); err != nil {
			return fmt.Errorf("failed to sync study log: %w", err)
		}
		if err := fl.runLog.Close(); err != nil {
			return fmt.Errorf("failed to close study log: %w", err)
		}
		fl.runLog = nil
	}
	return nil
}

// writeRunLog is a thread-safe helper to write to the study log file.
func (fl *FileLogger) writeRunLog(message string) {
	fl.mu.Lock()
	defer fl.mu.Unlock()

	if fl.runLog != nil {
		fl.runLog.WriteString(message)
		fl.runLog.Sync()
	}
}
