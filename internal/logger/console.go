// Package logger provides logging implementations for capability studies.
//
// Loggers report study progress at the feature, progress and summary levels.
// Implementations are thread-safe and write to the console or to timestamped
// log files.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/harrison/capstudy/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// DefaultAcceptableIndex is the capability threshold used for colouring when
// none is configured.
const DefaultAcceptableIndex = 1.33

// ConsoleLogger logs study progress to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is automatically enabled for terminal output (os.Stdout/os.Stderr).
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
	acceptable  float64

	started    time.Time
	lastBucket int
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "info".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    normalizeLogLevel(logLevel),
		colorOutput: isTerminal(writer),
		acceptable:  DefaultAcceptableIndex,
		lastBucket:  -1,
	}
}

// SetAcceptableIndex sets the threshold above which capability indices are
// shown as acceptable.
func (cl *ConsoleLogger) SetAcceptableIndex(v float64) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	if v > 0 {
		cl.acceptable = v
	}
}

// SetColor forces color output on or off.
func (cl *ConsoleLogger) SetColor(enabled bool) {
	cl.mutex.Lock()
	defer cl.mutex.Unlock()
	cl.colorOutput = enabled
}

// isTerminal checks if the writer is a terminal that supports colors.
func isTerminal(w io.Writer) bool {
	if w == nil {
		return false
	}
	if w == os.Stdout || w == os.Stderr {
		// false when NO_COLOR is set or the stream is not a TTY
		return !color.NoColor
	}
	return false
}

// normalizeLogLevel converts a log level string to lowercase and validates it.
// Returns "info" as default for empty or invalid levels.
func normalizeLogLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if validLevels[normalized] {
		return normalized
	}
	return "info"
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

// logLevelToInt converts a log level string to its numeric value.
func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelInfo
	}
}

// LogTrace logs a trace-level message (most verbose).
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.logWithLevel("INFO", message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil || !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}
	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string
	switch strings.ToUpper(level) {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}
	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogStudyStart logs the start of a study at INFO level.
// Format: "[HH:MM:SS] Starting study <id>: <n> features"
func (cl *ConsoleLogger) LogStudyStart(studyID string, features int) {
	cl.mutex.Lock()
	cl.started = time.Now()
	cl.lastBucket = -1
	cl.mutex.Unlock()

	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	id := studyID
	if cl.colorOutput {
		id = color.New(color.Bold).Sprint(studyID)
	}
	fmt.Fprintf(cl.writer, "[%s] Starting study %s: %d features\n", timestamp(), id, features)
}

// LogFeatureResult logs one evaluated feature at DEBUG level.
// Format: "[HH:MM:SS] <element> (<type>): <status> [out of spec n/m] Cp x, Cpk y, ..."
func (cl *ConsoleLogger) LogFeatureResult(rec models.OutputRecord) {
	if cl.writer == nil || !cl.shouldLog("debug") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	scheme := newColorScheme(cl.colorOutput)
	status := rec.Status
	switch rec.Status {
	case models.StatusGood:
		status = scheme.success.Sprint(rec.Status)
	case models.StatusBad:
		status = scheme.fail.Sprint(rec.Status)
	}

	line := fmt.Sprintf("[%s] %s (%s): %s [out of spec %d/%d]",
		timestamp(), rec.ElementID, rec.FeatureType, status, rec.OutOfSpecCount, len(rec.Measurements))
	if rec.Capability != nil {
		line += " " + formatCapabilityMetrics(rec.Capability, cl.acceptable, cl.colorOutput)
	}
	cl.writer.Write([]byte(line + "\n"))

	for _, w := range rec.Warnings {
		fmt.Fprintf(cl.writer, "[%s]   - %s\n", timestamp(), w)
	}
}

// LogExtrapolation logs synthetic sample growth at DEBUG level.
// Format: "[HH:MM:SS] <element>: extrapolated 12 -> 50 in 3 attempts (p 0.231, normal)"
func (cl *ConsoleLogger) LogExtrapolation(elementID string, res models.ExtrapolationResult) {
	if cl.writer == nil || !cl.shouldLog("debug") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	fmt.Fprintf(cl.writer, "[%s] %s\n", timestamp(), formatExtrapolation(elementID, res, newColorScheme(cl.colorOutput)))
}

// LogProgress logs study progress at INFO level, once per ten percent.
// Format: "[HH:MM:SS] Progress: [████░░░░░░] 40% (4/10 features) - Avg: 12ms/feature"
func (cl *ConsoleLogger) LogProgress(done, total int) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	pb := NewProgressBar(total, 10, cl.colorOutput)
	pb.Update(done)
	percentage := pb.Percentage()

	bucket := percentage / 10
	if bucket <= cl.lastBucket && done < total {
		return
	}
	cl.lastBucket = bucket

	var avg string
	if done > 0 && !cl.started.IsZero() {
		avg = fmt.Sprintf(" - Avg: %s/feature", formatDuration(time.Since(cl.started)/time.Duration(done)))
	}
	fmt.Fprintf(cl.writer, "[%s] Progress: %s (%d/%d features)%s\n", timestamp(), pb.Render(), done, total, avg)
}

// LogStudySummary logs the study roll-up at INFO level.
func (cl *ConsoleLogger) LogStudySummary(s models.StudySummary) {
	if cl.writer == nil || !cl.shouldLog("info") {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	scheme := newColorScheme(cl.colorOutput)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.header.Sprint("=== Study Summary ==="))
	fmt.Fprintf(&sb, "[%s] Features: %d\n", ts, s.TotalElements)
	fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.success.Sprintf("GOOD: %d", s.Good))
	if s.Bad > 0 {
		fmt.Fprintf(&sb, "[%s] %s\n", ts, scheme.fail.Sprintf("BAD: %d", s.Bad))
	} else {
		fmt.Fprintf(&sb, "[%s] BAD: %d\n", ts, s.Bad)
	}

	if s.SuccessfulAnalyses > 0 || s.FailedAnalyses > 0 {
		fmt.Fprintf(&sb, "[%s] Analyses: %d successful, %d failed\n", ts, s.SuccessfulAnalyses, s.FailedAnalyses)
		fmt.Fprintf(&sb, "[%s] Normal distributions: %d (%.1f%%)\n", ts, s.NormalCount, s.NormalityPercentage)
	}
	if s.HasCapability() {
		for _, ix := range []struct {
			name  string
			stats models.IndexStats
		}{{"Cp", s.Cp}, {"Cpk", s.Cpk}, {"Pp", s.Pp}, {"Ppk", s.Ppk}} {
			fmt.Fprintf(&sb, "[%s] %s\n", ts, formatIndexStats(ix.name, ix.stats, s.SuccessfulAnalyses, scheme))
		}
	}
	fmt.Fprintf(&sb, "[%s] Duration: %s\n", ts, formatDuration(s.Duration))

	for _, rec := range s.Recommendations {
		fmt.Fprintf(&sb, "[%s]   - %s\n", ts, scheme.warn.Sprint(rec))
	}

	cl.writer.Write([]byte(sb.String()))
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		if remainder == 0 {
			return fmt.Sprintf("%dh", hours)
		}
		minutes := remainder / time.Minute
		remainder = remainder % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder == 0 {
			return fmt.Sprintf("%dm", minutes)
		}
		seconds := remainder / time.Second
		return fmt.Sprintf("%dm%ds", minutes, seconds)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger discards all log messages.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogStudyStart is a no-op implementation.
func (n *NoOpLogger) LogStudyStart(studyID string, features int) {}

// LogFeatureResult is a no-op implementation.
func (n *NoOpLogger) LogFeatureResult(rec models.OutputRecord) {}

// LogExtrapolation is a no-op implementation.
func (n *NoOpLogger) LogExtrapolation(elementID string, res models.ExtrapolationResult) {}

// LogProgress is a no-op implementation.
func (n *NoOpLogger) LogProgress(done, total int) {}

// LogStudySummary is a no-op implementation.
func (n *NoOpLogger) LogStudySummary(s models.StudySummary) {}
