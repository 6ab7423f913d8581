package logger

import "github.com/harrison/capstudy/internal/models"

// StudyLogger is the set of study events every logger in this package
// handles.
type StudyLogger interface {
	LogStudyStart(studyID string, features int)
	LogFeatureResult(rec models.OutputRecord)
	LogExtrapolation(elementID string, res models.ExtrapolationResult)
	LogProgress(done, total int)
	LogStudySummary(summary models.StudySummary)
}

// MultiLogger fans study events out to several loggers.
type MultiLogger struct {
	loggers []StudyLogger
}

// NewMultiLogger creates a MultiLogger; nil entries are skipped.
func NewMultiLogger(loggers ...StudyLogger) *MultiLogger {
	ml := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			ml.loggers = append(ml.loggers, l)
		}
	}
	return ml
}

// LogStudyStart forwards to all loggers
func (ml *MultiLogger) LogStudyStart(studyID string, features int) {
	for _, l := range ml.loggers {
		l.LogStudyStart(studyID, features)
	}
}

// LogFeatureResult forwards to all loggers
func (ml *MultiLogger) LogFeatureResult(rec models.OutputRecord) {
	for _, l := range ml.loggers {
		l.LogFeatureResult(rec)
	}
}

// LogExtrapolation forwards to all loggers
func (ml *MultiLogger) LogExtrapolation(elementID string, res models.ExtrapolationResult) {
	for _, l := range ml.loggers {
		l.LogExtrapolation(elementID, res)
	}
}

// LogProgress forwards to all loggers
func (ml *MultiLogger) LogProgress(done, total int) {
	for _, l := range ml.loggers {
		l.LogProgress(done, total)
	}
}

// LogStudySummary forwards to all loggers
func (ml *MultiLogger) LogStudySummary(summary models.StudySummary) {
	for _, l := range ml.loggers {
		l.LogStudySummary(summary)
	}
}
