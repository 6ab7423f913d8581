// Package study runs a capability study over a batch of input records:
// each feature is evaluated (and optionally analysed for capability) in
// parallel, and the results are rolled up into a summary with
// recommendations.
package study

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/capstudy/internal/evaluator"
	"github.com/harrison/capstudy/internal/models"
	"github.com/harrison/capstudy/internal/spc"
)

// Logger receives study progress. internal/logger implementations satisfy it.
type Logger interface {
	LogStudyStart(studyID string, features int)
	LogFeatureResult(rec models.OutputRecord)
	LogProgress(done, total int)
	LogStudySummary(summary models.StudySummary)
}

// ExtrapolationLogger is implemented by loggers that also want to hear about
// synthetic sample growth.
type ExtrapolationLogger interface {
	LogExtrapolation(elementID string, res models.ExtrapolationResult)
}

// Config holds the study knobs.
type Config struct {
	// MaxConcurrency bounds parallel features; 0 runs one worker per feature.
	MaxConcurrency int
	// Timeout bounds the whole study; 0 disables it.
	Timeout time.Duration

	Capability      bool
	MinSampleSize   int
	AcceptableIndex float64

	Extrapolate    bool
	TargetSize     int
	MaxAttempts    int
	AvailableSizes []int
	// Seed makes extrapolation reproducible; 0 draws a random seed.
	Seed uint64
}

// DefaultConfig returns the study defaults.
func DefaultConfig() Config {
	return Config{
		Capability:      true,
		MinSampleSize:   spc.MinSampleSize,
		AcceptableIndex: 1.33,
		MaxAttempts:     spc.DefaultMaxAttempts,
		AvailableSizes:  spc.DefaultAvailableSizes,
	}
}

// Runner executes studies. A Runner may run several studies, one at a time
// or concurrently; it holds no per-study state.
type Runner struct {
	cfg          Config
	evaluator    *evaluator.Evaluator
	extrapolator *spc.Extrapolator
	logger       Logger
	metrics      *Metrics
	now          func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithEvaluator shares an evaluator (and its parser cache) with the runner.
func WithEvaluator(e *evaluator.Evaluator) Option {
	return func(r *Runner) { r.evaluator = e }
}

// WithLogger sets the progress logger.
func WithLogger(l Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithMetrics records study metrics into m.
func WithMetrics(m *Metrics) Option {
	return func(r *Runner) { r.metrics = m }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// NewRunner creates a Runner for cfg.
func NewRunner(cfg Config, opts ...Option) *Runner {
	if cfg.MinSampleSize <= 0 {
		cfg.MinSampleSize = spc.MinSampleSize
	}
	if cfg.AcceptableIndex <= 0 {
		cfg.AcceptableIndex = 1.33
	}

	r := &Runner{cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	if r.evaluator == nil {
		r.evaluator = evaluator.New(nil)
	}

	xopts := []spc.ExtrapolatorOption{
		spc.WithMaxAttempts(cfg.MaxAttempts),
		spc.WithAvailableSizes(cfg.AvailableSizes),
	}
	if cfg.Seed != 0 {
		xopts = append(xopts, spc.WithSeed(cfg.Seed))
	}
	r.extrapolator = spc.NewExtrapolator(xopts...)
	return r
}

// Evaluator returns the evaluator used by the runner.
func (r *Runner) Evaluator() *evaluator.Evaluator {
	return r.evaluator
}

type featureResult struct {
	index  int
	record models.OutputRecord
	failed bool // capability requested but not produced
}

// Run evaluates every record and returns the study. Per-feature problems are
// reported on the records; the error is only set when the context ends the
// study early, in which case the partial result is still returned.
func (r *Runner) Run(ctx context.Context, records []models.InputRecord) (*models.StudyResult, error) {
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	started := r.now()
	studyID := uuid.New().String()
	if r.logger != nil {
		r.logger.LogStudyStart(studyID, len(records))
	}

	results := make([]*featureResult, len(records))

	maxConcurrency := r.cfg.MaxConcurrency
	if maxConcurrency <= 0 || maxConcurrency > len(records) {
		maxConcurrency = len(records)
	}
	if maxConcurrency == 0 {
		maxConcurrency = 1
	}

	semaphore := make(chan struct{}, maxConcurrency)
	resultsCh := make(chan *featureResult, len(records))

	var wg sync.WaitGroup
	var launchErr error

launch:
	for i, rec := range records {
		select {
		case <-ctx.Done():
			launchErr = ctx.Err()
			break launch
		case semaphore <- struct{}{}:
		}

		wg.Add(1)
		go func(i int, rec models.InputRecord) {
			defer wg.Done()
			defer func() { <-semaphore }()
			resultsCh <- r.analyzeIsolated(ctx, i, rec)
		}(i, rec)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	done := 0
	for res := range resultsCh {
		results[res.index] = res
		done++
		if r.logger != nil {
			r.logger.LogFeatureResult(res.record)
			r.logger.LogProgress(done, len(records))
		}
	}

	out := &models.StudyResult{Records: make([]models.OutputRecord, 0, len(records))}
	failed := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		out.Records = append(out.Records, res.record)
		if res.failed {
			failed++
		}
	}

	out.Summary = Summarize(out.Records, r.cfg.AcceptableIndex)
	out.Summary.StudyID = studyID
	out.Summary.StartedAt = started
	out.Summary.Duration = r.now().Sub(started)
	out.Summary.TotalElements = len(records)
	out.Summary.FailedAnalyses = failed
	out.Summary.ValidationWarnings = Validate(records, r.cfg.minSampleSizeFor())
	out.Summary.Recommendations = Recommendations(out.Summary)

	r.metrics.observeStudy()
	if r.logger != nil {
		r.logger.LogStudySummary(out.Summary)
	}

	if launchErr == nil {
		launchErr = ctx.Err()
	}
	if launchErr != nil {
		return out, fmt.Errorf("study %s interrupted after %d of %d features: %w", studyID, done, len(records), launchErr)
	}
	return out, nil
}

// minSampleSizeFor returns the size validation checks against; without
// capability only a single measurement is required.
func (c Config) minSampleSizeFor() int {
	if !c.Capability {
		return 1
	}
	return c.MinSampleSize
}

// analyzeIsolated runs one feature and turns a panic into a BAD record so
// that one malformed feature never takes down the batch.
func (r *Runner) analyzeIsolated(ctx context.Context, i int, rec models.InputRecord) (res *featureResult) {
	start := r.now()
	defer func() {
		if p := recover(); p != nil {
			out := models.OutputRecord{
				ElementID:    rec.ElementID,
				Batch:        rec.Batch,
				Cavity:       rec.Cavity,
				Class:        rec.Class,
				Description:  rec.Description,
				Measurements: []float64{},
				Deviation:    []float64{},
				Status:       models.StatusBad,
				FeatureType:  "dimension",
				Warnings:     []string{fmt.Sprintf("internal error while analysing feature: %v", p)},
			}
			res = &featureResult{index: i, record: out, failed: r.cfg.Capability}
		}
		r.metrics.observeFeature(res.record, r.now().Sub(start).Seconds())
	}()

	rec2, failed := r.analyze(ctx, r.extrapolator.ForFeature(i), rec)
	return &featureResult{index: i, record: rec2, failed: failed}
}

// AnalyzeRecord runs the full single-feature pipeline outside a study. It
// uses the runner's configuration and a fresh random stream.
func (r *Runner) AnalyzeRecord(ctx context.Context, rec models.InputRecord) models.OutputRecord {
	out, _ := r.analyze(ctx, r.extrapolator.ForFeature(0), rec)
	return out
}

func (r *Runner) analyze(ctx context.Context, x *spc.Extrapolator, rec models.InputRecord) (models.OutputRecord, bool) {
	outcome := r.evaluator.EvaluateRecord(rec)
	out := outcome.OutputRecord()

	if !r.cfg.Capability || !outcome.Result.Evaluated {
		return out, r.cfg.Capability
	}

	class := ElementClass(rec)
	resolved := outcome.Result.Resolved
	spec := spc.Spec{Nominal: outcome.Result.Nominal, Band: outcome.Result.Effective.Band}
	opts := spc.AnalysisOptions{
		MinSampleSize: r.cfg.MinSampleSize,
		Extrapolate:   r.cfg.Extrapolate,
		TargetSize:    r.cfg.TargetSize,
		NonNegative:   outcome.Result.Nominal == 0 && resolved.Lower == 0,
	}

	capability, warnings, err := spc.Analyze(ctx, x, outcome.Result.Measurements, spec, class, opts)
	out.Warnings = append(out.Warnings, warnings...)
	if xl, ok := r.logger.(ExtrapolationLogger); ok && capability.Extrapolation != nil {
		xl.LogExtrapolation(rec.ElementID, *capability.Extrapolation)
	}
	if err != nil {
		out.Warnings = append(out.Warnings, fmt.Sprintf("capability not computed: %v", err))
		return out, true
	}
	out.Capability = models.NewCapabilityFields(capability)
	return out, false
}

// ElementClass returns the record's explicit class when it names one of the
// known classes, otherwise classifies by keywords in the id and description.
func ElementClass(rec models.InputRecord) models.ElementClass {
	switch c := models.ElementClass(strings.ToLower(strings.TrimSpace(rec.Class))); c {
	case models.ClassStandard, models.ClassGeometric, models.ClassTraction:
		return c
	}
	return spc.Classify(rec.ElementID, rec.Description)
}

// IsInterrupted reports whether err came from a cancelled or timed-out study.
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
