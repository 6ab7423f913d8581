// Package evaluator decides feature acceptance: it resolves the tolerance
// band of an input record, applies bonus tolerance and checks every
// measurement against the resulting limits.
package evaluator

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/models"
	"github.com/harrison/capstudy/internal/tolerance"
)

// Validation warnings
const (
	WarnMissingNominal    = "missing nominal value — feature not evaluated"
	WarnNoMeasurements    = "no measurements provided — feature not evaluated"
	WarnSingleMeasurement = "only 1 measurement — no statistical analysis possible"
)

// recommendedSampleSize is the measurement count below which a warning is
// attached to the result.
const recommendedSampleSize = 5

// cvThreshold is the coefficient of variation (in percent) above which a
// feature is flagged as highly variable.
const cvThreshold = 10.0

// Evaluator runs the parse, resolve, bonus and evaluate pipeline for input
// records. It is safe for concurrent use.
type Evaluator struct {
	parser *gdt.Parser
}

// New creates an Evaluator using parser for descriptions. A nil parser gets a
// private one with an unbounded cache.
func New(parser *gdt.Parser) *Evaluator {
	if parser == nil {
		parser = gdt.NewParser()
	}
	return &Evaluator{parser: parser}
}

// Parser returns the parser shared by this evaluator.
func (e *Evaluator) Parser() *gdt.Parser {
	return e.parser
}

// Outcome is everything produced for one input record.
type Outcome struct {
	Record  models.InputRecord
	Feature models.Feature
	Flags   map[string]bool
	Result  models.EvaluationResult
}

// EvaluateRecord evaluates one input record. Validation problems never
// surface as errors; they produce a BAD, unevaluated result with a warning.
func (e *Evaluator) EvaluateRecord(rec models.InputRecord) Outcome {
	desc := e.parser.Parse(rec.Description)
	flags := gdt.Flags(rec.Description)

	out := Outcome{Record: rec, Flags: flags}
	feature := models.Feature{
		ElementID:    rec.ElementID,
		Batch:        rec.Batch,
		Cavity:       rec.Cavity,
		Class:        rec.Class,
		Description:  rec.Description,
		Descriptor:   desc,
		Measurements: rec.Values(),
		Datum:        rec.Datum(),
	}

	warnings := append([]string(nil), desc.Warnings...)

	if rec.Nominal == nil || math.IsNaN(*rec.Nominal) || math.IsInf(*rec.Nominal, 0) {
		out.Feature = feature
		out.Result = rejected(feature, append(warnings, WarnMissingNominal))
		return out
	}
	feature.Nominal = *rec.Nominal
	out.Feature = feature

	if len(feature.Measurements) == 0 {
		out.Result = rejected(feature, append(warnings, WarnNoMeasurements))
		return out
	}

	res := tolerance.Resolve(tolerance.Input{
		Raw:        rec.Tolerance,
		Descriptor: desc,
		Flags:      flags,
		Nominal:    feature.Nominal,
	})
	warnings = append(warnings, res.Warnings...)

	eff, bonusWarnings := tolerance.ApplyBonus(models.NewEffectiveTolerance(res.Band), desc.MaterialCondition, feature.Datum)
	warnings = append(warnings, bonusWarnings...)

	result := Evaluate(feature, eff)
	result.Warnings = append(warnings, result.Warnings...)
	out.Result = result
	return out
}

// Evaluate checks every measurement of f against the effective band. Limits
// are inclusive.
func Evaluate(f models.Feature, eff models.EffectiveTolerance) models.EvaluationResult {
	n := len(f.Measurements)
	result := models.EvaluationResult{
		ElementID:    f.ElementID,
		Nominal:      f.Nominal,
		Resolved:     eff.Base,
		Effective:    eff,
		Measurements: append([]float64(nil), f.Measurements...),
		Deviations:   make([]float64, n),
		FeatureType:  f.Descriptor.FeatureType(),
		Evaluated:    true,
	}

	for i, m := range f.Measurements {
		result.Deviations[i] = m - f.Nominal
		if !eff.Contains(f.Nominal, m) {
			result.OutOfSpecCount++
		}
	}

	if n > 0 {
		result.Mean = stat.Mean(f.Measurements, nil)
	}
	if n > 1 {
		result.StdDev = stat.StdDev(f.Measurements, nil)
	}

	result.Status = models.StatusGood
	if result.OutOfSpecCount > 0 {
		result.Status = models.StatusBad
	}

	if n < recommendedSampleSize {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("only %d measurements provided; %d+ recommended", n, recommendedSampleSize))
	}
	if n == 1 {
		result.Warnings = append(result.Warnings, WarnSingleMeasurement)
	}
	if result.Mean != 0 {
		cv := result.StdDev / math.Abs(result.Mean) * 100
		if cv > cvThreshold {
			result.Warnings = append(result.Warnings, fmt.Sprintf("high variability detected (CV = %.1f%%)", cv))
		}
	}
	return result
}

func rejected(f models.Feature, warnings []string) models.EvaluationResult {
	return models.EvaluationResult{
		ElementID:    f.ElementID,
		Nominal:      f.Nominal,
		Measurements: []float64{},
		Deviations:   []float64{},
		Status:       models.StatusBad,
		FeatureType:  f.Descriptor.FeatureType(),
		Warnings:     warnings,
	}
}

// OutputRecord flattens the outcome into the exported row. Capability fields
// are attached separately by the study runner.
func (o Outcome) OutputRecord() models.OutputRecord {
	r := o.Result
	rec := models.OutputRecord{
		ElementID:               o.Record.ElementID,
		Batch:                   o.Record.Batch,
		Cavity:                  o.Record.Cavity,
		Class:                   o.Record.Class,
		Description:             o.Record.Description,
		Nominal:                 r.Nominal,
		LowerTolerance:          r.Resolved.Lower,
		UpperTolerance:          r.Resolved.Upper,
		EffectiveLowerTolerance: r.Effective.Lower,
		EffectiveUpperTolerance: r.Effective.Upper,
		BonusTolerance:          r.Effective.Bonus,
		DatumElementID:          o.Record.DatumElementID,
		Measurements:            r.Measurements,
		Deviation:               r.Deviations,
		Mean:                    r.Mean,
		StdDev:                  r.StdDev,
		OutOfSpecCount:          r.OutOfSpecCount,
		Status:                  r.Status,
		GDTFlags:                o.Flags,
		FeatureType:             r.FeatureType,
		Warnings:                r.Warnings,
	}
	if rec.Warnings == nil {
		rec.Warnings = []string{}
	}
	return rec
}
