package spc

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrison/capstudy/internal/models"
)

// AnalysisOptions controls a single capability analysis.
type AnalysisOptions struct {
	MinSampleSize int
	Extrapolate   bool
	// TargetSize is the extrapolation target; 0 picks the next available size.
	TargetSize int
	// NonNegative folds synthetic draws to absolute values.
	NonNegative bool
}

// Analyze computes sample statistics and capability indices for values.
//
// When extrapolation is enabled and x is non-nil, an undersized or
// non-normal sample is grown first and the indices are computed on the grown
// sample. Extrapolation problems are reported as warnings; the returned error
// is only set when no capability figures could be produced at all.
func Analyze(ctx context.Context, x *Extrapolator, values []float64, spec Spec, class models.ElementClass, opts AnalysisOptions) (models.CapabilityResult, []string, error) {
	result := models.CapabilityResult{Class: class}
	var warnings []string

	sample, err := Describe(values, opts.MinSampleSize)
	tooSmall := errors.Is(err, ErrSampleTooSmall)
	if err != nil && !(tooSmall && opts.Extrapolate && x != nil) {
		return result, nil, err
	}

	if opts.Extrapolate && x != nil && (tooSmall || !sample.IsNormal) {
		target := x.TargetFor(len(values), opts.TargetSize)
		ext, extErr := x.Extrapolate(ctx, values, target, opts.NonNegative)
		switch {
		case extErr != nil && tooSmall:
			return result, nil, fmt.Errorf("sample too small and extrapolation failed: %w", extErr)
		case extErr != nil:
			warnings = append(warnings, fmt.Sprintf("extrapolation skipped: %v", extErr))
		case ext.Extrapolated:
			result.Extrapolation = &ext
			grown, descErr := Describe(ext.Values, opts.MinSampleSize)
			if descErr != nil {
				return result, warnings, descErr
			}
			grown.ADStatistic = ext.ADStatistic
			grown.PValue = ext.PValue
			grown.IsNormal = ext.Achieved
			sample = grown
			if !ext.Achieved {
				warnings = append(warnings, fmt.Sprintf(
					"could not achieve p ≥ %.2f after %d extrapolation attempts (p = %.4f)",
					Alpha, ext.Attempts, ext.PValue))
			}
		case tooSmall:
			return result, nil, err
		}
	}

	result.Sample = sample
	result.Indices = Indices(spec, class, sample)
	if sample.SigmaShort == 0 || sample.SigmaLong == 0 {
		warnings = append(warnings, "zero process spread — capability indices reported as 0")
	}
	return result, warnings, nil
}
