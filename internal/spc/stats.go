// Package spc implements the statistical side of a capability study: sample
// statistics, the Anderson-Darling normality test, sample extrapolation and
// the Cp/Cpk/Pp/Ppk indices.
package spc

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/harrison/capstudy/internal/models"
)

var (
	// ErrSampleTooSmall is returned by normality-dependent steps for fewer
	// than MinSampleSize values.
	ErrSampleTooSmall = errors.New("sample too small")

	// ErrZeroSigma is returned when a sample has no spread to model.
	ErrZeroSigma = errors.New("standard deviation is zero")

	// ErrNonFinite is returned for samples containing NaN or Inf.
	ErrNonFinite = errors.New("sample contains non-finite values")
)

// MinSampleSize is the smallest sample the normality test accepts.
const MinSampleSize = 5

// d2 is the control-chart constant for moving ranges of size 2.
const d2 = 1.128

// Mean returns the arithmetic mean, or 0 for an empty sample.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// SigmaLong is the sample standard deviation (n-1 divisor), 0 when n <= 1.
func SigmaLong(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return stat.StdDev(values, nil)
}

// SigmaShort estimates within-subgroup spread from the average moving range
// of successive values. Order matters. 0 when n <= 1.
func SigmaShort(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for i := 1; i < len(values); i++ {
		sum += math.Abs(values[i] - values[i-1])
	}
	return sum / float64(len(values)-1) / d2
}

// Describe computes the sample statistics and runs the normality test.
// Samples below minSize fail with ErrSampleTooSmall; a minSize below
// MinSampleSize is raised to it.
func Describe(values []float64, minSize int) (models.CapabilitySample, error) {
	if minSize < MinSampleSize {
		minSize = MinSampleSize
	}
	if len(values) < minSize {
		return models.CapabilitySample{N: len(values)},
			fmt.Errorf("%w: %d values, need at least %d", ErrSampleTooSmall, len(values), minSize)
	}
	if err := checkFinite(values); err != nil {
		return models.CapabilitySample{N: len(values)}, err
	}

	sample := models.CapabilitySample{
		N:          len(values),
		Mean:       Mean(values),
		SigmaShort: SigmaShort(values),
		SigmaLong:  SigmaLong(values),
	}

	ad, err := AndersonDarling(values)
	if err != nil {
		return sample, err
	}
	sample.ADStatistic = ad.Statistic
	sample.PValue = ad.PValue
	sample.IsNormal = ad.Normal
	return sample, nil
}

func checkFinite(values []float64) error {
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: value %d is %v", ErrNonFinite, i, v)
		}
	}
	return nil
}
