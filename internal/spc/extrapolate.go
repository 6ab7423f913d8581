package spc

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/harrison/capstudy/internal/models"
)

// DefaultMaxAttempts bounds the number of synthetic samples drawn.
const DefaultMaxAttempts = 100

// DefaultAvailableSizes are the sample sizes a study may extrapolate to.
var DefaultAvailableSizes = []int{10, 20, 30, 40, 50, 60, 70, 80, 90, 100, 125, 150}

// Extrapolator grows small or non-normal samples with values drawn from the
// sample's own normal model until the Anderson-Darling test accepts them.
//
// An Extrapolator owns its random source and is not safe for concurrent use;
// give each goroutine its own (see ForFeature).
type Extrapolator struct {
	rng         *rand.Rand
	seed        uint64
	maxAttempts int
	sizes       []int
}

// ExtrapolatorOption configures an Extrapolator.
type ExtrapolatorOption func(*Extrapolator)

// WithSeed makes the draws reproducible.
func WithSeed(seed uint64) ExtrapolatorOption {
	return func(x *Extrapolator) {
		x.seed = seed
		x.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithMaxAttempts overrides DefaultMaxAttempts. Non-positive values are
// ignored.
func WithMaxAttempts(n int) ExtrapolatorOption {
	return func(x *Extrapolator) {
		if n > 0 {
			x.maxAttempts = n
		}
	}
}

// WithAvailableSizes overrides DefaultAvailableSizes.
func WithAvailableSizes(sizes []int) ExtrapolatorOption {
	return func(x *Extrapolator) {
		if len(sizes) > 0 {
			x.sizes = append([]int(nil), sizes...)
		}
	}
}

// NewExtrapolator creates an Extrapolator. Without WithSeed the
// random source is seeded from the runtime.
func NewExtrapolator(opts ...ExtrapolatorOption) *Extrapolator {
	x := &Extrapolator{
		maxAttempts: DefaultMaxAttempts,
		sizes:       DefaultAvailableSizes,
	}
	for _, opt := range opts {
		opt(x)
	}
	if x.rng == nil {
		x.seed = rand.Uint64()
		x.rng = rand.New(rand.NewPCG(x.seed, x.seed^0x9e3779b97f4a7c15))
	}
	return x
}

// ForFeature returns an independent Extrapolator for the i-th feature of a
// study, with a seed derived from this one. Same parent seed and index give
// the same draws.
func (x *Extrapolator) ForFeature(i int) *Extrapolator {
	child := &Extrapolator{maxAttempts: x.maxAttempts, sizes: x.sizes}
	WithSeed(x.seed + uint64(i+1)*0x2545f4914f6cdd1d)(child)
	return child
}

// MaxAttempts returns the attempt budget.
func (x *Extrapolator) MaxAttempts() int { return x.maxAttempts }

// AvailableSizes returns the permitted target sizes in ascending order.
func (x *Extrapolator) AvailableSizes() []int { return append([]int(nil), x.sizes...) }

// TargetFor picks the target size for a sample of n values: requested if it is
// positive, otherwise the smallest available size larger than n. When no
// available size exceeds n, n is returned (nothing to do).
func (x *Extrapolator) TargetFor(n, requested int) int {
	if requested > 0 {
		return requested
	}
	for _, size := range x.sizes {
		if size > n {
			return size
		}
	}
	return n
}

// Extrapolate draws target-len(values) extra values from N(mean, sigma) of the
// original sample and returns the first combined sample whose Anderson-Darling
// p-value (against the original mean and sigma) reaches Alpha.
//
// nonNegative folds draws to their absolute value, for features that cannot
// go below zero. When no attempt succeeds the last sample is returned with
// Achieved false; that is not an error. A target not larger than the sample
// returns the original values untouched.
func (x *Extrapolator) Extrapolate(ctx context.Context, values []float64, target int, nonNegative bool) (models.ExtrapolationResult, error) {
	n := len(values)
	result := models.ExtrapolationResult{
		Values:       append([]float64(nil), values...),
		OriginalSize: n,
		TargetSize:   target,
	}
	if target <= n {
		return result, nil
	}
	if n == 0 {
		return result, fmt.Errorf("%w: cannot extrapolate an empty sample", ErrSampleTooSmall)
	}
	if target < MinSampleSize {
		return result, fmt.Errorf("%w: target size %d below %d", ErrSampleTooSmall, target, MinSampleSize)
	}
	if err := checkFinite(values); err != nil {
		return result, err
	}

	mu := Mean(values)
	sigma := SigmaLong(values)
	if sigma == 0 || math.IsNaN(sigma) {
		return result, fmt.Errorf("cannot extrapolate: %w", ErrZeroSigma)
	}

	extended := make([]float64, target)
	copy(extended, values)

	for attempt := 1; attempt <= x.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		for i := n; i < target; i++ {
			v := mu + sigma*x.rng.NormFloat64()
			if nonNegative {
				v = math.Abs(v)
			}
			extended[i] = v
		}

		ad, err := AndersonDarlingWith(extended, mu, sigma)
		if err != nil {
			return result, err
		}

		result.Values = append(result.Values[:0], extended...)
		result.Attempts = attempt
		result.ADStatistic = ad.Statistic
		result.PValue = ad.PValue
		result.Extrapolated = true
		if ad.Normal {
			result.Achieved = true
			return result, nil
		}
	}
	return result, nil
}
