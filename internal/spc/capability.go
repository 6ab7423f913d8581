package spc

import (
	"strings"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/harrison/capstudy/internal/models"
)

// Keyword lists for Classify, matched as substrings of the lowercased text.
var (
	geometricKeywords = []string{
		"flatness", "position", "parallelism", "perpendicularity",
		"cylindricity", "concentricity", "symmetry", "profile", "runout",
	}
	tractionKeywords = []string{
		"force", "traction", "compression", "hysteresi",
	}
)

// Classify decides which side of the band drives the k-index of an element,
// from its name or description. Geometric keywords win over traction ones.
func Classify(texts ...string) models.ElementClass {
	joined := strings.ToLower(strings.Join(texts, " "))
	for _, kw := range geometricKeywords {
		if strings.Contains(joined, kw) {
			return models.ClassGeometric
		}
	}
	for _, kw := range tractionKeywords {
		if strings.Contains(joined, kw) {
			return models.ClassTraction
		}
	}
	return models.ClassStandard
}

// Spec is the specification window a capability index is computed against.
type Spec struct {
	Nominal float64
	Band    models.Band
}

// LSL returns the lower specification limit.
func (s Spec) LSL() float64 { return s.Band.LowerLimit(s.Nominal) }

// USL returns the upper specification limit.
func (s Spec) USL() float64 { return s.Band.UpperLimit(s.Nominal) }

// Index holds the potential (p) and actual (pk) capability for one sigma.
type Index struct {
	P   float64
	PK  float64
	PPM float64
}

// ComputeIndex returns the two-sided potential index, the class-dependent
// actual index and the expected defect rate for the given sigma. A
// non-positive sigma yields all zeros.
func ComputeIndex(spec Spec, class models.ElementClass, mean, sigma float64) Index {
	if sigma <= 0 {
		return Index{}
	}

	pkLower := (mean - spec.LSL()) / (3 * sigma)
	pkUpper := (spec.USL() - mean) / (3 * sigma)

	idx := Index{
		P:   (spec.Band.Upper - spec.Band.Lower) / (6 * sigma),
		PPM: PPM(spec, mean, sigma),
	}
	switch class {
	case models.ClassTraction:
		idx.PK = pkLower
	case models.ClassGeometric:
		idx.PK = pkUpper
	default:
		idx.PK = min(pkLower, pkUpper)
	}
	return idx
}

// PPM is the expected number of parts per million outside the limits under a
// normal model. 0 for a non-positive sigma.
func PPM(spec Spec, mean, sigma float64) float64 {
	if sigma <= 0 {
		return 0
	}
	zLower := (spec.LSL() - mean) / sigma
	zUpper := (spec.USL() - mean) / sigma
	return 1e6 * (distuv.UnitNormal.CDF(zLower) + 1 - distuv.UnitNormal.CDF(zUpper))
}

// Indices computes Cp/Cpk/PPM from the short-term sigma and Pp/Ppk/PPM from
// the long-term sigma of sample.
func Indices(spec Spec, class models.ElementClass, sample models.CapabilitySample) models.CapabilityIndices {
	short := ComputeIndex(spec, class, sample.Mean, sample.SigmaShort)
	long := ComputeIndex(spec, class, sample.Mean, sample.SigmaLong)
	return models.CapabilityIndices{
		Cp:       short.P,
		Cpk:      short.PK,
		Pp:       long.P,
		Ppk:      long.PK,
		PPMShort: short.PPM,
		PPMLong:  long.PPM,
	}
}
