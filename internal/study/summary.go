package study

import (
	"fmt"
	"math"

	"github.com/harrison/capstudy/internal/models"
)

// normalityTarget is the share of normal samples (percent) below which the
// study recommends a closer look at the process.
const normalityTarget = 80.0

// Summarize rolls up feature records. Capability statistics only consider
// records that carry capability figures.
func Summarize(records []models.OutputRecord, acceptable float64) models.StudySummary {
	s := models.StudySummary{
		TotalElements:   len(records),
		ElementClasses:  make(map[models.ElementClass]int),
		AcceptableIndex: acceptable,
	}

	var cp, cpk, pp, ppk []float64
	for _, rec := range records {
		if rec.Status == models.StatusGood {
			s.Good++
		} else {
			s.Bad++
		}

		c := rec.Capability
		if c == nil {
			continue
		}
		s.SuccessfulAnalyses++
		s.ElementClasses[c.ElementClass]++
		if c.IsNormal {
			s.NormalCount++
		} else {
			s.NonNormalCount++
		}
		cp = append(cp, c.Cp)
		cpk = append(cpk, c.Cpk)
		pp = append(pp, c.Pp)
		ppk = append(ppk, c.Ppk)
	}

	if s.SuccessfulAnalyses > 0 {
		s.NormalityPercentage = float64(s.NormalCount) / float64(s.SuccessfulAnalyses) * 100
	}
	s.Cp = indexStats(cp, acceptable)
	s.Cpk = indexStats(cpk, acceptable)
	s.Pp = indexStats(pp, acceptable)
	s.Ppk = indexStats(ppk, acceptable)
	return s
}

func indexStats(values []float64, acceptable float64) models.IndexStats {
	if len(values) == 0 {
		return models.IndexStats{}
	}
	st := models.IndexStats{Min: math.Inf(1), Max: math.Inf(-1)}
	var sum float64
	for _, v := range values {
		sum += v
		st.Min = math.Min(st.Min, v)
		st.Max = math.Max(st.Max, v)
		if v >= acceptable {
			st.Acceptable++
		}
	}
	st.Mean = sum / float64(len(values))
	return st
}

// Recommendations derives the textual follow-ups for a study summary.
func Recommendations(s models.StudySummary) []string {
	recs := []string{}

	if s.FailedAnalyses > 0 {
		recs = append(recs, fmt.Sprintf("Review %d failed analyses for data quality issues", s.FailedAnalyses))
	}
	if s.Bad > 0 {
		recs = append(recs, fmt.Sprintf("%d of %d features have measurements out of tolerance", s.Bad, s.TotalElements))
	}
	if !s.HasCapability() {
		return recs
	}

	n := s.SuccessfulAnalyses
	if s.Cp.Acceptable < n {
		recs = append(recs, fmt.Sprintf("Process capability (Cp): %d/%d elements meet minimum requirements (≥%.2f)",
			s.Cp.Acceptable, n, s.AcceptableIndex))
	}
	if s.Cpk.Acceptable < n {
		recs = append(recs, fmt.Sprintf("Process capability (Cpk): %d/%d elements meet minimum requirements (≥%.2f)",
			s.Cpk.Acceptable, n, s.AcceptableIndex))
	}
	if s.NormalityPercentage < normalityTarget {
		recs = append(recs, fmt.Sprintf(
			"Only %.1f%% of samples follow a normal distribution; consider process improvement or non-normal capability methods",
			s.NormalityPercentage))
	}
	return recs
}
