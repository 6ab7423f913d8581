package study

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harrison/capstudy/internal/models"
)

func capRecord(status string, cp, cpk float64, normal bool, class models.ElementClass) models.OutputRecord {
	return models.OutputRecord{
		Status: status,
		Capability: &models.CapabilityFields{
			ElementClass: class,
			Cp:           cp,
			Cpk:          cpk,
			Pp:           cp - 0.1,
			Ppk:          cpk - 0.1,
			IsNormal:     normal,
		},
	}
}

func TestSummarize(t *testing.T) {
	records := []models.OutputRecord{
		capRecord(models.StatusGood, 2.0, 1.5, true, models.ClassStandard),
		capRecord(models.StatusGood, 1.0, 0.9, false, models.ClassGeometric),
		capRecord(models.StatusBad, 1.4, 1.2, true, models.ClassGeometric),
		{Status: models.StatusBad},
	}

	s := Summarize(records, 1.33)

	assert.Equal(t, 4, s.TotalElements)
	assert.Equal(t, 2, s.Good)
	assert.Equal(t, 2, s.Bad)
	assert.Equal(t, 3, s.SuccessfulAnalyses)
	assert.Equal(t, 2, s.ElementClasses[models.ClassGeometric])
	assert.Equal(t, 2, s.NormalCount)
	assert.Equal(t, 1, s.NonNormalCount)
	assert.InDelta(t, 66.666, s.NormalityPercentage, 0.01)

	assert.InDelta(t, 4.4/3, s.Cp.Mean, 1e-9)
	assert.Equal(t, 1.0, s.Cp.Min)
	assert.Equal(t, 2.0, s.Cp.Max)
	assert.Equal(t, 2, s.Cp.Acceptable)
	assert.Equal(t, 1, s.Cpk.Acceptable)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, 1.33)
	assert.Equal(t, 0, s.TotalElements)
	assert.Equal(t, models.IndexStats{}, s.Cp)
	assert.False(t, s.HasCapability())
}

func TestRecommendations(t *testing.T) {
	s := Summarize([]models.OutputRecord{
		capRecord(models.StatusGood, 2.0, 1.5, true, models.ClassStandard),
		capRecord(models.StatusGood, 1.0, 0.9, false, models.ClassStandard),
	}, 1.33)
	s.FailedAnalyses = 2

	recs := Recommendations(s)
	assert.Equal(t, []string{
		"Review 2 failed analyses for data quality issues",
		"Process capability (Cp): 1/2 elements meet minimum requirements (≥1.33)",
		"Process capability (Cpk): 1/2 elements meet minimum requirements (≥1.33)",
		"Only 50.0% of samples follow a normal distribution; consider process improvement or non-normal capability methods",
	}, recs)
}

func TestRecommendations_AllCapable(t *testing.T) {
	s := Summarize([]models.OutputRecord{
		capRecord(models.StatusGood, 2.0, 1.8, true, models.ClassStandard),
	}, 1.33)
	assert.Empty(t, Recommendations(s))
}

func TestValidate(t *testing.T) {
	records := []models.InputRecord{
		{ElementID: "A", Nominal: models.Float(1), Measurements: models.Floats(1, 2, 3, 4, 5)},
		{ElementID: "A", Nominal: models.Float(1), Measurements: models.Floats(1, 2, 3, 4, 5)},
		{ElementID: "", Nominal: models.Float(1), Measurements: models.Floats(1, 2, 3, 4, 5)},
		{ElementID: "B", Measurements: models.Floats(1, 2)},
		{ElementID: "C", Nominal: models.Float(1), Tolerance: models.PairTolerance(0.2, -0.2),
			Measurements: models.Floats(1, 2, 3, 4, 5)},
	}

	warnings := Validate(records, 5)
	assert.Equal(t, []string{
		"A: duplicate element_id (first seen in row 1)",
		"row 3: missing element_id",
		"B: missing nominal",
		"B: sample size 2 < 5",
		"C: lower tolerance > upper tolerance",
	}, warnings)

	assert.Equal(t, []string{"no elements provided for analysis"}, Validate(nil, 5))
}
