package evaluator

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/capstudy/internal/models"
)

func TestEvaluateRecord_Examples(t *testing.T) {
	tests := []struct {
		name       string
		record     models.InputRecord
		wantStatus string
		wantOOS    int
		wantUpper  float64
	}{
		{
			name: "all inside one-sided band",
			record: models.InputRecord{
				ElementID:    "E1",
				Description:  "Gap",
				Nominal:      models.Float(0.0),
				Tolerance:    models.PairTolerance(0.0, 0.5),
				Measurements: models.Floats(0.1, 0.2, 0.3, 0.5),
			},
			wantStatus: models.StatusGood,
			wantOOS:    0,
			wantUpper:  0.5,
		},
		{
			name: "single measurement above upper",
			record: models.InputRecord{
				ElementID:    "E2",
				Description:  "Gap",
				Nominal:      models.Float(0.0),
				Tolerance:    models.PairTolerance(0.0, 0.5),
				Measurements: models.Floats(0.6),
			},
			wantStatus: models.StatusBad,
			wantOOS:    1,
			wantUpper:  0.5,
		},
		{
			name: "MMC bonus rescues measurements",
			record: models.InputRecord{
				ElementID:        "E3",
				Description:      "position 0.5(M) A",
				Nominal:          models.Float(0.0),
				Tolerance:        models.PairTolerance(0.0, 0.5),
				Measurements:     models.Floats(0.6, 0.7, 0.85),
				DatumElementID:   "D1",
				DatumNominal:     models.Float(10.0),
				DatumMeasurement: models.Float(9.4),
			},
			wantStatus: models.StatusGood,
			wantOOS:    0,
			wantUpper:  1.1,
		},
		{
			name: "measurement on bonus-widened limit",
			record: models.InputRecord{
				ElementID:        "E3b",
				Description:      "position 0.5(M) A",
				Nominal:          models.Float(0.0),
				Tolerance:        models.PairTolerance(0.0, 0.5),
				Measurements:     models.Floats(0.6, 1.1),
				DatumElementID:   "D1",
				DatumNominal:     models.Float(10.0),
				DatumMeasurement: models.Float(9.4),
			},
			wantStatus: models.StatusGood,
			wantOOS:    0,
			wantUpper:  1.1,
		},
		{
			name: "single value on standard element",
			record: models.InputRecord{
				ElementID:    "E4",
				Class:        "standard",
				Description:  "Length",
				Nominal:      models.Float(10.0),
				Tolerance:    models.ScalarTolerance(0.2),
				Measurements: models.Floats(10.0, 10.1, 10.15),
			},
			wantStatus: models.StatusGood,
			wantOOS:    0,
			wantUpper:  0.2,
		},
		{
			name: "zero tolerance exact hit",
			record: models.InputRecord{
				ElementID:    "E5",
				Description:  "Pin",
				Nominal:      models.Float(4.0),
				Tolerance:    models.PairTolerance(0, 0),
				Measurements: models.Floats(4.0),
			},
			wantStatus: models.StatusGood,
			wantOOS:    0,
		},
		{
			name: "zero tolerance any deviation",
			record: models.InputRecord{
				ElementID:    "E5b",
				Description:  "Pin",
				Nominal:      models.Float(4.0),
				Tolerance:    models.PairTolerance(0, 0),
				Measurements: models.Floats(4.0, 4.0001),
			},
			wantStatus: models.StatusBad,
			wantOOS:    1,
		},
	}

	e := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := e.EvaluateRecord(tt.record)
			assert.Equal(t, tt.wantStatus, out.Result.Status)
			assert.Equal(t, tt.wantOOS, out.Result.OutOfSpecCount)
			assert.InDelta(t, tt.wantUpper, out.Result.Effective.Upper, 1e-9)
			assert.True(t, out.Result.Evaluated)
		})
	}
}

func TestEvaluateRecord_SymmetricWarning(t *testing.T) {
	out := New(nil).EvaluateRecord(models.InputRecord{
		ElementID:    "E4",
		Description:  "Length",
		Nominal:      models.Float(10.0),
		Tolerance:    models.ScalarTolerance(0.2),
		Measurements: models.Floats(10.0, 10.1, 10.15),
	})

	assert.Equal(t, models.Band{Lower: -0.2, Upper: 0.2}, out.Result.Resolved)
	assert.Contains(t, out.Result.Warnings, "single tolerance interpreted as symmetric bilateral")
	assert.Contains(t, out.Result.Warnings, "only 3 measurements provided; 5+ recommended")
	assert.Equal(t, "dimension", out.Result.FeatureType)
}

func TestEvaluateRecord_ParenthesisedWordsStayBilateral(t *testing.T) {
	e := New(nil)
	for _, desc := range []string{"hole diameter 10", "hole(s) diameter 10", "pin(s) length (m)"} {
		out := e.EvaluateRecord(models.InputRecord{
			ElementID:    "H1",
			Description:  desc,
			Nominal:      models.Float(10.0),
			Tolerance:    models.ScalarTolerance(0.1),
			Measurements: models.Floats(9.95, 10.0, 10.02, 9.98, 10.01),
		})
		assert.Equal(t, models.Band{Lower: -0.1, Upper: 0.1}, out.Result.Resolved, desc)
		assert.Equal(t, models.StatusGood, out.Result.Status, desc)
		assert.Zero(t, out.Result.OutOfSpecCount, desc)
	}
}

func TestEvaluateRecord_MissingNominal(t *testing.T) {
	out := New(nil).EvaluateRecord(models.InputRecord{
		ElementID:    "X",
		Description:  "flatness 0.05",
		Measurements: models.Floats(0.01, 0.02),
	})

	assert.Equal(t, models.StatusBad, out.Result.Status)
	assert.False(t, out.Result.Evaluated)
	assert.NotNil(t, out.Result.Measurements)
	assert.Empty(t, out.Result.Measurements)
	assert.Contains(t, out.Result.Warnings, WarnMissingNominal)
	assert.Equal(t, "flatness", out.Result.FeatureType)
}

func TestEvaluateRecord_NoMeasurements(t *testing.T) {
	out := New(nil).EvaluateRecord(models.InputRecord{
		ElementID:    "X",
		Description:  "Length",
		Nominal:      models.Float(1),
		Measurements: []*float64{nil, nil},
	})

	assert.Equal(t, models.StatusBad, out.Result.Status)
	assert.Empty(t, out.Result.Measurements)
	assert.Contains(t, out.Result.Warnings, WarnNoMeasurements)
}

func TestEvaluate_SingleMeasurementWarnings(t *testing.T) {
	f := models.Feature{ElementID: "S", Nominal: 1, Measurements: []float64{1.0}}
	result := Evaluate(f, models.NewEffectiveTolerance(models.Band{Lower: -0.1, Upper: 0.1}))

	assert.Equal(t, 0.0, result.StdDev)
	assert.Contains(t, result.Warnings, "only 1 measurements provided; 5+ recommended")
	assert.Contains(t, result.Warnings, WarnSingleMeasurement)
}

func TestEvaluate_HighVariability(t *testing.T) {
	f := models.Feature{ElementID: "V", Nominal: 1, Measurements: []float64{0.5, 1.5, 0.7, 1.3, 1.0}}
	result := Evaluate(f, models.NewEffectiveTolerance(models.Band{Lower: -1, Upper: 1}))

	found := false
	for _, w := range result.Warnings {
		if strings.HasPrefix(w, "high variability detected (CV = ") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected high variability warning, got %v", result.Warnings)
	}
	assert.InDelta(t, 1.0, result.Mean, 1e-12)
}

func TestEvaluate_Statistics(t *testing.T) {
	f := models.Feature{Nominal: 2, Measurements: []float64{2, 4, 4, 4, 5, 5, 7, 9}}
	result := Evaluate(f, models.NewEffectiveTolerance(models.Band{Lower: -10, Upper: 10}))

	assert.InDelta(t, 5.0, result.Mean, 1e-12)
	// sample std dev with n-1 divisor
	assert.InDelta(t, 2.138089935299395, result.StdDev, 1e-12)
	assert.Equal(t, []float64{0, 2, 2, 2, 3, 3, 5, 7}, result.Deviations)
}

func TestEvaluate_OutOfSpecCountProperty(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))

	for trial := 0; trial < 200; trial++ {
		nominal := rng.Float64() * 10
		band := models.Band{Lower: -rng.Float64(), Upper: rng.Float64()}
		values := make([]float64, 1+rng.IntN(8))
		for i := range values {
			values[i] = nominal + (rng.Float64()*4 - 2)
		}

		result := Evaluate(models.Feature{Nominal: nominal, Measurements: values}, models.NewEffectiveTolerance(band))

		want := 0
		for _, m := range values {
			if m < nominal+band.Lower || m > nominal+band.Upper {
				want++
			}
		}
		require.Equal(t, want, result.OutOfSpecCount)
		require.Equal(t, want > 0, result.Status == models.StatusBad)
	}
}

func TestOutcome_OutputRecord(t *testing.T) {
	out := New(nil).EvaluateRecord(models.InputRecord{
		ElementID:        "P1",
		Batch:            "B7",
		Cavity:           "2",
		Description:      "position 0.5(M) A",
		Nominal:          models.Float(0),
		Tolerance:        models.PairTolerance(0, 0.5),
		Measurements:     models.Floats(0.2, 0.3),
		DatumElementID:   "D1",
		DatumNominal:     models.Float(10.0),
		DatumMeasurement: models.Float(9.8),
	})

	rec := out.OutputRecord()
	assert.Equal(t, "P1", rec.ElementID)
	assert.Equal(t, "B7", rec.Batch)
	assert.Equal(t, "D1", rec.DatumElementID)
	assert.Equal(t, 0.5, rec.UpperTolerance)
	assert.InDelta(t, 0.7, rec.EffectiveUpperTolerance, 1e-9)
	assert.InDelta(t, 0.2, rec.BonusTolerance, 1e-9)
	assert.True(t, rec.GDTFlags["POSITION"])
	assert.True(t, rec.GDTFlags["MMC"])
	assert.Equal(t, "position", rec.FeatureType)
	assert.Nil(t, rec.Capability)
}
