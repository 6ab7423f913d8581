package tolerance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/models"
)

func resolve(t *testing.T, raw models.RawTolerance, description string, nominal float64) Resolution {
	t.Helper()
	p := gdt.NewParser()
	return Resolve(Input{
		Raw:        raw,
		Descriptor: p.Parse(description),
		Flags:      gdt.Flags(description),
		Nominal:    nominal,
	})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		raw         models.RawTolerance
		description string
		nominal     float64
		want        models.Band
		wantWarning string
	}{
		{
			name:        "explicit pair used as is",
			raw:         models.PairTolerance(-0.1, 0.3),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.1, Upper: 0.3},
		},
		{
			name:        "single value on plain dimension is symmetric",
			raw:         models.ScalarTolerance(0.2),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.2, Upper: 0.2},
			wantWarning: WarnSymmetricBilateral,
		},
		{
			name:        "one element list behaves like a scalar",
			raw:         models.ListTolerance(-0.2),
			description: "Width",
			nominal:     5,
			want:        models.Band{Lower: -0.2, Upper: 0.2},
			wantWarning: WarnSymmetricBilateral,
		},
		{
			name:        "single value with MMC is one-sided",
			raw:         models.ScalarTolerance(0.3),
			description: "position 0.3(M) A",
			nominal:     0,
			want:        models.Band{Lower: 0, Upper: 0.3},
		},
		{
			name:        "plural suffix does not make a single value one-sided",
			raw:         models.ScalarTolerance(0.1),
			description: "hole(s) diameter 10",
			nominal:     10,
			want:        models.Band{Lower: -0.1, Upper: 0.1},
			wantWarning: WarnSymmetricBilateral,
		},
		{
			name:        "unit in parentheses does not make a single value one-sided",
			raw:         models.ScalarTolerance(0.1),
			description: "pin(s) length (m)",
			nominal:     10,
			want:        models.Band{Lower: -0.1, Upper: 0.1},
			wantWarning: WarnSymmetricBilateral,
		},
		{
			name:        "single value with flatness is one-sided",
			raw:         models.ScalarTolerance(0.05),
			description: "Flatness",
			nominal:     0,
			want:        models.Band{Lower: 0, Upper: 0.05},
		},
		{
			name:        "single value with MIN flag is one-sided",
			raw:         models.ScalarTolerance(-1),
			description: "Wall thickness min",
			nominal:     2,
			want:        models.Band{Lower: 0, Upper: 1},
		},
		{
			name:        "derived form tolerance",
			raw:         models.RawTolerance{},
			description: "flatness 0.05",
			nominal:     0,
			want:        models.Band{Lower: 0, Upper: 0.05},
		},
		{
			name:        "derived position",
			raw:         models.RawTolerance{},
			description: "position Ø0.4 A B",
			nominal:     0,
			want:        models.Band{Lower: -0.4, Upper: 0.4},
		},
		{
			name:        "derived orientation with nominal",
			raw:         models.RawTolerance{},
			description: "angularity 0.1 A",
			nominal:     30,
			want:        models.Band{Lower: -0.1, Upper: 0.1},
		},
		{
			name:        "derived orientation at nominal zero",
			raw:         models.RawTolerance{},
			description: "perpendicularity 0.1 A",
			nominal:     0,
			want:        models.Band{Lower: 0, Upper: 0.1},
		},
		{
			name:        "derived profile splits band",
			raw:         models.RawTolerance{},
			description: "profile 0.4 A B",
			nominal:     0,
			want:        models.Band{Lower: -0.2, Upper: 0.2},
		},
		{
			name:        "bilateral keyword does not change profile split",
			raw:         models.RawTolerance{},
			description: "profile 0.4 bilateral A B",
			nominal:     0,
			want:        models.Band{Lower: -0.2, Upper: 0.2},
		},
		{
			name:        "derived symmetry",
			raw:         models.RawTolerance{},
			description: "symmetry 0.2 A",
			nominal:     0,
			want:        models.Band{Lower: -0.2, Upper: 0.2},
		},
		{
			name:        "missing tolerance",
			raw:         models.RawTolerance{},
			description: "Length",
			nominal:     10,
			want:        models.Band{},
			wantWarning: WarnMissingTolerance,
		},
		{
			name:        "empty list is missing",
			raw:         models.ListTolerance(),
			description: "Length",
			nominal:     10,
			want:        models.Band{},
			wantWarning: WarnMissingTolerance,
		},
		{
			name:        "text plus minus",
			raw:         models.TextTolerance("+0.2/-0.1"),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.1, Upper: 0.2},
		},
		{
			name:        "text with comma decimals",
			raw:         models.TextTolerance("-0,05 / +0,15"),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.05, Upper: 0.15},
		},
		{
			name:        "text symmetric",
			raw:         models.TextTolerance("±0.1"),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.1, Upper: 0.1},
		},
		{
			name:        "numeric string is a single value",
			raw:         models.TextTolerance("0,3"),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.3, Upper: 0.3},
			wantWarning: WarnSymmetricBilateral,
		},
		{
			name:        "unparseable text falls through to derivation",
			raw:         models.TextTolerance("see drawing"),
			description: "flatness 0.02",
			nominal:     0,
			want:        models.Band{Lower: 0, Upper: 0.02},
			wantWarning: WarnUnparseable,
		},
		{
			name:        "positive lower negated under MMC",
			raw:         models.PairTolerance(0.1, 0.5),
			description: "position 0.5(M) A",
			nominal:     0,
			want:        models.Band{Lower: -0.1, Upper: 0.5},
		},
		{
			name:        "negative upper forced to zero under flatness",
			raw:         models.PairTolerance(-0.3, -0.1),
			description: "flatness",
			nominal:     0,
			want:        models.Band{Lower: -0.3, Upper: 0},
		},
		{
			name:        "reversed pair is swapped",
			raw:         models.PairTolerance(0.3, -0.1),
			description: "Length",
			nominal:     10,
			want:        models.Band{Lower: -0.1, Upper: 0.3},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := resolve(t, tt.raw, tt.description, tt.nominal)
			assert.InDelta(t, tt.want.Lower, res.Band.Lower, 1e-12, "lower")
			assert.InDelta(t, tt.want.Upper, res.Band.Upper, 1e-12, "upper")
			if tt.wantWarning == "" {
				assert.Empty(t, res.Warnings)
			} else {
				assert.Contains(t, res.Warnings, tt.wantWarning)
			}
		})
	}
}

func TestResolve_LowerNeverExceedsUpper(t *testing.T) {
	values := []float64{-1, -0.5, 0, 0.25, 2}
	descriptions := []string{"Length", "flatness", "position 0.2(M) A", "profile 0.3", "parallelism 0.1 A"}

	for _, d := range descriptions {
		for _, lo := range values {
			for _, hi := range values {
				res := resolve(t, models.PairTolerance(lo, hi), d, 1)
				if res.Band.Lower > res.Band.Upper {
					t.Errorf("%q [%v, %v]: lower %v > upper %v", d, lo, hi, res.Band.Lower, res.Band.Upper)
				}
			}
		}
	}
}

func TestResolve_NilDescriptor(t *testing.T) {
	res := Resolve(Input{Raw: models.ScalarTolerance(0.1), Nominal: 3})
	assert.Equal(t, models.Band{Lower: -0.1, Upper: 0.1}, res.Band)
}

func TestDerive_NoMagnitude(t *testing.T) {
	_, ok := Derive(models.GDTFlatness, 0, false, 0)
	assert.False(t, ok)

	_, ok = Derive(models.GDTNone, 1, true, 0)
	assert.False(t, ok)
}

func TestDerive_AllTypesCovered(t *testing.T) {
	for _, typ := range models.GDTPriority {
		band, ok := Derive(typ, 0.2, true, 5)
		require.True(t, ok, typ)
		assert.LessOrEqual(t, band.Lower, band.Upper, typ)
		assert.Greater(t, band.Width(), 0.0, typ)
	}
}

func TestApplyBonus(t *testing.T) {
	base := models.Band{Lower: 0, Upper: 0.5}

	t.Run("MMC bonus", func(t *testing.T) {
		eff, warnings := ApplyBonus(models.NewEffectiveTolerance(base), models.MaterialMMC,
			&models.Datum{Nominal: 10.0, Measurement: 9.4})
		assert.Empty(t, warnings)
		assert.InDelta(t, 0.6, eff.Bonus, 1e-9)
		assert.InDelta(t, 1.1, eff.Upper, 1e-9)
		assert.Equal(t, 0.0, eff.Lower)
		assert.Equal(t, base, eff.Base)
	})

	t.Run("MMC datum at or above MMC size gives no bonus", func(t *testing.T) {
		eff, _ := ApplyBonus(models.NewEffectiveTolerance(base), models.MaterialMMC,
			&models.Datum{Nominal: 10.0, Measurement: 10.2})
		assert.Equal(t, 0.0, eff.Bonus)
		assert.Equal(t, base, eff.Band)
	})

	t.Run("MMC uses negative lower offset", func(t *testing.T) {
		b := models.Band{Lower: -0.1, Upper: 0.3}
		eff, _ := ApplyBonus(models.NewEffectiveTolerance(b), models.MaterialMMC,
			&models.Datum{Nominal: 10.0, Measurement: 9.7})
		// mmc size 9.9
		assert.InDelta(t, 0.2, eff.Bonus, 1e-9)
		assert.InDelta(t, 0.5, eff.Upper, 1e-9)
	})

	t.Run("LMC bonus", func(t *testing.T) {
		eff, _ := ApplyBonus(models.NewEffectiveTolerance(base), models.MaterialLMC,
			&models.Datum{Nominal: 10.0, Measurement: 10.8})
		// lmc size 10.5
		assert.InDelta(t, 0.3, eff.Bonus, 1e-9)
		assert.InDelta(t, 0.8, eff.Upper, 1e-9)
	})

	t.Run("RFS and missing datum pass through", func(t *testing.T) {
		eff, _ := ApplyBonus(models.NewEffectiveTolerance(base), models.MaterialRFS,
			&models.Datum{Nominal: 10.0, Measurement: 9.0})
		assert.Equal(t, base, eff.Band)

		eff, _ = ApplyBonus(models.NewEffectiveTolerance(base), models.MaterialMMC, nil)
		assert.Equal(t, base, eff.Band)
	})

	t.Run("non-finite datum is a warning", func(t *testing.T) {
		eff, warnings := ApplyBonus(models.NewEffectiveTolerance(base), models.MaterialMMC,
			&models.Datum{Nominal: math.NaN(), Measurement: 9.0})
		require.Len(t, warnings, 1)
		assert.Contains(t, warnings[0], WarnBonusSkipped)
		assert.Equal(t, base, eff.Band)
	})
}

func TestApplyBonus_Idempotent(t *testing.T) {
	datum := &models.Datum{Nominal: 10.0, Measurement: 9.4}
	once, _ := ApplyBonus(models.NewEffectiveTolerance(models.Band{Upper: 0.5}), models.MaterialMMC, datum)
	twice, _ := ApplyBonus(once, models.MaterialMMC, datum)

	assert.Equal(t, once, twice)
}

func TestBonus_Monotonic(t *testing.T) {
	base := models.Band{Lower: 0, Upper: 0.5}
	prev := 0.0
	for _, measured := range []float64{10.0, 9.9, 9.7, 9.4, 9.0} {
		b := Bonus(models.MaterialMMC, base, 10.0, measured)
		assert.GreaterOrEqual(t, b, prev, "bonus should grow as the datum departs from MMC")
		assert.GreaterOrEqual(t, base.Upper+b, base.Upper)
		prev = b
	}
}
