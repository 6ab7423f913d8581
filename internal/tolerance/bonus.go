package tolerance

import (
	"fmt"
	"math"

	"github.com/harrison/capstudy/internal/models"
)

// WarnBonusSkipped prefixes the warning emitted when bonus arithmetic cannot
// be carried out.
const WarnBonusSkipped = "bonus tolerance not applied"

// ApplyBonus widens eff by the material-condition bonus granted by the datum
// feature's actual size. The bonus is always computed from eff.Base, so
// applying it again with the same datum is a no-op.
//
// Only MMC and LMC grant a bonus, and only when datum data is present.
// Arithmetic problems never fail the feature: the base band is kept and a
// warning is returned instead.
func ApplyBonus(eff models.EffectiveTolerance, mc models.MaterialCondition, datum *models.Datum) (models.EffectiveTolerance, []string) {
	out := models.NewEffectiveTolerance(eff.Base)
	if !mc.GrantsBonus() || datum == nil {
		return out, nil
	}

	bonus, err := bonusFor(mc, eff.Base, datum.Nominal, datum.Measurement)
	if err != nil {
		return out, []string{fmt.Sprintf("%s: %v", WarnBonusSkipped, err)}
	}
	out.Bonus = bonus
	out.Upper = eff.Base.Upper + bonus
	return out, nil
}

// Bonus returns the extra tolerance for the given modifier, base band and
// datum sizes. It is zero when the datum sits at or beyond its limiting
// material condition.
func Bonus(mc models.MaterialCondition, base models.Band, datumNominal, datumMeasurement float64) float64 {
	bonus, err := bonusFor(mc, base, datumNominal, datumMeasurement)
	if err != nil {
		return 0
	}
	return bonus
}

func bonusFor(mc models.MaterialCondition, base models.Band, datumNominal, datumMeasurement float64) (float64, error) {
	for _, v := range []float64{base.Lower, base.Upper, datumNominal, datumMeasurement} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("non-finite input %v", v)
		}
	}

	var bonus float64
	switch mc {
	case models.MaterialMMC:
		mmcSize := datumNominal + math.Min(base.Lower, 0)
		if datumMeasurement < mmcSize {
			bonus = mmcSize - datumMeasurement
		}
	case models.MaterialLMC:
		lmcSize := datumNominal + math.Max(base.Upper, 0)
		if datumMeasurement > lmcSize {
			bonus = datumMeasurement - lmcSize
		}
	}

	if math.IsInf(bonus, 0) || math.IsNaN(bonus) {
		return 0, fmt.Errorf("non-finite bonus %v", bonus)
	}
	return bonus, nil
}
