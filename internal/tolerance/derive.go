package tolerance

import "github.com/harrison/capstudy/internal/models"

// Derive converts a descriptor magnitude m into a band for its tolerance
// type. ok is false when there is no magnitude or the type is none.
//
//	form and runout            (0, m)
//	orientation, position      (-m, m); orientation at nominal 0 is (0, m)
//	profile                    (-m/2, m/2), bilateral keyword ignored
//	concentricity, symmetry    (-m, m)
func Derive(typ models.GDTType, m float64, hasMagnitude bool, nominal float64) (models.Band, bool) {
	if !hasMagnitude {
		return models.Band{}, false
	}

	switch {
	case typ.IsForm():
		return models.Band{Lower: 0, Upper: m}, true
	case typ.IsOrientation():
		if nominal == 0 {
			return models.Band{Lower: 0, Upper: m}, true
		}
		return models.Band{Lower: -m, Upper: m}, true
	case typ == models.GDTPosition:
		return models.Band{Lower: -m, Upper: m}, true
	case typ == models.GDTProfile:
		return models.Band{Lower: -m / 2, Upper: m / 2}, true
	case typ == models.GDTConcentricity, typ == models.GDTSymmetry:
		return models.Band{Lower: -m, Upper: m}, true
	}
	return models.Band{}, false
}
