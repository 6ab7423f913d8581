// Package tolerance turns raw tolerance inputs into concrete offset bands
// and applies material-condition bonus tolerance.
package tolerance

import (
	"math"
	"regexp"

	"github.com/harrison/capstudy/internal/gdt"
	"github.com/harrison/capstudy/internal/models"
)

// Resolution warnings
const (
	WarnSymmetricBilateral = "single tolerance interpreted as symmetric bilateral"
	WarnMissingTolerance   = "missing tolerance — treated as zero"
	WarnUnparseable        = "unparseable tolerance"
)

const number = `[0-9]*[.,]?[0-9]+`

var (
	// "+0.2/-0.1", "-0,1 / +0,2"
	plusMinusPair = regexp.MustCompile(`^\s*([+-]?)\s*(` + number + `)\s*/\s*([+-]?)\s*(` + number + `)\s*$`)
	// "±0.1", "+/-0.1", "+-0.1"
	symmetricText = regexp.MustCompile(`^\s*(?:±|\+/-|\+-)\s*(` + number + `)\s*$`)
	plainNumber   = regexp.MustCompile(`^\s*([+-]?)\s*(` + number + `)\s*$`)
)

// Input is everything the resolver looks at for one feature.
type Input struct {
	Raw        models.RawTolerance
	Descriptor *models.ToleranceDescriptor
	// Flags is the gdt_flags map of the description. Nil is treated as
	// "no keyword flags".
	Flags   map[string]bool
	Nominal float64
}

// Resolution is a resolved band and the warnings produced on the way.
type Resolution struct {
	Band     models.Band
	Warnings []string
}

// Resolve applies the resolution rules in priority order: explicit pair,
// single value, derivation from the descriptor magnitude, zero. The result
// always satisfies Lower <= Upper.
func Resolve(in Input) Resolution {
	var res Resolution
	desc := in.Descriptor
	if desc == nil {
		desc = &models.ToleranceDescriptor{Type: models.GDTNone, MaterialCondition: models.MaterialNone}
	}

	band, ok := fromRaw(in, desc, &res.Warnings)
	if !ok {
		band, ok = Derive(desc.Type, desc.Magnitude, desc.HasMagnitude, in.Nominal)
	}
	if !ok {
		band = models.Band{}
		res.Warnings = append(res.Warnings, WarnMissingTolerance)
	}

	res.Band = normalizeSigns(band, signSensitive(desc, in.Flags))
	return res
}

// fromRaw handles rules 1 and 2. ok is false when the raw tolerance is absent,
// empty or unparseable.
func fromRaw(in Input, desc *models.ToleranceDescriptor, warnings *[]string) (models.Band, bool) {
	raw := in.Raw
	switch raw.Kind {
	case models.ToleranceList:
		switch len(raw.Values) {
		case 0:
			return models.Band{}, false
		case 1:
			return single(raw.Values[0], desc, in.Flags, warnings), true
		default:
			return models.Band{Lower: raw.Values[0], Upper: raw.Values[1]}, true
		}
	case models.ToleranceScalar:
		return single(raw.Values[0], desc, in.Flags, warnings), true
	case models.ToleranceText:
		if raw.IsEmpty() {
			return models.Band{}, false
		}
		if band, ok := parsePair(raw.Text); ok {
			return band, true
		}
		if m := plainNumber.FindStringSubmatch(raw.Text); m != nil {
			v, err := models.ParseDecimal(m[2])
			if err == nil {
				return single(v, desc, in.Flags, warnings), true
			}
		}
		*warnings = append(*warnings, WarnUnparseable)
	}
	return models.Band{}, false
}

func parsePair(text string) (models.Band, bool) {
	if m := symmetricText.FindStringSubmatch(text); m != nil {
		v, err := models.ParseDecimal(m[1])
		if err != nil {
			return models.Band{}, false
		}
		return models.Band{Lower: -v, Upper: v}, true
	}

	m := plusMinusPair.FindStringSubmatch(text)
	if m == nil {
		return models.Band{}, false
	}
	a, errA := models.ParseDecimal(m[2])
	b, errB := models.ParseDecimal(m[4])
	if errA != nil || errB != nil {
		return models.Band{}, false
	}
	if m[1] == "-" {
		a = -a
	}
	if m[3] == "-" {
		b = -b
	}
	return models.Band{Lower: math.Min(a, b), Upper: math.Max(a, b)}, true
}

// single resolves a lone tolerance value t.
func single(t float64, desc *models.ToleranceDescriptor, flags map[string]bool, warnings *[]string) models.Band {
	t = math.Abs(t)
	if oneSided(desc, flags) {
		return models.Band{Lower: 0, Upper: t}
	}
	*warnings = append(*warnings, WarnSymmetricBilateral)
	return models.Band{Lower: -t, Upper: t}
}

var oneSidedTypes = []models.GDTType{
	models.GDTProfile,
	models.GDTCircularity,
	models.GDTCylindricity,
	models.GDTStraightness,
	models.GDTFlatness,
}

func oneSided(desc *models.ToleranceDescriptor, flags map[string]bool) bool {
	if desc.MaterialCondition != models.MaterialNone && desc.MaterialCondition != "" {
		return true
	}
	if flags[gdt.FlagMin] || flags[gdt.FlagMMC] || flags[gdt.FlagLMC] {
		return true
	}
	for _, typ := range oneSidedTypes {
		if desc.Type == typ || flags[gdt.FlagKey(typ)] {
			return true
		}
	}
	return false
}

var signSensitiveTypes = []models.GDTType{
	models.GDTProfile,
	models.GDTFlatness,
	models.GDTCircularity,
	models.GDTParallelism,
}

func signSensitive(desc *models.ToleranceDescriptor, flags map[string]bool) bool {
	if desc.MaterialCondition.GrantsBonus() || flags[gdt.FlagMMC] || flags[gdt.FlagLMC] {
		return true
	}
	for _, typ := range signSensitiveTypes {
		if desc.Type == typ || flags[gdt.FlagKey(typ)] {
			return true
		}
	}
	return false
}

// normalizeSigns forces a positive lower offset negative and a negative upper
// offset to zero when sensitive is set, then orders the pair.
func normalizeSigns(b models.Band, sensitive bool) models.Band {
	if sensitive {
		if b.Lower > 0 {
			b.Lower = -b.Lower
		}
		if b.Upper < 0 {
			b.Upper = 0
		}
	}
	if b.Lower > b.Upper {
		b.Lower, b.Upper = b.Upper, b.Lower
	}
	return b
}
