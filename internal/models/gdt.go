package models

// GDTType identifies a geometric tolerance characteristic.
// The set is closed: parsers must only produce the constants below.
type GDTType string

// Geometric tolerance types
const (
	GDTNone             GDTType = "none"
	GDTPosition         GDTType = "position"
	GDTFlatness         GDTType = "flatness"
	GDTParallelism      GDTType = "parallelism"
	GDTPerpendicularity GDTType = "perpendicularity"
	GDTAngularity       GDTType = "angularity"
	GDTProfile          GDTType = "profile"
	GDTCircularity      GDTType = "circularity"
	GDTCylindricity     GDTType = "cylindricity"
	GDTStraightness     GDTType = "straightness"
	GDTConcentricity    GDTType = "concentricity"
	GDTSymmetry         GDTType = "symmetry"
	GDTRunout           GDTType = "runout"
	GDTTotalRunout      GDTType = "total-runout"
)

// GDTPriority is the order in which type patterns are tried against a
// description. The first match wins, so compound names (total runout) must
// precede their prefixes (runout).
var GDTPriority = []GDTType{
	GDTTotalRunout,
	GDTRunout,
	GDTPosition,
	GDTProfile,
	GDTFlatness,
	GDTParallelism,
	GDTPerpendicularity,
	GDTAngularity,
	GDTCircularity,
	GDTCylindricity,
	GDTStraightness,
	GDTConcentricity,
	GDTSymmetry,
}

// IsValid reports whether t is one of the known tolerance types.
func (t GDTType) IsValid() bool {
	if t == GDTNone {
		return true
	}
	for _, known := range GDTPriority {
		if t == known {
			return true
		}
	}
	return false
}

// IsForm reports whether t is a form or runout tolerance whose band starts
// at zero (the feature can only deviate in one direction).
func (t GDTType) IsForm() bool {
	switch t {
	case GDTFlatness, GDTCircularity, GDTCylindricity, GDTStraightness, GDTRunout, GDTTotalRunout:
		return true
	}
	return false
}

// IsOrientation reports whether t is an orientation tolerance.
func (t GDTType) IsOrientation() bool {
	switch t {
	case GDTParallelism, GDTPerpendicularity, GDTAngularity:
		return true
	}
	return false
}

// MaterialCondition is the material-condition modifier of a callout.
type MaterialCondition string

// Material condition modifiers
const (
	MaterialNone MaterialCondition = "none"
	MaterialMMC  MaterialCondition = "MMC"
	MaterialLMC  MaterialCondition = "LMC"
	MaterialRFS  MaterialCondition = "RFS"
)

// GrantsBonus reports whether the modifier makes the tolerance depend on the
// actual size of a datum feature.
func (mc MaterialCondition) GrantsBonus() bool {
	return mc == MaterialMMC || mc == MaterialLMC
}

// ToleranceDescriptor is the structured form of a free-text tolerance callout.
// Descriptors are shared through the parser cache and must not be mutated.
type ToleranceDescriptor struct {
	Source            string            `json:"source" yaml:"source"`
	Type              GDTType           `json:"type" yaml:"type"`
	Magnitude         float64           `json:"magnitude,omitempty" yaml:"magnitude,omitempty"`
	HasMagnitude      bool              `json:"has_magnitude" yaml:"has_magnitude"`
	MaterialCondition MaterialCondition `json:"material_condition" yaml:"material_condition"`
	DatumRefs         []string          `json:"datum_refs,omitempty" yaml:"datum_refs,omitempty"`
	BilateralProfile  bool              `json:"bilateral_profile" yaml:"bilateral_profile"`
	Warnings          []string          `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// FeatureType returns the label used in result records: the tolerance type,
// or "dimension" for plain linear features.
func (d *ToleranceDescriptor) FeatureType() string {
	if d == nil || d.Type == GDTNone || d.Type == "" {
		return "dimension"
	}
	return string(d.Type)
}
