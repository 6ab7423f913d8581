package models

// Feature acceptance status constants
const (
	StatusGood = "GOOD" // every measurement inside the effective band
	StatusBad  = "BAD"  // at least one measurement out of spec, or unevaluable
)

// EvaluationResult is the acceptance verdict for one feature.
type EvaluationResult struct {
	ElementID      string             `json:"element_id"`
	Nominal        float64            `json:"nominal"`
	Resolved       Band               `json:"resolved"`
	Effective      EffectiveTolerance `json:"effective"`
	Measurements   []float64          `json:"measurements"`
	Deviations     []float64          `json:"deviation"`
	Mean           float64            `json:"mean"`
	StdDev         float64            `json:"std_dev"`
	OutOfSpecCount int                `json:"out_of_spec_count"`
	Status         string             `json:"status"`
	FeatureType    string             `json:"feature_type"`
	Warnings       []string           `json:"warnings"`
	Evaluated      bool               `json:"evaluated"`
}

// IsGood reports whether the feature passed.
func (r EvaluationResult) IsGood() bool { return r.Status == StatusGood }

// CapabilitySample holds the sample statistics feeding the capability indices.
type CapabilitySample struct {
	N           int     `json:"n"`
	Mean        float64 `json:"mean"`
	SigmaShort  float64 `json:"sigma_short"`
	SigmaLong   float64 `json:"sigma_long"`
	IsNormal    bool    `json:"is_normal"`
	ADStatistic float64 `json:"ad_statistic"`
	PValue      float64 `json:"p_value"`
}

// CapabilityIndices are the short-term and long-term capability figures.
type CapabilityIndices struct {
	Cp       float64 `json:"cp"`
	Cpk      float64 `json:"cpk"`
	Pp       float64 `json:"pp"`
	Ppk      float64 `json:"ppk"`
	PPMShort float64 `json:"ppm_short"`
	PPMLong  float64 `json:"ppm_long"`
}

// ElementClass decides which side(s) of the band drive the k-index.
type ElementClass string

// Element classes
const (
	ClassStandard  ElementClass = "standard"  // two-sided
	ClassGeometric ElementClass = "geometric" // upper-bound driven
	ClassTraction  ElementClass = "traction"  // lower-bound driven
)

// ExtrapolationResult reports the outcome of growing a sample synthetically.
type ExtrapolationResult struct {
	Values       []float64 `json:"values"`
	OriginalSize int       `json:"original_size"`
	TargetSize   int       `json:"target_size"`
	Attempts     int       `json:"attempts"`
	ADStatistic  float64   `json:"ad_statistic"`
	PValue       float64   `json:"p_value"`
	Achieved     bool      `json:"achieved"`
	Extrapolated bool      `json:"extrapolated"`
}

// CapabilityResult bundles everything computed for a feature's capability.
type CapabilityResult struct {
	Class         ElementClass         `json:"element_class"`
	Sample        CapabilitySample     `json:"sample"`
	Indices       CapabilityIndices    `json:"indices"`
	Extrapolation *ExtrapolationResult `json:"extrapolation,omitempty"`
}

// OutputRecord is the flattened per-feature row handed to exporters, the
// history store and the console.
type OutputRecord struct {
	ElementID               string          `json:"element_id"`
	Batch                   string          `json:"batch,omitempty"`
	Cavity                  string          `json:"cavity,omitempty"`
	Class                   string          `json:"class,omitempty"`
	Description             string          `json:"description"`
	Nominal                 float64         `json:"nominal"`
	LowerTolerance          float64         `json:"lower_tolerance"`
	UpperTolerance          float64         `json:"upper_tolerance"`
	EffectiveLowerTolerance float64         `json:"effective_lower_tolerance"`
	EffectiveUpperTolerance float64         `json:"effective_upper_tolerance"`
	BonusTolerance          float64         `json:"bonus_tolerance"`
	DatumElementID          string          `json:"datum_element_id,omitempty"`
	Measurements            []float64       `json:"measurements"`
	Deviation               []float64       `json:"deviation"`
	Mean                    float64         `json:"mean"`
	StdDev                  float64         `json:"std_dev"`
	OutOfSpecCount          int             `json:"out_of_spec_count"`
	Status                  string          `json:"status"`
	GDTFlags                map[string]bool `json:"gdt_flags"`
	FeatureType             string          `json:"feature_type"`
	Warnings                []string        `json:"warnings"`

	Capability *CapabilityFields `json:"capability,omitempty"`
}

// CapabilityFields are present on an OutputRecord only when capability
// computation was requested.
type CapabilityFields struct {
	ElementClass      ElementClass `json:"element_class"`
	Cp                float64      `json:"cp"`
	Cpk               float64      `json:"cpk"`
	Pp                float64      `json:"pp"`
	Ppk               float64      `json:"ppk"`
	PPMShort          float64      `json:"ppm_short"`
	PPMLong           float64      `json:"ppm_long"`
	SigmaShort        float64      `json:"sigma_short"`
	SigmaLong         float64      `json:"sigma_long"`
	ADStatistic       float64      `json:"ad_statistic"`
	PValue            float64      `json:"p_value"`
	IsNormal          bool         `json:"is_normal"`
	Extrapolated      bool         `json:"extrapolated"`
	ExtrapolationSize int          `json:"extrapolation_size,omitempty"`
	NormalityAchieved bool         `json:"normality_achieved"`
}

// NewCapabilityFields flattens a capability result for output.
func NewCapabilityFields(c CapabilityResult) *CapabilityFields {
	fields := &CapabilityFields{
		ElementClass: c.Class,
		Cp:           c.Indices.Cp,
		Cpk:          c.Indices.Cpk,
		Pp:           c.Indices.Pp,
		Ppk:          c.Indices.Ppk,
		PPMShort:     c.Indices.PPMShort,
		PPMLong:      c.Indices.PPMLong,
		SigmaShort:   c.Sample.SigmaShort,
		SigmaLong:    c.Sample.SigmaLong,
		ADStatistic:  c.Sample.ADStatistic,
		PValue:       c.Sample.PValue,
		IsNormal:     c.Sample.IsNormal,
	}
	if c.Extrapolation != nil && c.Extrapolation.Extrapolated {
		fields.Extrapolated = true
		fields.ExtrapolationSize = len(c.Extrapolation.Values)
		fields.NormalityAchieved = c.Extrapolation.Achieved
	}
	return fields
}
