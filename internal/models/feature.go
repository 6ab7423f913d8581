package models

// InputRecord is one feature row as delivered by a loader (file, sheet, UI).
// Pointer fields distinguish "not supplied" from zero.
type InputRecord struct {
	ElementID        string       `json:"element_id" yaml:"element_id"`
	Batch            string       `json:"batch,omitempty" yaml:"batch,omitempty"`
	Cavity           string       `json:"cavity,omitempty" yaml:"cavity,omitempty"`
	Class            string       `json:"class,omitempty" yaml:"class,omitempty"`
	Description      string       `json:"description" yaml:"description"`
	Nominal          *float64     `json:"nominal" yaml:"nominal"`
	Tolerance        RawTolerance `json:"tolerance" yaml:"tolerance"`
	Measurements     []*float64   `json:"measurements" yaml:"measurements"`
	DatumElementID   string       `json:"datum_element_id,omitempty" yaml:"datum_element_id,omitempty"`
	DatumNominal     *float64     `json:"datum_nominal,omitempty" yaml:"datum_nominal,omitempty"`
	DatumMeasurement *float64     `json:"datum_measurement,omitempty" yaml:"datum_measurement,omitempty"`
}

// Values returns the supplied measurements in order, skipping empty cells.
func (r InputRecord) Values() []float64 {
	values := make([]float64, 0, len(r.Measurements))
	for _, m := range r.Measurements {
		if m != nil {
			values = append(values, *m)
		}
	}
	return values
}

// Datum carries the linked datum feature's nominal and actual size.
type Datum struct {
	ElementID   string
	Nominal     float64
	Measurement float64
}

// Datum returns the linked datum data when both values were supplied.
func (r InputRecord) Datum() *Datum {
	if r.DatumNominal == nil || r.DatumMeasurement == nil {
		return nil
	}
	return &Datum{
		ElementID:   r.DatumElementID,
		Nominal:     *r.DatumNominal,
		Measurement: *r.DatumMeasurement,
	}
}

// Feature is a validated input record ready for evaluation.
type Feature struct {
	ElementID    string
	Batch        string
	Cavity       string
	Class        string
	Description  string
	Nominal      float64
	Descriptor   *ToleranceDescriptor
	Measurements []float64
	Datum        *Datum
}

// Float returns a pointer to v. Handy for building records in code and tests.
func Float(v float64) *float64 { return &v }

// Floats converts plain values into optional measurement cells.
func Floats(values ...float64) []*float64 {
	cells := make([]*float64, len(values))
	for i := range values {
		cells[i] = Float(values[i])
	}
	return cells
}
