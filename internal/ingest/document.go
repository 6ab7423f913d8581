package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/harrison/capstudy/internal/models"
)

// decimal is a number cell that also accepts strings with a decimal comma
// ("0,05").
type decimal float64

func (d *decimal) set(s string) error {
	v, err := models.ParseDecimal(s)
	if err != nil {
		return fmt.Errorf("invalid number %q", s)
	}
	*d = decimal(v)
	return nil
}

// UnmarshalYAML accepts numeric and string scalars.
func (d *decimal) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number", node.Line)
	}
	return d.set(node.Value)
}

// UnmarshalJSON accepts numbers and strings.
func (d *decimal) UnmarshalJSON(data []byte) error {
	var s string
	if len(data) > 0 && data[0] == '"' {
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
	} else {
		s = string(data)
	}
	return d.set(s)
}

func (d *decimal) ptr() *float64 {
	if d == nil {
		return nil
	}
	v := float64(*d)
	return &v
}

// documentRecord is the on-disk shape of one record in YAML and JSON inputs.
type documentRecord struct {
	ElementID        string              `json:"element_id" yaml:"element_id"`
	Batch            string              `json:"batch" yaml:"batch"`
	Cavity           string              `json:"cavity" yaml:"cavity"`
	Class            string              `json:"class" yaml:"class"`
	Description      string              `json:"description" yaml:"description"`
	Nominal          *decimal            `json:"nominal" yaml:"nominal"`
	Tolerance        models.RawTolerance `json:"tolerance" yaml:"tolerance"`
	Measurements     []*decimal          `json:"measurements" yaml:"measurements"`
	DatumElementID   string              `json:"datum_element_id" yaml:"datum_element_id"`
	DatumNominal     *decimal            `json:"datum_nominal" yaml:"datum_nominal"`
	DatumMeasurement *decimal            `json:"datum_measurement" yaml:"datum_measurement"`
}

func (d documentRecord) record() models.InputRecord {
	measurements := make([]*float64, len(d.Measurements))
	for i, m := range d.Measurements {
		measurements[i] = m.ptr()
	}
	return models.InputRecord{
		ElementID:        strings.TrimSpace(d.ElementID),
		Batch:            d.Batch,
		Cavity:           d.Cavity,
		Class:            d.Class,
		Description:      d.Description,
		Nominal:          d.Nominal.ptr(),
		Tolerance:        d.Tolerance,
		Measurements:     measurements,
		DatumElementID:   d.DatumElementID,
		DatumNominal:     d.DatumNominal.ptr(),
		DatumMeasurement: d.DatumMeasurement.ptr(),
	}
}

// document is the wrapped form: a mapping with a records list.
type document struct {
	Records []documentRecord `json:"records" yaml:"records"`
}

// documentLoader reads YAML or JSON. Both a bare list of records and a
// mapping with a "records" key are accepted.
type documentLoader struct {
	json bool
}

func (l documentLoader) Load(r io.Reader) ([]models.InputRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}

	var rows []documentRecord
	if l.json {
		rows, err = decodeJSON(data)
	} else {
		rows, err = decodeYAML(data)
	}
	if err != nil {
		return nil, err
	}

	records := make([]models.InputRecord, len(rows))
	for i, row := range rows {
		records[i] = row.record()
	}
	return records, nil
}

func decodeJSON(data []byte) ([]documentRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var rows []documentRecord
		if err := json.Unmarshal(trimmed, &rows); err != nil {
			return nil, fmt.Errorf("failed to decode JSON records: %w", err)
		}
		return rows, nil
	}
	var doc document
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON document: %w", err)
	}
	return doc.Records, nil
}

func decodeYAML(data []byte) ([]documentRecord, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	node := root.Content[0]
	switch node.Kind {
	case yaml.SequenceNode:
		var rows []documentRecord
		if err := node.Decode(&rows); err != nil {
			return nil, fmt.Errorf("failed to decode YAML records: %w", err)
		}
		return rows, nil
	case yaml.MappingNode:
		var doc document
		if err := node.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode YAML document: %w", err)
		}
		return doc.Records, nil
	}
	return nil, fmt.Errorf("line %d: expected a list of records or a records mapping", node.Line)
}
