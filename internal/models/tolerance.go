package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Band is a tolerance band expressed as offsets relative to nominal.
type Band struct {
	Lower float64 `json:"lower" yaml:"lower"`
	Upper float64 `json:"upper" yaml:"upper"`
}

// LowerLimit returns the lower specification limit for nominal.
func (b Band) LowerLimit(nominal float64) float64 { return nominal + b.Lower }

// UpperLimit returns the upper specification limit for nominal.
func (b Band) UpperLimit(nominal float64) float64 { return nominal + b.Upper }

// Width returns the total width of the band.
func (b Band) Width() float64 { return b.Upper - b.Lower }

// limitSlack is the relative slack allowed on each limit so that a value
// written exactly on a computed limit (nominal plus bonus) is not rejected
// by rounding error.
const limitSlack = 1e-9

// Contains reports whether value lies inside the band around nominal.
// Both limits are inclusive.
func (b Band) Contains(nominal, value float64) bool {
	lower, upper := b.LowerLimit(nominal), b.UpperLimit(nominal)
	return value >= lower-slack(lower) && value <= upper+slack(upper)
}

func slack(limit float64) float64 {
	return limitSlack * math.Max(1, math.Abs(limit))
}

// EffectiveTolerance is the band actually used for acceptance after bonus
// tolerance has been applied. Base keeps the resolved band it came from so
// that recomputing the bonus never compounds.
type EffectiveTolerance struct {
	Band
	Base  Band    `json:"base" yaml:"base"`
	Bonus float64 `json:"bonus" yaml:"bonus"`
}

// NewEffectiveTolerance wraps a resolved band with no bonus applied.
func NewEffectiveTolerance(base Band) EffectiveTolerance {
	return EffectiveTolerance{Band: base, Base: base}
}

// RawToleranceKind describes which shape a raw tolerance input took.
type RawToleranceKind int

// Raw tolerance shapes
const (
	ToleranceAbsent RawToleranceKind = iota
	ToleranceScalar
	ToleranceList
	ToleranceText
)

// RawTolerance is the tolerance exactly as supplied by an input record:
// absent, a scalar, a list of numbers, or a textual expression such as
// "+0.2/-0.1".
type RawTolerance struct {
	Kind   RawToleranceKind
	Values []float64
	Text   string
}

// ScalarTolerance builds a single-value raw tolerance.
func ScalarTolerance(t float64) RawTolerance {
	return RawTolerance{Kind: ToleranceScalar, Values: []float64{t}}
}

// PairTolerance builds an explicit [lower, upper] raw tolerance.
func PairTolerance(lower, upper float64) RawTolerance {
	return RawTolerance{Kind: ToleranceList, Values: []float64{lower, upper}}
}

// ListTolerance builds a list raw tolerance of arbitrary length.
func ListTolerance(values ...float64) RawTolerance {
	return RawTolerance{Kind: ToleranceList, Values: append([]float64(nil), values...)}
}

// TextTolerance builds a textual raw tolerance.
func TextTolerance(text string) RawTolerance {
	return RawTolerance{Kind: ToleranceText, Text: text}
}

// IsEmpty reports whether no usable tolerance was supplied.
func (r RawTolerance) IsEmpty() bool {
	switch r.Kind {
	case ToleranceAbsent:
		return true
	case ToleranceList:
		return len(r.Values) == 0
	case ToleranceText:
		return strings.TrimSpace(r.Text) == ""
	}
	return false
}

// String renders the raw tolerance for logs and warnings.
func (r RawTolerance) String() string {
	switch r.Kind {
	case ToleranceScalar:
		return strconv.FormatFloat(r.Values[0], 'g', -1, 64)
	case ToleranceList:
		parts := make([]string, len(r.Values))
		for i, v := range r.Values {
			parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case ToleranceText:
		return r.Text
	}
	return "<absent>"
}

// ParseDecimal parses a number that may use a comma as decimal separator.
func ParseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", ".")
	return strconv.ParseFloat(s, 64)
}

// UnmarshalYAML accepts a scalar, a sequence of numbers, a string or null.
func (r *RawTolerance) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*r = RawTolerance{}
			return nil
		}
		if node.Tag == "!!int" || node.Tag == "!!float" {
			v, err := ParseDecimal(node.Value)
			if err != nil {
				return fmt.Errorf("invalid tolerance %q: %w", node.Value, err)
			}
			*r = ScalarTolerance(v)
			return nil
		}
		*r = TextTolerance(node.Value)
		return nil
	case yaml.SequenceNode:
		values := make([]float64, 0, len(node.Content))
		for _, item := range node.Content {
			v, err := ParseDecimal(item.Value)
			if err != nil {
				return fmt.Errorf("invalid tolerance element %q: %w", item.Value, err)
			}
			values = append(values, v)
		}
		*r = RawTolerance{Kind: ToleranceList, Values: values}
		return nil
	}
	return fmt.Errorf("unsupported tolerance node at line %d", node.Line)
}

// UnmarshalJSON accepts a number, an array of numbers, a string or null.
func (r *RawTolerance) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == "" {
		*r = RawTolerance{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var values []float64
		if err := json.Unmarshal(data, &values); err != nil {
			return fmt.Errorf("invalid tolerance list: %w", err)
		}
		*r = RawTolerance{Kind: ToleranceList, Values: values}
	case '"':
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return fmt.Errorf("invalid tolerance text: %w", err)
		}
		*r = TextTolerance(text)
	default:
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return fmt.Errorf("invalid tolerance value: %w", err)
		}
		*r = ScalarTolerance(v)
	}
	return nil
}
