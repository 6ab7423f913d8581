package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/harrison/capstudy/internal/models"
)

// column is one field of the per-feature results table.
type column struct {
	header string
	value  func(models.OutputRecord) string
	// number is set when the cell should be written as a number in XLSX
	number func(models.OutputRecord) (float64, bool)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func numList(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = num(v)
	}
	return strings.Join(parts, ";")
}

// activeFlags lists the GD&T flag keys that are set, sorted.
func activeFlags(flags map[string]bool) string {
	var keys []string
	for k, set := range flags {
		if set {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return strings.Join(keys, ";")
}

func textCol(header string, f func(models.OutputRecord) string) column {
	return column{header: header, value: f}
}

func numCol(header string, f func(models.OutputRecord) float64) column {
	return column{
		header: header,
		value:  func(r models.OutputRecord) string { return num(f(r)) },
		number: func(r models.OutputRecord) (float64, bool) { return f(r), true },
	}
}

// capCol reads a capability field; records without capability get an empty
// cell.
func capCol(header string, f func(*models.CapabilityFields) string) column {
	return column{header: header, value: func(r models.OutputRecord) string {
		if r.Capability == nil {
			return ""
		}
		return f(r.Capability)
	}}
}

func capNumCol(header string, f func(*models.CapabilityFields) float64) column {
	return column{
		header: header,
		value: func(r models.OutputRecord) string {
			if r.Capability == nil {
				return ""
			}
			return num(f(r.Capability))
		},
		number: func(r models.OutputRecord) (float64, bool) {
			if r.Capability == nil {
				return 0, false
			}
			return f(r.Capability), true
		},
	}
}

var baseColumns = []column{
	textCol("element_id", func(r models.OutputRecord) string { return r.ElementID }),
	textCol("batch", func(r models.OutputRecord) string { return r.Batch }),
	textCol("cavity", func(r models.OutputRecord) string { return r.Cavity }),
	textCol("class", func(r models.OutputRecord) string { return r.Class }),
	textCol("description", func(r models.OutputRecord) string { return r.Description }),
	numCol("nominal", func(r models.OutputRecord) float64 { return r.Nominal }),
	numCol("lower_tolerance", func(r models.OutputRecord) float64 { return r.LowerTolerance }),
	numCol("upper_tolerance", func(r models.OutputRecord) float64 { return r.UpperTolerance }),
	numCol("effective_lower_tolerance", func(r models.OutputRecord) float64 { return r.EffectiveLowerTolerance }),
	numCol("effective_upper_tolerance", func(r models.OutputRecord) float64 { return r.EffectiveUpperTolerance }),
	numCol("bonus_tolerance", func(r models.OutputRecord) float64 { return r.BonusTolerance }),
	textCol("datum_element_id", func(r models.OutputRecord) string { return r.DatumElementID }),
	textCol("measurements", func(r models.OutputRecord) string { return numList(r.Measurements) }),
	textCol("deviation", func(r models.OutputRecord) string { return numList(r.Deviation) }),
	numCol("mean", func(r models.OutputRecord) float64 { return r.Mean }),
	numCol("std_dev", func(r models.OutputRecord) float64 { return r.StdDev }),
	numCol("out_of_spec_count", func(r models.OutputRecord) float64 { return float64(r.OutOfSpecCount) }),
	textCol("status", func(r models.OutputRecord) string { return r.Status }),
	textCol("feature_type", func(r models.OutputRecord) string { return r.FeatureType }),
	textCol("gdt_flags", func(r models.OutputRecord) string { return activeFlags(r.GDTFlags) }),
	textCol("warnings", func(r models.OutputRecord) string { return strings.Join(r.Warnings, "; ") }),
}

var capabilityColumns = []column{
	capCol("element_class", func(c *models.CapabilityFields) string { return string(c.ElementClass) }),
	capNumCol("cp", func(c *models.CapabilityFields) float64 { return c.Cp }),
	capNumCol("cpk", func(c *models.CapabilityFields) float64 { return c.Cpk }),
	capNumCol("pp", func(c *models.CapabilityFields) float64 { return c.Pp }),
	capNumCol("ppk", func(c *models.CapabilityFields) float64 { return c.Ppk }),
	capNumCol("ppm_short", func(c *models.CapabilityFields) float64 { return c.PPMShort }),
	capNumCol("ppm_long", func(c *models.CapabilityFields) float64 { return c.PPMLong }),
	capNumCol("sigma_short", func(c *models.CapabilityFields) float64 { return c.SigmaShort }),
	capNumCol("sigma_long", func(c *models.CapabilityFields) float64 { return c.SigmaLong }),
	capNumCol("ad_statistic", func(c *models.CapabilityFields) float64 { return c.ADStatistic }),
	capNumCol("p_value", func(c *models.CapabilityFields) float64 { return c.PValue }),
	capCol("is_normal", func(c *models.CapabilityFields) string { return strconv.FormatBool(c.IsNormal) }),
	capCol("extrapolated", func(c *models.CapabilityFields) string { return strconv.FormatBool(c.Extrapolated) }),
	capNumCol("extrapolation_size", func(c *models.CapabilityFields) float64 { return float64(c.ExtrapolationSize) }),
	capCol("normality_achieved", func(c *models.CapabilityFields) string { return strconv.FormatBool(c.NormalityAchieved) }),
}

// columnsFor returns the base columns, plus the capability columns when any
// record carries capability figures.
func columnsFor(records []models.OutputRecord) []column {
	for _, r := range records {
		if r.Capability != nil {
			cols := make([]column, 0, len(baseColumns)+len(capabilityColumns))
			cols = append(cols, baseColumns...)
			return append(cols, capabilityColumns...)
		}
	}
	return baseColumns
}

func headers(cols []column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.header
	}
	return out
}

func row(cols []column, r models.OutputRecord) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.value(r)
	}
	return out
}
