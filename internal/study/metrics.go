package study

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/harrison/capstudy/internal/filelock"
	"github.com/harrison/capstudy/internal/models"
)

// Metrics collects study counters on a private registry so that several
// runners (and tests) never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	studies        prometheus.Counter
	features       *prometheus.CounterVec
	outOfSpec      prometheus.Counter
	extrapolations *prometheus.CounterVec
	cpk            prometheus.Histogram
	duration       prometheus.Histogram
}

// NewMetrics creates and registers the study metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		studies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "capstudy",
			Name:      "studies_total",
			Help:      "Number of studies run.",
		}),
		features: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstudy",
			Name:      "features_total",
			Help:      "Features evaluated, by acceptance status.",
		}, []string{"status"}),
		outOfSpec: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "capstudy",
			Name:      "out_of_spec_measurements_total",
			Help:      "Measurements outside their effective tolerance band.",
		}),
		extrapolations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "capstudy",
			Name:      "extrapolations_total",
			Help:      "Sample extrapolations, by whether normality was achieved.",
		}, []string{"achieved"}),
		cpk: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "capstudy",
			Name:      "cpk",
			Help:      "Distribution of short-term Cpk values.",
			Buckets:   []float64{0.5, 0.67, 1.0, 1.33, 1.67, 2.0, 3.0},
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "capstudy",
			Name:      "feature_duration_seconds",
			Help:      "Time spent analysing a single feature.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	m.registry.MustRegister(m.studies, m.features, m.outOfSpec, m.extrapolations, m.cpk, m.duration)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) observeFeature(rec models.OutputRecord, seconds float64) {
	if m == nil {
		return
	}
	m.features.WithLabelValues(rec.Status).Inc()
	m.outOfSpec.Add(float64(rec.OutOfSpecCount))
	m.duration.Observe(seconds)
	if rec.Capability == nil {
		return
	}
	m.cpk.Observe(rec.Capability.Cpk)
	if rec.Capability.Extrapolated {
		m.extrapolations.WithLabelValues(strconv.FormatBool(rec.Capability.NormalityAchieved)).Inc()
	}
}

func (m *Metrics) observeStudy() {
	if m == nil {
		return
	}
	m.studies.Inc()
}

// WriteTextfile writes the current metric values in the text exposition
// format, for node_exporter's textfile collector. The file is replaced
// atomically under its lock so concurrent studies never interleave.
func (m *Metrics) WriteTextfile(ctx context.Context, path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	var buf bytes.Buffer
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(&buf, mf); err != nil {
			return fmt.Errorf("failed to encode metric %s: %w", mf.GetName(), err)
		}
	}
	if err := filelock.WriteBytes(ctx, path, buf.Bytes()); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
