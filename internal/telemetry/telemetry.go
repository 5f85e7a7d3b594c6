// Package telemetry exposes the counters and timings of an audit run in
// Prometheus format.
//
// Each Recorder owns its own registry instead of the global default one, so
// several runs (and parallel tests) never share series.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orgaudit"

// Recorder collects run metrics.
type Recorder struct {
	registry  *prometheus.Registry
	records   *prometheus.CounterVec
	findings  *prometheus.CounterVec
	phases    *prometheus.GaugeVec
	employees prometheus.Gauge
}

// New creates a Recorder with a fresh registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		records: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Roster lines processed, broken down by outcome (accepted or skipped).",
		}, []string{"outcome"}),
		findings: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Report findings broken down by report section.",
		}, []string{"section"}),
		phases: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "phase_duration_seconds",
			Help:      "Wall-clock duration of each analysis phase of the last run.",
		}, []string{"phase"}),
		employees: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "employees",
			Help:      "Employees held in the registry after parsing.",
		}),
	}
}

// Registry returns the underlying Prometheus registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// RecordParse adds the outcome of a roster parse.
func (r *Recorder) RecordParse(accepted, skipped int) {
	r.records.WithLabelValues("accepted").Add(float64(accepted))
	r.records.WithLabelValues("skipped").Add(float64(skipped))
}

// SetEmployees records the registry size.
func (r *Recorder) SetEmployees(n int) {
	r.employees.Set(float64(n))
}

// RecordFindings adds n findings to section.
func (r *Recorder) RecordFindings(section string, n int) {
	r.findings.WithLabelValues(section).Add(float64(n))
}

// ObservePhase records how long phase took.
func (r *Recorder) ObservePhase(phase string, d time.Duration) {
	r.phases.WithLabelValues(phase).Set(d.Seconds())
}

// Time runs fn and records its duration under phase.
func (r *Recorder) Time(phase string, fn func() error) error {
	start := time.Now()
	err := fn()
	r.ObservePhase(phase, time.Since(start))
	return err
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path in the text exposition
// format, for pickup by a node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
