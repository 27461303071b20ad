// Package metrics exposes validation run results as Prometheus gauges written to a
// node-exporter textfile.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/jonathan/sitecheck/internal/types"
)

// Metrics holds the gauges of one run on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	Pages           *prometheus.GaugeVec
	Issues          *prometheus.GaugeVec
	LinkPages       *prometheus.GaugeVec
	ImageReferences prometheus.Gauge
	Passed          prometheus.Gauge
	LastRun         prometheus.Gauge
	RunsTotal       *prometheus.CounterVec
}

// New registers the gauges on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &Metrics{
		registry: registry,
		Pages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitecheck_pages",
			Help: "Pages found by the last scan",
		}, []string{"indexable"}),
		Issues: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitecheck_issues",
			Help: "Issues reported by the last run",
		}, []string{"severity", "category"}),
		LinkPages: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "sitecheck_link_pages",
			Help: "Pages by link graph classification",
		}, []string{"class"}), // orphan, weak, dead_end
		ImageReferences: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitecheck_image_references",
			Help: "Image references found in source files",
		}),
		Passed: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitecheck_run_passed",
			Help: "1 if the last run passed its policy, 0 otherwise",
		}),
		LastRun: factory.NewGauge(prometheus.GaugeOpts{
			Name: "sitecheck_last_run_timestamp_seconds",
			Help: "Unix time of the last completed run",
		}),
		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitecheck_runs_total",
			Help: "Completed runs by outcome",
		}, []string{"outcome"}), // passed, failed, fatal
	}
}

// Registry returns the registry holding the gauges.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Record sets every gauge from result.
func (m *Metrics) Record(result *types.ValidationResult) {
	stats := result.Stats
	m.Pages.WithLabelValues("true").Set(float64(stats.IndexablePages))
	m.Pages.WithLabelValues("false").Set(float64(stats.TotalPages - stats.IndexablePages))

	m.Issues.Reset()
	for _, bucket := range [][]types.Issue{result.Errors, result.Warnings} {
		for _, issue := range bucket {
			m.Issues.WithLabelValues(string(issue.Severity), string(issue.Category)).Inc()
		}
	}

	m.LinkPages.WithLabelValues("orphan").Set(float64(stats.OrphanPages))
	m.LinkPages.WithLabelValues("weak").Set(float64(stats.WeakPages))
	m.LinkPages.WithLabelValues("dead_end").Set(float64(stats.DeadEndPages))
	m.ImageReferences.Set(float64(stats.ImageReferences))
	m.LastRun.Set(float64(result.GeneratedAt.Unix()))

	if result.Passed {
		m.Passed.Set(1)
		m.RunsTotal.WithLabelValues("passed").Inc()
	} else {
		m.Passed.Set(0)
		m.RunsTotal.WithLabelValues("failed").Inc()
	}
}

// RecordFatal counts a run that could not complete.
func (m *Metrics) RecordFatal() {
	m.Passed.Set(0)
	m.RunsTotal.WithLabelValues("fatal").Inc()
}

// WriteTextfile writes the registry in text exposition format, replacing path atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile %s: %w", path, err)
	}
	return nil
}
