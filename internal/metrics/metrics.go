// Package metrics tracks sync loop counters with Prometheus collectors.
//
// The collectors are written in the text exposition format next to the other
// artifacts, for pickup by a node_exporter textfile collector, and can also
// be scraped through [Metrics.Handler] when the status server is enabled.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "livesync"

// Metrics holds the collectors of a single sync session.
//
// Each Metrics owns its registry so several sessions can coexist in one
// process (tests, embedded use).
type Metrics struct {
	registry *prometheus.Registry

	cycles         *prometheus.CounterVec
	records        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	lastSync       prometheus.Gauge
	archiveEntries *prometheus.GaugeVec
}

// New creates and registers the sync collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "cycles_total",
				Help:      "Number of completed sync cycles by resulting status.",
			}, []string{"status"},
		),
		records: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "records_total",
				Help:      "Number of records fetched by stream.",
			}, []string{"stream"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "fetch_duration_seconds",
				Help:      "Round-trip time of successful data requests.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		lastSync: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sync",
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful sync cycle.",
			},
		),
		archiveEntries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "archive",
				Name:      "batches",
				Help:      "Number of batches currently kept per archive.",
			}, []string{"stream"},
		),
	}

	m.registry.MustRegister(m.cycles, m.records, m.fetchDuration, m.lastSync, m.archiveEntries)
	return m
}

// Registry returns the registry holding the sync collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the session collectors in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCycle counts a finished cycle under its status.
func (m *Metrics) ObserveCycle(status string) {
	m.cycles.WithLabelValues(status).Inc()
}

// AddRecords adds n fetched records for stream.
func (m *Metrics) AddRecords(stream string, n int) {
	m.records.WithLabelValues(stream).Add(float64(n))
}

// ObserveFetch records the latency of a successful data request.
func (m *Metrics) ObserveFetch(d time.Duration) {
	m.fetchDuration.Observe(d.Seconds())
}

// SetLastSync records the time of the last successful cycle.
func (m *Metrics) SetLastSync(t time.Time) {
	m.lastSync.Set(float64(t.UnixNano()) / 1e9)
}

// SetArchiveEntries records the current size of an archive.
func (m *Metrics) SetArchiveEntries(stream string, n int) {
	m.archiveEntries.WithLabelValues(stream).Set(float64(n))
}

// WriteTextfile writes all collectors to path in the text exposition format.
// The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("metrics: write textfile: %w", err)
	}
	return nil
}
