// Package metrics counts what each ingestion run did and exports the
// counters in the Prometheus text format for the node exporter's
// textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pyhub-apps/nh3ingest/pkg/batch"
	"github.com/pyhub-apps/nh3ingest/pkg/store"
)

const namespace = "nh3ingest"

// Metrics holds the run counters on a private registry
type Metrics struct {
	registry *prometheus.Registry

	Files            *prometheus.CounterVec
	Attempts         *prometheus.CounterVec
	CoercionFailures *prometheus.CounterVec
	RowsExtracted    prometheus.Counter
	RowsSnapshotted  prometheus.Counter
	RowsPersisted    prometheus.Counter
	RowsFiltered     prometheus.Counter
	Runs             *prometheus.CounterVec
	LastRunTimestamp prometheus.Gauge
	LastRunDuration  prometheus.Gauge
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_total",
			Help:      "PDF files processed, by status (processed or skipped).",
		}, []string{"status"}),
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "extraction_attempts_total",
			Help:      "Extraction attempts by strategy, encoding and outcome.",
		}, []string{"strategy", "encoding", "outcome"}),
		CoercionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "coercion_failures_total",
			Help:      "Cells that could not be coerced to their column type.",
		}, []string{"field"}),
		RowsExtracted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_extracted_total",
			Help:      "Rows produced by the cleaner.",
		}),
		RowsSnapshotted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_snapshotted_total",
			Help:      "Rows written to the interchange snapshot.",
		}),
		RowsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_persisted_total",
			Help:      "Rows written to the measurement table.",
		}),
		RowsFiltered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_filtered_total",
			Help:      "Rows dropped before persistence for lacking a positive NH3 reading.",
		}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Batch runs by result (ok, no_data or error).",
		}, []string{"result"}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run finished.",
		}),
		LastRunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	m.registry.MustRegister(
		m.Files, m.Attempts, m.CoercionFailures,
		m.RowsExtracted, m.RowsSnapshotted, m.RowsPersisted, m.RowsFiltered,
		m.Runs, m.LastRunTimestamp, m.LastRunDuration,
	)
	return m
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveBatch records the per-file results of a run
func (m *Metrics) ObserveBatch(sum batch.Summary) {
	for _, f := range sum.Files {
		status := "processed"
		if f.Skipped() {
			status = "skipped"
		}
		m.Files.WithLabelValues(status).Inc()

		for _, a := range f.Extraction.Attempts {
			m.Attempts.WithLabelValues(a.Strategy, string(a.Encoding), a.Outcome.String()).Inc()
		}
		for field, n := range f.Cleaning.Failures {
			m.CoercionFailures.WithLabelValues(field).Add(float64(n))
		}
		m.RowsExtracted.Add(float64(len(f.Records)))
	}
	if !sum.Finished.IsZero() {
		m.LastRunDuration.Set(sum.Finished.Sub(sum.Started).Seconds())
	}
}

// ObserveSnapshot records the rows written to the interchange file
func (m *Metrics) ObserveSnapshot(snap batch.Snapshot) {
	m.RowsSnapshotted.Add(float64(snap.Rows))
}

// ObserveLoad records a persistence result
func (m *Metrics) ObserveLoad(res store.LoadResult) {
	m.RowsPersisted.Add(float64(res.Rows))
	m.RowsFiltered.Add(float64(res.Filtered))
}

// ObserveRun records how a run ended
func (m *Metrics) ObserveRun(result string, finished time.Time) {
	m.Runs.WithLabelValues(result).Inc()
	m.LastRunTimestamp.Set(float64(finished.Unix()))
}

// WriteTextfile writes every metric to path atomically
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
