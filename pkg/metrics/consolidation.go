package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initConsolidationMetrics initializes consolidation-sweep metrics.
func (m *Manager) initConsolidationMetrics(cfg Config) {
	m.consolidationRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_consolidation_runs_total",
			Help: "Total number of consolidation sweeps by outcome",
		},
		[]string{"status"},
	)

	m.consolidationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuemap_consolidation_duration_seconds",
			Help:    "Consolidation sweep duration in seconds",
			Buckets: cfg.ConsolidationDurationBuckets,
		},
		[]string{},
	)

	m.gistsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_gists_created_total",
			Help: "Total number of gist records created by consolidation",
		},
		[]string{},
	)

	m.registry.MustRegister(m.consolidationRuns)
	m.registry.MustRegister(m.consolidationDuration)
	m.registry.MustRegister(m.gistsCreated)
}

// RecordConsolidationRun records a consolidation sweep outcome.
func (m *Manager) RecordConsolidationRun(status string) {
	if !m.enabled {
		return
	}
	m.consolidationRuns.WithLabelValues(status).Inc()
}

// RecordConsolidationDuration records the wall time of a consolidation sweep.
func (m *Manager) RecordConsolidationDuration(duration time.Duration) {
	if !m.enabled {
		return
	}
	m.consolidationDuration.WithLabelValues().Observe(duration.Seconds())
}

// RecordGistsCreated records the number of gist records one sweep created.
func (m *Manager) RecordGistsCreated(count int) {
	if !m.enabled || count <= 0 {
		return
	}
	m.gistsCreated.WithLabelValues().Add(float64(count))
}
