package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initRecallMetrics initializes recall-path metrics.
func (m *Manager) initRecallMetrics(cfg Config) {
	m.recallRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_recall_requests_total",
			Help: "Total number of recall requests by outcome",
		},
		[]string{"status"},
	)

	m.recallDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuemap_recall_duration_seconds",
			Help:    "Recall query latency in seconds",
			Buckets: cfg.RecallDurationBuckets,
		},
		[]string{"status"},
	)

	m.recallHits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuemap_recall_hits",
			Help:    "Number of hits returned per recall query",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50, 100},
		},
		[]string{},
	)

	m.patternCompletions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_pattern_completions_total",
			Help: "Total number of recall queries that triggered pattern completion",
		},
		[]string{},
	)

	m.registry.MustRegister(m.recallRequests)
	m.registry.MustRegister(m.recallDuration)
	m.registry.MustRegister(m.recallHits)
	m.registry.MustRegister(m.patternCompletions)
}

// RecordRecall records a recall request's outcome and latency.
func (m *Manager) RecordRecall(status string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.recallRequests.WithLabelValues(status).Inc()
	m.recallDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordRecallHits records the number of hits a recall query produced.
func (m *Manager) RecordRecallHits(count int) {
	if !m.enabled {
		return
	}
	m.recallHits.WithLabelValues().Observe(float64(count))
}

// RecordPatternCompletion records that a recall query triggered pattern completion.
func (m *Manager) RecordPatternCompletion() {
	if !m.enabled {
		return
	}
	m.patternCompletions.WithLabelValues().Inc()
}
