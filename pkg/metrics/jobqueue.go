package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// initJobMetrics initializes background job queue metrics.
func (m *Manager) initJobMetrics(cfg Config) {
	m.jobExecutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_job_executions_total",
			Help: "Total number of background job executions by kind and status",
		},
		[]string{"kind", "status"},
	)

	m.jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cuemap_job_duration_seconds",
			Help:    "Background job execution duration in seconds",
			Buckets: cfg.JobDurationBuckets,
		},
		[]string{"kind"},
	)

	m.jobDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cuemap_job_dropped_total",
			Help: "Total number of background jobs dropped due to queue saturation",
		},
		[]string{"kind"},
	)

	m.queueDepth = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cuemap_job_queue_depth",
			Help: "Current depth of the per-tenant background job queue",
		},
		[]string{"tenant_id"},
	)

	m.registry.MustRegister(m.jobExecutions)
	m.registry.MustRegister(m.jobDuration)
	m.registry.MustRegister(m.jobDropped)
	m.registry.MustRegister(m.queueDepth)
}

// RecordJobExecution records a background job execution outcome.
func (m *Manager) RecordJobExecution(kind, status string) {
	if !m.enabled {
		return
	}
	m.jobExecutions.WithLabelValues(kind, status).Inc()
}

// RecordJobDuration records how long a background job took to run.
func (m *Manager) RecordJobDuration(kind string, duration time.Duration) {
	if !m.enabled {
		return
	}
	m.jobDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordJobDropped records a job dropped by the queue's backpressure policy.
func (m *Manager) RecordJobDropped(kind string) {
	if !m.enabled {
		return
	}
	m.jobDropped.WithLabelValues(kind).Inc()
}

// SetQueueDepth sets the current job queue depth for a tenant.
func (m *Manager) SetQueueDepth(tenantID string, depth float64) {
	if !m.enabled {
		return
	}
	m.queueDepth.WithLabelValues(tenantID).Set(depth)
}
