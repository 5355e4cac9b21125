// Package metrics provides Prometheus metrics instrumentation for CueMap.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager manages all Prometheus metrics for cuemapd.
type Manager struct {
	registry *prometheus.Registry
	enabled  bool

	// Recall metrics
	recallRequests *prometheus.CounterVec
	recallDuration *prometheus.HistogramVec
	recallHits     *prometheus.HistogramVec
	patternCompletions *prometheus.CounterVec

	// Job queue metrics
	jobExecutions *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	jobDropped    *prometheus.CounterVec
	queueDepth    *prometheus.GaugeVec

	// Consolidation metrics
	consolidationRuns     *prometheus.CounterVec
	consolidationDuration *prometheus.HistogramVec
	gistsCreated          *prometheus.CounterVec

	// Tenant metrics
	activeTenants prometheus.Gauge

	// HTTP metrics
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	httpConnections prometheus.Gauge
}

// Config holds metrics configuration.
type Config struct {
	Enabled bool
	Port    int
	Path    string

	RecallDurationBuckets        []float64
	JobDurationBuckets           []float64
	ConsolidationDurationBuckets []float64
	HTTPDurationBuckets          []float64
}

// DefaultConfig returns default metrics configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:                      true,
		Port:                         9091,
		Path:                         "/metrics",
		RecallDurationBuckets:        []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		JobDurationBuckets:           []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		ConsolidationDurationBuckets: []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60},
		HTTPDurationBuckets:          []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
	}
}

// NewManager creates a new metrics manager.
func NewManager(cfg Config) *Manager {
	if !cfg.Enabled {
		return &Manager{enabled: false}
	}

	registry := prometheus.NewRegistry()

	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	m := &Manager{
		registry: registry,
		enabled:  true,
	}

	m.initRecallMetrics(cfg)
	m.initJobMetrics(cfg)
	m.initConsolidationMetrics(cfg)
	m.initHTTPMetrics(cfg)

	m.activeTenants = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cuemap_active_tenants",
		Help: "Current number of tenant engines held in memory",
	})
	m.registry.MustRegister(m.activeTenants)

	return m
}

// Enabled returns whether metrics collection is enabled.
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Manager) Handler() http.Handler {
	if !m.enabled {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// StartServer starts the metrics HTTP server on the configured port.
func (m *Manager) StartServer(ctx context.Context, port int, path string) error {
	if !m.enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(path, m.Handler())

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	return server.ListenAndServe()
}

// SetActiveTenants sets the current number of loaded tenant engines.
func (m *Manager) SetActiveTenants(count float64) {
	if !m.enabled {
		return
	}
	m.activeTenants.Set(count)
}

// NoOpManager returns a no-op metrics manager for when metrics are disabled.
func NoOpManager() *Manager {
	return &Manager{enabled: false}
}
