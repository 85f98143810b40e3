package observability

import (
	"database/sql"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels
const (
	StatusSuccess  = "success"
	StatusConflict = "conflict"
	StatusInvalid  = "invalid"
	StatusError    = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Organization metrics
	OrganizationsCreatedTotal  *prometheus.CounterVec
	OrganizationCreateDuration prometheus.Histogram
	OrganizationKeyUpdates     *prometheus.CounterVec
	ProvisioningStepDuration   *prometheus.HistogramVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsOpen   prometheus.Gauge
	DBConnectionsInUse  prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
	DBConnectionsWaited prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		OrganizationsCreatedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgforge_organizations_created_total",
				Help: "Total number of organization creation attempts",
			},
			[]string{"status"},
		),
		OrganizationCreateDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "orgforge_organization_create_duration_seconds",
				Help:    "Duration of the organization creation workflow in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
		),
		OrganizationKeyUpdates: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgforge_organization_key_updates_total",
				Help: "Total number of organization key updates",
			},
			[]string{"status"},
		),
		ProvisioningStepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "orgforge_provisioning_step_duration_seconds",
				Help:    "Duration of each provisioning step in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
			},
			[]string{"step"},
		),

		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgforge_cache_hits_total",
				Help: "Total number of cache hits",
			},
			[]string{"cache_type"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orgforge_cache_misses_total",
				Help: "Total number of cache misses",
			},
			[]string{"cache_type"},
		),

		DBConnectionsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgforge_db_connections_open",
				Help: "Number of open database connections",
			},
		),
		DBConnectionsInUse: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgforge_db_connections_in_use",
				Help: "Number of database connections in use",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgforge_db_connections_idle",
				Help: "Number of idle database connections",
			},
		),
		DBConnectionsWaited: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "orgforge_db_connections_wait_count",
				Help: "Total number of connections waited for",
			},
		),
	}

	registry.MustRegister(
		m.OrganizationsCreatedTotal,
		m.OrganizationCreateDuration,
		m.OrganizationKeyUpdates,
		m.ProvisioningStepDuration,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsOpen,
		m.DBConnectionsInUse,
		m.DBConnectionsIdle,
		m.DBConnectionsWaited,
	)

	return m
}

// The Record* helpers accept a nil receiver so callers can run without metrics.

// RecordOrganizationCreated counts a creation attempt and observes its duration
func (m *Metrics) RecordOrganizationCreated(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.OrganizationsCreatedTotal.WithLabelValues(status).Inc()
	m.OrganizationCreateDuration.Observe(duration.Seconds())
}

// RecordKeyUpdate counts a key update attempt
func (m *Metrics) RecordKeyUpdate(status string) {
	if m == nil {
		return
	}
	m.OrganizationKeyUpdates.WithLabelValues(status).Inc()
}

// ObserveStep records how long a provisioning step took
func (m *Metrics) ObserveStep(step string, start time.Time) {
	if m == nil {
		return
	}
	m.ProvisioningStepDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
}

// RecordCacheHit counts a cache hit
func (m *Metrics) RecordCacheHit(cacheType string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cacheType).Inc()
}

// RecordCacheMiss counts a cache miss
func (m *Metrics) RecordCacheMiss(cacheType string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cacheType).Inc()
}

// UpdateDBStats copies the pool statistics into the database gauges
func (m *Metrics) UpdateDBStats(stats sql.DBStats) {
	if m == nil {
		return
	}
	m.DBConnectionsOpen.Set(float64(stats.OpenConnections))
	m.DBConnectionsInUse.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
	m.DBConnectionsWaited.Set(float64(stats.WaitCount))
}

// WriteTextfile dumps every metric of the registry in the Prometheus text format,
// for pick-up by the node exporter textfile collector.
func WriteTextfile(path string, registry *prometheus.Registry) error {
	return prometheus.WriteToTextfile(path, registry)
}
