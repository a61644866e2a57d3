package migrate

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LabelSuccess = "success"
	LabelFailure = "failure"
	LabelSkipped = "skipped"
)

// Metrics holds the schema migration metrics.
type Metrics struct {
	SchemaMigrations   *prometheus.CounterVec
	MigrationsApplied  prometheus.Counter
	MigrationDuration  prometheus.Histogram
	UnavailableTenants prometheus.Gauge
}

func NewMetrics() *Metrics {
	const (
		namespace = "tenancy"
		subsystem = "migrate"
	)

	return &Metrics{
		SchemaMigrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "schema_runs_total",
			Help:      "Count of per-schema migration runs",
		}, []string{"result"}),

		MigrationsApplied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "migrations_applied_total",
			Help:      "Count of migration versions applied across all schemas",
		}),

		MigrationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "schema_run_duration_seconds",
			Help:      "Histogram of times spent migrating one schema",
			Buckets:   prometheus.ExponentialBuckets(1e-2, 4, 8),
		}),

		UnavailableTenants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "unavailable_tenants",
			Help:      "Number of tenants isolated after a failed startup migration",
		}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SchemaMigrations,
		m.MigrationsApplied,
		m.MigrationDuration,
		m.UnavailableTenants,
	}
}

func (m *Metrics) observeRun(result string, applied int, d time.Duration) {
	if m == nil {
		return
	}
	m.SchemaMigrations.WithLabelValues(result).Inc()
	m.MigrationsApplied.Add(float64(applied))
	if result != LabelSkipped {
		m.MigrationDuration.Observe(d.Seconds())
	}
}

func (m *Metrics) setUnavailable(n int) {
	if m == nil {
		return
	}
	m.UnavailableTenants.Set(float64(n))
}
