package pg

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	LabelSuccess = "success"
	LabelFailure = "failure"

	LabelTenant  = "tenant"
	LabelNeutral = "neutral"
)

// Metrics holds the connection routing metrics.
type Metrics struct {
	SchemaSwitches  *prometheus.CounterVec
	SearchPathReset *prometheus.CounterVec
	AcquireDuration *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	const (
		namespace = "tenancy"
		subsystem = "router"
	)

	return &Metrics{
		SchemaSwitches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "schema_switches_total",
			Help:      "Count of connections switched to a tenant schema",
		}, []string{"result"}),

		SearchPathReset: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "search_path_resets_total",
			Help:      "Count of search_path resets on connection release",
		}, []string{"result"}),

		AcquireDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "acquire_duration_seconds",
			Help:      "Histogram of times spent checking out and routing a connection",
			Buckets:   prometheus.ExponentialBuckets(1e-4, 4, 8),
		}, []string{"kind"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.SchemaSwitches,
		m.SearchPathReset,
		m.AcquireDuration,
	}
}

func (m *Metrics) observeSwitch(err error) {
	if m == nil {
		return
	}
	m.SchemaSwitches.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeReset(err error) {
	if m == nil {
		return
	}
	m.SearchPathReset.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) observeAcquire(kind string, start time.Time) {
	if m == nil {
		return
	}
	m.AcquireDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
}

func result(err error) string {
	if err != nil {
		return LabelFailure
	}
	return LabelSuccess
}
