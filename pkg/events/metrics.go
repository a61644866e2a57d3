package events

import "github.com/prometheus/client_golang/prometheus"

const (
	resultAcked     = "acked"
	resultFailed    = "failed"
	resultDiscarded = "discarded"
)

// Metrics holds the event consumer metrics.
type Metrics struct {
	Events *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tenancy",
			Subsystem: "events",
			Name:      "processed_total",
			Help:      "Count of tenant lifecycle events by type and outcome",
		}, []string{"type", "result"}),
	}
}

func (m *Metrics) PrometheusCollectors() []prometheus.Collector {
	return []prometheus.Collector{m.Events}
}

func (m *Metrics) observe(t Type, result string) {
	if m == nil {
		return
	}
	if t == "" {
		t = "unknown"
	}
	m.Events.WithLabelValues(string(t), result).Inc()
}
