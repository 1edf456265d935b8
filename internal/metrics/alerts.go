package metrics

import "github.com/prometheus/client_golang/prometheus"

// AlertMetrics tracks operator alert delivery. A nil *AlertMetrics is a no-op.
type AlertMetrics struct {
	Deliveries   *prometheus.CounterVec
	BreakerState prometheus.Gauge
}

func NewAlertMetrics(reg prometheus.Registerer) *AlertMetrics {
	m := &AlertMetrics{
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "deliveries_total",
			Help:      "Total number of alert delivery attempts, by result.",
		}, []string{"result"}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "circuit_breaker_state",
			Help:      "Current alert circuit breaker state (0=closed, 1=half-open, 2=open).",
		}),
	}

	reg.MustRegister(m.Deliveries, m.BreakerState)
	return m
}

func (m *AlertMetrics) Delivered(result string) {
	if m == nil {
		return
	}
	m.Deliveries.WithLabelValues(result).Inc()
}

func (m *AlertMetrics) SetBreakerState(state float64) {
	if m == nil {
		return
	}
	m.BreakerState.Set(state)
}
