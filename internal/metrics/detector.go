package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/repledger/internal/domain"
)

// DetectorMetrics tracks anomaly scans and their findings. A nil *DetectorMetrics is a no-op.
type DetectorMetrics struct {
	Scans        *prometheus.CounterVec
	ScanDuration prometheus.Histogram
	Findings     *prometheus.CounterVec
}

func NewDetectorMetrics(reg prometheus.Registerer) *DetectorMetrics {
	m := &DetectorMetrics{
		Scans: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anomaly",
			Name:      "scans_total",
			Help:      "Total number of anomaly scans, by outcome.",
		}, []string{"outcome"}),
		ScanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "anomaly",
			Name:      "scan_duration_seconds",
			Help:      "Duration of anomaly scans in seconds.",
			Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		}),
		Findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "anomaly",
			Name:      "findings_total",
			Help:      "Total number of reported anomalies, by kind.",
		}, []string{"kind"}),
	}

	reg.MustRegister(m.Scans, m.ScanDuration, m.Findings)
	return m
}

func (m *DetectorMetrics) ScanCompleted(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Scans.WithLabelValues(outcome).Inc()
	m.ScanDuration.Observe(d.Seconds())
}

func (m *DetectorMetrics) Finding(kind domain.AnomalyKind) {
	if m == nil {
		return
	}
	m.Findings.WithLabelValues(string(kind)).Inc()
}
