package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// LeaderboardMetrics tracks leaderboard cache behaviour. A nil *LeaderboardMetrics is a no-op.
type LeaderboardMetrics struct {
	Lookups       *prometheus.CounterVec
	Invalidations prometheus.Counter
	Entries       prometheus.Gauge
	Recompute     prometheus.Histogram
}

func NewLeaderboardMetrics(reg prometheus.Registerer) *LeaderboardMetrics {
	m := &LeaderboardMetrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard_cache",
			Name:      "lookups_total",
			Help:      "Total number of leaderboard page lookups, by result.",
		}, []string{"result"}),
		Invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "leaderboard_cache",
			Name:      "invalidations_total",
			Help:      "Total number of full leaderboard cache invalidations.",
		}),
		Entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "leaderboard_cache",
			Name:      "entries",
			Help:      "Number of cached leaderboard pages.",
		}),
		Recompute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "leaderboard_cache",
			Name:      "recompute_duration_seconds",
			Help:      "Duration of leaderboard page recomputation in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
	}

	reg.MustRegister(m.Lookups, m.Invalidations, m.Entries, m.Recompute)
	return m
}

func (m *LeaderboardMetrics) Hit() {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues("hit").Inc()
}

func (m *LeaderboardMetrics) Miss() {
	if m == nil {
		return
	}
	m.Lookups.WithLabelValues("miss").Inc()
}

func (m *LeaderboardMetrics) Invalidated() {
	if m == nil {
		return
	}
	m.Invalidations.Inc()
}

func (m *LeaderboardMetrics) SetSize(n int) {
	if m == nil {
		return
	}
	m.Entries.Set(float64(n))
}

func (m *LeaderboardMetrics) ObserveRecompute(d time.Duration) {
	if m == nil {
		return
	}
	m.Recompute.Observe(d.Seconds())
}
