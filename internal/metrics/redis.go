package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RedisMetrics tracks Redis commands and pub/sub traffic. A nil *RedisMetrics is a no-op.
type RedisMetrics struct {
	Commands        *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	DialErrors      prometheus.Counter
	Messages        *prometheus.CounterVec
}

func NewRedisMetrics(reg prometheus.Registerer) *RedisMetrics {
	m := &RedisMetrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "commands_total",
			Help:      "Total Redis commands by command and status.",
		}, []string{"command", "status"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "command_duration_seconds",
			Help:      "Redis command duration in seconds.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"command"}),
		DialErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "dial_errors_total",
			Help:      "Total Redis connection errors.",
		}),
		Messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "redis",
			Name:      "pubsub_messages_total",
			Help:      "Total pub/sub messages received, by channel.",
		}, []string{"channel"}),
	}

	reg.MustRegister(m.Commands, m.CommandDuration, m.DialErrors, m.Messages)
	return m
}

func (m *RedisMetrics) ObserveCommand(command string, d time.Duration, failed bool) {
	if m == nil {
		return
	}
	status := "success"
	if failed {
		status = "error"
	}
	m.Commands.WithLabelValues(command, status).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(d.Seconds())
}

func (m *RedisMetrics) DialFailed() {
	if m == nil {
		return
	}
	m.DialErrors.Inc()
}

func (m *RedisMetrics) MessageReceived(channel string) {
	if m == nil {
		return
	}
	m.Messages.WithLabelValues(channel).Inc()
}
