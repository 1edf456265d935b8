package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/pscheid92/repledger/internal/domain"
)

// LedgerMetrics counts evaluation writes by outcome. A nil *LedgerMetrics is a no-op.
type LedgerMetrics struct {
	EvaluationsRecorded *prometheus.CounterVec
}

func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m := &LedgerMetrics{
		EvaluationsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_recorded_total",
			Help:      "Total number of evaluation write attempts, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(m.EvaluationsRecorded)
	return m
}

// Recorded counts one write attempt, classified by its error.
func (m *LedgerMetrics) Recorded(err error) {
	if m == nil {
		return
	}
	m.EvaluationsRecorded.WithLabelValues(resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrSelfEvaluation):
		return "self"
	case errors.Is(err, domain.ErrDuplicateEvaluation):
		return "duplicate"
	case errors.Is(err, domain.ErrUnknownTag):
		return "unknown_tag"
	default:
		return "error"
	}
}
