package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SettlementMetrics records finalization outcomes.
type SettlementMetrics struct {
	finalized    prometheus.Counter
	replayed     prometheus.Counter
	failed       *prometheus.CounterVec
	participants prometheus.Histogram
}

// NewSettlementMetrics registers the settlement metrics on the provided
// registerer. A nil registerer yields a no-op instance, which keeps tests
// and offline tooling free of registry wiring.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	finalized := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_finalized_total",
		Help: "Settlements persisted for the first time.",
	})
	replayed := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "settlement_replayed_total",
		Help: "Finalize calls answered from an existing settlement.",
	})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "settlement_failed_total",
		Help: "Finalize calls rejected before persisting.",
	}, []string{"reason"})
	participants := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "settlement_participants",
		Help:    "Participants allocated per settlement.",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
	})
	reg.MustRegister(finalized, replayed, failed, participants)
	return &SettlementMetrics{
		finalized:    finalized,
		replayed:     replayed,
		failed:       failed,
		participants: participants,
	}
}

// IncFinalized counts a freshly persisted settlement.
func (m *SettlementMetrics) IncFinalized() {
	if m == nil || m.finalized == nil {
		return
	}
	m.finalized.Inc()
}

// IncReplayed counts an idempotent replay.
func (m *SettlementMetrics) IncReplayed() {
	if m == nil || m.replayed == nil {
		return
	}
	m.replayed.Inc()
}

// IncFailed counts a rejected finalize call by reason.
func (m *SettlementMetrics) IncFailed(reason string) {
	if m == nil || m.failed == nil {
		return
	}
	if reason == "" {
		reason = "unknown"
	}
	m.failed.WithLabelValues(reason).Inc()
}

// ObserveParticipants records the fan-out of one settlement.
func (m *SettlementMetrics) ObserveParticipants(count int) {
	if m == nil || m.participants == nil {
		return
	}
	m.participants.Observe(float64(count))
}
