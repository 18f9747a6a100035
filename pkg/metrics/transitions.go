package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TransitionMetrics counts accepted state-machine transitions.
type TransitionMetrics struct {
	transitions *prometheus.CounterVec
}

// NewTransitionMetrics registers the transition counter on the provided
// registerer.
func NewTransitionMetrics(reg prometheus.Registerer) *TransitionMetrics {
	if reg == nil {
		return &TransitionMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "escrow_transitions_total",
		Help: "Accepted escrow transaction transitions.",
	}, []string{"from", "to", "actor_role"})
	reg.MustRegister(transitions)
	return &TransitionMetrics{transitions: transitions}
}

// IncTransition counts one accepted transition.
func (t *TransitionMetrics) IncTransition(from, to, actorRole string) {
	if t == nil || t.transitions == nil {
		return
	}
	t.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(actorRole)).Inc()
}
