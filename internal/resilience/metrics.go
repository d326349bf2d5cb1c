package resilience

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Breaker collectors, labelled by the guarded dependency ("adyen-checkout").
var (
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "payments",
		Subsystem: "provider",
		Name:      "breaker_state",
		Help:      "Breaker state per target: 0 closed, 1 open, 2 half-open.",
	}, []string{"target"})

	BreakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payments",
		Subsystem: "provider",
		Name:      "breaker_transitions_total",
		Help:      "Breaker state changes by target and edge.",
	}, []string{"target", "from", "to"})

	BreakerOpenedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "payments",
		Subsystem: "provider",
		Name:      "breaker_opened_total",
		Help:      "Times a breaker tripped open.",
	}, []string{"target"})
)
