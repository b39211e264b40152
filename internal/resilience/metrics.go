package resilience

import "github.com/prometheus/client_golang/prometheus"

// Breaker telemetry, labelled by the guarded upstream (catalog, shipping,
// orders, content).
var (
	BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "storefront",
			Name:      "breaker_state",
			Help:      "Breaker position per upstream: 0=closed, 1=open, 2=half-open",
		},
		[]string{"target"},
	)
	BreakerTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "breaker_transition_total",
			Help:      "Breaker state transitions per upstream",
		},
		[]string{"target", "from", "to"},
	)
	BreakerOpenedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "storefront",
			Name:      "breaker_open_total",
			Help:      "Times a breaker tripped open per upstream",
		},
		[]string{"target"},
	)
)

func init() {
	prometheus.MustRegister(BreakerState, BreakerTransitions, BreakerOpenedTotal)
}
