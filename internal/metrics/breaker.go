// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BreakerState is one-hot per breaker: the active state series is 1.
	BreakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "codescan_breaker_state",
		Help: "Active state of a circuit breaker (1 for the current state)",
	}, []string{"breaker", "state"})

	// BreakerTrips counts transitions to open.
	BreakerTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_breaker_trips_total",
		Help: "Circuit breaker transitions to open by cause",
	}, []string{"breaker", "cause"})

	// BreakerRejections counts calls refused without reaching the remote side.
	BreakerRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_breaker_rejections_total",
		Help: "Calls rejected by an open or probing circuit breaker",
	}, []string{"breaker"})
)

var breakerStates = [...]string{"closed", "half-open", "open"}

// SetBreakerState marks state as the active state of breaker.
func SetBreakerState(breaker, state string) {
	for _, s := range breakerStates {
		v := 0.0
		if s == state {
			v = 1
		}
		BreakerState.WithLabelValues(breaker, s).Set(v)
	}
}

// IncBreakerTrip records a transition to open.
func IncBreakerTrip(breaker, cause string) {
	BreakerTrips.WithLabelValues(breaker, cause).Inc()
}

// IncBreakerRejection records a call refused by the breaker.
func IncBreakerRejection(breaker string) {
	BreakerRejections.WithLabelValues(breaker).Inc()
}
