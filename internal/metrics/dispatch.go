package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LookupTotal counts lookups by result.
	LookupTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_lookup_total",
		Help: "Record lookups by result",
	}, []string{"result"}) // found|not_found|error|timeout|unavailable|circuit_open|cache_hit

	// LookupDuration tracks lookup latency including cache hits.
	LookupDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "codescan_lookup_duration_seconds",
		Help:    "Latency of record lookups",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
	})

	// DispatchInFlight tracks dispatches awaiting a lookup response.
	DispatchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codescan_dispatch_in_flight",
		Help: "Dispatches with an outstanding lookup",
	})

	// FeedbackTotal counts feedback effects by kind and result.
	FeedbackTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_feedback_total",
		Help: "Feedback effects fired, by kind and result",
	}, []string{"kind", "result"}) // beep|vibrate, ok|failed

	// SelectTotal counts selection hook invocations.
	SelectTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_select_total",
		Help: "Selection hook invocations by result",
	}, []string{"result"})
)

// ObserveLookup records a lookup outcome and its latency.
func ObserveLookup(result string, d time.Duration) {
	LookupTotal.WithLabelValues(result).Inc()
	LookupDuration.Observe(d.Seconds())
}

// IncFeedback records a feedback effect outcome.
func IncFeedback(kind string, err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	FeedbackTotal.WithLabelValues(kind, result).Inc()
}

// IncSelect records a selection hook outcome.
func IncSelect(err error) {
	result := "ok"
	if err != nil {
		result = "failed"
	}
	SelectTotal.WithLabelValues(result).Inc()
}
