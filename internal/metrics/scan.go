package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScanTicks counts loop ticks processed while running.
	ScanTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "codescan_scan_ticks_total",
		Help: "Total number of scan loop ticks",
	})

	// FramesSampled counts frames handed to the decoder, by readiness.
	FramesSampled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_frames_sampled_total",
		Help: "Frames requested from the capture stream on decode ticks",
	}, []string{"result"}) // ready|not_ready|error

	// DecodeAttempts counts decode attempts by outcome.
	DecodeAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_decode_attempts_total",
		Help: "Decode attempts by outcome",
	}, []string{"result"}) // candidate|empty|failure|panic

	// FilterDecisions counts debounce filter decisions.
	FilterDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_filter_decisions_total",
		Help: "Debounce filter decisions for decoded candidates",
	}, []string{"decision"}) // confirmed|suppressed

	// SessionActive is 1 while a capture session is held.
	SessionActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "codescan_capture_session_active",
		Help: "Whether a capture session is currently held (1) or not (0)",
	})

	// Acquisitions counts capture acquisition attempts.
	Acquisitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_capture_acquisitions_total",
		Help: "Capture stream acquisition attempts by result and reason",
	}, []string{"result", "reason"})

	// ScannerStops counts transitions to stopped by reason.
	ScannerStops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_scanner_stops_total",
		Help: "Scanner stop transitions by reason",
	}, []string{"reason"}) // requested|idle_timeout|stream_lost|shutdown
)

// ObserveFrame records a frame readiness outcome.
func ObserveFrame(result string) {
	FramesSampled.WithLabelValues(result).Inc()
}

// ObserveDecode records a decode attempt outcome.
func ObserveDecode(result string) {
	DecodeAttempts.WithLabelValues(result).Inc()
}

// ObserveFilterDecision records a debounce decision.
func ObserveFilterDecision(confirmed bool) {
	decision := "suppressed"
	if confirmed {
		decision = "confirmed"
	}
	FilterDecisions.WithLabelValues(decision).Inc()
}

// IncAcquisition records a capture acquisition attempt outcome.
func IncAcquisition(success bool, reason string) {
	result := "failure"
	if success {
		result = "success"
	}
	Acquisitions.WithLabelValues(result, reason).Inc()
}

// IncScannerStop records a stop transition.
func IncScannerStop(reason string) {
	ScannerStops.WithLabelValues(reason).Inc()
}
