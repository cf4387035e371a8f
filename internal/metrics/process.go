// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	procTerminateTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_proc_terminate_total",
		Help: "Signals sent to capture child process groups",
	}, []string{"signal", "result"})

	procWaitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "codescan_proc_wait_total",
		Help: "Capture child process exit observations",
	}, []string{"result"})
)

// IncProcTerminate records a signal delivery attempt to a process group.
func IncProcTerminate(signal, result string) {
	procTerminateTotal.WithLabelValues(signal, result).Inc()
}

// IncProcWait records how a child process exited.
func IncProcWait(result string) {
	procWaitTotal.WithLabelValues(result).Inc()
}
