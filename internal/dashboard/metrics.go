package dashboard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	callsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "opsdash",
		Subsystem: "access",
		Name:      "calls_total",
		Help:      "Access layer calls by operation and outcome.",
	}, []string{"operation", "outcome"})

	callDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "opsdash",
		Subsystem: "access",
		Name:      "call_duration_seconds",
		Help:      "Access layer call duration including simulated latency.",
		Buckets:   []float64{0.01, 0.1, 0.25, 0.5, 1, 1.5, 2, 5},
	}, []string{"operation"})
)
