package manager

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "chatd",
			Subsystem: "generation",
			Name:      "duration_seconds",
			Help:      "Duration of engine generation calls in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)

	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "generation",
			Name:      "requests_total",
			Help:      "Generation requests by result",
		},
		[]string{"result"},
	)

	completionTokensTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "chatd",
			Subsystem: "generation",
			Name:      "completion_tokens_total",
			Help:      "Total completion tokens produced",
		},
	)

	modelState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "chatd",
			Subsystem: "model",
			Name:      "state",
			Help:      "1 for the current lifecycle state, 0 otherwise",
		},
		[]string{"state"},
	)

	modelLoadSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "chatd",
			Subsystem: "model",
			Name:      "load_seconds",
			Help:      "Duration of the last successful load including warm-up",
		},
	)
)

func init() {
	prometheus.MustRegister(generationDuration, generationsTotal, completionTokensTotal, modelState, modelLoadSeconds)
}

func recordState(s State) {
	for _, st := range allStates {
		v := 0.0
		if st == s {
			v = 1
		}
		modelState.WithLabelValues(string(st)).Set(v)
	}
}
