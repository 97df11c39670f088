package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// InvocationsTotal tracks pipeline invocations by result.
	InvocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovl_build_invocations_total",
			Help: "Total number of build pipeline invocations by result",
		},
		[]string{"result"},
	)

	// DurationSeconds tracks end-to-end pipeline latency.
	DurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ovl_build_duration_seconds",
			Help:    "Duration of build pipeline invocations",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"kind"},
	)
)
