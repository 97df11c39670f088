package estimation

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// EstimationOutcomesTotal tracks outcomes by kind (estimated, diagnosed, unresolved).
	EstimationOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovl_build_estimation_outcomes_total",
			Help: "Total number of candidate estimation outcomes by kind",
		},
		[]string{"kind"},
	)
)
