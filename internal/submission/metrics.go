package submission

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SubmissionsTotal tracks submissions by result (submitted, rejected, failed).
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovl_build_submissions_total",
			Help: "Total number of transaction submissions by result",
		},
		[]string{"result"},
	)

	// SubmissionDurationSeconds tracks time spent waiting on the signer.
	SubmissionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ovl_build_submission_duration_seconds",
		Help:    "Duration of sign-and-broadcast calls",
		Buckets: prometheus.DefBuckets,
	})
)
