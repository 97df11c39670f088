package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// RecordsTotal tracks persisted records by result (stored, failed).
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ovl_tracker_records_total",
			Help: "Total number of transaction records handled by the tracker",
		},
		[]string{"result"},
	)

	// DroppedTotal counts records dropped because the buffer was full or the tracker closed.
	DroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovl_tracker_dropped_total",
		Help: "Total number of transaction records dropped before persistence",
	})

	// QueueDepth is the number of records waiting to be persisted.
	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ovl_tracker_queue_depth",
		Help: "Number of transaction records buffered for persistence",
	})
)
