package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	CacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovl_cache_hits_total",
		Help: "Total number of record cache hits",
	})

	CacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovl_cache_misses_total",
		Help: "Total number of record cache misses",
	})

	CacheSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovl_cache_sets_total",
		Help: "Total number of accepted record cache sets",
	})

	CacheRejectedSetsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovl_cache_rejected_sets_total",
		Help: "Total number of record cache sets dropped by admission policy",
	})
)
