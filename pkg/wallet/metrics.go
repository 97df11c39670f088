package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// NativeBalance tracks the native balance available for gas.
	NativeBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ovl_wallet_native_balance",
		Help: "Current native balance in wallet (ether units)",
	})

	// OVLBalance tracks the OVL balance available as collateral.
	OVLBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ovl_wallet_ovl_balance",
		Help: "Current OVL balance in wallet",
	})

	// OVLAllowance tracks the OVL allowance granted to the collateral manager.
	OVLAllowance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ovl_wallet_ovl_allowance",
		Help: "OVL allowance approved to the collateral manager",
	})

	// UpdateErrorsTotal tracks the number of failed update attempts.
	UpdateErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ovl_wallet_update_errors_total",
		Help: "Total number of failed wallet update attempts",
	})

	// UpdateDuration tracks the time taken to fetch wallet data.
	UpdateDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ovl_wallet_update_duration_seconds",
		Help:    "Time taken to fetch wallet data (seconds)",
		Buckets: prometheus.DefBuckets,
	})

	// LastUpdateTimestamp tracks the Unix timestamp of the last successful update.
	LastUpdateTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ovl_wallet_last_update_timestamp",
		Help: "Unix timestamp of last successful wallet update",
	})
)
