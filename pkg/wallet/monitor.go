package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const pollTimeout = 15 * time.Second

// Monitor periodically fetches wallet balances and updates Prometheus gauges.
type Monitor struct {
	client       *Client
	address      common.Address
	pollInterval time.Duration
	logger       *zap.Logger
}

// MonitorConfig holds monitor configuration.
type MonitorConfig struct {
	Client       *Client
	Address      common.Address
	PollInterval time.Duration
	Logger       *zap.Logger
}

// NewMonitor creates a new balance monitor.
func NewMonitor(cfg *MonitorConfig) (m *Monitor, err error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Client == nil {
		return nil, errors.New("client cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.PollInterval <= 0 {
		return nil, errors.New("poll interval must be positive")
	}

	m = &Monitor{
		client:       cfg.Client,
		address:      cfg.Address,
		pollInterval: cfg.PollInterval,
		logger:       cfg.Logger,
	}

	return m, nil
}

// Run starts the polling loop (blocking).
func (m *Monitor) Run(ctx context.Context) (err error) {
	m.logger.Info("wallet-monitor-starting",
		zap.Duration("poll-interval", m.pollInterval),
		zap.String("address", m.address.Hex()))

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	pollErr := m.poll(ctx)
	if pollErr != nil {
		m.logger.Error("initial-poll-failed", zap.Error(pollErr))
		UpdateErrorsTotal.Inc()
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("wallet-monitor-stopping")
			return ctx.Err()
		case <-ticker.C:
			pollErr = m.poll(ctx)
			if pollErr != nil {
				m.logger.Error("poll-failed", zap.Error(pollErr))
				UpdateErrorsTotal.Inc()
			}
		}
	}
}

func (m *Monitor) poll(ctx context.Context) (err error) {
	start := time.Now()
	defer func() {
		UpdateDuration.Observe(time.Since(start).Seconds())
	}()

	pollCtx, cancel := context.WithTimeout(ctx, pollTimeout)
	defer cancel()

	balances, err := m.client.GetBalances(pollCtx, m.address)
	if err != nil {
		return fmt.Errorf("get balances: %w", err)
	}

	updateMetrics(balances)
	LastUpdateTimestamp.Set(float64(time.Now().Unix()))

	m.logger.Debug("poll-complete", zap.Duration("duration", time.Since(start)))

	return nil
}

func updateMetrics(balances *Balances) {
	NativeBalance.Set(toFloat(balances.Native))
	OVLBalance.Set(toFloat(balances.OVL))
	OVLAllowance.Set(toFloat(balances.OVLAllowance))
}

// toFloat converts an 18-decimal fixed point amount for gauges.
func toFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	f, _ := decimal.NewFromBigInt(amount, -18).Float64()
	return f
}
