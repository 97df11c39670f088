package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/mselser95/overlay-build/internal/submission"
	"github.com/mselser95/overlay-build/pkg/config"
	"github.com/mselser95/overlay-build/pkg/healthprobe"
	"github.com/mselser95/overlay-build/pkg/httpserver"
	"github.com/mselser95/overlay-build/pkg/wallet"
	"go.uber.org/zap"
)

// App is the long-running build API server.
type App struct {
	cfg           *config.Config
	logger        *zap.Logger
	session       *Session
	healthChecker *healthprobe.HealthChecker
	httpServer    *httpserver.Server
	monitor       *wallet.Monitor
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	ctx, cancel := context.WithCancel(context.Background())

	session, err := NewSession(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("setup session: %w", err)
	}

	healthChecker := setupHealthChecker(session)
	httpServer := setupHTTPServer(cfg, logger, healthChecker, session)

	monitor, err := wallet.NewMonitor(&wallet.MonitorConfig{
		Client:       session.Wallet,
		Address:      session.Chain.Account,
		PollInterval: cfg.BalancePollInterval,
		Logger:       logger,
	})
	if err != nil {
		cancel()
		_ = session.Close()
		return nil, fmt.Errorf("setup wallet monitor: %w", err)
	}

	return &App{
		cfg:           cfg,
		logger:        logger,
		session:       session,
		healthChecker: healthChecker,
		httpServer:    httpServer,
		monitor:       monitor,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

func setupHealthChecker(session *Session) *healthprobe.HealthChecker {
	hc := healthprobe.New()
	hc.AddCheck("node", nodeCheck(session.Eth))
	return hc
}

func setupHTTPServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthChecker *healthprobe.HealthChecker,
	session *Session,
) *httpserver.Server {
	serverCfg := &httpserver.Config{
		Port:          cfg.HTTPPort,
		Logger:        logger,
		HealthChecker: healthChecker,
		Pipeline:      session.Builder,
		Defaults: httpserver.Defaults{
			SlippageBps: cfg.DefaultSlippageBps,
			Deadline:    cfg.DefaultDeadline,
			RPCTimeout:  cfg.RPCTimeout,
			Margin:      submission.GasMargin(cfg.GasMarginBps),
		},
	}

	if session.Records != nil {
		serverCfg.Records = session.Records
	}

	return httpserver.New(serverCfg)
}
