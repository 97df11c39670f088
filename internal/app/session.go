package app

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/mselser95/overlay-build/internal/encoder"
	"github.com/mselser95/overlay-build/internal/pipeline"
	"github.com/mselser95/overlay-build/internal/storage"
	"github.com/mselser95/overlay-build/internal/submission"
	"github.com/mselser95/overlay-build/internal/tracker"
	"github.com/mselser95/overlay-build/pkg/cache"
	"github.com/mselser95/overlay-build/pkg/config"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/mselser95/overlay-build/pkg/wallet"
	"go.uber.org/zap"
)

// Session is a connected wallet session: node client, signer, tracker and builder.
// Commands use it directly; the server wraps it in an App.
type Session struct {
	Config  *config.Config
	Eth     *ethclient.Client
	Chain   types.ChainContext
	Encoder *encoder.Encoder
	Builder *pipeline.Builder
	Wallet  *wallet.Client
	Tracker *tracker.Tracker
	Records *storage.MemoryStorage // nil unless TRACKER_MODE=memory

	logger *zap.Logger
}

// NewSession dials the node and wires the build pipeline.
func NewSession(ctx context.Context, cfg *config.Config, logger *zap.Logger) (s *Session, err error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	book, err := setupAddressBook(cfg)
	if err != nil {
		return nil, fmt.Errorf("setup address book: %w", err)
	}

	dialCtx, cancel := context.WithTimeout(ctx, rpcTimeoutOrDefault(cfg.RPCTimeout))
	defer cancel()

	rpcClient, err := rpc.DialContext(dialCtx, cfg.EthRPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	eth := ethclient.NewClient(rpcClient)

	err = checkChainID(dialCtx, eth, cfg.ChainID)
	if err != nil {
		eth.Close()
		return nil, err
	}

	chainID := new(big.Int).SetUint64(cfg.ChainID)

	signer, err := setupSigner(cfg, eth, rpcClient, chainID, logger)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("setup signer: %w", err)
	}

	store, records, err := setupStorage(cfg, logger)
	if err != nil {
		eth.Close()
		return nil, fmt.Errorf("setup storage: %w", err)
	}

	txTracker, err := tracker.New(&tracker.Config{
		Store:      store,
		BufferSize: cfg.TrackerBufferSize,
		Logger:     logger,
	})
	if err != nil {
		eth.Close()
		_ = store.Close()
		return nil, fmt.Errorf("create tracker: %w", err)
	}

	// the loop ends when Close drains the buffer
	_ = txTracker.Start(context.Background())

	chain := types.ChainContext{ChainID: chainID, Account: signer.Address()}
	enc := encoder.New(book)

	builder, err := pipeline.New(&pipeline.Config{
		Chain:    chain,
		Provider: eth,
		Signer:   signer,
		Tracker:  txTracker,
		Encoder:  enc,
		Margin:   submission.GasMargin(cfg.GasMarginBps),
		Logger:   logger,
	})
	if err != nil {
		eth.Close()
		_ = txTracker.Close()
		return nil, fmt.Errorf("create builder: %w", err)
	}

	deployment := book[cfg.ChainID]
	walletClient, err := wallet.NewClient(eth, deployment.Token, deployment.Collateral, logger)
	if err != nil {
		eth.Close()
		_ = txTracker.Close()
		return nil, fmt.Errorf("create wallet client: %w", err)
	}

	logger.Info("session-ready",
		zap.Uint64("chain-id", cfg.ChainID),
		zap.String("account", chain.Account.Hex()),
		zap.String("signer-mode", cfg.SignerMode),
		zap.String("tracker-mode", cfg.TrackerMode),
		zap.Int("markets", len(deployment.Markets)))

	return &Session{
		Config:  cfg,
		Eth:     eth,
		Chain:   chain,
		Encoder: enc,
		Builder: builder,
		Wallet:  walletClient,
		Tracker: txTracker,
		Records: records,
		logger:  logger,
	}, nil
}

// Context returns a context bounded by the configured RPC timeout.
func (s *Session) Context(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, rpcTimeoutOrDefault(s.Config.RPCTimeout))
}

// Close flushes the tracker and closes the node connection.
func (s *Session) Close() error {
	err := s.Tracker.Close()
	s.Eth.Close()

	if err != nil {
		return fmt.Errorf("close tracker: %w", err)
	}
	return nil
}

// ChainIDReader reports the chain id served by a node.
type ChainIDReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

func checkChainID(ctx context.Context, client ChainIDReader, want uint64) error {
	got, err := client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("get chain id: %w", err)
	}

	if !got.IsUint64() || got.Uint64() != want {
		return fmt.Errorf("node serves chain %s, CHAIN_ID is %d", got, want)
	}

	return nil
}

func setupAddressBook(cfg *config.Config) (encoder.AddressBook, error) {
	markets, err := encoder.ParseMarkets(cfg.Markets)
	if err != nil {
		return nil, fmt.Errorf("parse OVL_MARKETS: %w", err)
	}

	return encoder.AddressBook{
		cfg.ChainID: {
			Collateral: common.HexToAddress(cfg.CollateralAddress),
			Token:      common.HexToAddress(cfg.TokenAddress),
			Markets:    markets,
		},
	}, nil
}

func setupSigner(
	cfg *config.Config,
	node submission.NodeClient,
	caller submission.RPCCaller,
	chainID *big.Int,
	logger *zap.Logger,
) (submission.Signer, error) {
	switch cfg.SignerMode {
	case "local":
		signer, err := submission.NewLocalSigner(node, cfg.SignerPrivateKey, chainID, logger)
		if err != nil {
			return nil, err
		}
		return signer, nil

	case "rpc":
		signer, err := submission.NewRPCSigner(caller, common.HexToAddress(cfg.SignerAddress))
		if err != nil {
			return nil, err
		}
		return signer, nil

	default:
		return nil, fmt.Errorf("unknown signer mode %q", cfg.SignerMode)
	}
}

func setupStorage(cfg *config.Config, logger *zap.Logger) (storage.Storage, *storage.MemoryStorage, error) {
	switch cfg.TrackerMode {
	case "postgres":
		pgStorage, err := storage.NewPostgresStorage(&storage.PostgresConfig{
			Host:     cfg.PostgresHost,
			Port:     cfg.PostgresPort,
			User:     cfg.PostgresUser,
			Password: cfg.PostgresPass,
			Database: cfg.PostgresDB,
			SSLMode:  cfg.PostgresSSL,
			Logger:   logger,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("create postgres storage: %w", err)
		}
		return pgStorage, nil, nil

	case "memory":
		recordCache, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(cfg.RecordCacheSize, logger))
		if err != nil {
			return nil, nil, fmt.Errorf("create record cache: %w", err)
		}

		memStorage, err := storage.NewMemoryStorage(&storage.MemoryConfig{
			Cache:  recordCache,
			TTL:    cfg.RecordTTL,
			Logger: logger,
		})
		if err != nil {
			recordCache.Close()
			return nil, nil, fmt.Errorf("create memory storage: %w", err)
		}
		return memStorage, memStorage, nil

	default:
		return storage.NewConsoleStorage(logger), nil, nil
	}
}

// nodeCheck is the readiness probe for the node connection.
func nodeCheck(eth *ethclient.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		_, err := eth.BlockNumber(ctx)
		return err
	}
}

// rpcTimeoutOrDefault guards against a zero timeout in hand-built configs.
func rpcTimeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return 30 * time.Second
	}
	return d
}
