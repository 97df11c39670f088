package storage

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/overlay-build/pkg/cache"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a record is not held by the store.
	ErrNotFound = errors.New("transaction record not found")

	// ErrCacheRejected is returned when the record cache refuses a write.
	ErrCacheRejected = errors.New("record cache rejected write")
)

// MemoryStorage keeps recent records in a bounded cache, keyed by hash.
type MemoryStorage struct {
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// MemoryConfig holds in-memory storage configuration.
type MemoryConfig struct {
	Cache  cache.Cache
	TTL    time.Duration // zero keeps records until evicted
	Logger *zap.Logger
}

// NewMemoryStorage creates a new in-memory storage.
func NewMemoryStorage(cfg *MemoryConfig) (*MemoryStorage, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Cache == nil {
		return nil, errors.New("cache cannot be nil")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	logger.Info("memory-storage-initialized", zap.Duration("ttl", cfg.TTL))

	return &MemoryStorage{
		cache:  cfg.Cache,
		ttl:    cfg.TTL,
		logger: logger,
	}, nil
}

// StoreTransaction caches rec under its hash.
func (m *MemoryStorage) StoreTransaction(ctx context.Context, rec *types.TransactionRecord) error {
	if !m.cache.Set(rec.Hash.Hex(), rec, m.ttl) {
		m.logger.Warn("transaction-not-cached", zap.String("tx-hash", rec.Hash.Hex()))
		return ErrCacheRejected
	}

	m.cache.Wait()
	return nil
}

// GetTransaction returns the record submitted under hash.
func (m *MemoryStorage) GetTransaction(ctx context.Context, hash common.Hash) (*types.TransactionRecord, error) {
	value, found := m.cache.Get(hash.Hex())
	if !found {
		return nil, ErrNotFound
	}

	rec, ok := value.(*types.TransactionRecord)
	if !ok {
		return nil, ErrNotFound
	}

	return rec, nil
}

// Close releases the cache.
func (m *MemoryStorage) Close() error {
	m.logger.Info("closing-memory-storage")
	m.cache.Close()
	return nil
}
