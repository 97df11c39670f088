package tracker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mselser95/overlay-build/internal/storage"
	"github.com/mselser95/overlay-build/pkg/types"
	"go.uber.org/zap"
)

const (
	// DefaultBufferSize is used when Config.BufferSize is not positive.
	DefaultBufferSize = 256

	defaultStoreTimeout = 5 * time.Second
)

// Tracker persists submitted transaction records in the background.
// Add never blocks the caller.
type Tracker struct {
	store        storage.Storage
	records      chan *types.TransactionRecord
	storeTimeout time.Duration
	logger       *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

// Config holds tracker configuration.
type Config struct {
	Store        storage.Storage
	BufferSize   int
	StoreTimeout time.Duration
	Logger       *zap.Logger
}

// New creates a new tracker.
func New(cfg *Config) (*Tracker, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.Store == nil {
		return nil, errors.New("store cannot be nil")
	}

	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}

	storeTimeout := cfg.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Tracker{
		store:        cfg.Store,
		records:      make(chan *types.TransactionRecord, bufferSize),
		storeTimeout: storeTimeout,
		logger:       logger,
	}, nil
}

// Start launches the persistence loop. It runs until ctx is cancelled or Close is called.
func (t *Tracker) Start(ctx context.Context) error {
	t.logger.Info("tracker-starting", zap.Int("buffer-size", cap(t.records)))

	t.wg.Add(1)
	go t.persistLoop(ctx)

	return nil
}

// Add queues rec for persistence. A full buffer drops the record.
func (t *Tracker) Add(rec *types.TransactionRecord) {
	if rec == nil {
		return
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		DroppedTotal.Inc()
		t.logger.Warn("tracker-closed-record-dropped", zap.String("tx-hash", rec.Hash.Hex()))
		return
	}

	select {
	case t.records <- rec:
		QueueDepth.Set(float64(len(t.records)))
	default:
		DroppedTotal.Inc()
		t.logger.Warn("tracker-buffer-full-record-dropped",
			zap.String("tx-hash", rec.Hash.Hex()),
			zap.Int("buffer-size", cap(t.records)))
	}
}

// persistLoop drains the buffer into the store.
func (t *Tracker) persistLoop(ctx context.Context) {
	defer t.wg.Done()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("tracker-stopping", zap.Int("pending", len(t.records)))
			return
		case rec, ok := <-t.records:
			if !ok {
				t.logger.Info("tracker-channel-closed")
				return
			}

			QueueDepth.Set(float64(len(t.records)))
			t.persist(ctx, rec)
		}
	}
}

func (t *Tracker) persist(ctx context.Context, rec *types.TransactionRecord) {
	storeCtx, cancel := context.WithTimeout(ctx, t.storeTimeout)
	defer cancel()

	err := t.store.StoreTransaction(storeCtx, rec)
	if err != nil {
		RecordsTotal.WithLabelValues("failed").Inc()
		t.logger.Error("transaction-record-store-failed",
			zap.String("record-id", rec.ID),
			zap.String("tx-hash", rec.Hash.Hex()),
			zap.Error(err))
		return
	}

	RecordsTotal.WithLabelValues("stored").Inc()
	t.logger.Debug("transaction-record-stored",
		zap.String("record-id", rec.ID),
		zap.String("tx-hash", rec.Hash.Hex()))
}

// Close stops accepting records, persists what is buffered, then closes the store.
func (t *Tracker) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	close(t.records)
	t.mu.Unlock()

	t.wg.Wait()

	t.logger.Info("tracker-closed")
	return t.store.Close()
}
