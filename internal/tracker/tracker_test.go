package tracker

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	mu      sync.Mutex
	records []*types.TransactionRecord
	err     error
	block   chan struct{}
	closed  bool
}

func (s *fakeStore) StoreTransaction(ctx context.Context, rec *types.TransactionRecord) error {
	if s.block != nil {
		<-s.block
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, rec)
	return nil
}

func (s *fakeStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func record(n int64) *types.TransactionRecord {
	return types.NewTransactionRecord(
		common.BigToHash(big.NewInt(n)),
		types.KindBuildPosition,
		common.HexToAddress("0x4000000000000000000000000000000000000004"),
		common.HexToAddress("0x3000000000000000000000000000000000000003"),
		big.NewInt(n),
		types.SideLong,
		2,
		time.Now(),
	)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)

	_, err = New(&Config{})
	assert.Error(t, err)

	tr, err := New(&Config{Store: &fakeStore{}})
	require.NoError(t, err)
	assert.Equal(t, DefaultBufferSize, cap(tr.records))
}

func TestTracker_PersistsRecords(t *testing.T) {
	store := &fakeStore{}
	tr, err := New(&Config{Store: store, BufferSize: 8, Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))

	for i := int64(1); i <= 3; i++ {
		tr.Add(record(i))
	}

	require.NoError(t, tr.Close())
	assert.Equal(t, 3, store.count())
	assert.True(t, store.closed)
	assert.Equal(t, int64(1), store.records[0].Collateral.Int64())
}

func TestTracker_FullBufferDrops(t *testing.T) {
	store := &fakeStore{block: make(chan struct{})}
	tr, err := New(&Config{Store: store, BufferSize: 1, Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))

	before := testutil.ToFloat64(DroppedTotal)

	// the loop takes the first record and blocks in the store
	tr.Add(record(1))
	require.Eventually(t, func() bool { return len(tr.records) == 0 }, time.Second, 5*time.Millisecond)

	tr.Add(record(2))

	done := make(chan struct{})
	go func() {
		tr.Add(record(3))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Add blocked on a full buffer")
	}

	assert.Equal(t, before+1, testutil.ToFloat64(DroppedTotal))

	close(store.block)
	require.NoError(t, tr.Close())
	assert.Equal(t, 2, store.count())
}

func TestTracker_AddAfterClose(t *testing.T) {
	tr, err := New(&Config{Store: &fakeStore{}, Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))
	require.NoError(t, tr.Close())

	before := testutil.ToFloat64(DroppedTotal)
	assert.NotPanics(t, func() { tr.Add(record(1)) })
	assert.Equal(t, before+1, testutil.ToFloat64(DroppedTotal))

	assert.NoError(t, tr.Close(), "second close is a no-op")
}

func TestTracker_StoreErrorDoesNotStopLoop(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	tr, err := New(&Config{Store: store, Logger: zap.NewNop()})
	require.NoError(t, err)
	require.NoError(t, tr.Start(context.Background()))

	before := testutil.ToFloat64(RecordsTotal.WithLabelValues("failed"))
	tr.Add(record(1))
	tr.Add(record(2))
	require.NoError(t, tr.Close())

	assert.Equal(t, before+2, testutil.ToFloat64(RecordsTotal.WithLabelValues("failed")))
}

func TestTracker_ContextCancelStopsLoop(t *testing.T) {
	store := &fakeStore{}
	tr, err := New(&Config{Store: store, Logger: zap.NewNop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, tr.Start(ctx))
	cancel()

	done := make(chan struct{})
	go func() {
		_ = tr.Close()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close did not return after cancellation")
	}
}
