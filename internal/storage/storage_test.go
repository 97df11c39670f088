package storage

import (
	"bytes"
	"context"
	"io"
	"math/big"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ethereum/go-ethereum/common"
	"github.com/mselser95/overlay-build/pkg/cache"
	"github.com/mselser95/overlay-build/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testRecord(kind types.TransactionKind) *types.TransactionRecord {
	collateral, _ := new(big.Int).SetString("1500000000000000000", 10)

	return types.NewTransactionRecord(
		common.HexToHash("0xbeef"),
		kind,
		common.HexToAddress("0x4000000000000000000000000000000000000004"),
		common.HexToAddress("0x3000000000000000000000000000000000000003"),
		collateral,
		types.SideShort,
		3,
		time.Unix(1700000000, 0).UTC(),
	)
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	oldStdout := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestConsoleStorage_StoreTransaction(t *testing.T) {
	storage := NewConsoleStorage(zap.NewNop())
	rec := testRecord(types.KindBuildPosition)

	var err error
	output := captureStdout(t, func() {
		err = storage.StoreTransaction(context.Background(), rec)
	})

	require.NoError(t, err)
	assert.Contains(t, output, "TRANSACTION SUBMITTED")
	assert.Contains(t, output, rec.Hash.Hex())
	assert.Contains(t, output, "1.5 OVL")
	assert.Contains(t, output, "short")
	assert.Contains(t, output, "3x")
}

func TestConsoleStorage_StoreApproval(t *testing.T) {
	storage := NewConsoleStorage(zap.NewNop())

	output := captureStdout(t, func() {
		_ = storage.StoreTransaction(context.Background(), testRecord(types.KindApprove))
	})

	assert.Contains(t, output, string(types.KindApprove))
	assert.Contains(t, output, "Amount:")
	assert.NotContains(t, output, "Leverage:")
}

func TestConsoleStorage_Close(t *testing.T) {
	assert.NoError(t, NewConsoleStorage(zap.NewNop()).Close())
}

func TestPostgresStorage_StoreTransaction(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}
	rec := testRecord(types.KindBuildPosition)

	mock.ExpectExec("INSERT INTO transactions").
		WithArgs(
			rec.ID,
			rec.Hash.Hex(),
			"open-leveraged-position",
			rec.From.Hex(),
			rec.Market.Hex(),
			"1500000000000000000",
			false,
			int64(3),
			sqlmock.AnyArg(), // submitted_at
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err = storage.StoreTransaction(context.Background(), rec)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_StoreTransaction_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}

	mock.ExpectExec("INSERT INTO transactions").
		WillReturnError(sqlmock.ErrCancelled)

	err = storage.StoreTransaction(context.Background(), testRecord(types.KindApprove))
	require.Error(t, err)
	assert.ErrorIs(t, err, sqlmock.ErrCancelled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStorage_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	storage := &PostgresStorage{db: db, logger: zap.NewNop()}
	mock.ExpectClose()

	assert.NoError(t, storage.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewPostgresStorage_ConnectionSuccess(t *testing.T) {
	t.Skip("Requires actual PostgreSQL database")

	storage, err := NewPostgresStorage(&PostgresConfig{
		Host:     "localhost",
		Port:     "5432",
		User:     "test",
		Password: "test",
		Database: "test_db",
		SSLMode:  "disable",
		Logger:   zap.NewNop(),
	})
	require.NoError(t, err)
	storage.Close()
}

func newMemoryStorage(t *testing.T) *MemoryStorage {
	t.Helper()

	c, err := cache.NewRistrettoCache(cache.DefaultRistrettoConfig(100, zap.NewNop()))
	require.NoError(t, err)

	storage, err := NewMemoryStorage(&MemoryConfig{Cache: c, Logger: zap.NewNop()})
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })

	return storage
}

func TestNewMemoryStorage_Validation(t *testing.T) {
	_, err := NewMemoryStorage(nil)
	assert.Error(t, err)

	_, err = NewMemoryStorage(&MemoryConfig{})
	assert.Error(t, err)
}

func TestMemoryStorage_RoundTrip(t *testing.T) {
	storage := newMemoryStorage(t)
	rec := testRecord(types.KindBuildPosition)

	require.NoError(t, storage.StoreTransaction(context.Background(), rec))

	got, err := storage.GetTransaction(context.Background(), rec.Hash)
	require.NoError(t, err)
	assert.Same(t, rec, got)

	_, err = storage.GetTransaction(context.Background(), common.HexToHash("0x01"))
	assert.ErrorIs(t, err, ErrNotFound)
}

type rejectingCache struct {
	waited bool
}

func (c *rejectingCache) Get(key string) (interface{}, bool) { return nil, false }
func (c *rejectingCache) Set(key string, value interface{}, ttl time.Duration) bool {
	return false
}
func (c *rejectingCache) Wait()  { c.waited = true }
func (c *rejectingCache) Close() {}

func TestMemoryStorage_RejectedWrite(t *testing.T) {
	c := &rejectingCache{}
	storage, err := NewMemoryStorage(&MemoryConfig{Cache: c, Logger: zap.NewNop()})
	require.NoError(t, err)

	rec := testRecord(types.KindBuildPosition)

	err = storage.StoreTransaction(context.Background(), rec)
	assert.ErrorIs(t, err, ErrCacheRejected)
	assert.False(t, c.waited)

	_, err = storage.GetTransaction(context.Background(), rec.Hash)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_Interface(t *testing.T) {
	var _ Storage = NewConsoleStorage(zap.NewNop())

	db, _, _ := sqlmock.New()
	defer db.Close()

	var _ Storage = &PostgresStorage{db: db, logger: zap.NewNop()}
	var _ Storage = newMemoryStorage(t)
}
