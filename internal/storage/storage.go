package storage

import (
	"context"

	"github.com/mselser95/overlay-build/pkg/types"
)

// Storage persists records of submitted transactions.
type Storage interface {
	// StoreTransaction stores a transaction record.
	StoreTransaction(ctx context.Context, rec *types.TransactionRecord) error

	// Close closes the storage connection.
	Close() error
}
